package subscription_test

import (
	"errors"
	"testing"

	"code.hybscloud.com/rabboe/subscription"
)

func strPtr(s string) *string { return &s }

func mustParse(t *testing.T, patterns ...string) subscription.Matcher {
	t.Helper()
	raw := make([]any, len(patterns))
	for i, p := range patterns {
		raw[i] = p
	}
	m, err := subscription.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return m
}

func TestWildcardMatchesAnything(t *testing.T) {
	m := mustParse(t, "*")
	if !m.Matches(nil, nil, nil) {
		t.Fatalf("wildcard should match an object with nothing set")
	}
	if !m.Matches([]string{"chat"}, strPtr("note"), strPtr("text/plain")) {
		t.Fatalf("wildcard should match a fully populated object")
	}
}

func TestEventPattern(t *testing.T) {
	m := mustParse(t, "@pong")
	if !m.Matches(nil, strPtr("pong"), nil) {
		t.Fatalf("expected @pong to match event pong")
	}
	if m.Matches(nil, strPtr("ping"), nil) {
		t.Fatalf("expected @pong to not match event ping")
	}
	if m.Matches(nil, nil, nil) {
		t.Fatalf("expected @pong to not match a missing event")
	}
}

func TestPayloadTypeGlob(t *testing.T) {
	m := mustParse(t, "%text/*")
	if !m.Matches(nil, nil, strPtr("text/plain")) {
		t.Fatalf("expected %%text/* to match text/plain")
	}
	if m.Matches(nil, nil, strPtr("application/json")) {
		t.Fatalf("expected %%text/* to not match application/json")
	}
}

func TestNaturePattern(t *testing.T) {
	m := mustParse(t, "chat")
	if !m.Matches([]string{"chat", "system"}, nil, nil) {
		t.Fatalf("expected nature pattern chat to match natures containing chat")
	}
	if m.Matches([]string{"other"}, nil, nil) {
		t.Fatalf("expected nature pattern chat to not match unrelated natures")
	}
}

func TestAnyPatternMatching(t *testing.T) {
	m := mustParse(t, "chat", "@pong")
	if !m.Matches([]string{"other"}, strPtr("pong"), nil) {
		t.Fatalf("expected match via the second pattern")
	}
	if m.Matches([]string{"other"}, strPtr("ping"), nil) {
		t.Fatalf("expected no match when neither pattern applies")
	}
}

func TestParseRejectsNonArray(t *testing.T) {
	if _, err := subscription.Parse("not-an-array"); !errors.Is(err, subscription.ErrInvalidSubscription) {
		t.Fatalf("err=%v, want ErrInvalidSubscription", err)
	}
}

func TestParseRejectsNonStringElements(t *testing.T) {
	if _, err := subscription.Parse([]any{"chat", 5}); !errors.Is(err, subscription.ErrInvalidSubscription) {
		t.Fatalf("err=%v, want ErrInvalidSubscription", err)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	m := mustParse(t, "*", "@ping", "chat")
	got, ok := m.JSON().([]any)
	if !ok || len(got) != 3 {
		t.Fatalf("JSON() = %v", m.JSON())
	}
	for i, want := range []string{"*", "@ping", "chat"} {
		if got[i] != want {
			t.Fatalf("JSON()[%d] = %v, want %v", i, got[i], want)
		}
	}
}
