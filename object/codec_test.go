package object_test

import (
	"bytes"
	"errors"
	"testing"

	"code.hybscloud.com/rabboe/object"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	metadata := map[string]any{
		"natures":      []any{"chat", "system"},
		"subscriptions": []any{"*"},
	}
	o := &object.Object{
		Event:    strPtr("note"),
		Metadata: metadata,
	}
	payload := []byte("hello")
	withPayload := o.WithPayload("text/plain", payload)

	wire, err := object.Encode(withPayload)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	nul := bytes.IndexByte(wire, 0)
	if nul < 0 {
		t.Fatalf("wire form missing NUL separator")
	}
	header := wire[:nul]
	body := wire[nul+1:]

	got, err := object.DecodeHeader(header)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	got.Payload = body

	if !got.Equal(withPayload) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, withPayload)
	}
	if !bytes.Equal(got.Payload, payload) {
		t.Fatalf("payload mismatch: got %q want %q", got.Payload, payload)
	}
}

func TestEncodeNoPayload(t *testing.T) {
	o := object.New("ping")
	wire, err := object.Encode(o)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if wire[len(wire)-1] != 0 {
		t.Fatalf("expected frame to end with NUL when there is no payload")
	}
}

func TestEncodeInvariantViolated(t *testing.T) {
	size := int64(5)
	bad := &object.Object{Event: strPtr("note"), Size: &size, Payload: nil}
	if _, err := object.Encode(bad); !errors.Is(err, object.ErrInvariantViolated) {
		t.Fatalf("err=%v, want ErrInvariantViolated", err)
	}

	bad2 := &object.Object{Event: strPtr("note"), Size: &size, Payload: []byte("abc")}
	if _, err := object.Encode(bad2); !errors.Is(err, object.ErrInvariantViolated) {
		t.Fatalf("err=%v, want ErrInvariantViolated (length mismatch)", err)
	}
}

func TestDecodeHeaderReservedKeysNeverInMetadata(t *testing.T) {
	header := []byte(`{"event":"ping","type":"text/plain","size":0,"id":"x1"}`)
	got, err := object.DecodeHeader(header)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if !got.EventIs("ping") {
		t.Fatalf("expected event ping, got %v", got.Event)
	}
	if got.Type == nil || *got.Type != "text/plain" {
		t.Fatalf("expected type text/plain, got %v", got.Type)
	}
	if got.Size != nil {
		t.Fatalf("size:0 must be treated as absent, got %v", *got.Size)
	}
	for _, reserved := range []string{"event", "type", "size"} {
		if _, ok := got.Metadata[reserved]; ok {
			t.Fatalf("reserved key %q leaked into metadata", reserved)
		}
	}
	if id, ok := got.MetadataString("id"); !ok || id != "x1" {
		t.Fatalf("expected metadata id=x1, got %v ok=%v", id, ok)
	}
}

func TestDecodeHeaderRootNotObject(t *testing.T) {
	_, err := object.DecodeHeader([]byte(`[1,2,3]`))
	if !errors.Is(err, object.ErrJSONSemantics) {
		t.Fatalf("err=%v, want ErrJSONSemantics", err)
	}
}

func TestDecodeHeaderSyntaxError(t *testing.T) {
	_, err := object.DecodeHeader([]byte(`{event:"x"}`))
	if !errors.Is(err, object.ErrJSONSyntax) {
		t.Fatalf("err=%v, want ErrJSONSyntax", err)
	}
}

func TestDecodeHeaderWrongTypedReservedField(t *testing.T) {
	cases := [][]byte{
		[]byte(`{"event":123}`),
		[]byte(`{"type":true}`),
		[]byte(`{"size":"5"}`),
		[]byte(`{"size":-1}`),
	}
	for _, c := range cases {
		if _, err := object.DecodeHeader(c); !errors.Is(err, object.ErrJSONSemantics) {
			t.Errorf("input %s: err=%v, want ErrJSONSemantics", c, err)
		}
	}
}

func TestDecodeHeaderInvalidUTF8(t *testing.T) {
	_, err := object.DecodeHeader([]byte{0xff, 0xfe, 0xfd})
	if !errors.Is(err, object.ErrBufferCharacterDecoding) {
		t.Fatalf("err=%v, want ErrBufferCharacterDecoding", err)
	}
}

func TestNaturesDropsNonStringsAndDefaultsEmpty(t *testing.T) {
	o := &object.Object{Metadata: map[string]any{"natures": []any{"chat", 5, "system", true}}}
	got := o.Natures()
	want := []string{"chat", "system"}
	if len(got) != len(want) {
		t.Fatalf("Natures()=%v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Natures()=%v, want %v", got, want)
		}
	}

	empty := &object.Object{Metadata: map[string]any{}}
	if n := empty.Natures(); len(n) != 0 {
		t.Fatalf("Natures() on missing key = %v, want empty", n)
	}
}

func strPtr(s string) *string { return &s }
