// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package subscription is the pluggable filter collaborator spec.md §3 and
// §9 delegate to: it parses a `subscriptions` metadata value into a Matcher
// and serializes it back for the subscribe-reply echo. The reactor package
// depends only on the Matcher interface, never on this package's internal
// representation, so a different grammar can be swapped in without
// touching routing logic.
//
// Grammar (one concrete, swappable choice — see spec.md §9 "Subscription
// filter semantics ... are delegated entirely to the external filter
// component"): a subscription is a JSON array of pattern strings. An object
// matches if any one pattern matches:
//
//   - "*"              matches everything.
//   - "@" + name        matches only the event name, exactly.
//   - "%" + glob         matches only the payload type, as a shell glob
//     (path.Match syntax: '*', '?', and '[...]' classes).
//   - anything else      matches a nature: exact string match against the
//     object's natures list.
package subscription

import (
	"fmt"
	"path"

	"github.com/goccy/go-json"
)

// Matcher evaluates whether an inbound object should be delivered to the
// subscription that produced it, per spec.md §3: matches(natures, event,
// payloadType) -> bool.
type Matcher interface {
	// Matches reports whether an object with the given natures, event and
	// payload type satisfies this subscription. event and payloadType are
	// nil when the object carries no such field.
	Matches(natures []string, event, payloadType *string) bool

	// JSON returns the subscription's own JSON representation, round-
	// tripped through its parser. Used verbatim as the "subscriptions"
	// field of a routing/subscribe/reply object (spec.md §4.F).
	JSON() any
}

type patternKind uint8

const (
	kindWildcard patternKind = iota
	kindEvent
	kindPayloadTypeGlob
	kindNature
)

type pattern struct {
	kind  patternKind
	value string
}

// set is the concrete Matcher grounded by this package's grammar.
type set struct {
	patterns []pattern
	raw      []string // original pattern strings, for JSON round-tripping
}

// Parse builds a Matcher from the JSON value found at
// metadata["subscriptions"] on a routing/subscribe object. raw must be a
// JSON array of strings; any other shape is rejected.
func Parse(raw any) (Matcher, error) {
	arr, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: subscriptions must be a JSON array", ErrInvalidSubscription)
	}

	s := &set{patterns: make([]pattern, 0, len(arr)), raw: make([]string, 0, len(arr))}
	for _, item := range arr {
		str, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%w: subscription pattern must be a string", ErrInvalidSubscription)
		}
		s.raw = append(s.raw, str)
		s.patterns = append(s.patterns, parsePattern(str))
	}
	return s, nil
}

func parsePattern(p string) pattern {
	switch {
	case p == "*":
		return pattern{kind: kindWildcard}
	case len(p) > 0 && p[0] == '@':
		return pattern{kind: kindEvent, value: p[1:]}
	case len(p) > 0 && p[0] == '%':
		return pattern{kind: kindPayloadTypeGlob, value: p[1:]}
	default:
		return pattern{kind: kindNature, value: p}
	}
}

func (s *set) Matches(natures []string, event, payloadType *string) bool {
	for _, p := range s.patterns {
		switch p.kind {
		case kindWildcard:
			return true
		case kindEvent:
			if event != nil && *event == p.value {
				return true
			}
		case kindPayloadTypeGlob:
			if payloadType != nil {
				if ok, _ := path.Match(p.value, *payloadType); ok {
					return true
				}
			}
		case kindNature:
			for _, n := range natures {
				if n == p.value {
					return true
				}
			}
		}
	}
	return false
}

func (s *set) JSON() any {
	out := make([]any, len(s.raw))
	for i, r := range s.raw {
		out[i] = r
	}
	return out
}

// MarshalForReply is a convenience wrapper for handlers that need the raw
// JSON bytes rather than an `any` tree (e.g. for logging).
func MarshalForReply(m Matcher) ([]byte, error) {
	return json.Marshal(m.JSON())
}
