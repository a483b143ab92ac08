// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package object implements the business-object data model: a message with
// an optional control/domain event name, an optional MIME-like payload type,
// an optional binary payload, and a bag of opaque metadata.
//
// Object is the in-memory form; Encode/DecodeHeader (see codec.go) convert it to
// and from the wire representation described by the router's framing layer.
package object

import "bytes"

// Object is a single business message.
//
// Event, Type and Size are optional and represented as pointers so that
// "absent" is distinguishable from the JSON string "" or the integer 0.
// Size is present iff Payload is present and non-empty; see Validate.
type Object struct {
	Event *string
	Type  *string
	Size  *int64
	// Payload is opaque. nil means no payload. len(Payload) must equal
	// *Size whenever Size is non-nil and *Size > 0.
	Payload []byte

	// Metadata holds every other top-level JSON key, decoded as produced
	// by encoding/json's generic any-decoding rules (map[string]any,
	// []any, float64, string, bool, nil). Keys "event", "type" and "size"
	// never appear here: they are reserved and surface on the typed
	// fields above instead.
	Metadata map[string]any
}

// New returns an Object carrying the given event name and no metadata,
// type, size, or payload. Callers may mutate the returned Metadata map.
func New(event string) *Object {
	return &Object{Event: &event, Metadata: map[string]any{}}
}

// HasPayload reports whether o carries a non-empty payload, per the §3
// invariant size.is_some() && size > 0 <=> payload.is_some().
func (o *Object) HasPayload() bool {
	return o.Size != nil && *o.Size > 0
}

// Validate checks the size/payload invariant described on Object: a
// non-nil, positive Size must be matched by a Payload of
// exactly that length, and vice versa.
func (o *Object) Validate() error {
	hasSize := o.HasPayload()
	hasPayload := o.Payload != nil
	if hasSize != hasPayload {
		return ErrInvariantViolated
	}
	if hasPayload && int64(len(o.Payload)) != *o.Size {
		return ErrInvariantViolated
	}
	return nil
}

// Natures returns the strings stored under metadata["natures"] when that
// entry is a JSON array of strings. Non-string elements are dropped; a
// missing or wrong-typed entry yields an empty (non-nil) slice.
func (o *Object) Natures() []string {
	out := make([]string, 0)
	if o.Metadata == nil {
		return out
	}
	raw, ok := o.Metadata["natures"]
	if !ok {
		return out
	}
	arr, ok := raw.([]any)
	if !ok {
		return out
	}
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// EventIs reports whether o.Event is present and equal to name.
func (o *Object) EventIs(name string) bool {
	return o.Event != nil && *o.Event == name
}

// MetadataString returns o.Metadata[key] when it is a JSON string, and ok=false
// otherwise (missing key or wrong type). Used for the "id" -> "in-reply-to"
// echo rule shared by the subscribe and ping control handlers.
func (o *Object) MetadataString(key string) (string, bool) {
	if o.Metadata == nil {
		return "", false
	}
	v, ok := o.Metadata[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Equal implements the structural equality law from spec §8: equality over
// {event, type, size, payload} plus JSON-value equality over metadata.
func (o *Object) Equal(other *Object) bool {
	if o == nil || other == nil {
		return o == other
	}
	if !strPtrEqual(o.Event, other.Event) {
		return false
	}
	if !strPtrEqual(o.Type, other.Type) {
		return false
	}
	if !int64PtrEqual(o.Size, other.Size) {
		return false
	}
	if !bytes.Equal(o.Payload, other.Payload) {
		return false
	}
	return metadataEqual(o.Metadata, other.Metadata)
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func int64PtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func metadataEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !jsonValueEqual(av, bv) {
			return false
		}
	}
	return true
}

func jsonValueEqual(a, b any) bool {
	switch av := a.(type) {
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !jsonValueEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		return ok && metadataEqual(av, bv)
	default:
		return a == b
	}
}
