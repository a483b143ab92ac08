// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package object

import (
	"fmt"
	"unicode/utf8"

	"github.com/goccy/go-json"
)

// Wire format (see router §4.A):
//
//	<JSON-UTF8 header> 0x00 <payload bytes, exactly *Size of them>
//
// DecodeHeader consumes the header portion only (the bytes up to, but not
// including, the NUL terminator); the framed stream reader (package stream)
// is responsible for locating the NUL and for buffering the payload before
// attaching it. Encode produces the full wire byte sequence in one call.

// DecodeHeader parses a JSON object header and returns an Object with Event,
// Type, Size and Metadata populated. Payload is always nil; the caller
// attaches payload bytes once it has buffered *Size of them.
func DecodeHeader(header []byte) (*Object, error) {
	if !utf8.Valid(header) {
		return nil, ErrBufferCharacterDecoding
	}

	var v any
	if err := json.Unmarshal(header, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJSONSyntax, err)
	}

	root, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: header root is not a JSON object", ErrJSONSemantics)
	}

	obj := &Object{Metadata: make(map[string]any, len(root))}
	for key, val := range root {
		switch key {
		case "event":
			s, ok := val.(string)
			if !ok {
				return nil, fmt.Errorf("%w: \"event\" must be a string", ErrJSONSemantics)
			}
			obj.Event = &s
		case "type":
			s, ok := val.(string)
			if !ok {
				return nil, fmt.Errorf("%w: \"type\" must be a string", ErrJSONSemantics)
			}
			obj.Type = &s
		case "size":
			n, ok := val.(float64)
			if !ok || n < 0 || n != float64(int64(n)) {
				return nil, fmt.Errorf("%w: \"size\" must be a non-negative integer", ErrJSONSemantics)
			}
			size := int64(n)
			if size > 0 {
				// size == 0 is treated as absent; see §9 Open Questions.
				obj.Size = &size
			}
		default:
			obj.Metadata[key] = val
		}
	}
	return obj, nil
}

// Encode serializes o to its full wire byte sequence: JSON header, NUL,
// payload. It fails with ErrInvariantViolated if o's Size/Payload pair is
// inconsistent (see Object.Validate).
func Encode(o *Object) ([]byte, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	header := make(map[string]any, len(o.Metadata)+3)
	for k, v := range o.Metadata {
		header[k] = v
	}
	if o.Event != nil {
		header["event"] = *o.Event
	}
	if o.Type != nil {
		header["type"] = *o.Type
	}
	if o.HasPayload() {
		header["size"] = *o.Size
	}

	hdrBytes, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("object: encoding header: %w", err)
	}

	out := make([]byte, 0, len(hdrBytes)+1+len(o.Payload))
	out = append(out, hdrBytes...)
	out = append(out, 0)
	out = append(out, o.Payload...)
	return out, nil
}

// WithPayload returns o with Type, Size and Payload set to describe the
// given non-empty payload. It is a convenience for building outbound
// objects; it does not mutate o.
func (o *Object) WithPayload(payloadType string, payload []byte) *Object {
	n := &Object{Event: o.Event, Type: &payloadType, Metadata: o.Metadata}
	if len(payload) > 0 {
		size := int64(len(payload))
		n.Size = &size
		n.Payload = payload
	}
	return n
}
