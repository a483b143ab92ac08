// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package object

import "errors"

var (
	// ErrInvariantViolated reports that Encode was asked to serialize an
	// Object whose Size/Payload pair breaks the §3 invariant.
	ErrInvariantViolated = errors.New("object: size/payload invariant violated")

	// ErrBufferCharacterDecoding reports that a header is not valid UTF-8.
	ErrBufferCharacterDecoding = errors.New("object: header is not valid utf-8")

	// ErrJSONSyntax reports a malformed JSON header.
	ErrJSONSyntax = errors.New("object: json syntax error")

	// ErrJSONSemantics reports a syntactically valid header whose shape the
	// decoder cannot accept: a non-object root, or a reserved key ("event",
	// "type", "size") whose value has the wrong JSON type to be extracted
	// and therefore cannot be represented at all (reserved keys never
	// appear inside metadata).
	ErrJSONSemantics = errors.New("object: json semantics error")
)
