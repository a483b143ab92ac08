// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package stream implements the framed stream reader: it turns an
// incrementally filled byte buffer for one connection into a sequence of
// decoded business objects, per router §4.B.
package stream

import (
	"bytes"

	"code.hybscloud.com/rabboe/object"
)

// Reader accumulates bytes read from one connection and extracts complete
// business objects as they become available. It holds no reference to the
// underlying socket; callers feed it bytes obtained elsewhere (see the
// reactor package's non-blocking read loop) and call Extract to drain
// whatever complete objects the buffer now contains.
//
// Reader is not safe for concurrent use; each connection owns exactly one.
type Reader struct {
	buf []byte

	// pending is the header of the object currently being assembled, once
	// its header has been parsed but its payload (if any) is still being
	// buffered. Re-parsing the header on every Extract call would be
	// wasteful for a large payload trickling in over many reads.
	pending *object.Object

	maxFrameBytes int64
}

// New returns a Reader whose internal buffer starts at initialCap bytes.
// maxFrameBytes caps the payload length accepted for a single object; zero
// means no cap.
func New(initialCap int, maxFrameBytes int64) *Reader {
	if initialCap <= 0 {
		initialCap = 4096
	}
	return &Reader{
		buf:           make([]byte, 0, initialCap),
		maxFrameBytes: maxFrameBytes,
	}
}

// Feed appends bytes read from the socket to the tail of the internal
// buffer. It does not itself attempt to extract objects; call Extract after
// feeding to do that.
func (r *Reader) Feed(p []byte) {
	r.buf = append(r.buf, p...)
}

// Buffered reports how many unconsumed bytes are currently held (useful for
// enforcing a per-connection memory ceiling from outside the package).
func (r *Reader) Buffered() int {
	return len(r.buf)
}

// Extract decodes as many complete objects as the buffered bytes allow and
// returns them in wire order. It returns a nil error and whatever objects
// were produced when the buffer ends mid-frame (the caller should wait for
// more readable events). It returns a non-nil error when the header cannot
// be decoded or a frame exceeds maxFrameBytes; the objects successfully
// extracted before the failure are still returned, but the caller must tear
// down the connection rather than calling Extract again (current policy,
// per §4.B).
func (r *Reader) Extract() ([]*object.Object, error) {
	var out []*object.Object
	for {
		if r.pending == nil {
			idx := bytes.IndexByte(r.buf, 0)
			if idx < 0 {
				if r.maxFrameBytes > 0 && int64(len(r.buf)) > r.maxFrameBytes {
					return out, ErrFrameTooLong
				}
				return out, nil
			}
			hdr, err := object.DecodeHeader(r.buf[:idx])
			if err != nil {
				return out, err
			}
			r.buf = r.buf[idx+1:]
			r.pending = hdr
		}

		need := int64(0)
		if r.pending.Size != nil {
			need = *r.pending.Size
		}
		if r.maxFrameBytes > 0 && need > r.maxFrameBytes {
			return out, ErrFrameTooLong
		}
		if int64(len(r.buf)) < need {
			return out, nil
		}

		if need > 0 {
			payload := make([]byte, need)
			copy(payload, r.buf[:need])
			r.pending.Payload = payload
			r.buf = r.buf[need:]
		}

		out = append(out, r.pending)
		r.pending = nil
	}
}
