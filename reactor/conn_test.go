// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reactor

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/rabboe/object"
)

// scriptedIO is a rawIO fake driven by a canned sequence of reads and
// writes, mirroring the framer package's own scriptedReader/scriptedWriter
// test fakes.
type scriptedIO struct {
	reads [][]byte
	// writeChunkLimit caps how many bytes a single Write call accepts,
	// simulating a partially-full socket send buffer. Zero means no limit.
	writeChunkLimit int
	written         bytes.Buffer
}

func (s *scriptedIO) Read(p []byte) (int, error) {
	if len(s.reads) == 0 {
		return 0, iox.ErrWouldBlock
	}
	chunk := s.reads[0]
	n := copy(p, chunk)
	if n < len(chunk) {
		s.reads[0] = chunk[n:]
	} else {
		s.reads = s.reads[1:]
	}
	return n, nil
}

func (s *scriptedIO) Write(p []byte) (int, error) {
	n := len(p)
	if s.writeChunkLimit > 0 && n > s.writeChunkLimit {
		n = s.writeChunkLimit
	}
	s.written.Write(p[:n])
	if n < len(p) {
		return n, iox.ErrWouldBlock
	}
	return n, nil
}

func mustEncodeObj(t *testing.T, o *object.Object) []byte {
	t.Helper()
	wire, err := object.Encode(o)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return wire
}

func TestConnOnReadableExtractsCompleteObjects(t *testing.T) {
	o := object.New("ping")
	wire := mustEncodeObj(t, o)

	sio := &scriptedIO{reads: [][]byte{wire}}
	c := newConn(1, -1, "peer", sio, 64, 1<<20)

	objs, err := c.onReadable()
	if err != nil {
		t.Fatalf("onReadable: %v", err)
	}
	if len(objs) != 1 || !objs[0].EventIs("ping") {
		t.Fatalf("got %+v", objs)
	}
}

func TestConnOnReadablePropagatesHardError(t *testing.T) {
	c := newConn(1, -1, "peer", errorIO{err: io.EOF}, 64, 1<<20)

	if _, err := c.onReadable(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}

type errorIO struct{ err error }

func (e errorIO) Read(p []byte) (int, error)  { return 0, e.err }
func (e errorIO) Write(p []byte) (int, error) { return 0, e.err }

func TestConnOnWritableDrainsEntireQueue(t *testing.T) {
	sio := &scriptedIO{}
	c := newConn(1, -1, "peer", sio, 64, 1<<20)

	a, b := object.New("a"), object.New("b")
	c.send(a)
	c.send(b)

	if err := c.onWritable(); err != nil {
		t.Fatalf("onWritable: %v", err)
	}
	if len(c.outbox) != 0 {
		t.Fatalf("expected queue fully drained, got %d remaining", len(c.outbox)-c.head)
	}

	wantA := mustEncodeObj(t, a)
	wantB := mustEncodeObj(t, b)
	want := append(append([]byte{}, wantA...), wantB...)
	if !bytes.Equal(sio.written.Bytes(), want) {
		t.Fatalf("written bytes mismatch:\n got  %q\n want %q", sio.written.Bytes(), want)
	}
	if c.currentInterest&interestWritable != 0 {
		t.Fatalf("writable interest should be cleared once queue is empty")
	}
}

func TestConnOnWritableRetainsPartialWriteAcrossCalls(t *testing.T) {
	sio := &scriptedIO{writeChunkLimit: 3}
	c := newConn(1, -1, "peer", sio, 64, 1<<20)
	o := object.New("a-fairly-long-event-name-so-the-wire-form-spans-several-chunks")
	c.send(o)

	wire := mustEncodeObj(t, o)

	for sio.written.Len() < len(wire) {
		if err := c.onWritable(); err != nil {
			t.Fatalf("onWritable: %v", err)
		}
		if c.pendingWire == nil && sio.written.Len() < len(wire) {
			t.Fatalf("pendingWire cleared before the object was fully written")
		}
	}

	if !bytes.Equal(sio.written.Bytes(), wire) {
		t.Fatalf("written bytes mismatch:\n got  %q\n want %q", sio.written.Bytes(), wire)
	}
}
