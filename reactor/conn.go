// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reactor

import (
	"errors"
	"time"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/rabboe/object"
	"code.hybscloud.com/rabboe/stream"
	"code.hybscloud.com/rabboe/subscription"
)

// connState is the per-connection state machine from spec.md §4.C:
//
//	          accept
//	    ∅ ─────────────▶ unsubscribed
//	                         │   first object == routing/subscribe (valid)
//	                         ▼
//	                     subscribed ──── any object ──▶ subscribed
//	                         │
//	  error / hup / bad handshake / decode error
//	                         ▼
//	                      closed
type connState uint8

const (
	stateUnsubscribed connState = iota
	stateSubscribed
	stateClosed
)

// conn is one accepted connection's full record: socket, read buffer,
// outbound queue, subscription, liveness timestamp and reactor interest,
// per spec.md §3 "Connection record". It is owned exclusively by the
// reactor's connection table; nothing else holds a persistent reference to
// it (spec.md §3 "Ownership").
type conn struct {
	token    Token
	fd       int
	peerAddr string
	io       rawIO

	state        connState
	subscription subscription.Matcher

	reader *stream.Reader

	// outbound FIFO. head is the index of the oldest not-yet-fully-sent
	// object; entries before head are stale and compacted away
	// periodically to bound memory.
	outbox []*object.Object
	head   int

	// pendingWire is the encoded form of outbox[head] while it is being
	// written across multiple on_writable calls; pendingOff is how much of
	// it has already been written. Retaining this tail instead of
	// panicking on a short write is the §9 "Partial writes" fix.
	pendingWire []byte
	pendingOff  int

	currentInterest interest
	lastActivity    time.Time
}

func newConn(token Token, fd int, peerAddr string, io rawIO, readBufInitialCap int, maxFrameBytes int64) *conn {
	return &conn{
		token:           token,
		fd:              fd,
		peerAddr:        peerAddr,
		io:              io,
		state:           stateUnsubscribed,
		reader:          stream.New(readBufInitialCap, maxFrameBytes),
		currentInterest: interestReadable,
		lastActivity:    time.Now(),
	}
}

// touch updates the liveness timestamp (spec.md §4.C "touch()").
func (c *conn) touch() { c.lastActivity = time.Now() }

// onReadable drives the framed stream reader (§4.B) over as many
// non-blocking reads as are currently available, then extracts whatever
// complete objects resulted. A non-nil error means the connection must be
// torn down; objects already extracted before the error are still
// returned and should still be routed (they were validly framed).
func (c *conn) onReadable() ([]*object.Object, error) {
	var buf [16 * 1024]byte
	for {
		n, err := c.io.Read(buf[:])
		if n > 0 {
			c.reader.Feed(buf[:n])
		}
		if err != nil {
			if errors.Is(err, iox.ErrWouldBlock) {
				break
			}
			objs, extractErr := c.reader.Extract()
			if extractErr != nil {
				return objs, extractErr
			}
			return objs, err
		}
	}
	return c.reader.Extract()
}

// send enqueues obj for delivery and arms writable interest (§4.C
// "send(obj)"). obj is shared by reference, never copied: every peer
// enqueues the same *object.Object handle, consistent with the §9
// borrowing note (decoded objects are immutable after decode).
func (c *conn) send(obj *object.Object) {
	c.outbox = append(c.outbox, obj)
	c.currentInterest |= interestWritable
}

// onWritable drains the outbound queue until it would block or is empty,
// encoding and writing one object at a time. Edge-triggered one-shot
// readiness means a writable edge only fires once per transition to
// writable; draining fully here (rather than writing a single object and
// waiting for the next edge) is required to avoid starving the queue when
// the socket send buffer has room for more than one message per edge.
func (c *conn) onWritable() error {
	for {
		if c.head >= len(c.outbox) {
			c.outbox = nil
			c.head = 0
			c.currentInterest &^= interestWritable
			return nil
		}

		if c.pendingWire == nil {
			wire, err := object.Encode(c.outbox[c.head])
			if err != nil {
				// Malformed outbound object: drop it and move on rather
				// than wedging the whole queue behind it.
				c.head++
				continue
			}
			c.pendingWire = wire
			c.pendingOff = 0
		}

		n, err := c.io.Write(c.pendingWire[c.pendingOff:])
		c.pendingOff += n
		if err != nil {
			if errors.Is(err, iox.ErrWouldBlock) {
				// Zero (or partial) progress; keep writable interest
				// armed and retry on the next writable event.
				return nil
			}
			return err
		}

		if c.pendingOff < len(c.pendingWire) {
			// Partial write: retain the unwritten tail and wait for the
			// next writable event instead of assuming a full write.
			return nil
		}

		c.pendingWire = nil
		c.pendingOff = 0
		c.head++
		if c.head > 256 && c.head*2 > len(c.outbox) {
			c.outbox = append(c.outbox[:0], c.outbox[c.head:]...)
			c.head = 0
		}
	}
}
