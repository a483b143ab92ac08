// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reactor

import (
	"io"

	"code.hybscloud.com/iox"
	"golang.org/x/sys/unix"
)

// rawIO is the non-blocking byte source/sink a connection reads from and
// writes to. Production connections implement it over a raw, non-blocking
// socket fd via fdIO; tests substitute a scripted fake. This mirrors the
// framer package's choice to operate over an abstract io.Reader/io.Writer
// rather than a concrete transport, adapted here to surface
// iox.ErrWouldBlock the same way framer's readOnce/writeOnce do.
type rawIO interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}

// fdIO is a rawIO backed directly by a non-blocking socket file descriptor,
// bypassing the runtime's own network poller since the reactor drives
// readiness itself via epoll (see reactor_linux.go).
type fdIO struct{ fd int }

// Read performs one non-blocking read(2). A would-block condition is
// reported as iox.ErrWouldBlock, matching framer's control-flow sentinel;
// a zero-byte result with no error signals EOF, per io.Reader convention
// applied to a closed-for-reading peer.
func (c fdIO) Read(p []byte) (int, error) {
	n, err := unix.Read(c.fd, p)
	if err != nil {
		if err == unix.EAGAIN {
			return 0, iox.ErrWouldBlock
		}
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Write performs one non-blocking write(2). A would-block condition (zero
// bytes accepted) is reported as iox.ErrWouldBlock.
func (c fdIO) Write(p []byte) (int, error) {
	n, err := unix.Write(c.fd, p)
	if err != nil {
		if err == unix.EAGAIN {
			return 0, iox.ErrWouldBlock
		}
		return n, err
	}
	return n, nil
}
