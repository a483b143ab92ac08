// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reactor

import "time"

// interest is a subset of {readable, writable}; hup/error are reported by
// the poller unconditionally and need no registration (spec.md §3
// "Connection record": "interest mask (subset of {readable, writable,
// hup})" — hup is always delivered, never armed for).
type interest uint8

const (
	interestReadable interest = 1 << iota
	interestWritable
)

// event is one readiness notification for one token.
type event struct {
	token    Token
	readable bool
	writable bool
	hup      bool
	errored  bool
}

// poller is the reactor's edge-triggered, one-shot readiness backend.
// reactor_linux.go implements it over epoll; other platforms get a stub
// that fails at construction time (see reactor_unsupported.go), the same
// pattern the teacher package uses for its internal/bo architecture split.
type poller interface {
	// Add registers fd under token with the given interest, one-shot.
	Add(fd int, token Token, mask interest) error
	// Modify re-arms fd's interest. Must be called after every delivered
	// event for that token, or the token will not fire again.
	Modify(fd int, token Token, mask interest) error
	// Remove deregisters fd. Safe to call even if fd was never added.
	Remove(fd int) error
	// Wait blocks up to timeout for readiness events, writing up to
	// len(out) of them into out and returning how many were written.
	Wait(out []event, timeout time.Duration) (int, error)
	Close() error
}
