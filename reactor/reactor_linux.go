// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package reactor

import (
	"errors"
	"time"

	"golang.org/x/sys/unix"
)

// epollPoller implements poller over Linux epoll in edge-triggered, one-shot
// mode (EPOLLET|EPOLLONESHOT), matching spec.md §4.D. Fd.data stores the
// Token rather than the raw fd, so a closed-and-reused fd can never be
// mistaken for a stale registration racing through the ready queue.
type epollPoller struct {
	epfd int
}

func newPoller() (poller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollPoller{epfd: fd}, nil
}

func toEpollMask(mask interest) uint32 {
	m := uint32(unix.EPOLLET) | unix.EPOLLONESHOT
	if mask&interestReadable != 0 {
		m |= unix.EPOLLIN
	}
	if mask&interestWritable != 0 {
		m |= unix.EPOLLOUT
	}
	return m
}

func (p *epollPoller) Add(fd int, token Token, mask interest) error {
	ev := unix.EpollEvent{Events: toEpollMask(mask), Fd: int32(token)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev)
}

func (p *epollPoller) Modify(fd int, token Token, mask interest) error {
	ev := unix.EpollEvent{Events: toEpollMask(mask), Fd: int32(token)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &ev)
}

func (p *epollPoller) Remove(fd int) error {
	err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	if errors.Is(err, unix.EBADF) || errors.Is(err, unix.ENOENT) {
		return nil
	}
	return err
}

func (p *epollPoller) Wait(out []event, timeout time.Duration) (int, error) {
	raw := make([]unix.EpollEvent, len(out))
	ms := int(timeout / time.Millisecond)
	if timeout < 0 {
		ms = -1
	}

	n, err := unix.EpollWait(p.epfd, raw, ms)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return 0, nil
		}
		return 0, err
	}

	for i := 0; i < n; i++ {
		tok := Token(raw[i].Fd)
		out[i] = event{
			token:    tok,
			readable: raw[i].Events&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLERR) != 0,
			writable: raw[i].Events&unix.EPOLLOUT != 0,
			hup:      raw[i].Events&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0,
			errored:  raw[i].Events&unix.EPOLLERR != 0,
		}
	}
	return n, nil
}

func (p *epollPoller) Close() error {
	return unix.Close(p.epfd)
}
