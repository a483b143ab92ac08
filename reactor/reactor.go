// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package reactor implements the non-blocking, edge-triggered, one-shot TCP
// listener and connection table described in spec.md §4.D/§4.E: a single
// goroutine owns the listening socket, every accepted connection's state and
// the poller, and drives all I/O without blocking on any one peer.
package reactor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

// Server owns the listening socket, the poller and the full connection
// table. Nothing outside Run's goroutine touches this state, matching
// spec.md §3 "Ownership": the reactor is the sole owner of all connection
// records. ready and connCount are the exception: they are read from the
// health server's goroutine, so they are atomics rather than plain fields.
type Server struct {
	opts   Options
	logger *slog.Logger

	listenFd int
	p        poller

	conns     map[Token]*conn
	nextToken Token

	events []event

	lastSweep time.Time

	closed bool

	ready     atomic.Bool
	connCount atomic.Int64
}

// Ready reports whether the reactor's main loop is up and accepting
// connections. It implements health.ReadinessChecker.
func (s *Server) Ready() bool { return s.ready.Load() }

// Connections reports the current number of tracked connections.
func (s *Server) Connections() int64 { return s.connCount.Load() }

// New constructs a Server bound to opts.ListenAddr. The listening socket is
// created, bound and set non-blocking here; Run performs the accept/poll
// loop.
func New(opts ...Option) (*Server, error) {
	cfg := defaultOptions
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	fd, err := listenTCP(cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("reactor: listen %s: %w", cfg.ListenAddr, err)
	}

	p, err := newPoller()
	if err != nil {
		_ = unix.Close(fd)
		return nil, err
	}

	if err := p.Add(fd, ListenerToken, interestReadable); err != nil {
		_ = unix.Close(fd)
		_ = p.Close()
		return nil, fmt.Errorf("reactor: registering listener: %w", err)
	}

	return &Server{
		opts:      cfg,
		logger:    cfg.Logger.With("component", "reactor"),
		listenFd:  fd,
		p:         p,
		conns:     make(map[Token]*conn),
		nextToken: firstConnectionToken,
		events:    make([]event, 256),
		lastSweep: time.Now(),
	}, nil
}

// listenTCP creates a non-blocking, listening IPv4/IPv6 TCP socket bound to
// addr, mirroring what net.Listen does internally but keeping the raw fd so
// the reactor (not the Go runtime poller) drives its readiness.
func listenTCP(addr string) (int, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return -1, err
	}

	domain := unix.AF_INET
	if tcpAddr.IP != nil && tcpAddr.IP.To4() == nil {
		domain = unix.AF_INET6
	}

	fd, err := unix.Socket(domain, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		return -1, err
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return -1, err
	}

	if domain == unix.AF_INET {
		var sa unix.SockaddrInet4
		sa.Port = tcpAddr.Port
		if ip4 := tcpAddr.IP.To4(); ip4 != nil {
			copy(sa.Addr[:], ip4)
		}
		if err := unix.Bind(fd, &sa); err != nil {
			_ = unix.Close(fd)
			return -1, err
		}
	} else {
		var sa unix.SockaddrInet6
		sa.Port = tcpAddr.Port
		copy(sa.Addr[:], tcpAddr.IP.To16())
		if err := unix.Bind(fd, &sa); err != nil {
			_ = unix.Close(fd)
			return -1, err
		}
	}

	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		_ = unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

// Run is the reactor's main loop. It blocks until ctx is canceled or a
// fatal listener error occurs.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("reactor listening", slog.String("addr", s.opts.ListenAddr))
	s.ready.Store(true)
	defer s.shutdown()

	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := s.p.Wait(s.events, s.opts.PollTimeout)
		if err != nil {
			return fmt.Errorf("reactor: poll: %w", err)
		}

		for i := 0; i < n; i++ {
			s.handleEvent(s.events[i])
		}

		s.runLivenessSweep()
	}
}

func (s *Server) handleEvent(ev event) {
	if ev.token == ListenerToken {
		s.acceptLoop()
		if err := s.p.Modify(s.listenFd, ListenerToken, interestReadable); err != nil {
			s.logger.Error("failed to re-arm listener", slog.Any("err", err))
		}
		return
	}

	c, ok := s.conns[ev.token]
	if !ok {
		return
	}

	if ev.errored || ev.hup {
		s.closeConn(ev.token)
		return
	}

	if ev.readable {
		objs, err := c.onReadable()
		for _, o := range objs {
			if closeConn := s.route(c, o); closeConn {
				s.closeConn(ev.token)
				return
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Debug("peer closed connection", slog.String("peer", c.peerAddr))
			} else {
				s.logger.Warn("connection read error", slog.String("peer", c.peerAddr), slog.Any("err", err))
			}
			s.closeConn(ev.token)
			return
		}
	}

	if ev.writable {
		if err := c.onWritable(); err != nil {
			s.logger.Warn("connection write error", slog.String("peer", c.peerAddr), slog.Any("err", err))
			s.closeConn(ev.token)
			return
		}
	}

	if _, stillOpen := s.conns[ev.token]; stillOpen {
		s.rearm(c)
	}
}

// acceptLoop drains every pending connection on the listener in one pass,
// since edge-triggered readiness only signals the listener once per batch
// of arrivals.
func (s *Server) acceptLoop() {
	for {
		fd, sa, err := unix.Accept4(s.listenFd, unix.SOCK_NONBLOCK)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) {
				return
			}
			s.logger.Warn("accept error", slog.Any("err", err))
			return
		}

		if len(s.conns) >= s.opts.MaxConns {
			_ = unix.Close(fd)
			continue
		}

		token := s.nextToken
		s.nextToken++

		c := newConn(token, fd, peerAddrString(sa), fdIO{fd: fd}, s.opts.ReadBufInitialCap, s.opts.MaxFrameBytes)
		s.conns[token] = c

		if err := s.p.Add(fd, token, interestReadable); err != nil {
			s.logger.Warn("failed to register accepted connection", slog.Any("err", err))
			delete(s.conns, token)
			_ = unix.Close(fd)
			continue
		}
		s.connCount.Store(int64(len(s.conns)))
	}
}

func peerAddrString(sa unix.Sockaddr) string {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return fmt.Sprintf("%s:%d", net.IP(a.Addr[:]).String(), a.Port)
	case *unix.SockaddrInet6:
		return fmt.Sprintf("[%s]:%d", net.IP(a.Addr[:]).String(), a.Port)
	default:
		return "unknown"
	}
}

// closeConn tears down one connection and removes it from the table. Safe
// to call from within the fan-out loop's post-iteration cleanup or directly
// from handleEvent.
func (s *Server) closeConn(tok Token) {
	c, ok := s.conns[tok]
	if !ok {
		return
	}
	delete(s.conns, tok)
	_ = s.p.Remove(c.fd)
	_ = unix.Close(c.fd)
	s.connCount.Store(int64(len(s.conns)))
}

// runLivenessSweep implements the SPEC_FULL liveness sweep: subscribed
// connections idle longer than LivenessTimeout get a synthetic ping passed to
// handlePing (so a pong is queued only under the same matches(nil, "pong",
// nil) rule real pings use) without their own lastActivity being touched, so
// a silent peer is still closed once its idle time exceeds twice
// LivenessTimeout instead of being kept alive by the server's own probe.
// Unsubscribed connections are not swept.
func (s *Server) runLivenessSweep() {
	if s.opts.LivenessInterval <= 0 {
		return
	}
	now := time.Now()
	if now.Sub(s.lastSweep) < s.opts.LivenessInterval {
		return
	}
	s.lastSweep = now

	var dead []Token
	for tok, c := range s.conns {
		if c.state != stateSubscribed {
			continue
		}
		idle := now.Sub(c.lastActivity)
		if idle > 2*s.opts.LivenessTimeout {
			dead = append(dead, tok)
			continue
		}
		if idle > s.opts.LivenessTimeout {
			s.handlePing(c, syntheticPing())
			s.rearm(c)
		}
	}
	for _, tok := range dead {
		s.logger.Info("closing unresponsive connection", slog.Int("token", int(tok)))
		s.closeConn(tok)
	}
}

func (s *Server) shutdown() {
	if s.closed {
		return
	}
	s.closed = true
	s.ready.Store(false)
	for tok := range s.conns {
		s.closeConn(tok)
	}
	_ = s.p.Remove(s.listenFd)
	_ = unix.Close(s.listenFd)
	_ = s.p.Close()
}
