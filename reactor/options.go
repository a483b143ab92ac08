// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reactor

import (
	"log/slog"
	"time"
)

// Options configures a Server.
type Options struct {
	ListenAddr string

	MaxConns          int
	ReadBufInitialCap int
	MaxFrameBytes     int64

	// LivenessInterval is how often the liveness sweep runs; zero disables
	// it. LivenessTimeout is how long a subscribed connection may go without
	// activity before the sweep handles a synthetic ping on its behalf, which
	// queues a pong to it if its subscription matches "pong"; a connection
	// idle for more than twice LivenessTimeout is closed.
	LivenessInterval time.Duration
	LivenessTimeout  time.Duration

	PollTimeout time.Duration

	Logger *slog.Logger
}

var defaultOptions = Options{
	ListenAddr:        "127.0.0.1:7890",
	MaxConns:          1024,
	ReadBufInitialCap: 4096,
	MaxFrameBytes:     8 << 20,
	LivenessInterval:  30 * time.Second,
	LivenessTimeout:   90 * time.Second,
	PollTimeout:       time.Second,
}

type Option func(*Options)

func WithListenAddr(addr string) Option {
	return func(o *Options) { o.ListenAddr = addr }
}

func WithMaxConns(n int) Option {
	return func(o *Options) { o.MaxConns = n }
}

func WithReadBufInitialCap(n int) Option {
	return func(o *Options) { o.ReadBufInitialCap = n }
}

func WithMaxFrameBytes(n int64) Option {
	return func(o *Options) { o.MaxFrameBytes = n }
}

// WithLiveness sets the sweep interval and the idle timeout after which a
// connection is probed with an unsolicited pong (see Options). Passing zero
// for interval disables the sweep.
func WithLiveness(interval, timeout time.Duration) Option {
	return func(o *Options) {
		o.LivenessInterval = interval
		o.LivenessTimeout = timeout
	}
}

func WithPollTimeout(d time.Duration) Option {
	return func(o *Options) { o.PollTimeout = d }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}
