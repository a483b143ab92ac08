// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reactor

import "errors"

var (
	// ErrServerClosed reports that the server has shut down. Run does not
	// return it: Run returns nil when its context is canceled.
	ErrServerClosed = errors.New("reactor: server closed")

	// ErrUnsupportedPlatform reports that no poller backend exists for the
	// current GOOS.
	ErrUnsupportedPlatform = errors.New("reactor: unsupported platform")
)
