// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stream

import "errors"

// ErrFrameTooLong reports that an inbound frame's header or declared
// payload length exceeds the Reader's configured maxFrameBytes.
var ErrFrameTooLong = errors.New("stream: frame exceeds maximum size")
