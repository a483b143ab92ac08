// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package subscription

import "errors"

// ErrInvalidSubscription reports that a subscriptions value could not be
// parsed by this package's grammar.
var ErrInvalidSubscription = errors.New("subscription: invalid subscription value")
