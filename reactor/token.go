// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reactor

// Token identifies one socket inside the reactor's connection table: the
// listening socket or one accepted connection. Tokens are small integers,
// as described in spec.md's GLOSSARY.
type Token int32

// ListenerToken is reserved for the listening socket and is never assigned
// to an accepted connection (spec.md §4.D: "The listening socket's token is
// reserved and distinct from all connection tokens").
const ListenerToken Token = 0

const firstConnectionToken Token = 1
