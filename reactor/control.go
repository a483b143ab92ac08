// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reactor

import (
	"code.hybscloud.com/rabboe/object"
	"code.hybscloud.com/rabboe/subscription"
)

const (
	eventSubscribe      = "routing/subscribe"
	eventSubscribeReply = "routing/subscribe/reply"
	eventPing           = "ping"
	eventPong           = "pong"
)

// pongEvent is eventPong addressable as *string, for the
// Matcher.Matches(natures, event, payloadType) calls that gate ping
// handling on the connection's own subscription (spec.md §4.E step 1).
var pongEvent = eventPong

// subscribeReply builds the routing/subscribe/reply object described in
// spec.md §4.F: it carries the accepted subscription round-tripped through
// the filter's own JSON representation, plus in-reply-to when the request's
// metadata["id"] is a JSON string.
func subscribeReply(sub subscription.Matcher, request *object.Object) *object.Object {
	reply := object.New(eventSubscribeReply)
	reply.Metadata["subscriptions"] = sub.JSON()
	if id, ok := request.MetadataString("id"); ok {
		reply.Metadata["in-reply-to"] = id
	}
	return reply
}

// pongReply builds the pong reply to a ping, carrying in-reply-to copied
// from the ping's metadata["id"] under the same string-only rule.
func pongReply(request *object.Object) *object.Object {
	reply := object.New(eventPong)
	if id, ok := request.MetadataString("id"); ok {
		reply.Metadata["in-reply-to"] = id
	}
	return reply
}

// syntheticPing is the liveness sweep's server-originated probe (SPEC_FULL
// "liveness sweep"); it carries no id, so replies never set in-reply-to.
func syntheticPing() *object.Object {
	return object.New(eventPing)
}
