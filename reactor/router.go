// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reactor

import (
	"log/slog"

	"code.hybscloud.com/rabboe/object"
	"code.hybscloud.com/rabboe/subscription"
)

// route dispatches one decoded object arriving on c according to spec.md
// §4.C/§4.E/§4.F. It never blocks and never itself closes c; a handshake or
// protocol violation is reported back to the caller via the returned bool,
// which tells the caller (reactor.go) to tear the connection down after this
// call returns, consistent with "iteration-then-teardown": fan-out targets
// that fail to re-arm are collected in failedTokens and closed only once the
// fan-out loop below has finished running, never mid-iteration.
func (s *Server) route(c *conn, obj *object.Object) (closeConn bool) {
	switch c.state {
	case stateUnsubscribed:
		return s.routeHandshake(c, obj)
	case stateSubscribed:
		c.touch()
		return s.routeSubscribed(c, obj)
	default:
		return true
	}
}

// routeHandshake implements spec.md §4.F: the first object a connection
// sends must be routing/subscribe carrying metadata["subscriptions"] in the
// grammar subscription.Parse understands. Anything else, or a malformed filter,
// ends the connection — there is no retry inside the unsubscribed state.
func (s *Server) routeHandshake(c *conn, obj *object.Object) (closeConn bool) {
	if !obj.EventIs(eventSubscribe) {
		s.logger.Warn("handshake violation: first object was not routing/subscribe",
			slog.String("peer", c.peerAddr), slog.Any("event", obj.Event))
		return true
	}

	raw, ok := obj.Metadata["subscriptions"]
	if !ok {
		s.logger.Warn("handshake violation: missing subscriptions", slog.String("peer", c.peerAddr))
		return true
	}
	matcher, err := subscription.Parse(raw)
	if err != nil {
		s.logger.Warn("handshake violation: invalid subscriptions",
			slog.String("peer", c.peerAddr), slog.Any("err", err))
		return true
	}

	c.subscription = matcher
	c.state = stateSubscribed
	c.touch()
	c.send(subscribeReply(matcher, obj))
	return false
}

// routeSubscribed handles every object from an already-subscribed peer:
// ping/pong liveness, in-place re-subscription, and ordinary fan-out.
func (s *Server) routeSubscribed(c *conn, obj *object.Object) (closeConn bool) {
	switch {
	case obj.EventIs(eventPing):
		s.handlePing(c, obj)
		return false
	case obj.EventIs(eventSubscribe):
		raw, ok := obj.Metadata["subscriptions"]
		if !ok {
			s.logger.Warn("resubscribe rejected: missing subscriptions", slog.String("peer", c.peerAddr))
			return false
		}
		matcher, err := subscription.Parse(raw)
		if err != nil {
			s.logger.Warn("resubscribe rejected: invalid subscriptions",
				slog.String("peer", c.peerAddr), slog.Any("err", err))
			return false
		}
		c.subscription = matcher
		c.send(subscribeReply(matcher, obj))
		return false
	default:
		s.fanOut(obj)
		return false
	}
}

// handlePing implements spec.md §4.E step 1: a ping is answered with a pong
// only if the connection's own subscription matches(nil, "pong", nil) — the
// same gate the liveness sweep's synthetic probe goes through, so an idle
// connection whose filter does not care about pongs is never sent one.
func (s *Server) handlePing(c *conn, ping *object.Object) {
	if c.subscription == nil || !c.subscription.Matches(nil, &pongEvent, nil) {
		return
	}
	c.send(pongReply(ping))
}

// fanOut delivers obj to every currently subscribed connection whose filter
// matches, including the sender (spec.md §4.E does not exempt self-delivery;
// a peer subscribed to its own published natures receives its own object
// back, same as any other subscriber). Unsubscribed peers are skipped, not
// treated as a fatal error — the §9 REDESIGN FLAG fix for the original's
// "break" bug that aborted the whole fan-out on the first unsubscribed peer
// it encountered.
func (s *Server) fanOut(obj *object.Object) {
	natures := obj.Natures()
	var failedTokens []Token

	for tok, peer := range s.conns {
		if peer.state != stateSubscribed || peer.subscription == nil {
			continue
		}
		if !peer.subscription.Matches(natures, obj.Event, obj.Type) {
			continue
		}
		peer.send(obj)
		if err := s.p.Modify(peer.fd, peer.token, peer.currentInterest); err != nil {
			s.logger.Warn("fan-out: failed to re-arm peer, scheduling close",
				slog.String("peer", peer.peerAddr), slog.Any("err", err))
			failedTokens = append(failedTokens, tok)
		}
	}

	for _, tok := range failedTokens {
		s.closeConn(tok)
	}
}

// rearm re-arms c's poller interest. handleEvent calls this once per event
// after processing is done; the liveness sweep calls it directly for
// connections other than the one currently being handled (fanOut re-arms
// peers with its own Modify call so it can defer their closing). Failure means
// the fd is no longer valid and the connection is closed.
func (s *Server) rearm(c *conn) {
	if err := s.p.Modify(c.fd, c.token, c.currentInterest); err != nil {
		s.logger.Warn("failed to re-arm connection, closing",
			slog.String("peer", c.peerAddr), slog.Any("err", err))
		s.closeConn(c.token)
	}
}
