// Author: momentics <momentics@gmail.com>
package conn

import (
	"errors"
	"io"

	"github.com/corehttpd/corehttpd/api"
	"github.com/corehttpd/corehttpd/httpproto"
	"github.com/corehttpd/corehttpd/wsproto"
)

// ServeOne runs exactly one request through read-head -> dispatch ->
// write-response (spec §4.5). It returns whether the session may continue
// with another pipelined request, and whether it upgraded to WebSocket (in
// which case the WebSocket receive loop has already run to completion and
// the connection should simply be closed by the caller).
func (c *Connection) ServeOne(first bool) (keepAlive bool, upgraded bool) {
	c.resetForNextRequest()
	if first {
		c.ch.SetDeadline(c.deps.RequestTimeout)
	} else {
		c.ch.SetDeadline(c.deps.KeepAliveIdle)
	}

	req, _, err := httpproto.ParseHead(c.ch)
	if err != nil {
		c.rejectParseError(err)
		return false, false
	}
	c.req = req
	req.PeerIP = c.peerIP
	req.PeerPort = c.peerPort
	req.TLS = c.isTLS

	status := c.dispatch()
	if c.respState == api.RespWebSocket {
		return false, true
	}

	c.finalizeResponse()
	c.logAccess(status)

	return c.computeKeepAlive(), false
}

func (c *Connection) resetForNextRequest() {
	c.req = nil
	c.resp = nil
	c.respState = api.RespNotStarted
	c.headEmitted = false
	c.bodyReader = nil
	c.bytesSent = 0
	c.ch.ResetBuffer()
	c.readSnapshot = c.ch.BytesRead()
}

// dispatch implements spec §4.3's protocol, including the begin_request /
// authorization interleaving resolved as an Open Question in DESIGN.md:
// authorization runs first only when a binding is registered for the
// request's URI; otherwise begin_request is consulted before any default
// handling.
func (c *Connection) dispatch() int {
	cb := c.deps.Callbacks

	if authBinding, ok := c.deps.Registry.Lookup(api.KindAuth, c.req.LocalURI); ok {
		if authBinding.Auth != nil && authBinding.Auth(c, c.req) == 0 {
			c.writeMinimal(401)
			c.dirty = true
			return 401
		}
	} else if cb != nil && cb.BeginRequest != nil {
		if rc := cb.BeginRequest(c, c.req); rc != 0 {
			return rc
		}
	}

	if wsproto.IsUpgradeRequest(c.req) {
		if wsBinding, ok := c.deps.Registry.Lookup(api.KindWebSocket, c.req.LocalURI); ok {
			ok, err := c.upgrade(wsBinding)
			if err != nil || !ok {
				if c.respState == api.RespHeadSent {
					// The connect handler refused: upgrade emitted c.resp (403).
					return c.resp.Status
				}
				return 400
			}
			return 101
		}
	}

	if reqBinding, ok := c.deps.Registry.Lookup(api.KindRequest, c.req.LocalURI); ok && reqBinding.Request != nil {
		if rc := reqBinding.Request(c, c.req); rc != 0 {
			return rc
		}
	}

	return c.defaultNotFound()
}

// defaultNotFound is the fallback collaborator path (spec §6 "open_file" /
// "http_error"): a host may serve the URI from memory via OpenFile before
// falling through to a host-rendered or minimal 404.
func (c *Connection) defaultNotFound() int {
	cb := c.deps.Callbacks
	if cb != nil && cb.OpenFile != nil {
		if data, ok := cb.OpenFile(c, c.req.LocalURI); ok {
			c.WriteStatus(200)
			if _, err := c.Write(data); err != nil {
				c.dirty = true
			}
			return 200
		}
	}
	if cb != nil && cb.HTTPError != nil {
		if cb.HTTPError(c, 404) {
			return 404
		}
	}
	c.writeMinimal(404)
	return 404
}

// finalizeResponse ensures the response state is complete, draining any
// unread body bytes up to the configured cap (spec §4.5 "WriteResponse").
// Draining is unconditional but cheap: a handler that already consumed the
// whole body leaves bodyReader returning io.EOF immediately.
func (c *Connection) finalizeResponse() {
	if !c.headEmitted {
		c.ensureHeadEmitted(false)
	}
	if c.req != nil {
		c.drainBody()
	}
	if c.respState != api.RespWebSocket {
		c.respState = api.RespComplete
	}
}

func (c *Connection) drainBody() {
	if c.bodyReader == nil {
		c.initBodyReader()
	}
	limit := c.deps.MaxBodyDiscard
	if limit <= 0 {
		limit = 1 << 20
	}
	n, err := io.CopyN(io.Discard, c.bodyReader, limit+1)
	if err != nil && !errors.Is(err, io.EOF) {
		c.dirty = true
		return
	}
	if n > limit {
		// Body exceeded the discard cap without completing: unsafe to
		// reuse this socket for another request (spec §4.5).
		c.dirty = true
	}
}

func (c *Connection) computeKeepAlive() bool {
	if c.dirty {
		return false
	}
	if !c.deps.EnableKeepAlive {
		return false
	}
	if c.req == nil {
		return false
	}
	return isKeepAliveRequested(c.req)
}

// rejectParseError turns a ParseHead failure into a response, if any
// response is warranted. A deadline firing with no bytes from the peer, or
// the peer hanging up first, is the ordinary end of a keep-alive session:
// no request line was ever read, so there is nothing to answer and nothing
// worth an access-log line. Anything else means bytes did arrive but did
// not parse into a valid head, which does get a minimal status response.
func (c *Connection) rejectParseError(err error) {
	if errors.Is(err, api.ErrTimeout) || errors.Is(err, api.ErrIOClosed) {
		c.dirty = true
		return
	}

	status := 400
	switch {
	case errors.Is(err, api.ErrHeadTooLarge):
		status = 431
	case errors.Is(err, api.ErrTooManyHeaders):
		status = 431
	case errors.Is(err, api.ErrUnsupported):
		status = 505
	}
	c.writeMinimal(status)
	c.dirty = true
	c.logAccess(status)
}

func (c *Connection) logAccess(status int) {
	if c.deps.Logger != nil {
		method, uri := "", ""
		if c.req != nil {
			method, uri = c.req.Method, c.req.RequestURI
		}
		c.deps.Logger.Access(c.connID, method, uri, status, c.bytesSent, c.RemoteAddr())
	}
	if cb := c.deps.Callbacks; cb != nil {
		if cb.LogAccess != nil {
			cb.LogAccess(c, c.req, status)
		}
		if cb.EndRequest != nil {
			cb.EndRequest(c, c.req, status)
		}
	}
	if c.deps.Metrics != nil {
		c.deps.Metrics.RequestsTotal.WithLabelValues(statusClass(status)).Inc()
		c.deps.Metrics.BytesWritten.Add(float64(c.bytesSent))
		c.deps.Metrics.BytesRead.Add(float64(c.ch.BytesRead() - c.readSnapshot))
	}
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
