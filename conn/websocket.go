// Author: momentics <momentics@gmail.com>
package conn

import (
	"go.uber.org/zap"

	"github.com/corehttpd/corehttpd/api"
	"github.com/corehttpd/corehttpd/httpproto"
	"github.com/corehttpd/corehttpd/wsproto"
)

// WebSocketWrite sends one server-to-client frame, serialized under the
// connection's write mutex so application pushes never interleave with
// response writes mid-frame (spec §4.4 "Write serialization").
func (c *Connection) WebSocketWrite(opcode int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return wsproto.WriteFrame(bodyWriterFunc(c.ch.Write), byte(opcode), data, true, nil)
}

// upgrade performs the RFC 6455 handshake (spec §4.4) having already
// confirmed a websocket Binding matches. Returns whether the upgrade
// succeeded; on a refused connect or failed validation it has already
// written a 403 or 400 response itself.
func (c *Connection) upgrade(b api.Binding) (bool, error) {
	if b.Connect != nil {
		if rc := b.Connect(c, c.req); rc != 0 {
			c.WriteStatus(403)
			c.ensureHeadEmitted(false)
			c.dirty = true
			return false, nil
		}
	}
	accept, err := wsproto.ValidateUpgrade(c.req)
	if err != nil {
		c.writeMinimal(400)
		c.dirty = true
		return false, nil
	}
	head := wsproto.UpgradeResponseHead(accept)
	if _, err := c.ch.Write(head); err != nil {
		c.dirty = true
		return false, err
	}
	c.headEmitted = true
	c.respState = api.RespWebSocket

	if b.Ready != nil {
		b.Ready(c)
	}

	c.wsLoop(b)

	if b.Close != nil {
		b.Close(c)
	}
	return true, nil
}

// wsLoop is the per-connection receive loop (spec §4.4, §4.5 "Upgrade ->
// WebSocket"): it reads frames in arrival order, auto-replies to ping,
// echoes close exactly once, and dispatches data frames to the bound
// handler, defragmenting continuation frames first.
func (c *Connection) wsLoop(b api.Binding) {
	var fragOpcode byte
	var fragPayload []byte
	var closeSent bool

	for {
		// Re-arm per frame rather than relying on the deadline the
		// upgrading request set once: an open WebSocket session is an
		// idle period exactly like between-keep-alive-requests, and
		// must be re-armed the same way so a long or infinite
		// keep_alive_timeout_ms still lets Stop interrupt it promptly
		// via the channel's stop-poll (spec §4.6 step 4).
		c.ch.SetDeadline(c.deps.KeepAliveIdle)
		frame, err := wsproto.ReadFrame(bodyReaderFunc(c.ch.ReadBody), true)
		if err != nil {
			if pe, ok := err.(*api.ProtocolError); ok && !closeSent {
				if c.deps.Logger != nil {
					c.deps.Logger.Error("websocket protocol violation",
						zap.String("conn_id", c.connID),
						zap.Int("close_code", pe.CloseCode),
						zap.Error(pe),
					)
				}
				c.sendClose(pe.CloseCode, "")
			}
			return
		}
		if c.deps.Metrics != nil {
			c.deps.Metrics.WebSocketFrames.WithLabelValues(wsproto.OpcodeName(frame.Opcode)).Inc()
		}

		switch frame.Opcode {
		case wsproto.OpPing:
			c.writeMu.Lock()
			_ = wsproto.WriteFrame(bodyWriterFunc(c.ch.Write), wsproto.OpPong, frame.Payload, true, nil)
			c.writeMu.Unlock()

		case wsproto.OpPong:
			// no action required

		case wsproto.OpClose:
			if !closeSent {
				code, reason := wsproto.DecodeCloseFrame(frame.Payload)
				if code == 0 {
					code = wsproto.CloseNormal
				}
				c.sendClose(code, reason)
			}
			return

		case wsproto.OpText, wsproto.OpBinary:
			if !frame.Fin {
				fragOpcode = frame.Opcode
				fragPayload = append([]byte{}, frame.Payload...)
				continue
			}
			if b.Data != nil {
				b.Data(c, int(frame.Opcode), frame.Payload)
			}

		case wsproto.OpContinuation:
			fragPayload = append(fragPayload, frame.Payload...)
			if frame.Fin {
				if b.Data != nil {
					b.Data(c, int(fragOpcode), fragPayload)
				}
				fragOpcode = 0
				fragPayload = nil
			}
		}
	}
}

func (c *Connection) sendClose(code int, reason string) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = wsproto.WriteFrame(bodyWriterFunc(c.ch.Write), wsproto.OpClose, wsproto.EncodeCloseFrame(code, reason), true, nil)
}

func (c *Connection) writeMinimal(status int) {
	if _, err := c.ch.Write(httpproto.MinimalResponse(status)); err != nil {
		c.dirty = true
	}
	c.headEmitted = true
}
