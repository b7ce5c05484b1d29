// Author: momentics <momentics@gmail.com>
package client

import (
	"fmt"
	"sync"

	"github.com/corehttpd/corehttpd/control"
	"github.com/corehttpd/corehttpd/httpproto"
	"github.com/corehttpd/corehttpd/wsproto"
)

// WSClient is a client-side WebSocket session (spec §6
// "connect_websocket_client"): after the handshake it runs an internal read
// loop delivering frames to a data callback and the close notification to a
// close callback.
type WSClient struct {
	c       *Client
	writeMu sync.Mutex
	closed  bool
	metrics *control.Metrics
}

// SetMetrics attaches a Metrics instance the read loop reports frame counts
// to. A standalone client has no owning Context of its own to supply one
// (unlike the server side's conn.Deps), so this is opt-in: a host embedding
// the client alongside a Context can share that Context's Metrics() here.
func (w *WSClient) SetMetrics(m *control.Metrics) { w.metrics = m }

// ConnectWebSocket dials host:port and performs the RFC 6455 client
// handshake against path, returning a WSClient ready for Run (spec §6
// "connect_websocket_client").
func ConnectWebSocket(host string, port int, useSSL bool, path string) (*WSClient, error) {
	c, err := Connect(host, port, useSSL)
	if err != nil {
		return nil, err
	}
	key := wsproto.NewClientKey()
	hostHeader := fmt.Sprintf("%s:%d", host, port)
	if _, err := c.Write(wsproto.UpgradeRequestHead(hostHeader, path, key)); err != nil {
		c.Close()
		return nil, err
	}

	c.Channel().SetDeadline(0)
	info, err := httpproto.ParseResponseHead(c.Channel())
	if err != nil {
		c.Close()
		return nil, err
	}
	if info.Status != 101 {
		c.Close()
		return nil, fmt.Errorf("client: websocket upgrade refused, status %d", info.Status)
	}
	accept, _ := info.Header("Sec-WebSocket-Accept")
	if !wsproto.VerifyServerAccept(key, accept) {
		c.Close()
		return nil, fmt.Errorf("client: websocket Sec-WebSocket-Accept mismatch")
	}
	return &WSClient{c: c}, nil
}

// dataFunc receives one complete (defragmented) data frame; closeFunc fires
// once, when the read loop exits for any reason.
type dataFunc func(opcode int, data []byte)
type closeFunc func()

// Run starts the internal read loop as a goroutine (spec §6: "spawns an
// internal read loop delivering frames to data_func and close notifications
// to close_func"). It returns immediately.
func (w *WSClient) Run(onData dataFunc, onClose closeFunc) {
	go w.readLoop(onData, onClose)
}

func (w *WSClient) readLoop(onData dataFunc, onClose closeFunc) {
	defer func() {
		w.closed = true
		if onClose != nil {
			onClose()
		}
	}()

	var fragOpcode byte
	var fragPayload []byte

	for {
		frame, err := wsproto.ReadFrame(bodyReader(w.c), false)
		if err != nil {
			return
		}
		if w.metrics != nil {
			w.metrics.WebSocketFrames.WithLabelValues(wsproto.OpcodeName(frame.Opcode)).Inc()
		}
		switch frame.Opcode {
		case wsproto.OpPing:
			w.writeMu.Lock()
			_ = wsproto.WriteFrame(bodyWriter(w.c), wsproto.OpPong, frame.Payload, true, wsproto.NewMaskKey())
			w.writeMu.Unlock()
		case wsproto.OpPong:
		case wsproto.OpClose:
			return
		case wsproto.OpText, wsproto.OpBinary:
			if !frame.Fin {
				fragOpcode = frame.Opcode
				fragPayload = append([]byte{}, frame.Payload...)
				continue
			}
			if onData != nil {
				onData(int(frame.Opcode), frame.Payload)
			}
		case wsproto.OpContinuation:
			fragPayload = append(fragPayload, frame.Payload...)
			if frame.Fin {
				if onData != nil {
					onData(int(fragOpcode), fragPayload)
				}
				fragOpcode = 0
				fragPayload = nil
			}
		}
	}
}

// Write sends one client-to-server frame, masked with a fresh key
// (spec §6 "websocket_client_write": "client variant masks frames").
func (w *WSClient) Write(opcode int, data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	return wsproto.WriteFrame(bodyWriter(w.c), byte(opcode), data, true, wsproto.NewMaskKey())
}

// Close tears the underlying connection down.
func (w *WSClient) Close() error { return w.c.Close() }

type bodyReaderAdapter struct{ c *Client }

func (a bodyReaderAdapter) Read(p []byte) (int, error) { return a.c.Channel().ReadBody(p) }

func bodyReader(c *Client) bodyReaderAdapter { return bodyReaderAdapter{c: c} }

type bodyWriterAdapter struct{ c *Client }

func (a bodyWriterAdapter) Write(p []byte) (int, error) { return a.c.Channel().Write(p) }

func bodyWriter(c *Client) bodyWriterAdapter { return bodyWriterAdapter{c: c} }
