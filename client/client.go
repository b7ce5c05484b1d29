// Package client implements the library's client-side surface (spec §6
// "Client side"): plain HTTP downloads and WebSocket client connections
// built over the same ioc/httpproto/wsproto codecs the server uses.
//
// Grounded on the teacher's own client.Client dial/connect helpers
// (client/client.go, client/transport_client.go), generalized from
// "WebSocket-only dial" to the spec's plain-HTTP get_response/download
// surface as well.
//
// Author: momentics <momentics@gmail.com>
package client

import (
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/corehttpd/corehttpd/httpproto"
	"github.com/corehttpd/corehttpd/ioc"
)

// Client is one outbound connection opened by this library acting as an
// HTTP client (spec §6 "connect_client").
type Client struct {
	ch *ioc.Channel
}

// Connect dials host:port, optionally over TLS, and returns a Client ready
// to have a request written to it (spec §6 "connect_client(host, port,
// use_ssl, ebuf)"). ebuf is replaced by Go's ordinary error return.
func Connect(host string, port int, useSSL bool) (*Client, error) {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	var conn net.Conn
	var err error
	if useSSL {
		conn, err = tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	} else {
		conn, err = net.Dial("tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("client: connect %s: %w", addr, err)
	}
	return &Client{ch: ioc.New(conn, ioc.DefaultBufferSize)}, nil
}

// Download composes a request with printf semantics, sends it, and returns
// the Client ready for GetResponse (spec §6 "download(host, port, use_ssl,
// ebuf, fmt, ...)").
func Download(host string, port int, useSSL bool, format string, args ...any) (*Client, error) {
	c, err := Connect(host, port, useSSL)
	if err != nil {
		return nil, err
	}
	if _, err := c.Printf(format, args...); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// Write sends raw bytes on the connection (request line, headers, body).
func (c *Client) Write(p []byte) (int, error) { return c.ch.Write(p) }

// Printf formats and sends a request, the client-side counterpart to
// Conn.Printf.
func (c *Client) Printf(format string, args ...any) (int, error) {
	return c.ch.Write([]byte(fmt.Sprintf(format, args...)))
}

// GetResponse blocks up to timeout for a response head, returning the
// parsed head and a reader positioned at the start of the body
// (spec §6 "get_response(timeout_ms)").
func (c *Client) GetResponse(timeout time.Duration) (*httpproto.ResponseInfo, *BodyReader, error) {
	c.ch.SetDeadline(timeout)
	info, err := httpproto.ParseResponseHead(c.ch)
	if err != nil {
		return nil, nil, err
	}
	var body interface {
		Read([]byte) (int, error)
	}
	switch {
	case info.Chunked:
		body = httpproto.NewChunkedReader(c.ch)
	case info.ContentLength >= 0:
		body = &limitedChannelReader{ch: c.ch, remaining: info.ContentLength}
	default:
		body = &limitedChannelReader{ch: c.ch, remaining: -1}
	}
	return info, &BodyReader{r: body}, nil
}

// BodyReader wraps whichever body-decoding strategy GetResponse picked
// behind a single concrete type client callers can hold onto.
type BodyReader struct {
	r interface {
		Read([]byte) (int, error)
	}
}

func (b *BodyReader) Read(p []byte) (int, error) { return b.r.Read(p) }

// limitedChannelReader reads up to `remaining` bytes from ch.ReadBody, or
// until the socket is closed when remaining < 0 (response with neither
// Content-Length nor chunked encoding: "read until EOF", RFC 7230 §3.3.3
// rule 7).
type limitedChannelReader struct {
	ch        *ioc.Channel
	remaining int64
}

func (l *limitedChannelReader) Read(p []byte) (int, error) {
	if l.remaining == 0 {
		return 0, io.EOF
	}
	if l.remaining > 0 && int64(len(p)) > l.remaining {
		p = p[:l.remaining]
	}
	n, err := l.ch.ReadBody(p)
	if l.remaining > 0 {
		l.remaining -= int64(n)
	}
	return n, err
}

// Close tears down the connection (spec §6 "close_connection").
func (c *Client) Close() error { return c.ch.Close() }

// Channel exposes the underlying buffered channel for the websocket client
// (package-internal sharing of the dial/TLS logic).
func (c *Client) Channel() *ioc.Channel { return c.ch }
