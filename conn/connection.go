// Package conn implements the connection state machine (spec §4.5): it
// drives one accepted socket through read-head -> dispatch -> write-response
// -> keep-alive-or-close, and owns the per-connection WebSocket session once
// upgraded.
//
// Grounded on the teacher's protocol.WSConnection / protocol.Connection
// (protocol/connection.go, internal/websocket/connection.go) for the
// write-mutex/user-pointer shape, generalized from "WebSocket-only" to
// "plain HTTP request/response, optionally upgrading".
//
// Author: momentics <momentics@gmail.com>
package conn

import (
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/corehttpd/corehttpd/api"
	"github.com/corehttpd/corehttpd/httpproto"
	"github.com/corehttpd/corehttpd/ioc"
)

// Connection is one accepted socket, owned by exactly one worker for the
// duration of a keep-alive session (spec §3 "Connection").
type Connection struct {
	ch   *ioc.Channel
	deps *Deps

	connID   string
	peerIP   string
	peerPort int
	isTLS    bool

	req       *api.Request
	resp      *httpproto.ResponseHead
	respState api.ResponseState
	headEmitted bool
	bodyReader  io.Reader
	bodyLimited io.Reader

	bytesSent    int64
	readSnapshot int64
	dirty        bool

	writeMu  sync.Mutex
	userData any
}

// New builds a Connection over an already-accepted socket. ch's deadline is
// unset; the caller (the worker loop) arms it before reading the first head.
// isTLS comes from the accept.Listener the socket was accepted on, not from
// a dynamic type check on conn: *tls.Conn satisfies plenty of unexported
// shapes, but the listener already knows which of its sockets are TLS
// without guessing.
func New(conn net.Conn, deps *Deps, isTLS bool) *Connection {
	bufSize := deps.ReadBufferSize
	if bufSize <= 0 {
		bufSize = ioc.DefaultBufferSize
	}
	host, portStr, _ := net.SplitHostPort(conn.RemoteAddr().String())
	port, _ := strconv.Atoi(portStr)

	c := &Connection{
		ch:       ioc.New(conn, bufSize),
		deps:     deps,
		connID:   uuid.NewString(),
		peerIP:   host,
		peerPort: port,
		isTLS:    isTLS,
	}
	if deps.Stopping != nil {
		c.ch.SetStopCheck(deps.Stopping)
	}
	return c
}

// Channel exposes the underlying buffered channel to the state-machine
// driver (package-internal use: serve.go, websocket.go).
func (c *Connection) Channel() *ioc.Channel { return c.ch }

// Dirty reports whether an I/O error mid-response has made this connection
// unsafe to keep alive (spec §3 "Dirty").
func (c *Connection) Dirty() bool { return c.dirty }

// ---- api.Conn implementation ----

func (c *Connection) RequestInfo() *api.Request { return c.req }

func (c *Connection) Header(name string) (string, bool) {
	if c.req == nil {
		return "", false
	}
	return c.req.Header(name)
}

func (c *Connection) Cookie(cookieHeader, name string) (string, bool) {
	for _, part := range strings.Split(cookieHeader, ";") {
		part = strings.TrimSpace(part)
		k, v, ok := strings.Cut(part, "=")
		if ok && k == name {
			return v, true
		}
	}
	return "", false
}

// FormValue decodes from the request's query string. Full body form
// decoding is an out-of-scope external collaborator (spec §1 "form
// parsing"); this covers the query-string half of get_var/get_var2.
func (c *Connection) FormValue(name string) (string, bool) {
	return c.FormValueN(name, 0)
}

func (c *Connection) FormValueN(name string, occurrence int) (string, bool) {
	if c.req == nil {
		return "", false
	}
	count := 0
	for _, pair := range strings.Split(c.req.Query, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		dk, err := httpproto.URLDecode(k, true)
		if err != nil {
			continue
		}
		if dk != name {
			continue
		}
		if count == occurrence {
			dv, err := httpproto.URLDecode(v, true)
			if err != nil {
				return "", false
			}
			return dv, true
		}
		count++
	}
	return "", false
}

func (c *Connection) Read(buf []byte) (int, error) {
	if c.bodyReader == nil {
		c.initBodyReader()
	}
	n, err := c.bodyReader.Read(buf)
	if err != nil && err != io.EOF {
		c.dirty = true
	}
	return n, err
}

func (c *Connection) initBodyReader() {
	switch {
	case c.req != nil && c.req.Chunked:
		c.bodyReader = httpproto.NewChunkedReader(c.ch)
	case c.req != nil && c.req.ContentLen > 0:
		c.bodyReader = io.LimitReader(bodyReaderFunc(c.ch.ReadBody), c.req.ContentLen)
	default:
		c.bodyReader = io.LimitReader(bodyReaderFunc(c.ch.ReadBody), 0)
	}
}

type bodyReaderFunc func([]byte) (int, error)

func (f bodyReaderFunc) Read(p []byte) (int, error) { return f(p) }

func (c *Connection) ensureHeadEmitted(expectChunked bool) {
	if c.headEmitted {
		return
	}
	if c.resp == nil {
		c.resp = httpproto.NewResponseHead()
	}
	opt := httpproto.WriteOptions{
		ServerName:    c.deps.ServerName,
		KeepAlive:     c.deps.EnableKeepAlive && c.req != nil && isKeepAliveRequested(c.req),
		ContentLength: -1,
		Chunked:       expectChunked,
	}
	out, keepAlive := httpproto.Emit(c.resp, opt)
	if _, err := c.ch.Write(out); err != nil {
		c.dirty = true
	}
	if !keepAlive {
		c.dirty = true
	}
	c.headEmitted = true
	c.respState = api.RespHeadSent
}

func isKeepAliveRequested(req *api.Request) bool {
	conn, has := req.Header("Connection")
	if req.Version == "HTTP/1.1" {
		return !has || !strings.EqualFold(strings.TrimSpace(conn), "close")
	}
	return has && strings.EqualFold(strings.TrimSpace(conn), "keep-alive")
}

func (c *Connection) Write(buf []byte) (int, error) {
	c.ensureHeadEmitted(false)
	n, err := c.ch.Write(buf)
	c.bytesSent += int64(n)
	if err != nil {
		c.dirty = true
	}
	c.respState = api.RespBodyStreaming
	return n, err
}

func (c *Connection) Printf(format string, args ...any) (int, error) {
	return c.Write([]byte(fmt.Sprintf(format, args...)))
}

func (c *Connection) WriteStatus(code int) {
	if c.resp == nil {
		c.resp = httpproto.NewResponseHead()
	}
	c.resp.SetStatus(code)
}

func (c *Connection) SetHeader(name, value string) {
	if c.resp == nil {
		c.resp = httpproto.NewResponseHead()
	}
	c.resp.Set(name, value)
}

func (c *Connection) StoreBody(path string) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	if c.bodyReader == nil {
		c.initBodyReader()
	}
	return io.Copy(f, c.bodyReader)
}

func (c *Connection) SendFile(path, mimeType string, extraHeaders map[string]string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if c.resp == nil {
		c.resp = httpproto.NewResponseHead()
	}
	if mimeType != "" {
		c.resp.Set("Content-Type", mimeType)
	}
	for k, v := range extraHeaders {
		c.resp.Set(k, v)
	}
	opt := httpproto.WriteOptions{
		ServerName:    c.deps.ServerName,
		KeepAlive:     c.deps.EnableKeepAlive && isKeepAliveRequested(c.req),
		ContentLength: info.Size(),
	}
	out, keepAlive := httpproto.Emit(c.resp, opt)
	if _, err := c.ch.Write(out); err != nil {
		c.dirty = true
		return err
	}
	if !keepAlive {
		c.dirty = true
	}
	c.headEmitted = true
	n, err := io.Copy(bodyWriterFunc(c.ch.Write), f)
	c.bytesSent += n
	c.respState = api.RespComplete
	return err
}

type bodyWriterFunc func([]byte) (int, error)

func (f bodyWriterFunc) Write(p []byte) (int, error) { return f(p) }

func (c *Connection) RemoteAddr() string {
	return net.JoinHostPort(c.peerIP, strconv.Itoa(c.peerPort))
}

func (c *Connection) IsTLS() bool { return c.isTLS }

func (c *Connection) UserData() any       { return c.userData }
func (c *Connection) SetUserData(v any)   { c.userData = v }

func (c *Connection) SetDeadline(d time.Duration) { c.ch.SetDeadline(d) }

func (c *Connection) Lock()   { c.writeMu.Lock() }
func (c *Connection) Unlock() { c.writeMu.Unlock() }

var _ api.Conn = (*Connection)(nil)
