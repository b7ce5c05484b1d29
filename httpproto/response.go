// Author: momentics <momentics@gmail.com>
package httpproto

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ResponseHead accumulates a handler's response status and headers before
// emission (spec §4.2 "Response emission").
type ResponseHead struct {
	Status  int
	Reason  string
	Headers []respHeader
}

type respHeader struct {
	Name  string
	Value string
}

// NewResponseHead defaults to 200 OK.
func NewResponseHead() *ResponseHead {
	return &ResponseHead{Status: 200, Reason: "OK"}
}

// SetStatus overrides the status line.
func (h *ResponseHead) SetStatus(code int) {
	h.Status = code
	h.Reason = http.StatusText(code)
	if h.Reason == "" {
		h.Reason = "Status"
	}
}

// Set adds a response header, preserving insertion order and allowing
// duplicates (as a handler may legitimately set Set-Cookie more than once).
func (h *ResponseHead) Set(name, value string) {
	h.Headers = append(h.Headers, respHeader{Name: name, Value: value})
}

func (h *ResponseHead) has(name string) bool {
	for _, hdr := range h.Headers {
		if equalFoldLocal(hdr.Name, name) {
			return true
		}
	}
	return false
}

func equalFoldLocal(a, b string) bool {
	return len(a) == len(b) && http.CanonicalHeaderKey(a) == http.CanonicalHeaderKey(b)
}

// WriteOptions controls default-filling behavior (spec §4.2 "the codec
// tracks which of {Content-Length, Transfer-Encoding, Connection, Date,
// Server} the handler supplied and fills missing ones with defaults").
type WriteOptions struct {
	ServerName    string
	KeepAlive     bool
	ContentLength int64 // -1 if unknown and not chunked
	Chunked       bool
}

// Emit serializes the response head to buf, filling in defaults for any of
// {Content-Length, Transfer-Encoding, Connection, Date, Server} the handler
// didn't set. Returns whether the connection may be kept alive: false when
// neither length nor encoding is known (spec §4.2 last sentence).
func Emit(h *ResponseHead, opt WriteOptions) (out []byte, keepAlive bool) {
	var b bytes.Buffer
	reason := h.Reason
	if reason == "" {
		reason = http.StatusText(h.Status)
	}
	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", h.Status, reason)

	for _, hdr := range h.Headers {
		fmt.Fprintf(&b, "%s: %s\r\n", hdr.Name, hdr.Value)
	}

	keepAlive = opt.KeepAlive
	if !h.has("Date") {
		fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(http.TimeFormat))
	}
	if !h.has("Server") {
		name := opt.ServerName
		if name == "" {
			name = "corehttpd"
		}
		fmt.Fprintf(&b, "Server: %s\r\n", name)
	}
	if !h.has("Content-Length") && !h.has("Transfer-Encoding") {
		switch {
		case opt.Chunked:
			b.WriteString("Transfer-Encoding: chunked\r\n")
		case opt.ContentLength >= 0:
			fmt.Fprintf(&b, "Content-Length: %s\r\n", strconv.FormatInt(opt.ContentLength, 10))
		default:
			// Neither length nor encoding known: connection must close.
			keepAlive = false
		}
	}
	if !h.has("Connection") {
		if keepAlive {
			b.WriteString("Connection: keep-alive\r\n")
		} else {
			b.WriteString("Connection: close\r\n")
		}
	}
	b.WriteString("\r\n")
	return b.Bytes(), keepAlive
}

// MinimalResponse renders a fixed-status error response with no body, used
// when request-head parsing fails (spec §7 "emit a minimal fixed-status
// response (400/413/431/505) and close").
func MinimalResponse(status int) []byte {
	reason := http.StatusText(status)
	if reason == "" {
		reason = "Error"
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", status, reason)
	b.WriteString("Connection: close\r\n")
	b.WriteString("Content-Length: 0\r\n\r\n")
	return b.Bytes()
}
