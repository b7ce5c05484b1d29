// Author: momentics <momentics@gmail.com>
package api

import "time"

// Conn is the library → host connection API (spec §6 "Connection API").
// Implemented by *conn.Connection; handlers only ever see this interface.
type Conn interface {
	// RequestInfo returns the record for the request currently being served.
	RequestInfo() *Request

	// Header looks up a request header, case-insensitively, first match.
	Header(name string) (string, bool)

	// Cookie extracts the first occurrence of name from a Cookie header value.
	Cookie(cookieHeader, name string) (string, bool)

	// FormValue returns the first occurrence of name decoded from the query
	// string. The request body is not decoded, even when it is
	// form-urlencoded.
	FormValue(name string) (string, bool)

	// FormValueN returns the nth (0-based) occurrence of name.
	FormValueN(name string, occurrence int) (string, bool)

	// Read reads up to len(buf) bytes of the request body.
	// >0 bytes read, 0 on orderly EOF, error otherwise.
	Read(buf []byte) (int, error)

	// Write writes the entirety of buf to the response, looping internally
	// on partial writes. Deadline-aware.
	Write(buf []byte) (int, error)

	// Printf formats and writes to the response.
	Printf(format string, args ...any) (int, error)

	// WriteStatus sets the response status line (must precede any Write
	// when the handler wants a non-200 status).
	WriteStatus(code int)

	// SetHeader sets a response header. Must be called before the first Write.
	SetHeader(name, value string)

	// StoreBody reads the full request body into the file at path, returning
	// bytes written.
	StoreBody(path string) (int64, error)

	// SendFile streams path as the response body with the given MIME type
	// and any extra response headers.
	SendFile(path, mimeType string, extraHeaders map[string]string) error

	// WebSocketWrite sends a server-to-client frame. Safe for concurrent use
	// with the handler's own reads — serialized under the connection's write
	// mutex (spec §4.4 "Write serialization").
	WebSocketWrite(opcode int, data []byte) error

	// Lock/Unlock expose the WebSocket write mutex directly so a host can
	// interleave server-initiated pushes with normal response writes
	// (spec §4.4, §5).
	Lock()
	Unlock()

	// RemoteAddr returns "ip:port" of the peer.
	RemoteAddr() string
	IsTLS() bool

	// UserData is a per-connection opaque slot (spec §3, §9).
	UserData() any
	SetUserData(v any)

	// SetDeadline re-arms the connection's I/O deadline; handlers call this
	// before a blocking operation they know will run long (spec §5).
	SetDeadline(d time.Duration)
}
