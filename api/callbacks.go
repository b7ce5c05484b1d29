// Author: momentics <momentics@gmail.com>
package api

// ThreadType identifies which kind of library-owned thread is invoking
// InitThread (spec §6, §4.8 step 5/7).
type ThreadType int

const (
	ThreadAcceptor ThreadType = iota
	ThreadWorker
	ThreadOther
)

// ContextHandle is the minimal surface a Callbacks implementation needs of
// the running Context, kept in api to avoid an api -> server import cycle.
type ContextHandle interface {
	Stop()
	IsRunning() bool
}

// Callbacks are the host → library hooks (spec §6 "Callbacks").
// Every field is optional; a nil field means "no-op".
type Callbacks struct {
	// BeginRequest fires before any default handling. A non-zero return
	// means the host fully handled the request itself.
	BeginRequest func(conn Conn, req *Request) int

	// EndRequest fires after the response is complete, carrying the final
	// status (the access-log status).
	EndRequest func(conn Conn, req *Request, status int)

	// LogMessage receives free-form diagnostic lines from the core.
	LogMessage func(msg string)

	// LogAccess receives one line per completed request.
	LogAccess func(conn Conn, req *Request, status int)

	// ConnectionClose fires once per connection, right before teardown.
	ConnectionClose func(conn Conn)

	// OpenFile lets the host serve a URI from memory instead of the
	// filesystem collaborator; ok=false falls through to the default path.
	OpenFile func(conn Conn, path string) (data []byte, ok bool)

	// HTTPError lets the host render a custom error page for status.
	// Returning true means the host fully wrote the response.
	HTTPError func(conn Conn, status int) bool

	// InitContext fires once, after the registry exists but before the
	// acceptor starts (spec §4.8 step 6).
	InitContext func(ctx ContextHandle)

	// InitThread fires once per worker at startup (ThreadWorker), and once
	// with ThreadAcceptor after the acceptor loops have started, however
	// many listeners there are.
	InitThread func(ctx ContextHandle, kind ThreadType)

	// ExitContext fires once, during Stop, after all threads have joined.
	ExitContext func(ctx ContextHandle)
}
