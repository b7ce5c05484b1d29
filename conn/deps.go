// Author: momentics <momentics@gmail.com>
package conn

import (
	"time"

	"github.com/corehttpd/corehttpd/api"
	"github.com/corehttpd/corehttpd/control"
	"github.com/corehttpd/corehttpd/log"
	"github.com/corehttpd/corehttpd/registry"
)

// Deps bundles the context-wide, read-only collaborators a Connection needs.
// It is a non-owning back-reference (spec §3: "a back-reference to the
// context. ... never a lifetime extension") — Connection never outlives the
// Context that built it, but doesn't keep it alive either.
type Deps struct {
	Registry        *registry.Registry
	Options         *control.Options
	Metrics         *control.Metrics
	Logger          *log.Logger
	Callbacks       *api.Callbacks
	ServerName      string
	RequestTimeout  time.Duration
	KeepAliveIdle   time.Duration
	MaxBodyDiscard  int64
	ReadBufferSize  int
	EnableKeepAlive bool

	// Stopping reports whether the owning context is shutting down. The
	// Connection polls it between socket reads via ioc.Channel's stop-poll
	// so a worker blocked on a keep-alive or WebSocket idle period - even
	// one configured with TIMEOUT_INFINITE - unblocks promptly on Stop
	// (spec §4.6 step 4). Nil disables polling.
	Stopping func() bool
}
