// Author: momentics <momentics@gmail.com>
package server

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/corehttpd/corehttpd/accept"
	"github.com/corehttpd/corehttpd/api"
	"github.com/corehttpd/corehttpd/conn"
	"github.com/corehttpd/corehttpd/control"
	"github.com/corehttpd/corehttpd/log"
	"github.com/corehttpd/corehttpd/pool"
	"github.com/corehttpd/corehttpd/registry"
)

// Context is one running server instance (spec §3 "Context"): the registry,
// frozen options, listener set, and worker pool that together serve
// connections until Stop.
type Context struct {
	options   *control.Options
	registry  *registry.Registry
	metrics   *control.Metrics
	logger    *log.Logger
	callbacks *api.Callbacks
	probes    *control.DebugProbes

	listeners *accept.Set
	pool      *pool.Pool
	queue     *pool.Queue

	running   atomic.Bool
	acceptWg  sync.WaitGroup
	stopOnce  sync.Once
}

// Start implements spec §4.8's startup sequence: validate and freeze
// options, bind listeners, start the worker pool, fire InitContext, then
// start the acceptor.
func Start(callbacks *api.Callbacks, opts *control.Options) (*Context, error) {
	listenerCfgs, err := parseListeningPorts(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", api.ErrStartFailed, err)
	}
	opts.Freeze()

	set, err := accept.NewSet(listenerCfgs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", api.ErrBindFailed, err)
	}

	ctx := &Context{
		options:   opts,
		registry:  registry.New(),
		metrics:   control.NewMetrics(),
		logger:    log.New(false),
		callbacks: callbacks,
		probes:    control.NewDebugProbes(),
		listeners: set,
	}
	workers := opts.GetInt(control.OptNumThreads)
	ctx.queue = pool.NewQueue(workers)
	ctx.pool = pool.NewPool(ctx.queue, workers)
	ctx.probes.Register("queue_depth", func() any { return ctx.queue.Len() })

	accept.InstallIgnoredSignals()

	ctx.running.Store(true)

	ctx.pool.Start(func(workerID int) {
		if callbacks != nil && callbacks.InitThread != nil {
			callbacks.InitThread(ctx, api.ThreadWorker)
		}
	}, ctx.handleItem)

	if callbacks != nil && callbacks.InitContext != nil {
		callbacks.InitContext(ctx)
	}

	for _, l := range set.Listeners() {
		ctx.acceptWg.Add(1)
		go ctx.acceptLoop(l)
	}
	if callbacks != nil && callbacks.InitThread != nil {
		callbacks.InitThread(ctx, api.ThreadAcceptor)
	}

	ctx.logger.Info("context started", zap.Int("listeners", len(set.Listeners())), zap.Int("workers", workers))

	return ctx, nil
}

// acceptLoop polls one listener until the context stops (spec §4.7).
func (ctx *Context) acceptLoop(l *accept.Listener) {
	defer ctx.acceptWg.Done()
	for ctx.running.Load() {
		c, err := l.Accept()
		if err != nil {
			if !ctx.running.Load() {
				return
			}
			ctx.logger.Warn("accept failed", zap.String("listener", l.Addr), zap.Error(err))
			if ctx.callbacks != nil && ctx.callbacks.LogMessage != nil {
				ctx.callbacks.LogMessage(fmt.Sprintf("accept on %s: %v", l.Addr, err))
			}
			continue
		}
		if c == nil {
			continue // poll timeout, re-check running
		}

		keepAlive := ctx.options.GetBool(control.OptEnableKeepAlive)
		accept.ApplySocketOptions(c, keepAlive, ctx.options.GetDurationMs(control.OptKeepAliveMs))

		if !ctx.running.Load() {
			_ = c.Close()
			continue
		}
		if !ctx.queue.Push(pool.Item{Conn: c, Listener: l}) {
			ctx.metrics.ConnectionsRejected.Inc()
			_ = c.Close()
			continue
		}
		ctx.metrics.ConnectionsAccepted.Inc()
		ctx.metrics.QueueDepth.Set(float64(ctx.queue.Len()))
		ctx.logger.Debug("accepted connection", zap.String("listener", l.Addr), zap.String("remote", c.RemoteAddr().String()))
	}
}

// handleItem runs one accepted socket through its keep-alive session
// (spec §4.5, §4.6 "handle(item)").
func (ctx *Context) handleItem(item pool.Item) {
	ctx.metrics.QueueDepth.Set(float64(ctx.queue.Len()))

	netConn, _ := item.Conn.(net.Conn)
	listener, _ := item.Listener.(*accept.Listener)
	if netConn == nil {
		return
	}
	defer netConn.Close()

	ctx.metrics.ConnectionsActive.Inc()
	defer ctx.metrics.ConnectionsActive.Dec()

	deps := &conn.Deps{
		Registry:        ctx.registry,
		Options:         ctx.options,
		Metrics:         ctx.metrics,
		Logger:          ctx.logger,
		Callbacks:       ctx.callbacks,
		ServerName:      "corehttpd",
		RequestTimeout:  ctx.options.GetDurationMs(control.OptRequestTimeoutMs),
		KeepAliveIdle:   ctx.options.GetDurationMs(control.OptKeepAliveMs),
		MaxBodyDiscard:  int64(ctx.options.GetInt(control.OptMaxBodyDiscard)),
		ReadBufferSize:  ctx.options.GetInt(control.OptReadBufferSize),
		EnableKeepAlive: ctx.options.GetBool(control.OptEnableKeepAlive),
		Stopping:        func() bool { return !ctx.running.Load() },
	}

	isTLS := listener != nil && listener.IsTLS
	c := conn.New(netConn, deps, isTLS)

	first := true
	for ctx.running.Load() {
		keepAlive, upgraded := c.ServeOne(first)
		first = false
		if upgraded {
			break
		}
		if !keepAlive {
			break
		}
	}

	if ctx.callbacks != nil && ctx.callbacks.ConnectionClose != nil {
		ctx.callbacks.ConnectionClose(c)
	}
}

// Stop implements spec §4.6's teardown: close listeners, wait for the
// acceptor to notice, close the queue (waking idle workers), wait for
// in-flight work to finish, then fire ExitContext. Idempotent.
func (ctx *Context) Stop() {
	ctx.stopOnce.Do(func() {
		ctx.running.Store(false)
		ctx.listeners.CloseAll()
		ctx.acceptWg.Wait()
		ctx.pool.Stop()
		accept.RestoreSignals()
		if ctx.callbacks != nil && ctx.callbacks.ExitContext != nil {
			ctx.callbacks.ExitContext(ctx)
		}
		ctx.logger.Info("context stopped")
		ctx.logger.Sync()
	})
}

// IsRunning reports whether the context is still accepting/serving
// (spec §4.8, api.ContextHandle).
func (ctx *Context) IsRunning() bool { return ctx.running.Load() }

// ListenAddr returns the first bound listener's actual local address,
// useful when listening_ports requested an ephemeral port ("0").
func (ctx *Context) ListenAddr() string {
	ls := ctx.listeners.Listeners()
	if len(ls) == 0 {
		return ""
	}
	addr := ls[0].BoundAddr()
	if addr == nil {
		return ""
	}
	return addr.String()
}

// Metrics exposes the Prometheus registry for a host that wants to mount
// promhttp.Handler() as an ordinary request handler.
func (ctx *Context) Metrics() *control.Metrics { return ctx.metrics }

// Debug exposes the debug-probe registry (spec §6 "debug hooks").
func (ctx *Context) Debug() *control.DebugProbes { return ctx.probes }

var _ api.ContextHandle = (*Context)(nil)
