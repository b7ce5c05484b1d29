// Package accept implements the acceptor / listener set (spec §4.7): binds
// each configured port, polls with a short timeout so a stop flag is
// observed promptly, and hands accepted sockets off to the worker pool's
// queue.
//
// Grounded on the teacher's tcp.StartTCPListener (transport/tcp/listener.go)
// generalized from a single hardcoded address to a configured set of
// Listener records (spec §3 "Listener"), and on golang.org/x/sys for the
// POSIX signal-disposition work the teacher's own internal/transport
// package reaches for the same dependency to do. Socket options are set
// through *net.TCPConn's own methods, not through x/sys.
//
// Author: momentics <momentics@gmail.com>
package accept

import (
	"crypto/tls"
	"fmt"
	"net"
	"time"
)

// Listener is one configured port (spec §3 "Listener").
type Listener struct {
	Addr       string
	IsTLS      bool
	IsRedirect bool
	TLSConfig  *tls.Config

	ln net.Listener
}

// Bind opens the underlying socket. Failure here is BindFailed (spec §7).
func (l *Listener) Bind() error {
	var ln net.Listener
	var err error
	if l.IsTLS {
		if l.TLSConfig == nil {
			return fmt.Errorf("accept: tls listener %s has no TLSConfig", l.Addr)
		}
		ln, err = tls.Listen("tcp", l.Addr, l.TLSConfig)
	} else {
		ln, err = net.Listen("tcp", l.Addr)
	}
	if err != nil {
		return fmt.Errorf("accept: bind %s: %w", l.Addr, err)
	}
	l.ln = ln
	return nil
}

// BoundAddr returns the underlying socket's actual local address, useful
// when Addr requested an ephemeral port (":0").
func (l *Listener) BoundAddr() net.Addr {
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

// Close shuts the listening socket down, unblocking any pending Accept
// (spec §4.6 step 2).
func (l *Listener) Close() error {
	if l.ln == nil {
		return nil
	}
	return l.ln.Close()
}

// AcceptTimeout is the acceptor poll interval so the stop flag is observed
// promptly (spec §4.7 "Polls all listeners with a short timeout (100 ms)").
const AcceptTimeout = 100 * time.Millisecond

type deadlineListener interface {
	net.Listener
	SetDeadline(time.Time) error
}

// Accept waits up to AcceptTimeout for a new connection. A nil conn with a
// nil error means "timed out, poll again" — callers should loop checking a
// stop flag between calls, exactly as the spec's acceptor does. A TLS
// listener has no deadline support, so for it Accept blocks until a
// connection arrives or the listener is closed.
func (l *Listener) Accept() (net.Conn, error) {
	if dl, ok := l.ln.(deadlineListener); ok {
		_ = dl.SetDeadline(time.Now().Add(AcceptTimeout))
		conn, err := dl.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return nil, nil
			}
			return nil, err
		}
		return conn, nil
	}
	return l.ln.Accept()
}

// Set is the full collection of configured listeners for one Context.
type Set struct {
	listeners []*Listener
}

// NewSet builds a Set from the given Listener configs, binding each; on any
// bind failure it closes everything already bound and returns the error
// (spec §4.8 step 4: "on any bind failure, undo and fail").
func NewSet(listeners []*Listener) (*Set, error) {
	s := &Set{}
	for _, l := range listeners {
		if err := l.Bind(); err != nil {
			s.CloseAll()
			return nil, err
		}
		s.listeners = append(s.listeners, l)
	}
	return s, nil
}

// CloseAll shuts down every bound listener.
func (s *Set) CloseAll() {
	for _, l := range s.listeners {
		_ = l.Close()
	}
}

// Listeners returns the bound listeners, for iteration by the acceptor loop.
func (s *Set) Listeners() []*Listener {
	return s.listeners
}
