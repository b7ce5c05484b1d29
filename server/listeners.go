// Package server implements the Context lifecycle (spec §4.8): Start/Stop,
// handler registration, and the acceptor/worker wiring that drives the
// conn package's state machine.
//
// Grounded on the teacher's highlevel.Server (highlevel/server.go) for the
// Start/Stop/handler-registration surface, generalized from its hardcoded
// single-port TCP listener to the spec's configured multi-port Listener set.
//
// Author: momentics <momentics@gmail.com>
package server

import (
	"crypto/tls"
	"fmt"
	"strconv"
	"strings"

	"github.com/corehttpd/corehttpd/accept"
	"github.com/corehttpd/corehttpd/control"
)

// parseListeningPorts reads the listening_ports option (spec §6), a
// comma-separated list of "port" or "ports" (trailing 's' marks TLS),
// following original_source/include/libhttp.h's "listening_ports" format.
func parseListeningPorts(opts *control.Options) ([]*accept.Listener, error) {
	spec, _ := opts.Get(control.OptListeningPorts)
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("server: %s is empty", control.OptListeningPorts)
	}

	certPath, _ := opts.Get(control.OptTLSCertificate)

	var listeners []*accept.Listener
	for _, tok := range strings.Split(spec, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		isTLS := strings.HasSuffix(tok, "s")
		portStr := strings.TrimSuffix(tok, "s")
		if _, err := strconv.Atoi(portStr); err != nil {
			return nil, fmt.Errorf("server: invalid listening_ports entry %q: %w", tok, err)
		}

		l := &accept.Listener{Addr: ":" + portStr, IsTLS: isTLS}
		if isTLS {
			if certPath == "" {
				return nil, fmt.Errorf("server: port %s requires %s", tok, control.OptTLSCertificate)
			}
			cert, err := tls.LoadX509KeyPair(certPath, certPath)
			if err != nil {
				return nil, fmt.Errorf("server: loading %s: %w", certPath, err)
			}
			l.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
		}
		listeners = append(listeners, l)
	}
	return listeners, nil
}
