// Package control holds the library's ambient, non-request-path concerns:
// the frozen option table, Prometheus metrics, and debug probes. Adapted
// from the teacher's control.ConfigStore / control.MetricsRegistry /
// control.DebugProbes (control/config.go, control/metrics.go, control/debug.go),
// with hot-reload removed: spec.md §1 Non-goals exclude "hot reconfiguration"
// — "configuration is frozen at start".
//
// Author: momentics <momentics@gmail.com>
package control

import (
	"fmt"
	"sync"
	"time"
)

// Known option names (spec §6 "Configuration"), drawn from
// original_source/include/libhttp.h's option table.
const (
	OptListeningPorts   = "listening_ports"
	OptNumThreads       = "num_threads"
	OptRequestTimeoutMs = "request_timeout_ms"
	OptKeepAliveMs      = "keep_alive_timeout_ms"
	OptMaxRequestSize   = "max_request_size"
	OptDocumentRoot     = "document_root"
	OptEnableKeepAlive  = "enable_keep_alive"
	OptDecodeURL        = "decode_url"
	OptEnableWebSocket  = "enable_websocket"
	OptReadBufferSize   = "read_buffer_size"
	OptMaxBodyDiscard   = "max_body_discard"
	OptTLSCertificate   = "tls_certificate"
)

// defaultNames is the fixed validation table (spec §6 "names are validated
// against a fixed table").
var defaultNames = map[string]string{
	OptListeningPorts:   "",
	OptNumThreads:       "50",
	OptRequestTimeoutMs: "30000",
	OptKeepAliveMs:      "10000",
	OptMaxRequestSize:   "16384",
	OptDocumentRoot:     "",
	OptEnableKeepAlive:  "yes",
	OptDecodeURL:        "yes",
	OptEnableWebSocket:  "yes",
	OptReadBufferSize:   "16384",
	OptMaxBodyDiscard:   "1048576",
	OptTLSCertificate:   "",
}

// Pair is one {name, value} option as the host supplies it (spec §6).
type Pair struct {
	Name  string
	Value string
}

// Options is the immutable-once-frozen configuration table (spec §3
// "immutable configuration map", §6).
type Options struct {
	mu     sync.RWMutex
	values map[string]string
	frozen bool
}

// NewOptions validates pairs against the fixed name table and returns an
// unfrozen Options. Unknown names are rejected.
func NewOptions(pairs []Pair) (*Options, error) {
	o := &Options{values: make(map[string]string, len(defaultNames))}
	for k, v := range defaultNames {
		o.values[k] = v
	}
	for _, p := range pairs {
		if _, known := defaultNames[p.Name]; !known {
			return nil, fmt.Errorf("control: unknown option %q", p.Name)
		}
		o.values[p.Name] = p.Value
	}
	return o, nil
}

// Freeze makes the table immutable (spec §6 "Once start returns, options
// are immutable"). Idempotent.
func (o *Options) Freeze() {
	o.mu.Lock()
	o.frozen = true
	o.mu.Unlock()
}

// Get returns the literal value, ("", true) if unset-with-default, or
// ("", false) if the name is unknown (spec §6 "Query via a lookup").
func (o *Options) Get(name string) (string, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	v, ok := o.values[name]
	return v, ok
}

// MustGet panics if the name is unknown; for internal call sites that pass
// a constant from this package.
func (o *Options) MustGet(name string) string {
	v, ok := o.Get(name)
	if !ok {
		panic(fmt.Sprintf("control: unknown option %q", name))
	}
	return v
}

// GetDurationMs interprets the named option as milliseconds.
func (o *Options) GetDurationMs(name string) time.Duration {
	v := o.MustGet(name)
	var ms int64
	_, err := fmt.Sscanf(v, "%d", &ms)
	if err != nil {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// GetInt interprets the named option as a decimal integer.
func (o *Options) GetInt(name string) int {
	v := o.MustGet(name)
	var n int
	_, err := fmt.Sscanf(v, "%d", &n)
	if err != nil {
		return 0
	}
	return n
}

// GetBool interprets the named option as "yes"/"no".
func (o *Options) GetBool(name string) bool {
	return o.MustGet(name) == "yes"
}
