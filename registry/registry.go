// Package registry implements the URI matcher and handler registry
// (spec §4.3): an ordered, longest-matching-prefix lookup per handler kind,
// single-writer/many-reader, with exact-pattern replace/delete semantics.
//
// Grounded on the teacher's highlevel.Server route table
// (highlevel/server.go's handlers/patterns maps + handlerMux sync.RWMutex)
// generalized from "exact path + regex" matching to the spec's
// longest-prefix rule, and on the copy-on-write snapshot style used
// throughout the teacher's control package for consistent reads under
// concurrent writes.
//
// Author: momentics <momentics@gmail.com>
package registry

import (
	"sync"

	"github.com/corehttpd/corehttpd/api"
)

// Registry stores bindings for the three handler kinds (spec §3).
// Lookups take a snapshot under a read lock so a reader never observes a
// partially linked binding list (spec §4.3, §8 invariant 4).
type Registry struct {
	mu       sync.RWMutex
	request  []api.Binding
	wsocket  []api.Binding
	auth     []api.Binding
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{}
}

func (r *Registry) slice(kind api.BindingKind) *[]api.Binding {
	switch kind {
	case api.KindRequest:
		return &r.request
	case api.KindWebSocket:
		return &r.wsocket
	case api.KindAuth:
		return &r.auth
	default:
		return nil
	}
}

// Set installs or removes a binding. A zero-value handler (all function
// fields nil) removes the binding matching pattern+kind exactly; a pattern
// mismatch on removal is a no-op (spec §3 "Registry invariant", §9).
func (r *Registry) Set(b api.Binding) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slicePtr := r.slice(b.Kind)
	if slicePtr == nil {
		return
	}

	remove := isEmptyBinding(b)

	for i, existing := range *slicePtr {
		if existing.Pattern == b.Pattern {
			if remove {
				*slicePtr = append(append([]api.Binding{}, (*slicePtr)[:i]...), (*slicePtr)[i+1:]...)
			} else {
				next := append([]api.Binding{}, *slicePtr...)
				next[i] = b
				*slicePtr = next
			}
			return
		}
	}
	if !remove {
		*slicePtr = append(append([]api.Binding{}, *slicePtr...), b)
	}
}

func isEmptyBinding(b api.Binding) bool {
	return b.Request == nil && b.Auth == nil && b.Connect == nil && b.Ready == nil && b.Data == nil && b.Close == nil
}

// Lookup finds the binding of kind whose pattern is the longest matching
// prefix of localURI (spec §4.3). Ties (equal-length prefixes) are broken
// by insertion order: earlier wins.
func (r *Registry) Lookup(kind api.BindingKind, localURI string) (api.Binding, bool) {
	r.mu.RLock()
	snapshot := append([]api.Binding{}, *r.slice(kind)...)
	r.mu.RUnlock()

	best := -1
	var bestBinding api.Binding
	for _, b := range snapshot {
		if matches(b.Pattern, localURI) && len(b.Pattern) > best {
			best = len(b.Pattern)
			bestBinding = b
		}
	}
	if best < 0 {
		return api.Binding{}, false
	}
	return bestBinding, true
}

// matches implements spec §4.3's three-way prefix rule:
//
//	(a) pattern == localURI, or
//	(b) pattern has no trailing '/' and localURI begins with pattern + "/", or
//	(c) pattern ends with '/' and localURI begins with pattern.
func matches(pattern, localURI string) bool {
	if pattern == localURI {
		return true
	}
	if len(pattern) == 0 {
		return false
	}
	if pattern[len(pattern)-1] == '/' {
		return len(localURI) >= len(pattern) && localURI[:len(pattern)] == pattern
	}
	prefixed := pattern + "/"
	return len(localURI) >= len(prefixed) && localURI[:len(prefixed)] == prefixed
}
