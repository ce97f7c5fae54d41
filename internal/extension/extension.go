// Package extension implements the "Index Extension" registry spec §6
// names: a concurrent map of named extensions, each notified with the
// batch of cloned documents a write just indexed, and disposed in
// registration order when the owning index tears down.
//
// Grounded on sync.Map for the lock-free try_add/try_get the core
// requires, and on the teacher's CircuitBreaker (internal/errs/circuit.go)
// to stop repeatedly invoking an extension that keeps failing rather than
// retrying it on every single write.
package extension

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/docidx/docidx/internal/document"
	"github.com/docidx/docidx/internal/errs"
)

// Extension is the collaborator spec §6 names: notified with every
// batch of cloned documents a write indexed, and torn down once when
// the owning index disposes.
type Extension interface {
	OnDocumentsIndexed(docs []*document.Document) error
	Dispose() error
}

type entry struct {
	ext     Extension
	breaker *errs.CircuitBreaker
}

// Registry is the concurrent extension registry one Index owns. The
// zero value is not usable; construct with New.
type Registry struct {
	m     sync.Map // name -> *entry
	order struct {
		mu    sync.Mutex
		names []string
	}
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{}
}

// TryAdd registers ext under name if no extension is already registered
// under it, reporting whether the registration happened.
func (r *Registry) TryAdd(name string, ext Extension) bool {
	e := &entry{ext: ext, breaker: errs.NewCircuitBreaker(name)}
	_, loaded := r.m.LoadOrStore(name, e)
	if !loaded {
		r.order.mu.Lock()
		r.order.names = append(r.order.names, name)
		r.order.mu.Unlock()
	}
	return !loaded
}

// TryGet returns the extension registered under name, if any.
func (r *Registry) TryGet(name string) (Extension, bool) {
	v, ok := r.m.Load(name)
	if !ok {
		return nil, false
	}
	return v.(*entry).ext, true
}

// Names returns every registered extension name in registration order.
func (r *Registry) Names() []string {
	r.order.mu.Lock()
	defer r.order.mu.Unlock()
	out := make([]string, len(r.order.names))
	copy(out, r.order.names)
	return out
}

// NotifyIndexed calls OnDocumentsIndexed on every registered extension
// with the batch just indexed, through that extension's circuit breaker.
// An extension whose breaker is open is skipped without being invoked —
// it is treated as failed without retrying a collaborator already known
// to be repeatedly broken. The first failure (including a skip due to an
// open breaker) is returned; per spec §7 this propagates to the caller.
func (r *Registry) NotifyIndexed(docs []*document.Document) error {
	var firstErr error
	for _, name := range r.Names() {
		v, ok := r.m.Load(name)
		if !ok {
			continue
		}
		e := v.(*entry)
		if !e.breaker.Allow() {
			if firstErr == nil {
				firstErr = errs.New(errs.ErrCodeExtensionFailed,
					fmt.Sprintf("extension %q circuit breaker is open", name), errs.ErrCircuitOpen)
			}
			continue
		}
		err := e.breaker.Execute(func() error {
			return e.ext.OnDocumentsIndexed(docs)
		})
		if err != nil && firstErr == nil {
			firstErr = errs.New(errs.ErrCodeExtensionFailed,
				fmt.Sprintf("extension %q failed on documents-indexed notification", name), err)
		}
	}
	return firstErr
}

// DisposeAll calls Dispose on every registered extension in registration
// order. Per spec §7, a failure during dispose is logged and swallowed so
// every extension still gets a chance to tear down.
func (r *Registry) DisposeAll() {
	for _, name := range r.Names() {
		v, ok := r.m.LoadAndDelete(name)
		if !ok {
			continue
		}
		e := v.(*entry)
		if err := e.ext.Dispose(); err != nil {
			slog.Warn("extension: dispose failed, swallowing",
				slog.String("extension", name), slog.Any("error", err))
		}
	}

	r.order.mu.Lock()
	r.order.names = nil
	r.order.mu.Unlock()
}
