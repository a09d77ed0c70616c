package telemetry

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/pulsemetry/pulsemetry-go/host"
)

// Registry owns at most one Manager. A process normally goes through the
// package-level functions backed by DefaultRegistry; tests construct fresh
// registries instead of sharing process-wide state.
type Registry struct {
	mu       sync.Mutex // guards construction and tracking toggles
	instance atomic.Pointer[Manager]
}

// DefaultRegistry backs the package-level registration functions.
var DefaultRegistry = &Registry{}

// Register constructs the session tracking manager on the first call and
// wires the delivery pipeline; repeat calls from any goroutine are no-ops
// that return the existing manager. The app identifier is read from env.
func (r *Registry) Register(env *host.Env, app *host.App) *Manager {
	appID := ""
	if env != nil {
		appID = env.AppIdentifier
	}
	return r.register(env, app, appID, collaborators{})
}

// RegisterWithIdentifier is Register with an explicit app identifier.
func (r *Registry) RegisterWithIdentifier(env *host.Env, app *host.App, appID string) *Manager {
	return r.register(env, app, appID, collaborators{})
}

// register is the double-checked construction path: an unsynchronized read
// of the manager pointer, then an exclusive section that re-checks before
// constructing. deps carries collaborator overrides for tests.
func (r *Registry) register(env *host.Env, app *host.App, appID string, deps collaborators) *Manager {
	if m := r.instance.Load(); m != nil {
		return m
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.instance.Load() // another goroutine may have won the race
	if m == nil {
		m = newManager(env, app, appID, deps)
		r.instance.Store(m)
	}
	r.applyTrackingLocked(m, false)
	return m
}

// Manager returns the registered manager, or nil before registration.
func (r *Registry) Manager() *Manager {
	return r.instance.Load()
}

// SessionTrackingEnabled reports whether sessions are being tracked.
// Calling it before Register is a programming error and panics.
func (r *Registry) SessionTrackingEnabled() bool {
	m := r.instance.Load()
	if m == nil {
		panic("telemetry: SessionTrackingEnabled called before Register")
	}
	return m.trackingEnabled()
}

// SetSessionTrackingDisabled enables or disables session tracking. Before
// registration this logs a diagnostic and does nothing. When the host does
// not support session tracking the flag is forced to disabled regardless of
// the request.
func (r *Registry) SetSessionTrackingDisabled(disabled bool) {
	if r.instance.Load() == nil {
		log.Printf("telemetry: not registered, ignoring session tracking toggle")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.instance.Load()
	if m == nil {
		return
	}
	r.applyTrackingLocked(m, disabled)
}

// applyTrackingLocked applies the capability predicate and the requested
// flag: disabling unsubscribes from lifecycle callbacks, enabling
// (re)subscribes. Caller holds r.mu.
func (r *Registry) applyTrackingLocked(m *Manager, disabled bool) {
	if m.env != nil && !m.env.SessionTrackingSupported() {
		m.sessionTrackingDisabled.Store(true)
		m.unsubscribe()
		return
	}

	m.sessionTrackingDisabled.Store(disabled)
	if disabled {
		m.unsubscribe()
	} else {
		m.subscribe()
	}
}

// SetCustomServerURL points the delivery pipeline at a custom collector.
// The URL is handed to the sender untouched; before registration this logs
// a diagnostic and does nothing.
func (r *Registry) SetCustomServerURL(url string) {
	m := r.instance.Load()
	if m == nil {
		log.Printf("telemetry: not registered, cannot set the server URL")
		return
	}
	m.sender.SetCustomServerURL(url)
}
