package host

import "sync"

// LifecycleListener receives scene lifecycle notifications from the host
// application. Implementations must accept all seven callbacks, even when
// only a subset is meaningful to them; unneeded callbacks should simply do
// nothing.
type LifecycleListener interface {
	SceneCreated(name string)
	SceneStarted(name string)
	SceneResumed(name string)
	ScenePaused(name string)
	SceneStopped(name string)
	SceneSaveState(name string)
	SceneDestroyed(name string)
}

// App is the host application handle. The embedding application calls the
// Scene* methods as its screens move through their lifecycle; subscribers
// registered through RegisterLifecycleCallbacks receive each signal.
type App struct {
	mu        sync.RWMutex
	listeners map[LifecycleListener]bool
}

func NewApp() *App {
	return &App{listeners: make(map[LifecycleListener]bool)}
}

// RegisterLifecycleCallbacks subscribes l to lifecycle notifications.
// Registering an already-subscribed listener is a no-op.
func (a *App) RegisterLifecycleCallbacks(l LifecycleListener) {
	if l == nil {
		return
	}
	a.mu.Lock()
	if a.listeners == nil {
		a.listeners = make(map[LifecycleListener]bool)
	}
	a.listeners[l] = true
	a.mu.Unlock()
}

// UnregisterLifecycleCallbacks removes l's subscription. Unregistering a
// listener that was never subscribed is a no-op.
func (a *App) UnregisterLifecycleCallbacks(l LifecycleListener) {
	a.mu.Lock()
	delete(a.listeners, l)
	a.mu.Unlock()
}

// ListenerCount returns the number of subscribed listeners.
func (a *App) ListenerCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.listeners)
}

// snapshot copies the listener set so delivery never holds the lock while
// running listener code.
func (a *App) snapshot() []LifecycleListener {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]LifecycleListener, 0, len(a.listeners))
	for l := range a.listeners {
		out = append(out, l)
	}
	return out
}

func (a *App) SceneCreated(name string) {
	for _, l := range a.snapshot() {
		l.SceneCreated(name)
	}
}

func (a *App) SceneStarted(name string) {
	for _, l := range a.snapshot() {
		l.SceneStarted(name)
	}
}

func (a *App) SceneResumed(name string) {
	for _, l := range a.snapshot() {
		l.SceneResumed(name)
	}
}

func (a *App) ScenePaused(name string) {
	for _, l := range a.snapshot() {
		l.ScenePaused(name)
	}
}

func (a *App) SceneStopped(name string) {
	for _, l := range a.snapshot() {
		l.SceneStopped(name)
	}
}

func (a *App) SceneSaveState(name string) {
	for _, l := range a.snapshot() {
		l.SceneSaveState(name)
	}
}

func (a *App) SceneDestroyed(name string) {
	for _, l := range a.snapshot() {
		l.SceneDestroyed(name)
	}
}
