// Package telemetry is the session tracking core of the pulsemetry client
// SDK. It watches host application lifecycle signals, decides when a user
// session begins, assigns the session its identity and emits session-state
// events into an asynchronous delivery pipeline (channel, on-disk spool,
// WebSocket sender).
//
// A host application registers once:
//
//	env := host.DetectEnv()
//	app := host.NewApp()
//	telemetry.Register(env, app)
//
// and then reports its lifecycle through the app handle. A new session
// starts on the first foreground transition and whenever the app returns to
// the foreground after at least 20 seconds in the background.
package telemetry

import "github.com/pulsemetry/pulsemetry-go/host"

// Register registers the default manager. See Registry.Register.
func Register(env *host.Env, app *host.App) *Manager {
	return DefaultRegistry.Register(env, app)
}

// RegisterWithIdentifier registers the default manager with an explicit app
// identifier. See Registry.RegisterWithIdentifier.
func RegisterWithIdentifier(env *host.Env, app *host.App, appID string) *Manager {
	return DefaultRegistry.RegisterWithIdentifier(env, app, appID)
}

// SessionTrackingEnabled reports whether the default manager tracks
// sessions. Panics before Register.
func SessionTrackingEnabled() bool {
	return DefaultRegistry.SessionTrackingEnabled()
}

// SetSessionTrackingDisabled toggles session tracking on the default
// manager.
func SetSessionTrackingDisabled(disabled bool) {
	DefaultRegistry.SetSessionTrackingDisabled(disabled)
}

// SetCustomServerURL points the default manager's sender at a custom
// collector.
func SetCustomServerURL(url string) {
	DefaultRegistry.SetCustomServerURL(url)
}
