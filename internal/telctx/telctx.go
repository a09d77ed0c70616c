// Package telctx holds the current session identity and the static tags
// attached to every outgoing envelope.
package telctx

import (
	"sync"

	"github.com/pulsemetry/pulsemetry-go/host"
)

// SDKVersion is stamped into every envelope's tags.
const SDKVersion = "0.4.2"

// TelemetryContext is mutated only when a session renews; tag snapshots and
// identity rotation are mutually exclusive.
type TelemetryContext struct {
	mu        sync.RWMutex
	sessionID string
	tags      map[string]string
}

func New(env *host.Env, appID string) *TelemetryContext {
	tags := map[string]string{
		"sdk.version": SDKVersion,
	}
	setTag(tags, "app.id", appID)
	if env != nil {
		setTag(tags, "device.host", env.Hostname)
		setTag(tags, "device.os", env.OS)
		setTag(tags, "device.platform", env.Platform)
		setTag(tags, "device.platformVersion", env.PlatformVersion)
		setTag(tags, "device.arch", env.KernelArch)
	}
	return &TelemetryContext{tags: tags}
}

// UpdateSessionContext installs id as the current session identifier,
// superseding the previous session. The old identifier is discarded.
func (c *TelemetryContext) UpdateSessionContext(id string) {
	c.mu.Lock()
	c.sessionID = id
	c.mu.Unlock()
}

// SessionID returns the current session identifier, or the empty string
// before the first renewal.
func (c *TelemetryContext) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// Tags returns a copy of the enrichment tags including the current session
// identifier. Safe to retain.
func (c *TelemetryContext) Tags() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.tags)+1)
	for k, v := range c.tags {
		out[k] = v
	}
	if c.sessionID != "" {
		out["session.id"] = c.sessionID
	}
	return out
}

func setTag(tags map[string]string, key, value string) {
	if value != "" {
		tags[key] = value
	}
}
