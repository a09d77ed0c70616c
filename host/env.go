package host

import (
	"os"
	"path/filepath"
	"time"

	pshost "github.com/shirou/gopsutil/v3/host"
)

const (
	// MinSessionTrackingAPI is the lowest host API level whose lifecycle
	// callback set is complete enough for session tracking.
	MinSessionTrackingAPI = 14

	// CurrentAPI is the API level this SDK release is built against.
	CurrentAPI = 16

	appDirName = "pulsemetry"
)

// Env describes the runtime environment hosting the SDK: where it may write
// state, how the app identifies itself, and the device facts attached to
// outgoing telemetry.
type Env struct {
	AppIdentifier string
	DataDir       string
	ServerURL     string // empty means the sender's default collector
	API           int    // host runtime API level

	// Pipeline tuning. Zero values fall back to the pipeline defaults.
	ChannelBatchSize     int
	ChannelFlushInterval time.Duration
	SpoolMaxPendingFiles int

	Hostname        string
	OS              string
	Platform        string
	PlatformVersion string
	KernelArch      string
}

// DetectEnv builds an Env from the local machine. Device fields are left
// empty when host facts cannot be read; that is not an error for the SDK.
func DetectEnv() *Env {
	e := &Env{
		API:     CurrentAPI,
		DataDir: DefaultDataDir(),
	}
	if info, err := pshost.Info(); err == nil {
		e.Hostname = info.Hostname
		e.OS = info.OS
		e.Platform = info.Platform
		e.PlatformVersion = info.PlatformVersion
		e.KernelArch = info.KernelArch
	}
	return e
}

// SessionTrackingSupported reports whether this environment's API level
// supports session tracking. Evaluated at registration and on every
// enable/disable toggle.
func (e *Env) SessionTrackingSupported() bool {
	return e.API >= MinSessionTrackingAPI
}

// DefaultDataDir returns ~/.local/state/pulsemetry, respecting
// XDG_STATE_HOME if set.
func DefaultDataDir() string {
	if base := os.Getenv("XDG_STATE_HOME"); base != "" {
		return filepath.Join(base, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".local", "state", appDirName)
}
