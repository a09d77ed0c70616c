package telemetry

import (
	"log"
	"sync/atomic"
	"time"
	"weak"

	"github.com/google/uuid"

	"github.com/pulsemetry/pulsemetry-go/host"
	"github.com/pulsemetry/pulsemetry-go/internal/channel"
	"github.com/pulsemetry/pulsemetry-go/internal/envelope"
	"github.com/pulsemetry/pulsemetry-go/internal/persistence"
	"github.com/pulsemetry/pulsemetry-go/internal/sender"
	"github.com/pulsemetry/pulsemetry-go/internal/telctx"
)

// sessionRenewalInterval is how long the app must sit in the background
// before the next resume starts a new session. The comparison is inclusive:
// an elapsed time exactly equal to the interval renews.
const sessionRenewalInterval = 20 * time.Second

// envelopeLogger is the slice of the delivery pipeline the manager uses.
type envelopeLogger interface {
	Log(*envelope.Envelope)
}

// Manager is the session tracking controller. It subscribes to host
// lifecycle callbacks, decides when a session begins, rotates the session
// identity and emits session-state events into the delivery pipeline.
type Manager struct {
	env     *host.Env
	app     weak.Pointer[host.App]
	telctx  *telctx.TelemetryContext
	sender  *sender.Sender
	channel envelopeLogger

	// foregroundCount and lastBackground are updated independently, not
	// under one lock. A resume racing a pause can read a timestamp written
	// by the logically later pause; that narrow window is accepted in
	// exchange for a lock-free hot path.
	foregroundCount atomic.Int32
	lastBackground  atomic.Int64 // millisecond epoch

	sessionTrackingDisabled atomic.Bool

	now func() time.Time
}

// collaborators carries pipeline overrides for tests. Zero value means
// "construct the real thing".
type collaborators struct {
	sender      *sender.Sender
	persistence *persistence.Store
	channel     envelopeLogger
}

// newManager wires the delivery pipeline. The construction order is
// load-bearing: the sender must exist before the spool (the spool notifies
// it), and the spool before the channel (the channel persists through it).
func newManager(env *host.Env, app *host.App, appID string, deps collaborators) *Manager {
	m := &Manager{
		env:    env,
		telctx: telctx.New(env, appID),
		now:    time.Now,
	}
	if app != nil {
		m.app = weak.Make(app)
	}

	snd := deps.sender
	if snd == nil {
		snd = sender.New()
	}
	m.sender = snd
	if env != nil && env.ServerURL != "" {
		snd.SetCustomServerURL(env.ServerURL)
	}

	pst := deps.persistence
	if pst == nil {
		pst = persistence.New(env, snd)
	}
	snd.SetPersistence(pst)

	if deps.channel != nil {
		m.channel = deps.channel
	} else {
		batchSize := 0
		var interval time.Duration
		if env != nil {
			batchSize = env.ChannelBatchSize
			interval = env.ChannelFlushInterval
		}
		m.channel = channel.New(m.telctx, pst, batchSize, interval)
	}

	m.lastBackground.Store(m.now().UnixMilli())
	return m
}

// SessionID returns the current session identifier, or the empty string
// before the first session starts.
func (m *Manager) SessionID() string {
	return m.telctx.SessionID()
}

func (m *Manager) trackingEnabled() bool {
	return !m.sessionTrackingDisabled.Load()
}

// application returns the host app handle, or nil once the host has
// released it. The SDK never extends the handle's lifetime.
func (m *Manager) application() *host.App {
	return m.app.Value()
}

func (m *Manager) subscribe() {
	if app := m.application(); app != nil {
		app.RegisterLifecycleCallbacks(m)
	}
}

func (m *Manager) unsubscribe() {
	if app := m.application(); app != nil {
		app.UnregisterLifecycleCallbacks(m)
	}
}

// SceneResumed drives the renewal decision. It is the only reliable
// first-session trigger: registration happens after the host's own
// bootstrap, so the created/started callbacks of the first scene are never
// observed.
func (m *Manager) SceneResumed(string) {
	m.updateSession()
}

// ScenePaused records when the app last went to the background.
func (m *Manager) ScenePaused(string) {
	m.lastBackground.Store(m.now().UnixMilli())
}

func (m *Manager) SceneCreated(string)   {}
func (m *Manager) SceneStarted(string)   {}
func (m *Manager) SceneStopped(string)   {}
func (m *Manager) SceneSaveState(string) {}
func (m *Manager) SceneDestroyed(string) {}

// updateSession decides whether a resume starts a session. The first resume
// of the process always does; later resumes renew only when the app stayed
// backgrounded for at least sessionRenewalInterval.
func (m *Manager) updateSession() {
	count := m.foregroundCount.Add(1) - 1
	if count == 0 {
		if m.trackingEnabled() {
			log.Printf("telemetry: starting session tracking")
			m.renewSession()
		} else {
			log.Printf("telemetry: session tracking disabled, not starting a session")
		}
		return
	}

	now := m.now().UnixMilli()
	then := m.lastBackground.Swap(now)
	if now-then >= sessionRenewalInterval.Milliseconds() && m.trackingEnabled() {
		log.Printf("telemetry: renewing session after %dms in background", now-then)
		m.renewSession()
	}
}

// renewSession rotates the session identity and emits the start event. The
// superseded identifier is simply discarded; there is no end record.
func (m *Manager) renewSession() {
	id := uuid.New().String()
	m.telctx.UpdateSessionContext(id)
	m.trackSessionState(envelope.SessionStart)
}

// trackSessionState builds and enqueues the session event off the calling
// goroutine. The lifecycle callback never waits on the pipeline; delivery
// failures are the pipeline's concern and are not reported back.
func (m *Manager) trackSessionState(state envelope.SessionState) {
	ch := m.channel
	go func() {
		ch.Log(envelope.New(envelope.SessionStateData{State: state}))
	}()
}
