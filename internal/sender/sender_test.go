package sender

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pulsemetry/pulsemetry-go/host"
	"github.com/pulsemetry/pulsemetry-go/internal/envelope"
	"github.com/pulsemetry/pulsemetry-go/internal/persistence"
)

// collectorStub is a WebSocket endpoint that records received batches and
// answers each with the configured ack status.
type collectorStub struct {
	mu      sync.Mutex
	batches [][]byte
	status  string
}

func newCollectorStub(t *testing.T, status string) (*httptest.Server, *collectorStub) {
	t.Helper()
	stub := &collectorStub{status: status}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			stub.mu.Lock()
			stub.batches = append(stub.batches, data)
			stub.mu.Unlock()

			var batch []json.RawMessage
			_ = json.Unmarshal(data, &batch)
			ack := map[string]any{"status": stub.status, "count": len(batch)}
			if err := conn.WriteJSON(ack); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, stub
}

func (s *collectorStub) batchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func spoolBatches(t *testing.T, n int) *persistence.Store {
	t.Helper()
	store := persistence.New(&host.Env{DataDir: t.TempDir()}, nil)
	for i := 0; i < n; i++ {
		batch := []*envelope.Envelope{envelope.New(envelope.SessionStateData{State: envelope.SessionStart})}
		if err := store.Persist(batch); err != nil {
			t.Fatalf("Persist: %v", err)
		}
	}
	return store
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestTriggerSendingDrainsSpool(t *testing.T) {
	srv, stub := newCollectorStub(t, "accepted")
	store := spoolBatches(t, 3)

	s := New()
	s.SetPersistence(store)
	s.SetCustomServerURL(wsURL(srv))

	s.TriggerSending()

	waitFor(t, "spool drain", func() bool { return store.PendingCount() == 0 })
	waitFor(t, "batch delivery", func() bool { return stub.batchCount() == 3 })
}

func TestRejectedBatchStaysSpooled(t *testing.T) {
	srv, stub := newCollectorStub(t, "rejected")
	store := spoolBatches(t, 2)

	s := New()
	s.SetPersistence(store)
	s.SetCustomServerURL(wsURL(srv))

	s.TriggerSending()

	// The first rejection abandons the drain; both batches survive for
	// the next trigger.
	waitFor(t, "rejection", func() bool { return stub.batchCount() == 1 })
	time.Sleep(50 * time.Millisecond)
	if got := store.PendingCount(); got != 2 {
		t.Errorf("pending = %d, want 2", got)
	}
}

func TestUnreachableCollectorKeepsBatches(t *testing.T) {
	store := spoolBatches(t, 1)

	s := New()
	s.SetPersistence(store)
	s.SetCustomServerURL("ws://127.0.0.1:1/track")

	s.TriggerSending()

	time.Sleep(100 * time.Millisecond)
	if got := store.PendingCount(); got != 1 {
		t.Errorf("pending = %d, want 1", got)
	}
}

func TestTriggerWithoutPersistenceIsQuiet(t *testing.T) {
	s := New()
	s.TriggerSending()
	time.Sleep(20 * time.Millisecond)
}

func TestSetCustomServerURL(t *testing.T) {
	s := New()
	if got := s.ServerURL(); got != defaultServerURL {
		t.Errorf("default URL = %q, want %q", got, defaultServerURL)
	}

	s.SetCustomServerURL("ws://collector.internal/track")
	if got := s.ServerURL(); got != "ws://collector.internal/track" {
		t.Errorf("URL = %q", got)
	}
}

func TestRepeatTriggersDeliverEverything(t *testing.T) {
	srv, stub := newCollectorStub(t, "accepted")
	store := spoolBatches(t, 1)

	s := New()
	s.SetPersistence(store)
	s.SetCustomServerURL(wsURL(srv))

	// Overlapping triggers are collapsed by the in-flight guard; a later
	// trigger after new batches arrive drains them too.
	s.TriggerSending()
	s.TriggerSending()
	waitFor(t, "first drain", func() bool { return store.PendingCount() == 0 })

	batch := []*envelope.Envelope{envelope.New(envelope.SessionStateData{})}
	if err := store.Persist(batch); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	s.TriggerSending()
	waitFor(t, "second drain", func() bool { return store.PendingCount() == 0 })
	waitFor(t, "delivery", func() bool { return stub.batchCount() >= 2 })
}
