// Package sender ships spooled envelope batches to the collector over a
// WebSocket connection.
package sender

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pulsemetry/pulsemetry-go/internal/persistence"
)

// defaultServerURL is the hosted collector endpoint. Installations with
// their own collector override it through SetCustomServerURL.
const defaultServerURL = "wss://collect.pulsemetry.io/v2/track"

// ack is the collector's per-batch acknowledgement.
type ack struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// Sender drains the spool towards the collector. Sending is fire-and-forget
// from the caller's point of view: TriggerSending never blocks, failures are
// logged, and unacked batches stay spooled for the next trigger.
type Sender struct {
	mu        sync.Mutex
	serverURL string
	store     *persistence.Store

	dialer  *websocket.Dialer
	sending atomic.Bool
}

func New() *Sender {
	return &Sender{
		serverURL: defaultServerURL,
		dialer:    &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// SetPersistence wires the spool the sender drains. Called once during
// registration, before the channel is constructed.
func (s *Sender) SetPersistence(store *persistence.Store) {
	s.mu.Lock()
	s.store = store
	s.mu.Unlock()
}

// SetCustomServerURL points the sender at a custom collector. The URL is
// passed through untouched; a malformed one surfaces as a dial error.
func (s *Sender) SetCustomServerURL(url string) {
	s.mu.Lock()
	s.serverURL = url
	s.mu.Unlock()
}

// ServerURL returns the collector endpoint currently in use.
func (s *Sender) ServerURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serverURL
}

// TriggerSending starts a drain of the spool unless one is already running.
func (s *Sender) TriggerSending() {
	if !s.sending.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer s.sending.Store(false)
		s.drain()
	}()
}

// drain sends every pending batch over one connection, deleting each file as
// the collector acks it. Any failure abandons the drain; remaining batches
// are retried on the next trigger.
func (s *Sender) drain() {
	s.mu.Lock()
	store := s.store
	url := s.serverURL
	s.mu.Unlock()
	if store == nil {
		return
	}

	pending := store.Pending()
	if len(pending) == 0 {
		return
	}

	conn, _, err := s.dialer.Dial(url, nil)
	if err != nil {
		log.Printf("sender: dialing %s: %v", url, err)
		return
	}
	defer conn.Close()

	for _, path := range pending {
		data, err := store.Read(path)
		if err != nil {
			log.Printf("sender: reading batch: %v", err)
			store.Delete(path)
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("sender: writing batch: %v", err)
			return
		}
		var a ack
		if err := conn.ReadJSON(&a); err != nil {
			log.Printf("sender: reading ack: %v", err)
			return
		}
		if a.Status != "accepted" {
			log.Printf("sender: batch rejected: %s", a.Status)
			return
		}
		store.Delete(path)
	}
}
