package collector

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// wireEnvelope mirrors the SDK envelope shape for inspection. Payloads are
// kept raw; the collector routes on the envelope metadata only.
type wireEnvelope struct {
	ID       string            `json:"id"`
	Time     time.Time         `json:"time"`
	Name     string            `json:"name"`
	BaseType string            `json:"baseType"`
	Tags     map[string]string `json:"tags,omitempty"`
	Data     json.RawMessage   `json:"data"`
}

type ackMessage struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type statsPayload struct {
	EnvelopesReceived int64 `json:"envelopesReceived"`
	BatchesReceived   int64 `json:"batchesReceived"`
	Viewers           int   `json:"viewers"`
}

type Server struct {
	hub            *Hub
	allowedOrigins map[string]bool
	allowedHosts   map[string]bool

	envelopes atomic.Int64
	batches   atomic.Int64
}

func NewServer(hub *Hub, allowedOrigins []string) *Server {
	s := &Server{
		hub:            hub,
		allowedOrigins: make(map[string]bool),
		allowedHosts:   make(map[string]bool),
	}

	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}

	return s
}

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/track", s.handleTrack)
	mux.HandleFunc("/live", s.handleLive)
	mux.HandleFunc("/api/stats", s.handleStats)
}

// handleTrack accepts envelope batches from SDK senders. Each text message
// is one batch (a JSON array of envelopes); each batch is acked before the
// next is read, and valid batches are rebroadcast to live viewers.
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("track upgrade error: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("Sender connected: %s", r.RemoteAddr)
	defer log.Printf("Sender disconnected: %s", r.RemoteAddr)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var batch []wireEnvelope
		if err := json.Unmarshal(data, &batch); err != nil {
			log.Printf("rejecting malformed batch from %s: %v", r.RemoteAddr, err)
			if err := conn.WriteJSON(ackMessage{Status: "invalid"}); err != nil {
				return
			}
			continue
		}

		s.batches.Add(1)
		s.envelopes.Add(int64(len(batch)))
		for _, env := range batch {
			log.Printf("envelope %s name=%s baseType=%s session=%s",
				env.ID, env.Name, env.BaseType, env.Tags["session.id"])
		}

		if err := conn.WriteJSON(ackMessage{Status: "accepted", Count: len(batch)}); err != nil {
			return
		}
		s.hub.Broadcast(data)
	}
}

// handleLive attaches a viewer that receives every accepted batch.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("live upgrade error: %v", err)
		return
	}

	log.Printf("Live viewer connected: %s", r.RemoteAddr)
	c := s.hub.AddClient(conn)

	go func() {
		defer func() {
			s.hub.RemoveClient(c)
			log.Printf("Live viewer disconnected: %s", r.RemoteAddr)
		}()
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
		}
	}()
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statsPayload{
		EnvelopesReceived: s.envelopes.Load(),
		BatchesReceived:   s.batches.Load(),
		Viewers:           s.hub.ClientCount(),
	})
}

// checkOrigin admits connections without an Origin header unconditionally;
// SDK senders are not browsers and send none. Browser viewers must match
// the allowlist when one is configured; without one, only same-host and
// local development origins get in.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.allowedOrigins) > 0 {
		if s.allowedOrigins[origin] {
			return true
		}
		parsed, err := url.Parse(origin)
		return err == nil && parsed.Host != "" && s.allowedHosts[parsed.Host]
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	if parsed.Host == r.Host {
		return true
	}
	switch parsed.Hostname() {
	case "localhost", "127.0.0.1":
		return true
	}
	return false
}

// ListenAndServe runs the collector's HTTP endpoints until the listener
// fails.
func ListenAndServe(host string, port int, mux *http.ServeMux) error {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	log.Printf("Collector listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}
