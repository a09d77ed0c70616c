// Package channel collects enriched envelopes into batches before handing
// them to the on-disk spool.
package channel

import (
	"log"
	"sync"
	"time"

	"github.com/pulsemetry/pulsemetry-go/internal/envelope"
	"github.com/pulsemetry/pulsemetry-go/internal/persistence"
	"github.com/pulsemetry/pulsemetry-go/internal/telctx"
)

const (
	// defaultBatchSize flushes the pending queue as soon as it fills.
	defaultBatchSize = 50

	// defaultFlushInterval bounds how long a partial batch waits before it
	// is persisted anyway.
	defaultFlushInterval = 15 * time.Second
)

type Channel struct {
	ctx   *telctx.TelemetryContext
	store *persistence.Store

	mu         sync.Mutex
	pending    []*envelope.Envelope
	flushTimer *time.Timer

	batchSize int
	interval  time.Duration
}

// New builds a Channel persisting through store. batchSize and interval of
// zero (or less) select the package defaults.
func New(ctx *telctx.TelemetryContext, store *persistence.Store, batchSize int, interval time.Duration) *Channel {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if interval <= 0 {
		interval = defaultFlushInterval
	}
	return &Channel{
		ctx:       ctx,
		store:     store,
		batchSize: batchSize,
		interval:  interval,
	}
}

// Log enriches env with the context tags and the current session identity,
// then queues it for delivery. A full batch is persisted on a fresh
// goroutine; a partial batch arms the flush timer.
func (c *Channel) Log(env *envelope.Envelope) {
	if env == nil {
		return
	}
	env.Tags = c.ctx.Tags()

	c.mu.Lock()
	c.pending = append(c.pending, env)
	if len(c.pending) >= c.batchSize {
		batch := c.pending
		c.pending = nil
		if c.flushTimer != nil {
			c.flushTimer.Stop()
			c.flushTimer = nil
		}
		c.mu.Unlock()
		go c.persist(batch)
		return
	}
	if c.flushTimer == nil {
		c.flushTimer = time.AfterFunc(c.interval, c.Flush)
	}
	c.mu.Unlock()
}

// Flush persists whatever is pending immediately.
func (c *Channel) Flush() {
	c.mu.Lock()
	batch := c.pending
	c.pending = nil
	if c.flushTimer != nil {
		c.flushTimer.Stop()
		c.flushTimer = nil
	}
	c.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	c.persist(batch)
}

// PendingCount returns the number of envelopes waiting in memory.
func (c *Channel) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *Channel) persist(batch []*envelope.Envelope) {
	if err := c.store.Persist(batch); err != nil {
		log.Printf("channel: persisting batch of %d: %v", len(batch), err)
	}
}
