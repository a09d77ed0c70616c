// Package envelope wraps typed telemetry payloads into the generic wire
// envelope carried through the delivery pipeline.
package envelope

import (
	"time"

	"github.com/google/uuid"
)

// Payload is implemented by telemetry payloads that can be wrapped in an
// Envelope. BaseType is the payload's declared type tag; EnvelopeName is the
// qualified schema name used for routing.
type Payload interface {
	BaseType() string
	EnvelopeName() string
}

// Envelope is the generic wrapper carrying a payload plus routing metadata.
// One is built fresh per event; ownership transfers to the channel on Log,
// which fills Tags during enrichment.
type Envelope struct {
	ID       string            `json:"id"`
	Time     time.Time         `json:"time"`
	Name     string            `json:"name"`
	BaseType string            `json:"baseType"`
	Tags     map[string]string `json:"tags,omitempty"`
	Data     Payload           `json:"data"`
}

// New wraps payload in a fresh Envelope, deriving the type tag and the
// qualified name from the payload's declared schema.
func New(p Payload) *Envelope {
	return &Envelope{
		ID:       uuid.New().String(),
		Time:     time.Now().UTC(),
		Name:     p.EnvelopeName(),
		BaseType: p.BaseType(),
		Data:     p,
	}
}
