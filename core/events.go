package core

import (
	"context"
	"time"
)

// Event names
const (
	EventLedgerSaved   = "ledger.saved"
	EventSlipSaved     = "slip.saved"
	EventEntityChanged = "entity.changed"
)

// Event describes a committed write, for whoever listens downstream.
type Event struct {
	Name       string    `json:"name"`
	EntityKind string    `json:"entity_kind"` // student, staff, expense, slip
	EntityID   string    `json:"entity_id"`
	Action     string    `json:"action,omitempty"` // created, updated, deleted
	Year       int       `json:"year,omitempty"`
	At         time.Time `json:"at"`
}

// EventPublisher is any service that can broadcast write events.
// Publishing is best effort: callers log failures and carry on.
type EventPublisher interface {
	Publish(ctx context.Context, evt Event) error
}

// PublishQuietly publishes evt, logging instead of returning any error.
func PublishQuietly(ctx context.Context, pub EventPublisher, logger Logger, evt Event) {
	if pub == nil {
		return
	}
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	if err := pub.Publish(ctx, evt); err != nil && logger != nil {
		logger.Warn("publishing "+evt.Name, err, map[string]interface{}{"entity_id": evt.EntityID})
	}
}
