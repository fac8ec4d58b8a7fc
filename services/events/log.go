package eventsvc

import (
	"context"
	"sync"

	"github.com/trezcool/bursar/core"
)

// LogPublisher stands in for a broker: events are logged at debug level and kept in memory.
type LogPublisher struct {
	logger core.Logger

	mu     sync.Mutex
	events []core.Event
}

var _ core.EventPublisher = (*LogPublisher)(nil)

func NewLogPublisher(logger core.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, evt core.Event) error {
	p.mu.Lock()
	p.events = append(p.events, evt)
	p.mu.Unlock()
	if p.logger != nil {
		p.logger.Debug("event "+evt.Name, map[string]interface{}{
			"entity_kind": evt.EntityKind,
			"entity_id":   evt.EntityID,
			"action":      evt.Action,
			"year":        evt.Year,
		})
	}
	return nil
}

// Events returns what was published so far, oldest first.
func (p *LogPublisher) Events() []core.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]core.Event(nil), p.events...)
}
