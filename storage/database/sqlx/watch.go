package sqlxrepos

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/live"
)

const (
	minReconnectInterval = 100 * time.Millisecond
	maxReconnectInterval = time.Minute
	listenerPingInterval = 90 * time.Second
)

// Watcher reports the changes the notify_collection trigger announces, one
// LISTEN connection per watched collection.
type Watcher struct {
	dsn    string
	logger core.Logger
}

var _ live.Watcher = (*Watcher)(nil) // interface compliance check

func NewWatcher(dsn string, logger core.Logger) *Watcher {
	return &Watcher{dsn: dsn, logger: logger}
}

func (w *Watcher) Watch(ctx context.Context, collection string) (<-chan struct{}, error) {
	listener := pq.NewListener(w.dsn, minReconnectInterval, maxReconnectInterval, func(ev pq.ListenerEventType, err error) {
		if err != nil && w.logger != nil {
			w.logger.Warn("listening to "+collection, err)
		}
	})
	if err := listener.Listen(collection); err != nil {
		_ = listener.Close()
		return nil, errors.Wrapf(err, "listening to %s", collection)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer func() { _ = listener.Close() }()

		ticker := time.NewTicker(listenerPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-listener.Notify:
				// a nil notification follows a reconnection: changes may have been missed either way
				select {
				case out <- struct{}{}:
				default:
				}
			case <-ticker.C:
				go func() { _ = listener.Ping() }()
			}
		}
	}()
	return out, nil
}
