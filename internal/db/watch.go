// ABOUTME: Polls the local kv table for writes made by other processes.
// ABOUTME: Publishes what changed so long-running commands stay current.

package db

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/tagfilter/internal/logging"
	"github.com/harper/tagfilter/internal/notify"
	"github.com/harper/tagfilter/internal/storage"
)

const DefaultWatchInterval = time.Second

// Watcher diffs the local area against the values it saw last and
// publishes the keys that moved. Writes from this process are seen too;
// listeners already treat a repeated value as a no-op.
type Watcher struct {
	db       *sql.DB
	area     string
	pub      storage.Publisher
	interval time.Duration
	log      *log.Logger

	mu   sync.Mutex
	seen map[storage.Key][]byte
}

func NewWatcher(db *sql.DB, pub storage.Publisher, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	return &Watcher{
		db:       db,
		area:     LocalArea,
		pub:      pub,
		interval: interval,
		log:      logging.For("watch"),
		seen:     map[storage.Key][]byte{},
	}
}

// Prime records the stored values without publishing them.
func (w *Watcher) Prime(ctx context.Context) error {
	vals, err := GetValues(ctx, w.db, w.area, storage.AllKeys)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.seen = vals
	w.mu.Unlock()
	return nil
}

// Poll reads the area once and publishes every key whose value differs
// from the previous read. A key that disappeared is reported with no new
// value.
func (w *Watcher) Poll(ctx context.Context) (notify.Changes, error) {
	vals, err := GetValues(ctx, w.db, w.area, storage.AllKeys)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	changes := notify.Changes{}
	for _, k := range storage.AllKeys {
		prev, had := w.seen[k]
		cur, has := vals[k]
		if had == has && bytes.Equal(prev, cur) {
			continue
		}
		var c notify.Change
		if had {
			c.OldValue = json.RawMessage(prev)
		}
		if has {
			c.NewValue = json.RawMessage(cur)
		}
		changes[string(k)] = c
	}
	w.seen = vals
	w.mu.Unlock()

	if len(changes) > 0 {
		w.log.Debug("local store changed", "keys", changes.Keys())
		w.pub.Publish(w.area, changes)
	}
	return changes, nil
}

// Run polls until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Poll(ctx); err != nil && ctx.Err() == nil {
				w.log.Warn("poll local store", "err", err)
			}
		}
	}
}
