// ABOUTME: Area decorator that reports key changes to a publisher.
// ABOUTME: Plays the role of the storage layer's change notification event.

package storage

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/harper/tagfilter/internal/notify"
)

// Publisher receives change notifications. *notify.Hub implements it.
type Publisher interface {
	Publish(area string, changes notify.Changes)
}

type observedArea struct {
	Area
	pub Publisher
}

// Observe wraps area so that every successful Set publishes the keys whose
// stored value changed, with their old and new values.
func Observe(area Area, pub Publisher) Area {
	return &observedArea{Area: area, pub: pub}
}

func (o *observedArea) Set(ctx context.Context, items map[Key][]byte) error {
	keys := make([]Key, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}

	// Old values are best effort; an unreadable area reports every key.
	old, err := o.Area.Get(ctx, keys)
	if err != nil {
		old = nil
	}

	if err := o.Area.Set(ctx, items); err != nil {
		return err
	}

	changes := notify.Changes{}
	for k, v := range items {
		prev, ok := old[k]
		if ok && bytes.Equal(prev, v) {
			continue
		}
		c := notify.Change{NewValue: json.RawMessage(v)}
		if ok {
			c.OldValue = json.RawMessage(prev)
		}
		changes[string(k)] = c
	}
	o.pub.Publish(o.Area.Name(), changes)
	return nil
}
