// ABOUTME: Change notification channel shared by every open context.
// ABOUTME: Storage areas publish old/new values; listeners react per key.

package notify

import (
	"bytes"
	"encoding/json"
	"sort"
	"sync"
)

// Change carries the old and new JSON value of one storage key. A nil
// value means the key was absent.
type Change struct {
	OldValue json.RawMessage `json:"oldValue,omitempty"`
	NewValue json.RawMessage `json:"newValue,omitempty"`
}

// Changed reports whether the stored bytes differ.
func (c Change) Changed() bool {
	return !bytes.Equal(c.OldValue, c.NewValue)
}

// NewString decodes NewValue as a string. Absent, null and non-string
// values decode to "".
func (c Change) NewString() string {
	var s string
	if len(c.NewValue) == 0 {
		return ""
	}
	if err := json.Unmarshal(c.NewValue, &s); err != nil {
		return ""
	}
	return s
}

// Changes maps storage keys to their change.
type Changes map[string]Change

// Keys returns the changed keys in sorted order.
func (c Changes) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Listener receives the changes applied to one storage area.
type Listener func(area string, changes Changes)

// Hub fans change notifications out to subscribed listeners. Listeners run
// synchronously on the publishing goroutine, in subscription order.
type Hub struct {
	mu        sync.Mutex
	next      int
	listeners map[int]Listener
	order     []int
}

func NewHub() *Hub {
	return &Hub{listeners: make(map[int]Listener)}
}

// Subscribe registers fn and returns a function that removes it.
func (h *Hub) Subscribe(fn Listener) (cancel func()) {
	h.mu.Lock()
	id := h.next
	h.next++
	h.listeners[id] = fn
	h.order = append(h.order, id)
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.listeners, id)
			for i, v := range h.order {
				if v == id {
					h.order = append(h.order[:i], h.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish delivers changes to every listener. Empty change sets are dropped.
func (h *Hub) Publish(area string, changes Changes) {
	if len(changes) == 0 {
		return
	}

	h.mu.Lock()
	fns := make([]Listener, 0, len(h.order))
	for _, id := range h.order {
		fns = append(fns, h.listeners[id])
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(area, changes)
	}
}

// Len returns the number of subscribed listeners.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}
