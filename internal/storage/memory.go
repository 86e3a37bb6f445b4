// ABOUTME: In-memory storage area with failure injection.
// ABOUTME: Backs tests of every package that persists state.

package storage

import (
	"context"
	"sync"
)

// MemoryArea keeps values in a map. Setting FailGet or FailSet makes the
// corresponding operation return that error.
type MemoryArea struct {
	name  string
	quota Quota

	mu      sync.Mutex
	items   map[Key][]byte
	FailGet error
	FailSet error
	Gets    int
	Sets    int
}

func NewMemoryArea(name string) *MemoryArea {
	return &MemoryArea{name: name, items: make(map[Key][]byte)}
}

// WithQuota makes Set enforce q.
func (m *MemoryArea) WithQuota(q Quota) *MemoryArea {
	m.quota = q
	return m
}

func (m *MemoryArea) Name() string {
	return m.name
}

func (m *MemoryArea) Get(ctx context.Context, keys []Key) (map[Key][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gets++
	if m.FailGet != nil {
		return nil, m.FailGet
	}
	out := make(map[Key][]byte, len(keys))
	for _, k := range keys {
		if v, ok := m.items[k]; ok {
			out[k] = append([]byte(nil), v...)
		}
	}
	return out, nil
}

func (m *MemoryArea) Set(ctx context.Context, items map[Key][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sets++
	if m.FailSet != nil {
		return m.FailSet
	}

	existing := make(map[string][]byte, len(m.items))
	for k, v := range m.items {
		existing[string(k)] = v
	}
	incoming := make(map[string][]byte, len(items))
	for k, v := range items {
		incoming[string(k)] = v
	}
	if err := m.quota.Check(existing, incoming); err != nil {
		return err
	}

	for k, v := range items {
		m.items[k] = append([]byte(nil), v...)
	}
	return nil
}

// Raw returns the stored bytes for k.
func (m *MemoryArea) Raw(k Key) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[k]
	return v, ok
}

// Fail sets both failure injections under the lock.
func (m *MemoryArea) Fail(get, set error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailGet = get
	m.FailSet = set
}
