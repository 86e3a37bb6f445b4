// ABOUTME: Synced storage area on top of Charm KV.
// ABOUTME: Stores each state key under a prefix and enforces the sync quota.

package charm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
	"github.com/harper/tagfilter/internal/storage"
)

const (
	// StatePrefix is the key prefix for persisted state values.
	StatePrefix = "state:"

	// SyncArea is the name the synced area reports.
	SyncArea = "sync"
)

func stateKey(k storage.Key) []byte {
	return []byte(StatePrefix + string(k))
}

// Area implements storage.Area against the charm database.
type Area struct {
	client *Client
	quota  storage.Quota
}

func NewArea(c *Client) *Area {
	return &Area{client: c, quota: storage.SyncQuota}
}

func (a *Area) Name() string {
	return SyncArea
}

func (a *Area) Get(ctx context.Context, keys []storage.Key) (map[storage.Key][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[storage.Key][]byte, len(keys))
	err := a.client.DoReadOnly(func(k *kv.KV) error {
		for _, key := range keys {
			val, err := k.Get(stateKey(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("get %s: %w", key, err)
			}
			out[key] = val
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Set writes items in one transaction after checking the quota against
// everything already stored under the state prefix.
func (a *Area) Set(ctx context.Context, items map[storage.Key][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.client.Do(func(k *kv.KV) error {
		existing, err := stored(k)
		if err != nil {
			return err
		}
		if err := a.quota.Check(existing, quotaItems(items)); err != nil {
			return err
		}
		for key, val := range items {
			if err := k.Set(stateKey(key), val); err != nil {
				return fmt.Errorf("set %s: %w", key, err)
			}
		}
		return nil
	})
}

func stored(k *kv.KV) (map[string][]byte, error) {
	keys, err := k.Keys()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte)
	for _, raw := range keys {
		name, ok := strings.CutPrefix(string(raw), StatePrefix)
		if !ok {
			continue
		}
		val, err := k.Get(raw)
		if errors.Is(err, badger.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[name] = val
	}
	return out, nil
}

// quotaItems converts items to the shape Quota.Check expects. Sizes count
// the bare key name, matching how the quota is specified.
func quotaItems(items map[storage.Key][]byte) map[string][]byte {
	out := make(map[string][]byte, len(items))
	for k, v := range items {
		out[string(k)] = v
	}
	return out
}
