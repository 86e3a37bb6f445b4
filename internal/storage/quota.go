// ABOUTME: Size limits of the synced storage area.
// ABOUTME: Mirrors the hard caps browsers put on synced extension storage.

package storage

import (
	"errors"
	"fmt"
)

var (
	ErrQuotaBytes        = errors.New("QUOTA_BYTES quota exceeded")
	ErrQuotaBytesPerItem = errors.New("QUOTA_BYTES_PER_ITEM quota exceeded")
	ErrMaxItems          = errors.New("MAX_ITEMS quota exceeded")
)

// Quota bounds an area. Zero fields are unlimited.
type Quota struct {
	Bytes        int
	BytesPerItem int
	MaxItems     int
}

// SyncQuota is the limit set of the synced area.
var SyncQuota = Quota{
	Bytes:        102400,
	BytesPerItem: 8192,
	MaxItems:     512,
}

// ItemSize is the size an item counts for: key length plus value length.
func ItemSize(key string, value []byte) int {
	return len(key) + len(value)
}

// Check verifies that writing items on top of existing stays within q.
// Both maps hold the stored key as string and its raw value.
func (q Quota) Check(existing, items map[string][]byte) error {
	merged := make(map[string]int, len(existing)+len(items))
	for k, v := range existing {
		merged[k] = ItemSize(k, v)
	}
	for k, v := range items {
		size := ItemSize(k, v)
		if q.BytesPerItem > 0 && size > q.BytesPerItem {
			return fmt.Errorf("%w: %s is %d bytes", ErrQuotaBytesPerItem, k, size)
		}
		merged[k] = size
	}

	if q.MaxItems > 0 && len(merged) > q.MaxItems {
		return fmt.Errorf("%w: %d items", ErrMaxItems, len(merged))
	}

	total := 0
	for _, size := range merged {
		total += size
	}
	if q.Bytes > 0 && total > q.Bytes {
		return fmt.Errorf("%w: %d bytes", ErrQuotaBytes, total)
	}
	return nil
}
