// ABOUTME: Storage area abstraction and the keys tagfilter persists.
// ABOUTME: Areas hold JSON values; synced and local areas implement it.

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/harper/tagfilter/internal/models"
)

// Key names one persisted value.
type Key string

const (
	KeyFilters      Key = "filters"
	KeyActiveFilter Key = "activeFilter"
	KeyHideFeatured Key = "hideFeatured"
)

// AllKeys lists every key of models.State.
var AllKeys = []Key{KeyFilters, KeyActiveFilter, KeyHideFeatured}

// Area is one key-value storage area. Get omits keys that are not stored.
type Area interface {
	Name() string
	Get(ctx context.Context, keys []Key) (map[Key][]byte, error)
	Set(ctx context.Context, items map[Key][]byte) error
}

var (
	ErrAreaDisabled = errors.New("storage area disabled")
	ErrUnknownKey   = errors.New("unknown storage key")
)

// StorageError is a failed read or write on one area.
type StorageError struct {
	Area string
	Op   string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Area, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Encode returns the JSON value of each requested key of st.
func Encode(st models.State, keys ...Key) (map[Key][]byte, error) {
	items := make(map[Key][]byte, len(keys))
	for _, k := range keys {
		var v any
		switch k {
		case KeyFilters:
			filters := st.Filters
			if filters == nil {
				filters = []string{}
			}
			v = filters
		case KeyActiveFilter:
			if st.ActiveFilter != "" {
				v = st.ActiveFilter
			}
		case KeyHideFeatured:
			v = st.HideFeatured
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownKey, k)
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", k, err)
		}
		items[k] = data
	}
	return items, nil
}

// Decode overlays the stored values onto st. Absent keys keep the value
// st already has; malformed values are reported and skipped.
func Decode(st models.State, items map[Key][]byte) (models.State, error) {
	var errs []error
	for k, data := range items {
		switch k {
		case KeyFilters:
			var filters []string
			if err := json.Unmarshal(data, &filters); err != nil {
				errs = append(errs, fmt.Errorf("decode %s: %w", k, err))
				continue
			}
			if filters == nil {
				filters = []string{}
			}
			st.Filters = filters
		case KeyActiveFilter:
			var active *string
			if err := json.Unmarshal(data, &active); err != nil {
				errs = append(errs, fmt.Errorf("decode %s: %w", k, err))
				continue
			}
			st.ActiveFilter = ""
			if active != nil {
				st.ActiveFilter = *active
			}
		case KeyHideFeatured:
			var hide *bool
			if err := json.Unmarshal(data, &hide); err != nil {
				errs = append(errs, fmt.Errorf("decode %s: %w", k, err))
				continue
			}
			if hide != nil {
				st.HideFeatured = *hide
			}
		}
	}
	return st, errors.Join(errs...)
}

type disabledArea struct {
	name string
}

// Disabled returns an area whose every operation fails with
// ErrAreaDisabled, so reads fall through to the backup area.
func Disabled(name string) Area {
	return disabledArea{name: name}
}

func (d disabledArea) Name() string { return d.name }

func (d disabledArea) Get(context.Context, []Key) (map[Key][]byte, error) {
	return nil, ErrAreaDisabled
}

func (d disabledArea) Set(context.Context, map[Key][]byte) error {
	return ErrAreaDisabled
}
