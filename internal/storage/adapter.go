// ABOUTME: Persistence adapter writing state to a synced and a local area.
// ABOUTME: Reads prefer the synced area, then the local one, then defaults.

package storage

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/harper/tagfilter/internal/logging"
	"github.com/harper/tagfilter/internal/models"
)

// Adapter is the single persistence entry point. Writes go to both areas
// independently; a failure in one never rolls back the other. Reads try
// the primary area first and fall back to the backup area on an
// area-level error. When both fail, callers get models.DefaultState.
type Adapter struct {
	primary Area
	backup  Area
	log     *log.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger for storage warnings.
func WithLogger(l *log.Logger) Option {
	return func(a *Adapter) {
		a.log = l
	}
}

// NewAdapter creates an adapter over primary (synced) and backup (local).
func NewAdapter(primary, backup Area, opts ...Option) *Adapter {
	a := &Adapter{
		primary: primary,
		backup:  backup,
		log:     logging.For("storage"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Primary returns the synced area.
func (a *Adapter) Primary() Area {
	return a.primary
}

// Backup returns the local area.
func (a *Adapter) Backup() Area {
	return a.backup
}

// Save writes the named keys of st to both areas. The returned error joins
// one *StorageError per failed area; nil means both writes succeeded.
func (a *Adapter) Save(ctx context.Context, st models.State, keys ...Key) error {
	if len(keys) == 0 {
		keys = AllKeys
	}
	items, err := Encode(st, keys...)
	if err != nil {
		return err
	}

	var errs []error
	if err := a.primary.Set(ctx, items); err != nil {
		a.warn("save to synced area failed", a.primary, err, keys)
		errs = append(errs, &StorageError{Area: a.primary.Name(), Op: "set", Err: err})
	}
	if err := a.backup.Set(ctx, items); err != nil {
		a.log.Error("save to local area failed", "area", a.backup.Name(), "keys", keys, "err", err)
		errs = append(errs, &StorageError{Area: a.backup.Name(), Op: "set", Err: err})
	}
	return errors.Join(errs...)
}

// Load reads the named keys. Keys that are not stored keep their default.
func (a *Adapter) Load(ctx context.Context, keys ...Key) models.State {
	if len(keys) == 0 {
		keys = AllKeys
	}

	items, err := a.primary.Get(ctx, keys)
	if err != nil {
		a.warn("load from synced area failed, trying local", a.primary, err, keys)
		items, err = a.backup.Get(ctx, keys)
		if err != nil {
			a.log.Error("load from local area failed, using defaults", "area", a.backup.Name(), "keys", keys, "err", err)
			return models.DefaultState()
		}
	}

	st, err := Decode(models.DefaultState(), items)
	if err != nil {
		a.log.Warn("ignoring malformed stored values", "err", err)
	}
	return st
}

func (a *Adapter) warn(msg string, area Area, err error, keys []Key) {
	if errors.Is(err, ErrAreaDisabled) {
		a.log.Debug(msg, "area", area.Name(), "keys", keys, "err", err)
		return
	}
	a.log.Warn(msg, "area", area.Name(), "keys", keys, "err", err)
}

func (a *Adapter) Filters(ctx context.Context) []string {
	return a.Load(ctx, KeyFilters).Filters
}

func (a *Adapter) SetFilters(ctx context.Context, filters []string) error {
	return a.Save(ctx, models.State{Filters: filters}, KeyFilters)
}

func (a *Adapter) ActiveFilter(ctx context.Context) string {
	return a.Load(ctx, KeyActiveFilter).ActiveFilter
}

func (a *Adapter) SetActiveFilter(ctx context.Context, name string) error {
	return a.Save(ctx, models.State{ActiveFilter: name}, KeyActiveFilter)
}

func (a *Adapter) ClearActiveFilter(ctx context.Context) error {
	return a.SetActiveFilter(ctx, "")
}

func (a *Adapter) HideFeatured(ctx context.Context) bool {
	return a.Load(ctx, KeyHideFeatured).HideFeatured
}

func (a *Adapter) SetHideFeatured(ctx context.Context, hide bool) error {
	return a.Save(ctx, models.State{HideFeatured: hide}, KeyHideFeatured)
}
