// ABOUTME: Controller behind the filter management surface.
// ABOUTME: Owns filter list state, persists it and messages the page.

package popup

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/harper/tagfilter/internal/logging"
	"github.com/harper/tagfilter/internal/models"
	"github.com/harper/tagfilter/internal/notify"
	"github.com/harper/tagfilter/internal/storage"
)

// DefaultTargetHost is the host whose pages accept filter messages.
const DefaultTargetHost = "notebooklm.google.com"

// TargetResolver finds the page that should receive messages.
type TargetResolver interface {
	ActiveTarget(ctx context.Context) (notify.Target, error)
}

// Controller holds one explicit copy of the state. Every mutation goes
// through the models functions, is persisted, and then announced to the
// active page. Storage and messaging failures are logged, never returned.
type Controller struct {
	mu      sync.Mutex
	state   models.State
	store   *storage.Adapter
	sender  notify.Sender
	targets TargetResolver
	host    string
	policy  models.DuplicatePolicy
	log     *log.Logger
}

type Option func(*Controller)

func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		c.log = l
	}
}

// WithTargetHost restricts messages to pages whose URL contains host.
// An empty host disables the check.
func WithTargetHost(host string) Option {
	return func(c *Controller) {
		c.host = host
	}
}

func WithDuplicatePolicy(p models.DuplicatePolicy) Option {
	return func(c *Controller) {
		c.policy = p
	}
}

// NewController creates a controller. sender and targets may be nil, in
// which case state is persisted but no page is messaged.
func NewController(store *storage.Adapter, sender notify.Sender, targets TargetResolver, opts ...Option) *Controller {
	c := &Controller{
		state:   models.DefaultState(),
		store:   store,
		sender:  sender,
		targets: targets,
		host:    DefaultTargetHost,
		policy:  models.CaseSensitive,
		log:     logging.For("popup"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load replaces the in-memory state with the persisted one.
func (c *Controller) Load(ctx context.Context) models.State {
	st := c.store.Load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = st
	return st.Clone()
}

func (c *Controller) State() models.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// SortedFilters returns the filters in display order.
func (c *Controller) SortedFilters() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.SortFilters(c.state.Filters)
}

// Add appends a filter. Invalid or duplicate names return a
// *models.ValidationError and leave the state unchanged.
func (c *Controller) Add(ctx context.Context, name string) error {
	c.mu.Lock()
	next, err := models.AddFilterWithPolicy(name, c.state.Filters, c.policy)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.state.Filters = next
	st := c.state.Clone()
	c.mu.Unlock()

	c.save(ctx, st)
	return nil
}

// Remove deletes a filter. Removing the active filter also clears it and
// tells the page to show everything.
func (c *Controller) Remove(ctx context.Context, name string) {
	c.mu.Lock()
	c.state.Filters = models.RemoveFilter(name, c.state.Filters)
	cleared := models.ShouldClearActive(name, c.state.ActiveFilter)
	if cleared {
		c.state.ActiveFilter = ""
	}
	st := c.state.Clone()
	c.mu.Unlock()

	c.save(ctx, st)
	if cleared {
		c.send(ctx, notify.ClearFilter())
	}
}

// Toggle activates name when active is true and clears the active filter
// otherwise.
func (c *Controller) Toggle(ctx context.Context, name string, active bool) {
	c.mu.Lock()
	c.state.ActiveFilter = models.ToggleActive(name, active, c.state.ActiveFilter)
	st := c.state.Clone()
	c.mu.Unlock()

	c.save(ctx, st)
	if active {
		c.send(ctx, notify.ApplyFilter(name))
	} else {
		c.send(ctx, notify.ClearFilter())
	}
}

func (c *Controller) SetHideFeatured(ctx context.Context, hide bool) {
	c.mu.Lock()
	c.state.HideFeatured = hide
	c.mu.Unlock()

	if err := c.store.SetHideFeatured(ctx, hide); err != nil {
		c.log.Warn("save hide featured", "err", err)
	}
}

// HandleChanges is a notify.Listener keeping the state in step with
// writes made elsewhere.
func (c *Controller) HandleChanges(area string, changes notify.Changes) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ch, ok := changes[string(storage.KeyFilters)]; ok {
		st, err := storage.Decode(c.state, map[storage.Key][]byte{storage.KeyFilters: ch.NewValue})
		if err != nil {
			c.log.Warn("ignoring malformed filters change", "area", area, "err", err)
		} else {
			c.state.Filters = st.Filters
		}
	}
	if ch, ok := changes[string(storage.KeyActiveFilter)]; ok {
		c.state.ActiveFilter = ch.NewString()
	}
	if ch, ok := changes[string(storage.KeyHideFeatured)]; ok {
		st, err := storage.Decode(c.state, map[storage.Key][]byte{storage.KeyHideFeatured: ch.NewValue})
		if err == nil {
			c.state.HideFeatured = st.HideFeatured
		}
	}
}

func (c *Controller) save(ctx context.Context, st models.State) {
	if err := c.store.Save(ctx, st, storage.KeyFilters, storage.KeyActiveFilter); err != nil {
		c.log.Warn("save state", "err", err)
	}
}

func (c *Controller) send(ctx context.Context, msg notify.Message) {
	if c.sender == nil || c.targets == nil {
		return
	}

	target, err := c.targets.ActiveTarget(ctx)
	if err != nil {
		if errors.Is(err, notify.ErrNoTarget) {
			c.log.Info("no active page to message", "action", msg.Action)
		} else {
			c.log.Warn("resolve active page", "err", err)
		}
		return
	}
	if c.host != "" && !strings.Contains(target.URL, c.host) {
		c.log.Warn("active page is not a supported host", "url", target.URL, "host", c.host)
		return
	}

	resp, err := c.sender.Send(ctx, target, msg)
	if err != nil {
		c.log.Warn("message page", "action", msg.Action, "target", target.ID, "err", err)
		return
	}
	c.log.Debug("page answered", "action", msg.Action, "success", resp.Success, "message", resp.Message)
}
