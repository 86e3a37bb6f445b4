// ABOUTME: Page-side agent that applies the active filter to a document.
// ABOUTME: Reacts to storage changes, direct messages and re-renders.

package content

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/harper/tagfilter/internal/logging"
	"github.com/harper/tagfilter/internal/notify"
	"github.com/harper/tagfilter/internal/page"
	"github.com/harper/tagfilter/internal/storage"
)

// Agent owns one page document. All methods are safe for concurrent use.
type Agent struct {
	mu      sync.Mutex
	store   *storage.Adapter
	doc     *page.Document
	keyword string
	log     *log.Logger
}

type Option func(*Agent)

func WithLogger(l *log.Logger) Option {
	return func(a *Agent) {
		a.log = l
	}
}

func NewAgent(store *storage.Adapter, doc *page.Document, opts ...Option) *Agent {
	a := &Agent{
		store: store,
		doc:   doc,
		log:   logging.For("content"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start runs the page-load sequence: any persisted active filter is
// cleared so a refreshed page never starts filtered, and every item is
// shown.
func (a *Agent) Start(ctx context.Context) {
	if err := a.store.ClearActiveFilter(ctx); err != nil {
		a.log.Warn("clear active filter on load", "err", err)
	}

	hide := a.store.HideFeatured(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.showAll(hide)
}

// Navigate loads doc as a freshly opened page and runs the page-load
// sequence on it.
func (a *Agent) Navigate(ctx context.Context, doc *page.Document) {
	a.mu.Lock()
	a.doc = doc
	a.keyword = ""
	a.mu.Unlock()

	a.Start(ctx)
}

// HandleChanges is a notify.Listener. Only activeFilter is acted on.
func (a *Agent) HandleChanges(area string, changes notify.Changes) {
	change, ok := changes[string(storage.KeyActiveFilter)]
	if !ok {
		return
	}
	name := change.NewString()
	a.log.Debug("active filter changed", "area", area, "filter", name)

	hide := a.store.HideFeatured(context.Background())

	a.mu.Lock()
	defer a.mu.Unlock()
	if name == "" {
		a.showAll(hide)
		return
	}
	a.apply(name, hide)
}

// HandleMessage is a notify.Handler. Every message is acknowledged.
func (a *Agent) HandleMessage(ctx context.Context, msg notify.Message) notify.Response {
	hide := a.store.HideFeatured(ctx)

	a.mu.Lock()
	switch msg.Action {
	case notify.ActionApplyFilter:
		a.apply(msg.Filter, hide)
	case notify.ActionClearFilter:
		a.showAll(hide)
	default:
		a.log.Warn("unknown message action", "action", msg.Action)
	}
	a.mu.Unlock()

	return notify.Response{Success: true, Message: notify.ReceivedMessage}
}

// Replace swaps in freshly rendered content and re-applies the persisted
// active filter to it.
func (a *Agent) Replace(ctx context.Context, doc *page.Document) {
	st := a.store.Load(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.doc = doc
	if st.ActiveFilter == "" {
		a.keyword = ""
		if st.HideFeatured {
			a.doc.HideFeatured()
		}
		return
	}
	a.apply(st.ActiveFilter, st.HideFeatured)
}

// Keyword returns the last keyword applied, "" when everything is shown.
func (a *Agent) Keyword() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.keyword
}

func (a *Agent) Items() []page.Item {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.doc.Items()
}

func (a *Agent) Render(w io.Writer) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.doc.Render(w)
}

func (a *Agent) apply(keyword string, hide bool) {
	a.keyword = keyword
	res := a.doc.Filter(keyword)
	for _, err := range res.Skipped {
		a.log.Debug("skipped item", "err", err)
	}
	if err := res.Err(); err != nil {
		if errors.Is(err, page.ErrNoItems) {
			a.log.Info("no items on page", "filter", keyword)
		} else {
			a.log.Warn("filter page", "filter", keyword, "err", err)
		}
		return
	}
	a.log.Debug("filtered page", "filter", keyword, "shown", res.Shown, "hidden", res.Hidden)
	if hide {
		a.doc.HideFeatured()
	}
}

func (a *Agent) showAll(hide bool) {
	a.keyword = ""
	n := a.doc.ShowAll()
	a.log.Debug("showing all items", "touched", n)
	if hide {
		a.doc.HideFeatured()
	}
}
