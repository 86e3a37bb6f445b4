// ABOUTME: Tests for the page-side content agent.
// ABOUTME: Drives the agent through storage changes, messages and re-renders.

package content

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/harper/tagfilter/internal/logging"
	"github.com/harper/tagfilter/internal/models"
	"github.com/harper/tagfilter/internal/notify"
	"github.com/harper/tagfilter/internal/page"
	"github.com/harper/tagfilter/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const projects = `<html><body>
<project-button><mat-card class="project-button-card"><span class="project-button-title">Work Notes</span></mat-card></project-button>
<project-button><mat-card class="project-button-card"><span class="project-button-title">Family Budget</span></mat-card></project-button>
<project-button><mat-card class="project-button-card"><span class="featured-project-title">Featured Work</span></mat-card></project-button>
</body></html>`

type fixture struct {
	agent  *Agent
	store  *storage.Adapter
	hub    *notify.Hub
	synced *storage.MemoryArea
}

func newFixture(t *testing.T, st models.State) fixture {
	t.Helper()
	return newFixtureWith(t, storage.NewMemoryArea("sync"), st)
}

func newFixtureWith(t *testing.T, synced *storage.MemoryArea, st models.State) fixture {
	t.Helper()
	ctx := context.Background()

	hub := notify.NewHub()
	local := storage.NewMemoryArea("local")
	store := storage.NewAdapter(storage.Observe(synced, hub), storage.Observe(local, hub), storage.WithLogger(logging.Discard()))
	_ = store.Save(ctx, st)

	doc, err := page.ParseString(projects)
	require.NoError(t, err)

	agent := NewAgent(store, doc, WithLogger(logging.Discard()))
	cancel := hub.Subscribe(agent.HandleChanges)
	t.Cleanup(cancel)

	return fixture{agent: agent, store: store, hub: hub, synced: synced}
}

func visible(a *Agent) []string {
	var out []string
	for _, it := range a.Items() {
		if it.Layout == page.LayoutButton && it.Visible() {
			out = append(out, it.Title)
		}
	}
	return out
}

func TestStartClearsPersistedActiveFilter(t *testing.T) {
	f := newFixture(t, models.State{Filters: []string{"Work"}, ActiveFilter: "Work"})
	f.agent.Start(context.Background())

	assert.Equal(t, "", f.store.ActiveFilter(context.Background()))
	assert.Equal(t, "", f.agent.Keyword())
	assert.Len(t, visible(f.agent), 3)
}

func TestStartHidesFeaturedWhenEnabled(t *testing.T) {
	f := newFixture(t, models.State{HideFeatured: true})
	f.agent.Start(context.Background())

	assert.Equal(t, []string{"Work Notes", "Family Budget"}, visible(f.agent))
}

func TestStorageChangeAppliesFilter(t *testing.T) {
	f := newFixture(t, models.State{Filters: []string{"Work"}})
	ctx := context.Background()

	require.NoError(t, f.store.SetActiveFilter(ctx, "work"))
	assert.Equal(t, "work", f.agent.Keyword())
	assert.Equal(t, []string{"Work Notes", "Featured Work"}, visible(f.agent))

	require.NoError(t, f.store.ClearActiveFilter(ctx))
	assert.Equal(t, "", f.agent.Keyword())
	assert.Len(t, visible(f.agent), 3)
}

func TestIgnoresOtherKeys(t *testing.T) {
	f := newFixture(t, models.State{})

	f.agent.HandleChanges("sync", notify.Changes{
		"filters": {NewValue: json.RawMessage(`["Work"]`)},
	})
	assert.Equal(t, "", f.agent.Keyword())
	assert.Len(t, visible(f.agent), 3)
}

func TestNullActiveFilterShowsAll(t *testing.T) {
	f := newFixture(t, models.State{})
	f.agent.HandleMessage(context.Background(), notify.ApplyFilter("family"))
	require.Len(t, visible(f.agent), 1)

	f.agent.HandleChanges("sync", notify.Changes{
		"activeFilter": {OldValue: json.RawMessage(`"family"`), NewValue: json.RawMessage(`null`)},
	})
	assert.Len(t, visible(f.agent), 3)
}

func TestHandleMessageAlwaysAcknowledges(t *testing.T) {
	f := newFixture(t, models.State{})
	ctx := context.Background()
	want := notify.Response{Success: true, Message: notify.ReceivedMessage}

	assert.Equal(t, want, f.agent.HandleMessage(ctx, notify.ApplyFilter("budget")))
	assert.Equal(t, []string{"Family Budget"}, visible(f.agent))

	assert.Equal(t, want, f.agent.HandleMessage(ctx, notify.ClearFilter()))
	assert.Len(t, visible(f.agent), 3)

	assert.Equal(t, want, f.agent.HandleMessage(ctx, notify.Message{Action: "bogus"}))
}

func TestHandleMessageWithoutItems(t *testing.T) {
	f := newFixture(t, models.State{})
	empty, err := page.ParseString(`<html><body></body></html>`)
	require.NoError(t, err)
	f.agent.Replace(context.Background(), empty)

	resp := f.agent.HandleMessage(context.Background(), notify.ApplyFilter("work"))
	assert.True(t, resp.Success)
	assert.Empty(t, f.agent.Items())
}

func TestReplaceReappliesActiveFilter(t *testing.T) {
	f := newFixture(t, models.State{Filters: []string{"Family"}, ActiveFilter: "Family"})

	doc, err := page.ParseString(projects)
	require.NoError(t, err)
	f.agent.Replace(context.Background(), doc)

	assert.Equal(t, "Family", f.agent.Keyword())
	assert.Equal(t, []string{"Family Budget"}, visible(f.agent))
}

func TestReplaceWithoutActiveFilter(t *testing.T) {
	f := newFixture(t, models.State{HideFeatured: true})

	doc, err := page.ParseString(projects)
	require.NoError(t, err)
	f.agent.Replace(context.Background(), doc)

	assert.Equal(t, []string{"Work Notes", "Family Budget"}, visible(f.agent))
}

func TestStartFallsBackWhenSyncedAreaFails(t *testing.T) {
	f := newFixture(t, models.State{ActiveFilter: "Work", HideFeatured: false})
	f.synced.Fail(assert.AnError, assert.AnError)

	f.agent.Start(context.Background())
	assert.Len(t, visible(f.agent), 3)
}

func TestLocalOnlyWriteAppliesFilter(t *testing.T) {
	synced := storage.NewMemoryArea("sync")
	synced.Fail(errors.New("unreachable"), errors.New("quota exceeded"))
	f := newFixtureWith(t, synced, models.State{Filters: []string{"Work"}})
	ctx := context.Background()

	err := f.store.SetActiveFilter(ctx, "Work")
	require.Error(t, err)
	assert.Equal(t, "Work", f.store.ActiveFilter(ctx))
	assert.Equal(t, "Work", f.agent.Keyword())
	assert.Equal(t, []string{"Work Notes", "Featured Work"}, visible(f.agent))
}

func TestDisabledSyncStillNotifies(t *testing.T) {
	ctx := context.Background()
	hub := notify.NewHub()
	store := storage.NewAdapter(
		storage.Observe(storage.Disabled("sync"), hub),
		storage.Observe(storage.NewMemoryArea("local"), hub),
		storage.WithLogger(logging.Discard()),
	)
	doc, err := page.ParseString(projects)
	require.NoError(t, err)
	agent := NewAgent(store, doc, WithLogger(logging.Discard()))
	t.Cleanup(hub.Subscribe(agent.HandleChanges))

	_ = store.SetActiveFilter(ctx, "budget")
	assert.Equal(t, "budget", agent.Keyword())
	assert.Equal(t, []string{"Family Budget"}, visible(agent))
}
