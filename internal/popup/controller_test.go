// ABOUTME: Tests for the filter management controller.
// ABOUTME: Uses in-memory areas and the in-process bus as the page.

package popup

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/harper/tagfilter/internal/logging"
	"github.com/harper/tagfilter/internal/models"
	"github.com/harper/tagfilter/internal/notify"
	"github.com/harper/tagfilter/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageURL = "https://notebooklm.google.com/"

type recorder struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (r *recorder) handle(ctx context.Context, msg notify.Message) notify.Response {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return notify.Response{Success: true, Message: notify.ReceivedMessage}
}

func (r *recorder) messages() []notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Message(nil), r.msgs...)
}

type fixture struct {
	ctl    *Controller
	store  *storage.Adapter
	synced *storage.MemoryArea
	local  *storage.MemoryArea
	bus    *notify.Bus
	target notify.Target
	page   *recorder
}

func newFixture(t *testing.T, url string, opts ...Option) fixture {
	t.Helper()
	synced := storage.NewMemoryArea("sync").WithQuota(storage.SyncQuota)
	local := storage.NewMemoryArea("local")
	store := storage.NewAdapter(synced, local, storage.WithLogger(logging.Discard()))

	bus := notify.NewBus()
	target := bus.Open(url)
	rec := &recorder{}
	bus.Listen(target.ID, rec.handle)

	opts = append([]Option{WithLogger(logging.Discard())}, opts...)
	ctl := NewController(store, bus, bus, opts...)
	return fixture{ctl: ctl, store: store, synced: synced, local: local, bus: bus, target: target, page: rec}
}

func TestLoadDefaults(t *testing.T) {
	f := newFixture(t, pageURL)
	st := f.ctl.Load(context.Background())
	assert.Empty(t, st.Filters)
	assert.Equal(t, "", st.ActiveFilter)
	assert.True(t, st.HideFeatured)
}

func TestAddPersistsToBothAreas(t *testing.T) {
	f := newFixture(t, pageURL)
	ctx := context.Background()

	require.NoError(t, f.ctl.Add(ctx, "Work"))
	require.NoError(t, f.ctl.Add(ctx, "Family"))

	assert.Equal(t, []string{"Work", "Family"}, f.ctl.State().Filters)
	assert.Equal(t, []string{"Family", "Work"}, f.ctl.SortedFilters())

	raw, ok := f.local.Raw(storage.KeyFilters)
	require.True(t, ok)
	assert.JSONEq(t, `["Work","Family"]`, string(raw))
	raw, ok = f.synced.Raw(storage.KeyFilters)
	require.True(t, ok)
	assert.JSONEq(t, `["Work","Family"]`, string(raw))
}

func TestAddRejectsInvalidNames(t *testing.T) {
	f := newFixture(t, pageURL)
	ctx := context.Background()
	require.NoError(t, f.ctl.Add(ctx, "Work"))

	err := f.ctl.Add(ctx, "   ")
	assert.ErrorIs(t, err, models.ErrEmptyName)

	err = f.ctl.Add(ctx, "Work")
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.ErrorIs(t, err, models.ErrDuplicateName)

	assert.NoError(t, f.ctl.Add(ctx, "work"))
	assert.Equal(t, []string{"Work", "work"}, f.ctl.State().Filters)
}

func TestAddCaseInsensitivePolicy(t *testing.T) {
	f := newFixture(t, pageURL, WithDuplicatePolicy(models.CaseInsensitive))
	ctx := context.Background()
	require.NoError(t, f.ctl.Add(ctx, "Work"))
	assert.ErrorIs(t, f.ctl.Add(ctx, "WORK"), models.ErrDuplicateName)
}

func TestToggleSendsMessages(t *testing.T) {
	f := newFixture(t, pageURL)
	ctx := context.Background()
	require.NoError(t, f.ctl.Add(ctx, "Work"))

	f.ctl.Toggle(ctx, "Work", true)
	assert.Equal(t, "Work", f.ctl.State().ActiveFilter)
	assert.Equal(t, "Work", f.store.ActiveFilter(ctx))

	f.ctl.Toggle(ctx, "Work", false)
	assert.Equal(t, "", f.ctl.State().ActiveFilter)
	assert.Equal(t, "", f.store.ActiveFilter(ctx))

	assert.Equal(t, []notify.Message{notify.ApplyFilter("Work"), notify.ClearFilter()}, f.page.messages())
}

func TestRemoveActiveFilterClearsIt(t *testing.T) {
	f := newFixture(t, pageURL)
	ctx := context.Background()
	require.NoError(t, f.ctl.Add(ctx, "Work"))
	require.NoError(t, f.ctl.Add(ctx, "Family"))
	f.ctl.Toggle(ctx, "Work", true)

	f.ctl.Remove(ctx, "Work")
	st := f.ctl.State()
	assert.Equal(t, []string{"Family"}, st.Filters)
	assert.Equal(t, "", st.ActiveFilter)
	assert.Equal(t, "", f.store.ActiveFilter(ctx))

	msgs := f.page.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, notify.ClearFilter(), msgs[1])
}

func TestRemoveInactiveFilterSendsNothing(t *testing.T) {
	f := newFixture(t, pageURL)
	ctx := context.Background()
	require.NoError(t, f.ctl.Add(ctx, "Work"))
	require.NoError(t, f.ctl.Add(ctx, "Family"))
	f.ctl.Toggle(ctx, "Work", true)

	f.ctl.Remove(ctx, "Family")
	assert.Equal(t, "Work", f.ctl.State().ActiveFilter)
	assert.Len(t, f.page.messages(), 1)

	f.ctl.Remove(ctx, "Missing")
	assert.Equal(t, []string{"Work"}, f.ctl.State().Filters)
}

func TestSkipsUnsupportedHost(t *testing.T) {
	f := newFixture(t, "https://example.com/")
	ctx := context.Background()

	f.ctl.Toggle(ctx, "Work", true)
	assert.Equal(t, "Work", f.store.ActiveFilter(ctx))
	assert.Empty(t, f.page.messages())
}

func TestMissingTargetIsNotFatal(t *testing.T) {
	f := newFixture(t, pageURL)
	ctx := context.Background()
	f.bus.Close(f.target.ID)

	f.ctl.Toggle(ctx, "Work", true)
	assert.Equal(t, "Work", f.ctl.State().ActiveFilter)
	assert.Empty(t, f.page.messages())
}

func TestStorageFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, pageURL)
	ctx := context.Background()
	f.synced.Fail(nil, errors.New("quota exceeded"))

	require.NoError(t, f.ctl.Add(ctx, "Work"))
	assert.Equal(t, []string{"Work"}, f.ctl.State().Filters)

	raw, ok := f.local.Raw(storage.KeyFilters)
	require.True(t, ok)
	assert.JSONEq(t, `["Work"]`, string(raw))
}

func TestSetHideFeatured(t *testing.T) {
	f := newFixture(t, pageURL)
	ctx := context.Background()

	f.ctl.SetHideFeatured(ctx, false)
	assert.False(t, f.ctl.State().HideFeatured)
	assert.False(t, f.store.HideFeatured(ctx))
}

func TestHandleChangesFollowsOtherWriters(t *testing.T) {
	f := newFixture(t, pageURL)
	f.ctl.HandleChanges("sync", notify.Changes{
		"filters":      {NewValue: json.RawMessage(`["A","B"]`)},
		"activeFilter": {OldValue: json.RawMessage(`null`), NewValue: json.RawMessage(`"B"`)},
		"hideFeatured": {NewValue: json.RawMessage(`false`)},
	})

	st := f.ctl.State()
	assert.Equal(t, []string{"A", "B"}, st.Filters)
	assert.Equal(t, "B", st.ActiveFilter)
	assert.False(t, st.HideFeatured)

	f.ctl.HandleChanges("sync", notify.Changes{"filters": {NewValue: json.RawMessage(`{bad`)}})
	assert.Equal(t, []string{"A", "B"}, f.ctl.State().Filters)
}

func TestStateIsACopy(t *testing.T) {
	f := newFixture(t, pageURL)
	require.NoError(t, f.ctl.Add(context.Background(), "Work"))

	st := f.ctl.State()
	st.Filters[0] = "Mutated"
	assert.Equal(t, []string{"Work"}, f.ctl.State().Filters)
}
