// ABOUTME: Tests for the page host routes, change stream and client.
// ABOUTME: Runs the router under httptest with in-memory storage.

package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/harper/tagfilter/internal/content"
	"github.com/harper/tagfilter/internal/logging"
	"github.com/harper/tagfilter/internal/models"
	"github.com/harper/tagfilter/internal/notify"
	"github.com/harper/tagfilter/internal/page"
	"github.com/harper/tagfilter/internal/popup"
	"github.com/harper/tagfilter/internal/server"
	"github.com/harper/tagfilter/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const projects = `<html><body><table><tbody>
<tr mat-row><td mat-cell>Work Notes</td></tr>
<tr mat-row><td mat-cell>Family Budget</td></tr>
</tbody></table></body></html>`

type env struct {
	srv    *httptest.Server
	agent  *content.Agent
	store  *storage.Adapter
	hub    *notify.Hub
	bus    *notify.Bus
	target notify.Target
}

func newEnv(t *testing.T) env {
	t.Helper()
	hub := notify.NewHub()
	store := storage.NewAdapter(
		storage.Observe(storage.NewMemoryArea("sync"), hub),
		storage.Observe(storage.NewMemoryArea("local"), hub),
		storage.WithLogger(logging.Discard()),
	)
	doc, err := page.ParseString(projects)
	require.NoError(t, err)
	agent := content.NewAgent(store, doc, content.WithLogger(logging.Discard()))
	t.Cleanup(hub.Subscribe(agent.HandleChanges))

	bus := notify.NewBus()
	target := bus.Open("https://notebooklm.google.com/")
	srv := httptest.NewServer(server.RegisterRoutes(server.Deps{
		Agent: agent, Store: store, Hub: hub, Bus: bus, Target: target, Log: logging.Discard(),
	}))
	t.Cleanup(srv.Close)
	return env{srv: srv, agent: agent, store: store, hub: hub, bus: bus, target: target}
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func visible(a *content.Agent) []string {
	var out []string
	for _, it := range a.Items() {
		if it.Visible() {
			out = append(out, it.Title)
		}
	}
	return out
}

func TestRenderPage(t *testing.T) {
	e := newEnv(t)
	resp, err := http.Get(e.srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "Family Budget")
}

func TestPostMessage(t *testing.T) {
	e := newEnv(t)
	resp, err := http.Post(e.srv.URL+"/api/messages", "application/json",
		strings.NewReader(`{"action":"applyFilter","filter":"family"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out notify.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, notify.Response{Success: true, Message: notify.ReceivedMessage}, out)
	assert.Equal(t, []string{"Family Budget"}, visible(e.agent))
}

func TestPostMessageRejectsBadBody(t *testing.T) {
	e := newEnv(t)
	resp, err := http.Post(e.srv.URL+"/api/messages", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPutDocumentReappliesFilter(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.store.SetActiveFilter(context.Background(), "work"))

	req, _ := http.NewRequest(http.MethodPut, e.srv.URL+"/api/document", strings.NewReader(projects))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"Work Notes"}, visible(e.agent))
}

func TestGetState(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.store.Save(context.Background(), models.State{Filters: []string{"Work"}, ActiveFilter: "Work"}))

	resp, err := http.Get(e.srv.URL + "/api/state")
	require.NoError(t, err)
	defer resp.Body.Close()

	var st models.State
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, []string{"Work"}, st.Filters)
	assert.Equal(t, "Work", st.ActiveFilter)
}

func TestChangeStream(t *testing.T) {
	e := newEnv(t)
	wsURL := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/api/changes"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return e.hub.Len() == 2 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, e.store.SetActiveFilter(context.Background(), "Work"))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev server.ChangeEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "sync", ev.Area)
	assert.Equal(t, "Work", ev.Changes["activeFilter"].NewString())
}

func TestClientDeliversThroughController(t *testing.T) {
	e := newEnv(t)
	client := server.NewClient(e.srv.URL)

	target, err := client.ActiveTarget(context.Background())
	require.NoError(t, err)
	assert.Equal(t, e.target, target)

	ctl := popup.NewController(e.store, client, client, popup.WithLogger(logging.Discard()))
	require.NoError(t, ctl.Add(context.Background(), "Family"))
	ctl.Toggle(context.Background(), "Family", true)

	assert.Equal(t, []string{"Family Budget"}, visible(e.agent))
}

func TestClientStaleTarget(t *testing.T) {
	e := newEnv(t)
	client := server.NewClient(e.srv.URL)

	_, err := client.Send(context.Background(), notify.Target{ID: "old-page"}, notify.ClearFilter())
	assert.ErrorIs(t, err, notify.ErrTargetClosed)
}

func TestClientWithoutHost(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	client := server.NewClient(addr)
	_, err = client.ActiveTarget(context.Background())
	assert.ErrorIs(t, err, notify.ErrNoTarget)

	_, err = client.Send(context.Background(), notify.Target{ID: "x"}, notify.ClearFilter())
	assert.ErrorIs(t, err, notify.ErrNoReceiver)
	var merr *notify.MessagingError
	assert.ErrorAs(t, err, &merr)
}

func TestNavigateDropsReceiverUntilNextMessage(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.store.SetActiveFilter(ctx, "work"))
	require.True(t, e.bus.Listening(e.target.ID))

	resp := postJSON(t, e.srv.URL+"/api/navigate", projects)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, e.bus.Listening(e.target.ID))
	assert.Equal(t, "", e.store.ActiveFilter(ctx))
	assert.Len(t, visible(e.agent), 2)

	resp = postJSON(t, e.srv.URL+"/api/messages", `{"action":"applyFilter","filter":"budget"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out notify.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Success)
	assert.True(t, e.bus.Listening(e.target.ID))
	assert.Equal(t, []string{"Family Budget"}, visible(e.agent))
}

func TestPostMessageToClosedTarget(t *testing.T) {
	e := newEnv(t)
	e.bus.Close(e.target.ID)

	resp := postJSON(t, e.srv.URL+"/api/messages", `{"action":"clearFilter"}`)
	assert.Equal(t, http.StatusGone, resp.StatusCode)

	client := server.NewClient(e.srv.URL)
	_, err := client.Send(context.Background(), e.target, notify.ClearFilter())
	assert.ErrorIs(t, err, notify.ErrTargetClosed)
}

func TestChangeStreamCarriesLocalWrites(t *testing.T) {
	hub := notify.NewHub()
	store := storage.NewAdapter(
		storage.Observe(storage.Disabled("sync"), hub),
		storage.Observe(storage.NewMemoryArea("local"), hub),
		storage.WithLogger(logging.Discard()),
	)
	doc, err := page.ParseString(projects)
	require.NoError(t, err)
	agent := content.NewAgent(store, doc, content.WithLogger(logging.Discard()))
	srv := httptest.NewServer(server.RegisterRoutes(server.Deps{
		Agent: agent, Store: store, Hub: hub, Target: notify.Target{ID: "page-1"}, Log: logging.Discard(),
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/changes"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	_ = store.SetActiveFilter(context.Background(), "Work")

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev server.ChangeEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "local", ev.Area)
	assert.Equal(t, "Work", ev.Changes["activeFilter"].NewString())
}
