// ABOUTME: WebSocket stream of storage change notifications.
// ABOUTME: Each connection subscribes to the hub until the client leaves.

package server

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/harper/tagfilter/internal/notify"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ChangeEvent is one hub notification as sent over the wire.
type ChangeEvent struct {
	Area    string         `json:"area"`
	Changes notify.Changes `json:"changes"`
}

func (h *handler) handleChanges(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade", "err", err)
		return
	}
	defer conn.Close()

	// gorilla/websocket forbids concurrent writes.
	var writeMu sync.Mutex
	writeEvent := func(ev ChangeEvent) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(ev)
	}

	// Listeners run on the publishing goroutine, so a slow client drops
	// events instead of stalling writers.
	events := make(chan ChangeEvent, 64)
	cancel := h.hub.Subscribe(func(area string, changes notify.Changes) {
		select {
		case events <- ChangeEvent{Area: area, Changes: changes}:
		default:
			h.log.Warn("dropping change event for slow client", "area", area)
		}
	})
	defer cancel()

	done := make(chan struct{})
	go func() {
		for {
			select {
			case ev := <-events:
				if err := writeEvent(ev); err != nil {
					conn.Close()
					return
				}
			case <-done:
				return
			}
		}
	}()
	defer close(done)

	// Drain client frames so close messages are processed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
