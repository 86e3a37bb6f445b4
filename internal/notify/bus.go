// ABOUTME: In-process message bus standing in for browser tabs.
// ABOUTME: Targets are opened, activated, listened on and closed by id.

package notify

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type busTarget struct {
	target  Target
	handler Handler
	gen     uint64
	closed  bool
}

// Bus routes messages to handlers registered for a target id.
type Bus struct {
	mu      sync.Mutex
	targets map[string]*busTarget
	active  string
}

func NewBus() *Bus {
	return &Bus{targets: make(map[string]*busTarget)}
}

// Open creates a target for url and makes it the active one.
func (b *Bus) Open(url string) Target {
	t := Target{ID: uuid.New().String(), URL: url}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.targets[t.ID] = &busTarget{target: t}
	b.active = t.ID
	return t
}

// Activate makes id the active target. Unknown or closed ids are ignored.
func (b *Bus) Activate(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	bt, ok := b.targets[id]
	if !ok || bt.closed {
		return false
	}
	b.active = id
	return true
}

// ActiveTarget returns the most recently opened or activated target.
func (b *Bus) ActiveTarget(ctx context.Context) (Target, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bt, ok := b.targets[b.active]
	if !ok || bt.closed {
		return Target{}, ErrNoTarget
	}
	return bt.target, nil
}

// Listen installs h as the receiver for id and returns a function that
// removes it again. A stop from an earlier Listen leaves a newer receiver
// in place.
func (b *Bus) Listen(id string, h Handler) (stop func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bt, ok := b.targets[id]
	if !ok {
		bt = &busTarget{target: Target{ID: id}}
		b.targets[id] = bt
	}
	bt.gen++
	bt.handler = h
	gen := bt.gen

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if cur, ok := b.targets[id]; ok && cur.gen == gen {
			cur.handler = nil
		}
	}
}

// Listening reports whether id currently has a receiver.
func (b *Bus) Listening(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	bt, ok := b.targets[id]
	return ok && !bt.closed && bt.handler != nil
}

// Close marks id as closed; later sends fail with ErrTargetClosed.
func (b *Bus) Close(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if bt, ok := b.targets[id]; ok {
		bt.closed = true
		bt.handler = nil
	}
	if b.active == id {
		b.active = ""
	}
}

func (b *Bus) Send(ctx context.Context, target Target, msg Message) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, &MessagingError{Target: target.ID, Action: msg.Action, Err: err}
	}

	b.mu.Lock()
	bt, ok := b.targets[target.ID]
	var h Handler
	closed := !ok
	if ok {
		h = bt.handler
		closed = bt.closed
	}
	b.mu.Unlock()

	switch {
	case closed:
		return Response{}, &MessagingError{Target: target.ID, Action: msg.Action, Err: ErrTargetClosed}
	case h == nil:
		return Response{}, &MessagingError{Target: target.ID, Action: msg.Action, Err: ErrNoReceiver}
	}
	return h(ctx, msg), nil
}
