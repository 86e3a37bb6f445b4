// ABOUTME: Direct request/response messages from the popup to the page.
// ABOUTME: Defines the message shapes, messaging errors and the retry rule.

package notify

import (
	"context"
	"errors"
	"fmt"
)

type Action string

const (
	ActionApplyFilter Action = "applyFilter"
	ActionClearFilter Action = "clearFilter"
)

// ReceivedMessage is the text every page answer carries.
const ReceivedMessage = "Content script received the message"

type Message struct {
	Action Action `json:"action"`
	Filter string `json:"filter,omitempty"`
}

func ApplyFilter(name string) Message {
	return Message{Action: ActionApplyFilter, Filter: name}
}

func ClearFilter() Message {
	return Message{Action: ActionClearFilter}
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

var (
	ErrNoReceiver   = errors.New("could not establish connection: receiving end does not exist")
	ErrTargetClosed = errors.New("the tab was closed")
	ErrNoTarget     = errors.New("no active target")
)

// MessagingError wraps a delivery failure with the target it was meant for.
type MessagingError struct {
	Target string
	Action Action
	Err    error
}

func (e *MessagingError) Error() string {
	return fmt.Sprintf("send %s to %s: %v", e.Action, e.Target, e.Err)
}

func (e *MessagingError) Unwrap() error {
	return e.Err
}

// Target is a page context that can receive messages.
type Target struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Handler answers a message inside the receiving context.
type Handler func(ctx context.Context, msg Message) Response

// Sender delivers a message to a target and returns its answer.
type Sender interface {
	Send(ctx context.Context, target Target, msg Message) (Response, error)
}

// Injector loads the receiving side into target so a retry can succeed.
type Injector func(ctx context.Context, target Target) error

// Deliver sends msg. When the target has no receiver yet and inject is
// set, it injects once and retries once. The final error, if any, is for
// the caller to log; it is never fatal.
func Deliver(ctx context.Context, s Sender, target Target, msg Message, inject Injector) (Response, error) {
	resp, err := s.Send(ctx, target, msg)
	if err == nil || inject == nil || !errors.Is(err, ErrNoReceiver) {
		return resp, err
	}

	if injErr := inject(ctx, target); injErr != nil {
		return Response{}, &MessagingError{Target: target.ID, Action: msg.Action, Err: errors.Join(err, injErr)}
	}
	return s.Send(ctx, target, msg)
}
