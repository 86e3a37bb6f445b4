// ABOUTME: HTTP client for a running page host.
// ABOUTME: Resolves the host's page and delivers filter messages to it.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/harper/tagfilter/internal/notify"
)

// Client implements notify.Sender and popup.TargetResolver against the
// page host listening on addr.
type Client struct {
	base string
	http *http.Client
}

func NewClient(addr string) *Client {
	base := addr
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		base: strings.TrimSuffix(base, "/"),
		http: &http.Client{Timeout: 5 * time.Second},
	}
}

// ActiveTarget asks the host which page it is serving. A host that is not
// running means there is no target.
func (c *Client) ActiveTarget(ctx context.Context) (notify.Target, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/target", nil)
	if err != nil {
		return notify.Target{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		if refused(err) {
			return notify.Target{}, notify.ErrNoTarget
		}
		return notify.Target{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return notify.Target{}, fmt.Errorf("get target: %s", resp.Status)
	}
	var t notify.Target
	if err := json.NewDecoder(resp.Body).Decode(&t); err != nil {
		return notify.Target{}, fmt.Errorf("decode target: %w", err)
	}
	return t, nil
}

func (c *Client) Send(ctx context.Context, target notify.Target, msg notify.Message) (notify.Response, error) {
	wrap := func(err error) error {
		return &notify.MessagingError{Target: target.ID, Action: msg.Action, Err: err}
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return notify.Response{}, wrap(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/messages", bytes.NewReader(body))
	if err != nil {
		return notify.Response{}, wrap(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if target.ID != "" {
		req.Header.Set(TargetHeader, target.ID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if refused(err) {
			return notify.Response{}, wrap(notify.ErrNoReceiver)
		}
		return notify.Response{}, wrap(err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusGone:
		return notify.Response{}, wrap(notify.ErrTargetClosed)
	default:
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return notify.Response{}, wrap(fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(text))))
	}

	var out notify.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return notify.Response{}, wrap(fmt.Errorf("decode response: %w", err))
	}
	return out, nil
}

func refused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}
