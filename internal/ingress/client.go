package ingress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hay-kot/marquee/internal/core/display"
)

// Client talks to a running ingress server.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client for the server at base, e.g. http://localhost:8080.
func NewClient(base string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{base: strings.TrimRight(base, "/"), http: httpClient}
}

// Submit sends a message. Rejected text is reported as display.ErrInvalidInput.
func (c *Client) Submit(ctx context.Context, text, color string) (display.Receipt, error) {
	var receipt display.Receipt
	err := c.do(ctx, http.MethodPost, PathMessage, submitRequest{Text: text, Color: color}, &receipt)
	return receipt, err
}

// Remove deletes a message by id.
func (c *Client) Remove(ctx context.Context, id uint64) error {
	return c.do(ctx, http.MethodPost, PathRemove, removeRequest{ID: id}, nil)
}

// Snapshot fetches the current rotation state.
func (c *Client) Snapshot(ctx context.Context) (display.Snapshot, error) {
	var snap display.Snapshot
	err := c.do(ctx, http.MethodGet, PathQueue, nil, &snap)
	return snap, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		text := strings.TrimSpace(string(msg))
		if resp.StatusCode == http.StatusBadRequest && path == PathMessage {
			return fmt.Errorf("%w: %s", display.ErrInvalidInput, text)
		}
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, text)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
