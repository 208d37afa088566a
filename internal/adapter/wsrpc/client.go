// Package wsrpc implements the transport over Moonraker's primary
// JSON-RPC websocket API.
package wsrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"moonbench/internal/domain"
	"moonbench/internal/jsonrpc"
	"moonbench/pkg/harnesserr"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Client is a synchronous JSON-RPC client over a single websocket
// connection. The harness is strictly sequential, so one in-flight call
// at a time is enforced with a mutex rather than a dispatch goroutine.
type Client struct {
	conn        *websocket.Conn
	readTimeout time.Duration

	mu sync.Mutex
}

var _ domain.Transport = (*Client)(nil)

// Dial connects to ws://printer/websocket.
func Dial(cfg domain.RunConfig) (*Client, error) {
	dialer := websocket.Dialer{HandshakeTimeout: cfg.ConnectTimeout}
	u := "ws://" + cfg.Printer + "/websocket"

	conn, _, err := dialer.Dial(u, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u, err)
	}
	return &Client{conn: conn, readTimeout: cfg.ReadTimeout}, nil
}

// Submit runs a gcode script through printer.gcode.script.
func (c *Client) Submit(ctx context.Context, script string) error {
	_, err := c.call(ctx, "printer.gcode.script", map[string]any{"script": script})
	if err != nil {
		return wrapTimeout("submit gcode", err)
	}
	return nil
}

// ReadRecent fetches cached console entries through server.gcode_store.
func (c *Client) ReadRecent(ctx context.Context, count int) ([]domain.GcodeEntry, error) {
	raw, err := c.call(ctx, "server.gcode_store", map[string]any{"count": count})
	if err != nil {
		return nil, wrapTimeout("read gcode store", err)
	}

	var result struct {
		GcodeStore []domain.GcodeEntry `json:"gcode_store"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode gcode store: %w", err)
	}
	return result.GcodeStore, nil
}

// Close shuts the websocket down.
func (c *Client) Close() error {
	return c.conn.Close()
}

// call performs one request/response round trip, discarding any server
// notifications that arrive in between.
func (c *Client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req := jsonrpc.NewRequest(method, params)

	deadline := time.Now().Add(c.readTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return nil, err
	}
	if err := c.conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", method, err)
		}

		resp, err := jsonrpc.Decode(data)
		if err != nil {
			return nil, err
		}
		if !resp.Matches(req) {
			// Status notifications share the connection; skip them.
			if resp.Method != "" {
				logrus.WithField("method", resp.Method).Trace("Skipping notification")
			}
			continue
		}
		return resp.Unwrap()
	}
}

func wrapTimeout(op string, err error) error {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return &harnesserr.RemoteTimeoutError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
