// Package mqttrpc implements the transport over Moonraker's JSON-RPC
// MQTT API ({instance}/moonraker/api/request and .../response).
package mqttrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"moonbench/internal/domain"
	"moonbench/internal/jsonrpc"
	"moonbench/pkg/harnesserr"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// Client is a synchronous JSON-RPC client over an MQTT broker shared
// with Moonraker.
type Client struct {
	mqtt        mqtt.Client
	instance    string
	readTimeout time.Duration

	mu      sync.Mutex
	pending map[int64]chan *jsonrpc.Response
}

var _ domain.Transport = (*Client)(nil)

// Dial connects to the broker at the printer address and subscribes to
// the instance's API response topic.
func Dial(cfg domain.RunConfig) (*Client, error) {
	c := &Client{
		instance:    cfg.MQTTInstance,
		readTimeout: cfg.ReadTimeout,
		pending:     map[int64]chan *jsonrpc.Response{},
	}

	opts := mqtt.NewClientOptions().
		AddBroker("tcp://" + cfg.Printer).
		SetClientID(fmt.Sprintf("moonbench-%d", time.Now().UnixNano())).
		SetConnectTimeout(cfg.ConnectTimeout)
	c.mqtt = mqtt.NewClient(opts)

	if token := c.mqtt.Connect(); !token.WaitTimeout(cfg.ConnectTimeout) || token.Error() != nil {
		return nil, fmt.Errorf("connect mqtt broker: %w", tokenErr(token))
	}

	topic := c.instance + "/moonraker/api/response"
	if token := c.mqtt.Subscribe(topic, 0, c.onResponse); !token.WaitTimeout(cfg.ConnectTimeout) || token.Error() != nil {
		c.mqtt.Disconnect(0)
		return nil, fmt.Errorf("subscribe %s: %w", topic, tokenErr(token))
	}
	return c, nil
}

// Submit runs a gcode script through printer.gcode.script.
func (c *Client) Submit(ctx context.Context, script string) error {
	_, err := c.call(ctx, "printer.gcode.script", map[string]any{"script": script})
	return err
}

// ReadRecent fetches cached console entries through server.gcode_store.
func (c *Client) ReadRecent(ctx context.Context, count int) ([]domain.GcodeEntry, error) {
	raw, err := c.call(ctx, "server.gcode_store", map[string]any{"count": count})
	if err != nil {
		return nil, err
	}

	var result struct {
		GcodeStore []domain.GcodeEntry `json:"gcode_store"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode gcode store: %w", err)
	}
	return result.GcodeStore, nil
}

// Close disconnects from the broker.
func (c *Client) Close() error {
	c.mqtt.Disconnect(250)
	return nil
}

func (c *Client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	req := jsonrpc.NewRequest(method, params)

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	ch := make(chan *jsonrpc.Response, 1)
	c.mu.Lock()
	c.pending[req.ID] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, req.ID)
		c.mu.Unlock()
	}()

	topic := c.instance + "/moonraker/api/request"
	if token := c.mqtt.Publish(topic, 0, false, payload); !token.WaitTimeout(c.readTimeout) || token.Error() != nil {
		return nil, fmt.Errorf("publish %s: %w", method, tokenErr(token))
	}

	timer := time.NewTimer(c.readTimeout)
	defer timer.Stop()
	select {
	case resp := <-ch:
		return resp.Unwrap()
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, &harnesserr.RemoteTimeoutError{
			Op:  method,
			Err: fmt.Errorf("no response within %s", c.readTimeout),
		}
	}
}

func (c *Client) onResponse(_ mqtt.Client, msg mqtt.Message) {
	resp, err := jsonrpc.Decode(msg.Payload())
	if err != nil {
		logrus.WithError(err).Debug("Discarding malformed API response")
		return
	}
	if resp.ID == nil {
		return
	}

	c.mu.Lock()
	ch, ok := c.pending[*resp.ID]
	c.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- resp:
	default:
	}
}

func tokenErr(t mqtt.Token) error {
	if err := t.Error(); err != nil {
		return err
	}
	return fmt.Errorf("timed out waiting for broker")
}
