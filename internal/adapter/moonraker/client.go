// Package moonraker implements the HTTP transport against Moonraker's
// REST endpoints.
package moonraker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"moonbench/internal/domain"
	"moonbench/pkg/harnesserr"

	"github.com/sirupsen/logrus"
)

// Client talks to a single Moonraker instance over HTTP.
type Client struct {
	base string
	http *http.Client

	// afterTimeoutWait is slept when a long-running script comes back as
	// a gateway timeout around the 60s mark. Moonraker answers 504 after
	// one minute even while Klipper keeps executing; the wait is a
	// best-effort grace period, not a guarantee.
	afterTimeoutWait time.Duration

	sleep func(time.Duration)
	since func(time.Time) time.Duration
}

var _ domain.Transport = (*Client)(nil)

// New builds a client for the given printer address (IP or hostname,
// optionally with port).
func New(cfg domain.RunConfig) *Client {
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	return &Client{
		base: "http://" + cfg.Printer,
		http: &http.Client{
			Timeout: cfg.ReadTimeout,
			Transport: &http.Transport{
				DialContext: dialer.DialContext,
			},
		},
		afterTimeoutWait: cfg.AfterTimeoutWait,
		sleep:            time.Sleep,
		since:            time.Since,
	}
}

// Submit runs a gcode script and returns once Moonraker acknowledges it.
// https://moonraker.readthedocs.io/en/latest/web_api/#run-a-gcode
func (c *Client) Submit(ctx context.Context, script string) error {
	u := c.base + "/printer/gcode/script?script=" + url.QueryEscape(script)

	start := time.Now()
	resp, err := c.do(ctx, http.MethodPost, u)
	elapsed := c.since(start)
	if err != nil {
		return wrapTimeout("submit gcode", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log := logrus.WithFields(logrus.Fields{
			"script": script,
			"status": resp.StatusCode,
		})
		// Moonraker times out long scripts at exactly one minute while
		// the device keeps working, so a 504 in that band is not treated
		// as failure.
		if resp.StatusCode == http.StatusGatewayTimeout && gatewayTimeoutShaped(elapsed) {
			if c.afterTimeoutWait > 0 {
				log.WithField("wait", c.afterTimeoutWait).
					Warn("Gateway timeout on long command; applying best-effort wait")
				c.sleep(c.afterTimeoutWait)
			} else {
				log.Warn("Gateway timeout on long command; continuing without wait")
			}
			return nil
		}
		log.Debug("Non-200 acknowledgement")
	}
	return nil
}

// ReadRecent fetches up to count cached console entries, oldest first.
// https://moonraker.readthedocs.io/en/latest/web_api/#request-cached-gcode-responses
func (c *Client) ReadRecent(ctx context.Context, count int) ([]domain.GcodeEntry, error) {
	u := fmt.Sprintf("%s/server/gcode_store?count=%d", c.base, count)

	resp, err := c.do(ctx, http.MethodGet, u)
	if err != nil {
		return nil, wrapTimeout("read gcode store", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("read gcode store: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Result struct {
			GcodeStore []domain.GcodeEntry `json:"gcode_store"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode gcode store: %w", err)
	}
	return payload.Result.GcodeStore, nil
}

// Close is a no-op for the HTTP transport.
func (c *Client) Close() error { return nil }

func (c *Client) do(ctx context.Context, method, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, err
	}
	return c.http.Do(req)
}

// gatewayTimeoutShaped reports whether the elapsed time matches the
// one-minute cutoff observed from Moonraker.
func gatewayTimeoutShaped(elapsed time.Duration) bool {
	return elapsed >= 59*time.Second && elapsed <= 65*time.Second
}

func wrapTimeout(op string, err error) error {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return &harnesserr.RemoteTimeoutError{Op: op, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &harnesserr.RemoteTimeoutError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
