package wsrpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"moonbench/internal/domain"
	"moonbench/internal/jsonrpc"
	"moonbench/pkg/harnesserr"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{}

// mockSocket answers printer.gcode.script and server.gcode_store over a
// websocket, optionally interleaving a notification before each reply.
type mockSocket struct {
	srv     *httptest.Server
	scripts []string
	notify  bool
	stall   bool
}

func newMockSocket(t *testing.T) *mockSocket {
	t.Helper()
	m := &mockSocket{}
	mux := http.NewServeMux()
	mux.HandleFunc("/websocket", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var req jsonrpc.Request
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			if m.stall {
				continue
			}
			if m.notify {
				conn.WriteJSON(map[string]any{
					"jsonrpc": "2.0",
					"method":  "notify_proc_stat_update",
					"params":  []any{},
				})
			}
			m.handle(conn, req)
		}
	})
	m.srv = httptest.NewServer(mux)
	t.Cleanup(m.srv.Close)
	return m
}

func (m *mockSocket) handle(conn *websocket.Conn, req jsonrpc.Request) {
	switch req.Method {
	case "printer.gcode.script":
		params := req.Params.(map[string]any)
		m.scripts = append(m.scripts, params["script"].(string))
		conn.WriteJSON(map[string]any{"jsonrpc": "2.0", "result": "ok", "id": req.ID})
	case "server.gcode_store":
		store := []domain.GcodeEntry{
			{Time: 1.0, Kind: domain.KindCommand, Message: "G28"},
			{Time: 2.0, Kind: domain.KindResponse, Message: "ok"},
		}
		result, _ := json.Marshal(map[string]any{"gcode_store": store})
		conn.WriteJSON(map[string]any{"jsonrpc": "2.0", "result": json.RawMessage(result), "id": req.ID})
	default:
		conn.WriteJSON(map[string]any{
			"jsonrpc": "2.0",
			"error":   map[string]any{"code": -32601, "message": "Method not found"},
			"id":      req.ID,
		})
	}
}

func (m *mockSocket) addr() string {
	return strings.TrimPrefix(m.srv.URL, "http://")
}

func dial(t *testing.T, m *mockSocket) *Client {
	t.Helper()
	cfg := domain.RunConfig{
		Printer:        m.addr(),
		ConnectTimeout: time.Second,
		ReadTimeout:    2 * time.Second,
	}
	client, err := Dial(cfg.Effective())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestSubmitRoundTrip(t *testing.T) {
	m := newMockSocket(t)
	client := dial(t, m)

	err := client.Submit(context.Background(), "M117 Running Test")
	require.NoError(t, err)
	assert.Equal(t, []string{"M117 Running Test"}, m.scripts)
}

func TestReadRecentRoundTrip(t *testing.T) {
	m := newMockSocket(t)
	client := dial(t, m)

	window, err := client.ReadRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, "G28", window[0].Message)
	assert.Equal(t, domain.KindResponse, window[1].Kind)
}

func TestCallSkipsNotifications(t *testing.T) {
	m := newMockSocket(t)
	m.notify = true
	client := dial(t, m)

	window, err := client.ReadRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, window, 2)
}

func TestSubmitTimeoutSurfaced(t *testing.T) {
	m := newMockSocket(t)
	m.stall = true

	cfg := domain.RunConfig{
		Printer:        m.addr(),
		ConnectTimeout: time.Second,
		ReadTimeout:    100 * time.Millisecond,
	}
	client, err := Dial(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	err = client.Submit(context.Background(), "G28")
	require.Error(t, err)

	var terr *harnesserr.RemoteTimeoutError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "submit gcode", terr.Op)
}

func TestDialRefused(t *testing.T) {
	cfg := domain.RunConfig{
		Printer:        "127.0.0.1:1",
		ConnectTimeout: 200 * time.Millisecond,
	}
	_, err := Dial(cfg.Effective())
	assert.Error(t, err)
}
