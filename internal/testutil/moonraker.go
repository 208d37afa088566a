// Package testutil provides a mock Moonraker instance for tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"moonbench/internal/domain"
)

// MockMoonraker serves the gcode-script and gcode-store endpoints over
// an in-memory append-only store.
type MockMoonraker struct {
	mu      sync.Mutex
	entries []domain.GcodeEntry
	clock   float64

	// Respond maps a submitted script to the response lines the printer
	// would write to the console afterwards.
	Respond func(script string) []string

	srv *httptest.Server

	submitted []string
}

// NewMockMoonraker starts the server. Callers must Close it.
func NewMockMoonraker() *MockMoonraker {
	m := &MockMoonraker{}
	mux := http.NewServeMux()
	mux.HandleFunc("/printer/gcode/script", m.handleScript)
	mux.HandleFunc("/server/gcode_store", m.handleStore)
	m.srv = httptest.NewServer(mux)
	return m
}

// Addr returns host:port for use as the printer address.
func (m *MockMoonraker) Addr() string {
	return m.srv.Listener.Addr().String()
}

func (m *MockMoonraker) Close() { m.srv.Close() }

// Submitted returns the scripts received so far, in order.
func (m *MockMoonraker) Submitted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.submitted...)
}

// Append writes an entry directly to the store, as an unrelated producer
// would.
func (m *MockMoonraker) Append(kind domain.EntryKind, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.append(kind, message)
}

func (m *MockMoonraker) append(kind domain.EntryKind, message string) {
	m.clock++
	m.entries = append(m.entries, domain.GcodeEntry{
		Time:    1700000000 + m.clock,
		Kind:    kind,
		Message: message,
	})
}

func (m *MockMoonraker) handleScript(w http.ResponseWriter, r *http.Request) {
	script := r.URL.Query().Get("script")

	m.mu.Lock()
	m.submitted = append(m.submitted, script)
	m.append(domain.KindCommand, script)
	if m.Respond != nil {
		for _, line := range m.Respond(script) {
			m.append(domain.KindResponse, line)
		}
	}
	m.mu.Unlock()

	w.Write([]byte(`{"result": "ok"}`))
}

func (m *MockMoonraker) handleStore(w http.ResponseWriter, r *http.Request) {
	count, err := strconv.Atoi(r.URL.Query().Get("count"))
	if err != nil || count < 0 {
		http.Error(w, "invalid count", http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	entries := m.entries
	if len(entries) > count {
		entries = entries[len(entries)-count:]
	}
	window := append([]domain.GcodeEntry(nil), entries...)
	m.mu.Unlock()

	payload := map[string]any{
		"result": map[string]any{"gcode_store": window},
	}
	json.NewEncoder(w).Encode(payload)
}
