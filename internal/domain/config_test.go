package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveDefaults(t *testing.T) {
	cfg := RunConfig{Printer: "voron.local"}.Effective()

	assert.Equal(t, TransportHTTP, cfg.Transport)
	assert.Equal(t, "probe_accuracy", cfg.TestType)
	assert.Equal(t, 1, cfg.Iterations)
	assert.Equal(t, DefaultMarkerMessage, cfg.MarkerMessage)
	assert.Equal(t, time.Second, cfg.MarkerSettle)
	assert.Equal(t, DefaultConnectTimeout, cfg.ConnectTimeout)
	assert.Equal(t, DefaultReadTimeout, cfg.ReadTimeout)
	assert.Equal(t, time.Duration(0), cfg.AfterTimeoutWait)
	assert.Equal(t, DefaultMicrostepSize, cfg.MicrostepSize)
	assert.Equal(t, DefaultRandomMoveMin, cfg.RandomMoveMin)
	assert.Equal(t, DefaultRandomMoveMax, cfg.RandomMoveMax)
	assert.Equal(t, []string{"G28"}, cfg.StartGcodes)
	assert.Empty(t, cfg.EndGcodes)
	assert.Equal(t, "voron.local", cfg.MQTTInstance)
}

func TestEffectivePreservesExplicitValues(t *testing.T) {
	cfg := RunConfig{
		Printer:       "voron.local",
		Transport:     TransportMQTT,
		Iterations:    50,
		MarkerMessage: "M117 Fence",
		StartGcodes:   []string{},
		MQTTInstance:  "printer-a",
	}.Effective()

	assert.Equal(t, TransportMQTT, cfg.Transport)
	assert.Equal(t, 50, cfg.Iterations)
	assert.Equal(t, "M117 Fence", cfg.MarkerMessage)
	assert.Empty(t, cfg.StartGcodes)
	assert.Equal(t, "printer-a", cfg.MQTTInstance)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*RunConfig)
		wantErr bool
	}{
		{"valid", func(*RunConfig) {}, false},
		{"missing printer", func(c *RunConfig) { c.Printer = "" }, true},
		{"bad transport", func(c *RunConfig) { c.Transport = "carrier-pigeon" }, true},
		{"zero iterations", func(c *RunConfig) { c.Iterations = 0 }, true},
		{"inverted move bounds", func(c *RunConfig) { c.RandomMoveMin = 9; c.RandomMoveMax = 2 }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := RunConfig{Printer: "voron.local"}.Effective()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIndexOfFullTupleEquality(t *testing.T) {
	marker := GcodeEntry{Time: 5, Kind: KindCommand, Message: "M117 Running Test"}
	window := []GcodeEntry{
		{Time: 1, Kind: KindCommand, Message: "M117 Running Test"},
		{Time: 5, Kind: KindResponse, Message: "M117 Running Test"},
		marker,
	}

	require.Equal(t, 2, IndexOf(window, marker))
	assert.Equal(t, -1, IndexOf(window[:2], marker))
}
