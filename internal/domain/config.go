package domain

import (
	"fmt"
	"time"
)

// TransportKind selects how the harness talks to Moonraker.
type TransportKind string

const (
	TransportHTTP      TransportKind = "http"
	TransportWebsocket TransportKind = "websocket"
	TransportMQTT      TransportKind = "mqtt"
)

// Validate checks that the transport kind is supported.
func (t TransportKind) Validate() error {
	switch t {
	case "", TransportHTTP, TransportWebsocket, TransportMQTT:
		return nil
	default:
		return fmt.Errorf("invalid transport: %s", t)
	}
}

const (
	// DefaultMarkerMessage is the sentinel command used to fence the log.
	DefaultMarkerMessage = "M117 Running Test"

	// DefaultMicrostepSize is the Z microstep size in millimeters used to
	// convert stepper counts into distances.
	DefaultMicrostepSize = 0.0025

	DefaultConnectTimeout = 1 * time.Second
	DefaultReadTimeout    = 180 * time.Second

	// DefaultMarkerSettle is the pause between submitting the sentinel
	// and reading it back; the store is not read-your-writes.
	DefaultMarkerSettle = 1 * time.Second

	DefaultRandomMoveMin = 2.0
	DefaultRandomMoveMax = 7.0
)

// RunConfig is the immutable configuration of a single test run.
type RunConfig struct {
	Printer    string        `yaml:"printer"`
	Transport  TransportKind `yaml:"transport,omitempty"`
	TestType   string        `yaml:"test_type,omitempty"`
	Iterations int           `yaml:"iterations,omitempty"`
	Verbose    bool          `yaml:"verbose,omitempty"`

	MarkerMessage string        `yaml:"marker_message,omitempty"`
	MarkerSettle  time.Duration `yaml:"marker_settle,omitempty"`

	ConnectTimeout time.Duration `yaml:"connect_timeout,omitempty"`
	ReadTimeout    time.Duration `yaml:"read_timeout,omitempty"`

	// AfterTimeoutWait is a best-effort grace period applied when a long
	// command fails with a gateway-timeout shape. Zero disables it.
	AfterTimeoutWait time.Duration `yaml:"after_timeout_wait,omitempty"`

	MicrostepSize float64 `yaml:"microstep_size,omitempty"`

	RandomMoveMin float64 `yaml:"random_move_min,omitempty"`
	RandomMoveMax float64 `yaml:"random_move_max,omitempty"`

	StartGcodes []string `yaml:"start_gcodes"`
	EndGcodes   []string `yaml:"end_gcodes"`

	OutputPath string `yaml:"output_path,omitempty"`

	// MQTTInstance is the Moonraker instance name used to build the MQTT
	// API topics. Defaults to the printer host.
	MQTTInstance string `yaml:"mqtt_instance,omitempty"`
}

// Effective returns a copy of the config with defaults applied.
func (c RunConfig) Effective() RunConfig {
	out := c
	if out.Transport == "" {
		out.Transport = TransportHTTP
	}
	if out.TestType == "" {
		out.TestType = "probe_accuracy"
	}
	if out.Iterations == 0 {
		out.Iterations = 1
	}
	if out.MarkerMessage == "" {
		out.MarkerMessage = DefaultMarkerMessage
	}
	if out.MarkerSettle == 0 {
		out.MarkerSettle = DefaultMarkerSettle
	}
	if out.ConnectTimeout == 0 {
		out.ConnectTimeout = DefaultConnectTimeout
	}
	if out.ReadTimeout == 0 {
		out.ReadTimeout = DefaultReadTimeout
	}
	if out.MicrostepSize == 0 {
		out.MicrostepSize = DefaultMicrostepSize
	}
	if out.RandomMoveMin == 0 && out.RandomMoveMax == 0 {
		out.RandomMoveMin = DefaultRandomMoveMin
		out.RandomMoveMax = DefaultRandomMoveMax
	}
	if out.StartGcodes == nil {
		out.StartGcodes = []string{"G28"}
	}
	if out.MQTTInstance == "" {
		out.MQTTInstance = out.Printer
	}
	return out
}

// Validate checks the config for contradictions. Call on the effective
// config.
func (c RunConfig) Validate() error {
	if c.Printer == "" {
		return fmt.Errorf("printer address is required")
	}
	if err := c.Transport.Validate(); err != nil {
		return err
	}
	if c.Iterations < 1 {
		return fmt.Errorf("iterations must be at least 1, got %d", c.Iterations)
	}
	if c.RandomMoveMin > c.RandomMoveMax {
		return fmt.Errorf("random_move_min %v exceeds random_move_max %v", c.RandomMoveMin, c.RandomMoveMax)
	}
	return nil
}
