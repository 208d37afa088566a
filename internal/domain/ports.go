package domain

import "context"

// CommandPort submits a single gcode script to the device. Submit returns
// once the control plane acknowledges the request, not once the physical
// effect completes.
type CommandPort interface {
	Submit(ctx context.Context, script string) error
}

// GcodeStore reads back the device's cached console output. The store is
// append-only and only addressable as "the last count entries".
type GcodeStore interface {
	ReadRecent(ctx context.Context, count int) ([]GcodeEntry, error)
}

// Transport is a connection to a Moonraker instance exposing both ports.
type Transport interface {
	CommandPort
	GcodeStore
	Close() error
}

// ResultSink persists the raw per-iteration values of a completed run.
type ResultSink interface {
	Save(values []float64) (string, error)
}
