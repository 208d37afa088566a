// Package runner drives N iterations of a test type against the printer
// and collects one scalar per iteration.
package runner

import (
	"context"
	"fmt"
	"time"

	"moonbench/internal/domain"
	"moonbench/internal/marker"
	"moonbench/internal/testtype"

	log "github.com/sirupsen/logrus"
)

// Runner executes a single test run. Control flow is strictly
// sequential: command effects on the physical device are
// order-dependent, so nothing is dispatched concurrently.
type Runner struct {
	Port   domain.CommandPort
	Store  domain.GcodeStore
	Marker *marker.Synchronizer
	Config domain.RunConfig
}

// New wires a runner over the given transport.
func New(t domain.Transport, cfg domain.RunConfig) *Runner {
	return &Runner{
		Port:   t,
		Store:  t,
		Marker: marker.New(t, t, cfg),
		Config: cfg,
	}
}

// Execute runs the configured number of iterations of the rule and
// returns the collected scalars. Any failure aborts the whole run;
// partially collected results are discarded with it. Iterations are
// never salvaged on error because a silently dropped data point would
// bias the statistical sample.
func (r *Runner) Execute(ctx context.Context, rule testtype.Rule) ([]float64, error) {
	l := log.WithFields(log.Fields{
		"test_type":  rule.Name,
		"iterations": r.Config.Iterations,
	})
	l.Info("Starting test run")
	start := time.Now()

	for _, gcode := range r.Config.StartGcodes {
		if err := r.Port.Submit(ctx, gcode); err != nil {
			return nil, fmt.Errorf("start gcode %q: %w", gcode, err)
		}
	}

	results := make([]float64, 0, r.Config.Iterations)
	for i := 0; i < r.Config.Iterations; i++ {
		value, err := r.runIteration(ctx, rule)
		if err != nil {
			return nil, fmt.Errorf("iteration %d: %w", i+1, err)
		}
		l.WithFields(log.Fields{"iteration": i + 1, "result": value}).Info("Iteration complete")
		results = append(results, value)
	}

	for _, gcode := range r.Config.EndGcodes {
		if err := r.Port.Submit(ctx, gcode); err != nil {
			return nil, fmt.Errorf("end gcode %q: %w", gcode, err)
		}
	}

	elapsed := time.Since(start)
	l.WithFields(log.Fields{
		"total":         elapsed.Round(10 * time.Millisecond).String(),
		"per_iteration": (elapsed / time.Duration(r.Config.Iterations)).Round(10 * time.Millisecond).String(),
	}).Info("Test run finished")
	return results, nil
}

// runIteration walks one iteration through its stages: place marker,
// dispatch commands, read window, slice tail, extract.
func (r *Runner) runIteration(ctx context.Context, rule testtype.Rule) (float64, error) {
	// Throwaway read before the marker; nudges the store so the sentinel
	// written next is visible to the read after it.
	if _, err := r.Store.ReadRecent(ctx, rule.MinWindow); err != nil {
		return 0, fmt.Errorf("pre-read window: %w", err)
	}

	mark, err := r.Marker.Place(ctx)
	if err != nil {
		return 0, err
	}

	for _, command := range rule.Commands(r.Config) {
		if err := r.Port.Submit(ctx, command); err != nil {
			return 0, fmt.Errorf("dispatch %q: %w", command, err)
		}
	}

	window, err := r.Store.ReadRecent(ctx, rule.MinWindow)
	if err != nil {
		return 0, fmt.Errorf("read window: %w", err)
	}

	tail, err := marker.Tail(window, mark)
	if err != nil {
		return 0, err
	}
	if r.Config.Verbose {
		log.WithFields(log.Fields{
			"window": len(window),
			"tail":   len(tail),
		}).Info("Located marker in window")
	}

	return rule.Extract(tail, r.Config, r.Config.Verbose)
}
