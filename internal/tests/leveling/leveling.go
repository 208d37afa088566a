// Package leveling measures how many retries Z_TILT_ADJUST and
// QUAD_GANTRY_LEVEL need to converge, optionally after knocking the axis
// out of level first.
package leveling

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"moonbench/internal/domain"
	"moonbench/internal/testtype"
	"moonbench/pkg/harnesserr"

	"github.com/sirupsen/logrus"
)

const retriesNeedle = "Retries"

func Init() {
	testtype.Register(testtype.Rule{
		Name:        "z_tilt_adjust_no_reset",
		Description: "Z_TILT_ADJUST with no disturbance between iterations; scalar is the final retry count",
		// 3 to 5 probes per location, up to 4 retries.
		MinWindow: 75,
		Commands:  fixed("Z_TILT_ADJUST"),
		Extract:   extractFinalRetries,
	})
	testtype.Register(testtype.Rule{
		Name:        "z_tilt_adjust_moved",
		Description: "Z_TILT_ADJUST after a fixed 2mm disturbance of one Z stepper",
		MinWindow:   150,
		Commands:    moved("Z_TILT_ADJUST"),
		Extract:     extractFinalRetries,
	})
	testtype.Register(testtype.Rule{
		Name:        "z_tilt_adjust_moved_randomized",
		Description: "Z_TILT_ADJUST after a randomized disturbance of one Z stepper",
		MinWindow:   200,
		Commands:    movedRandomized("Z_TILT_ADJUST"),
		Extract:     extractFinalRetries,
	})
	testtype.Register(testtype.Rule{
		Name:        "qgl",
		Description: "QUAD_GANTRY_LEVEL with no disturbance between iterations",
		MinWindow:   200,
		Commands:    fixed("QUAD_GANTRY_LEVEL"),
		Extract:     extractFinalRetries,
	})
	testtype.Register(testtype.Rule{
		Name:        "qgl_moved",
		Description: "QUAD_GANTRY_LEVEL after a fixed 2mm disturbance of one Z stepper",
		MinWindow:   200,
		Commands:    moved("QUAD_GANTRY_LEVEL"),
		Extract:     extractFinalRetries,
	})
	testtype.Register(testtype.Rule{
		Name:        "qgl_moved_randomized",
		Description: "QUAD_GANTRY_LEVEL after a randomized disturbance of one Z stepper",
		MinWindow:   200,
		Commands:    movedRandomized("QUAD_GANTRY_LEVEL"),
		Extract:     extractFinalRetries,
	})
}

func fixed(level string) testtype.CommandsFunc {
	return func(domain.RunConfig) []string {
		return []string{level}
	}
}

func moved(level string) testtype.CommandsFunc {
	return func(domain.RunConfig) []string {
		return []string{
			"FORCE_MOVE STEPPER=stepper_z DISTANCE=2 VELOCITY=40",
			level,
		}
	}
}

func movedRandomized(level string) testtype.CommandsFunc {
	return func(cfg domain.RunConfig) []string {
		dist := cfg.RandomMoveMin + rand.Float64()*(cfg.RandomMoveMax-cfg.RandomMoveMin)
		logrus.WithField("distance", fmt.Sprintf("%0.3f", dist)).Info("Using random distance")
		return []string{
			fmt.Sprintf("FORCE_MOVE STEPPER=stepper_z DISTANCE=%0.3f VELOCITY=40", dist),
			level,
		}
	}
}

// extractFinalRetries parses every line shaped like
//
//	// Retries: 1/3 Probed points range: 0.005000 tolerance: 0.010000
//
// and returns the retry count of the last one. Intermediate lines show
// partial progress; the final line reflects convergence.
func extractFinalRetries(tail []domain.GcodeEntry, _ domain.RunConfig, verbose bool) (float64, error) {
	var retries []int
	for _, e := range tail {
		if !strings.Contains(e.Message, retriesNeedle) {
			continue
		}
		if verbose {
			logrus.WithField("message", e.Message).Info("Retries line")
		}
		n, err := parseRetries(e.Message)
		if err != nil {
			return 0, harnesserr.E("leveling", "parse retries line", err)
		}
		retries = append(retries, n)
	}

	if len(retries) == 0 {
		return 0, &harnesserr.UnexpectedMessageCountError{Rule: "leveling", Want: 1, Got: 0}
	}
	return float64(retries[len(retries)-1]), nil
}

func parseRetries(msg string) (int, error) {
	_, after, ok := strings.Cut(msg, "Retries:")
	if !ok {
		return 0, fmt.Errorf("no retries field in %q", msg)
	}
	count, _, ok := strings.Cut(after, "/")
	if !ok {
		return 0, fmt.Errorf("malformed retries field in %q", msg)
	}
	return strconv.Atoi(strings.TrimSpace(count))
}
