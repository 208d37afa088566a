// Package position converts GET_POSITION stepper counts into Z
// distances.
//
// get_z_offset expects a GET_Z_OFFSET macro on the printer that homes
// each of two toolheads against a shared Z endstop and reports
// GET_POSITION for both; the scalar is the offset between them.
package position

import (
	"fmt"
	"strconv"
	"strings"

	"moonbench/internal/domain"
	"moonbench/internal/testtype"
	"moonbench/pkg/harnesserr"

	"github.com/sirupsen/logrus"
)

const positionNeedle = "mcu: "

func Init() {
	testtype.Register(testtype.Rule{
		Name:        "get_z_offset",
		Description: "Z offset between two independently homed toolheads, in mm",
		MinWindow:   200,
		Commands: func(domain.RunConfig) []string {
			return []string{"GET_Z_OFFSET"}
		},
		Extract: extractOffset,
	})
	testtype.Register(testtype.Rule{
		Name:        "z_position",
		Description: "Homed Z stepper position, in mm",
		MinWindow:   200,
		Commands: func(domain.RunConfig) []string {
			return []string{"G28 Z", "M400", "GET_POSITION"}
		},
		Extract: extractPosition,
	})
}

func extractOffset(tail []domain.GcodeEntry, cfg domain.RunConfig, verbose bool) (float64, error) {
	positions, err := stepperZPositions(tail, verbose)
	if err != nil {
		return 0, err
	}
	// One report per toolhead.
	if len(positions) != 2 {
		return 0, &harnesserr.UnexpectedMessageCountError{Rule: "get_z_offset", Want: 2, Got: len(positions), Exact: true}
	}
	return float64(positions[0]-positions[1]) * cfg.MicrostepSize, nil
}

func extractPosition(tail []domain.GcodeEntry, cfg domain.RunConfig, verbose bool) (float64, error) {
	positions, err := stepperZPositions(tail, verbose)
	if err != nil {
		return 0, err
	}
	if len(positions) != 1 {
		return 0, &harnesserr.UnexpectedMessageCountError{Rule: "z_position", Want: 1, Got: len(positions), Exact: true}
	}
	return float64(positions[0]) * cfg.MicrostepSize, nil
}

// stepperZPositions parses the stepper_z count out of every GET_POSITION
// report in the tail. A report looks like:
//
//	mcu: dual_carriage:-1 stepper_y:102 ... stepper_z:-11329 ...
func stepperZPositions(tail []domain.GcodeEntry, verbose bool) ([]int, error) {
	var positions []int
	for _, e := range tail {
		if !strings.Contains(e.Message, positionNeedle) {
			continue
		}
		if verbose {
			logrus.WithField("message", e.Message).Info("Position line")
		}
		n, err := parseStepperZ(e.Message)
		if err != nil {
			return nil, harnesserr.E("position", "parse position line", err)
		}
		positions = append(positions, n)
	}
	return positions, nil
}

func parseStepperZ(msg string) (int, error) {
	_, after, ok := strings.Cut(msg, "stepper_z:")
	if !ok {
		return 0, fmt.Errorf("no stepper_z field in %q", msg)
	}
	field, _, _ := strings.Cut(after, " ")
	return strconv.Atoi(field)
}
