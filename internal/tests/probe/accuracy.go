// Package probe measures probe repeatability via PROBE_ACCURACY.
package probe

import (
	"strconv"
	"strings"

	"moonbench/internal/domain"
	"moonbench/internal/stats"
	"moonbench/internal/testtype"
	"moonbench/pkg/harnesserr"

	"github.com/sirupsen/logrus"
)

const summaryNeedle = "probe accuracy results"

func Init() {
	testtype.Register(testtype.Rule{
		Name:        "probe_accuracy",
		Description: "PROBE_ACCURACY with a few samples; scalar is the reported range",
		MinWindow:   10,
		Commands: func(domain.RunConfig) []string {
			return []string{"PROBE_ACCURACY samples=3"}
		},
		Extract: extractRange,
	})
}

// extractRange parses the summary line Klipper prints after a probe run:
//
//	// probe accuracy results: maximum 11.995491, minimum 11.992991,
//	// range 0.002500, average 11.994658, median 11.995491, ...
//
// and returns the range field. Stray repeated summaries are collapsed by
// taking the median of all extracted values.
func extractRange(tail []domain.GcodeEntry, _ domain.RunConfig, verbose bool) (float64, error) {
	var values []float64
	for _, e := range tail {
		if !strings.Contains(e.Message, summaryNeedle) {
			continue
		}
		if verbose {
			logrus.WithField("message", e.Message).Info("Probe summary line")
		}
		v, err := parseRangeField(e.Message)
		if err != nil {
			return 0, harnesserr.E("probe_accuracy", "parse summary line", err)
		}
		values = append(values, v)
	}

	if len(values) == 0 {
		return 0, &harnesserr.UnexpectedMessageCountError{Rule: "probe_accuracy", Want: 1, Got: 0}
	}
	return stats.Median(values), nil
}

func parseRangeField(msg string) (float64, error) {
	_, after, ok := strings.Cut(msg, "range ")
	if !ok {
		return 0, harnesserr.E("probe_accuracy", "no range field in "+strconv.Quote(msg), nil)
	}
	field, _, _ := strings.Cut(after, ",")
	return strconv.ParseFloat(strings.TrimSpace(field), 64)
}
