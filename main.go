package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"moonbench/internal/adapter/logger"
	"moonbench/internal/adapter/moonraker"
	"moonbench/internal/adapter/mqttrpc"
	"moonbench/internal/adapter/resultreport"
	"moonbench/internal/adapter/wsrpc"
	"moonbench/internal/adapter/yamlconfig"
	"moonbench/internal/domain"
	"moonbench/internal/runner"
	"moonbench/internal/stats"
	"moonbench/internal/tests"
	"moonbench/internal/testtype"

	"github.com/sirupsen/logrus"
)

func main() {
	var (
		profilePath = flag.String("profile", "", "Path to run profile YAML (optional)")
		testType    = flag.String("test_type", "", "Test type to run (default probe_accuracy)")
		iterations  = flag.Int("iterations", 0, "Number of test iterations")
		transport   = flag.String("transport", "", "Transport to Moonraker: http, websocket or mqtt")
		outputPath  = flag.String("output", "", "Path at which to write the raw result list (JSON)")
		logFile     = flag.String("log-file", "", "Mirror logs to this file")
		showStats   = flag.Bool("stats", false, "Show summary statistics")
		verbose     = flag.Bool("verbose", false, "Use more-verbose debug output")
		moveMin     = flag.Float64("random-move-min", 0, "Minimum of the randomized disturbance range")
		moveMax     = flag.Float64("random-move-max", 0, "Maximum of the randomized disturbance range")
		startGcodes = flag.String("start-gcodes", "", "Comma-separated gcodes to run before the test")
		endGcodes   = flag.String("end-gcodes", "", "Comma-separated gcodes to run after the test")
		listTests   = flag.Bool("list-tests", false, "Print the known test types")
		help        = flag.Bool("help", false, "Print program usage")
	)
	flag.Parse()

	level := logrus.InfoLevel
	if *verbose {
		level = logrus.DebugLevel
	}
	logger.Setup(level, *logFile)

	tests.Init()
	if *listTests {
		for _, r := range testtype.List() {
			fmt.Printf("   - %s --- window: %d entries\n", r.Name, r.MinWindow)
			if r.Description != "" {
				fmt.Printf("        %s\n", r.Description)
			}
		}
		return
	}

	if flag.NArg() != 1 || *help {
		fmt.Fprintln(os.Stderr, "usage: moonbench [flags] <printer-address>")
		flag.Usage()
		os.Exit(2)
	}

	cfg := domain.RunConfig{}
	if *profilePath != "" {
		loaded, err := yamlconfig.LoadProfile(*profilePath)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to load profile")
		}
		cfg = *loaded
	}

	cfg.Printer = flag.Arg(0)
	if *testType != "" {
		cfg.TestType = *testType
	}
	if *iterations > 0 {
		cfg.Iterations = *iterations
	}
	if *transport != "" {
		cfg.Transport = domain.TransportKind(*transport)
	}
	if *outputPath != "" {
		cfg.OutputPath = *outputPath
	}
	if *moveMin > 0 {
		cfg.RandomMoveMin = *moveMin
	}
	if *moveMax > 0 {
		cfg.RandomMoveMax = *moveMax
	}
	if *startGcodes != "" {
		cfg.StartGcodes = splitCSV(*startGcodes)
	}
	if *endGcodes != "" {
		cfg.EndGcodes = splitCSV(*endGcodes)
	}
	cfg.Verbose = cfg.Verbose || *verbose

	if err := run(cfg.Effective(), *showStats); err != nil {
		logrus.WithError(err).Fatal("Failed to run test")
	}
}

func run(cfg domain.RunConfig, showStats bool) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	rule, err := testtype.Lookup(cfg.TestType)
	if err != nil {
		return err
	}

	t, err := openTransport(cfg)
	if err != nil {
		return fmt.Errorf("could not connect to %s: %w", cfg.Printer, err)
	}
	defer t.Close()

	start := time.Now()
	r := runner.New(t, cfg)
	results, err := r.Execute(context.Background(), rule)
	if err != nil {
		return err
	}

	fmt.Printf("Ran %d iterations.\n", cfg.Iterations)
	fmt.Printf("Data: %v\n", results)

	if showStats {
		summary, err := stats.Summarize(results)
		if err != nil {
			return err
		}
		fmt.Println("Printing stats:")
		fmt.Printf("  Range: %0.4f\n", summary.Range)
		fmt.Printf("  Min: %0.4f\n", summary.Min)
		fmt.Printf("  Max: %0.4f\n", summary.Max)
		fmt.Printf("  Median: %0.4f\n", summary.Median)
		if summary.Stdev != nil {
			fmt.Printf("  Standard Deviation: %0.3f\n", *summary.Stdev)
		}
	}

	total := time.Since(start)
	fmt.Printf("--- %0.2f seconds total; %0.2f per iteration ---\n",
		total.Seconds(), total.Seconds()/float64(cfg.Iterations))

	if cfg.OutputPath != "" {
		path, err := resultreport.New(cfg.OutputPath).Save(results)
		if err != nil {
			return fmt.Errorf("cannot write results: %w", err)
		}
		logrus.WithField("output_path", path).Info("Results written")
	}
	return nil
}

func openTransport(cfg domain.RunConfig) (domain.Transport, error) {
	switch cfg.Transport {
	case domain.TransportHTTP:
		return moonraker.New(cfg), nil
	case domain.TransportWebsocket:
		return wsrpc.Dial(cfg)
	case domain.TransportMQTT:
		return mqttrpc.Dial(cfg)
	default:
		return nil, fmt.Errorf("unsupported transport %q", cfg.Transport)
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
