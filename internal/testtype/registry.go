// Package testtype holds the table of runnable test types. Each rule
// pairs the commands a test dispatches with the extraction logic that
// turns the resulting console output into one scalar.
package testtype

import (
	"fmt"
	"sort"

	"moonbench/internal/domain"
)

// CommandsFunc returns the ordered command sequence for one iteration.
// It may be randomized per call.
type CommandsFunc func(cfg domain.RunConfig) []string

// ExtractFunc reduces the tail slice after the marker to one scalar.
// The reduction policy (median, last value, difference) is fixed per
// test type.
type ExtractFunc func(tail []domain.GcodeEntry, cfg domain.RunConfig, verbose bool) (float64, error)

// Rule is one registered test type.
type Rule struct {
	Name        string
	Description string

	// MinWindow is the number of store entries read per iteration. It
	// must exceed the number of lines the commands produce, or the next
	// window read will no longer contain the marker.
	MinWindow int

	Commands CommandsFunc
	Extract  ExtractFunc
}

var registry = map[string]Rule{}

// Register stores the rule under its name. Duplicate registration is a
// programming error.
func Register(r Rule) {
	if r.Name == "" || r.Commands == nil || r.Extract == nil || r.MinWindow <= 0 {
		panic(fmt.Sprintf("testtype: incomplete rule %+v", r))
	}
	if _, ok := registry[r.Name]; ok {
		panic(fmt.Sprintf("testtype: duplicate rule %q", r.Name))
	}
	registry[r.Name] = r
}

// Lookup returns the named rule, or an error listing what exists.
func Lookup(name string) (Rule, error) {
	r, ok := registry[name]
	if !ok {
		return Rule{}, fmt.Errorf("unknown test type %q; known types: %v", name, Names())
	}
	return r, nil
}

// Names returns the registered rule names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns all registered rules sorted by name.
func List() []Rule {
	rules := make([]Rule, 0, len(registry))
	for _, name := range Names() {
		rules = append(rules, registry[name])
	}
	return rules
}
