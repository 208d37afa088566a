// Package marker fences the remote gcode store. The store has no request
// correlation, so the only reliable causal boundary is a uniquely
// recognizable no-op command written through the same channel as the
// commands under test.
package marker

import (
	"context"
	"fmt"
	"time"

	"moonbench/internal/domain"
	"moonbench/pkg/harnesserr"
)

// Synchronizer places the sentinel command and locates it in later
// window reads.
type Synchronizer struct {
	Port    domain.CommandPort
	Store   domain.GcodeStore
	Message string

	// Settle is the pause between submitting the sentinel and reading it
	// back; a just-written entry is not always visible to the next read.
	Settle time.Duration

	sleep func(time.Duration)
}

func New(port domain.CommandPort, store domain.GcodeStore, cfg domain.RunConfig) *Synchronizer {
	return &Synchronizer{
		Port:    port,
		Store:   store,
		Message: cfg.MarkerMessage,
		Settle:  cfg.MarkerSettle,
		sleep:   time.Sleep,
	}
}

// Place submits the sentinel and reads it back, returning the exact
// entry the store recorded. The full entry (timestamp included) is what
// later window reads are matched against; text alone would collide with
// the previous iteration's sentinel.
func (s *Synchronizer) Place(ctx context.Context) (domain.GcodeEntry, error) {
	if err := s.Port.Submit(ctx, s.Message); err != nil {
		return domain.GcodeEntry{}, harnesserr.E("place marker", "submit sentinel", err)
	}

	if s.sleep != nil && s.Settle > 0 {
		s.sleep(s.Settle)
	}

	window, err := s.Store.ReadRecent(ctx, 2)
	if err != nil {
		return domain.GcodeEntry{}, harnesserr.E("place marker", "read back sentinel", err)
	}
	if len(window) == 0 {
		return domain.GcodeEntry{}, harnesserr.E("place marker", "gcode store returned no entries", nil)
	}

	entry := window[len(window)-1]
	if entry.Message != s.Message {
		return domain.GcodeEntry{}, harnesserr.E("place marker",
			fmt.Sprintf("expected sentinel %q as newest entry, got %q", s.Message, entry.Message), nil)
	}
	if entry.Kind != domain.KindCommand {
		return domain.GcodeEntry{}, harnesserr.E("place marker",
			fmt.Sprintf("sentinel recorded with kind %q, want %q", entry.Kind, domain.KindCommand), nil)
	}
	return entry, nil
}

// Locate finds the marker inside a freshly read window by full tuple
// equality. Absence is fatal to the run: the window size is a
// configuration property, and retrying with a looser match could bind a
// stale sentinel from an earlier iteration.
func Locate(window []domain.GcodeEntry, mark domain.GcodeEntry) (int, error) {
	idx := domain.IndexOf(window, mark)
	if idx < 0 {
		return 0, &harnesserr.MarkerNotFoundError{Window: len(window)}
	}
	return idx, nil
}

// Tail returns everything strictly after the marker in the window.
func Tail(window []domain.GcodeEntry, mark domain.GcodeEntry) ([]domain.GcodeEntry, error) {
	idx, err := Locate(window, mark)
	if err != nil {
		return nil, err
	}
	return window[idx+1:], nil
}
