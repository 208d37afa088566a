package domain

// EntryKind identifies the origin of a cached gcode entry.
type EntryKind string

const (
	KindCommand  EntryKind = "command"
	KindResponse EntryKind = "response"
)

// GcodeEntry is one entry of the remote gcode store, as returned by
// Moonraker's cached-responses endpoint. Entries are append-only and
// ordered oldest first.
type GcodeEntry struct {
	Time    float64   `json:"time"`
	Kind    EntryKind `json:"type"`
	Message string    `json:"message"`
}

// Equal reports full structural equality. Marker location must compare
// the whole tuple: the sentinel text recurs across iterations, and other
// producers may write to the same store.
func (e GcodeEntry) Equal(o GcodeEntry) bool {
	return e.Time == o.Time && e.Kind == o.Kind && e.Message == o.Message
}

// IndexOf returns the position of the entry equal to needle within
// window, or -1 when absent.
func IndexOf(window []GcodeEntry, needle GcodeEntry) int {
	for i, e := range window {
		if e.Equal(needle) {
			return i
		}
	}
	return -1
}
