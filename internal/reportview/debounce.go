package reportview

import "time"

// SearchDebounce is the quiet period after the last keystroke before a search
// is committed.
const SearchDebounce = 800 * time.Millisecond

// Debouncer separates the echoed search text from the committed one. Every
// Input supersedes the previous pending commit; the host arms a timer for the
// returned generation and calls Fire when it expires. Fire for anything but
// the latest generation is a no-op, so a superseded timer never commits.
type Debouncer struct {
	raw     string
	gen     uint64
	pending bool
}

// Input records a keystroke and returns the generation to fire after the quiet period.
func (d *Debouncer) Input(value string) uint64 {
	d.raw = value
	d.gen++
	d.pending = true
	return d.gen
}

// Fire settles the pending input if gen is still the latest one.
func (d *Debouncer) Fire(gen uint64) (string, bool) {
	if !d.pending || gen != d.gen {
		return "", false
	}
	d.pending = false
	return d.raw, true
}

// Clear drops any pending input and commits the empty string immediately.
func (d *Debouncer) Clear() string {
	return d.Submit("")
}

// Submit commits value immediately, cancelling any pending input.
func (d *Debouncer) Submit(value string) string {
	d.raw = value
	d.gen++
	d.pending = false
	return value
}

func (d *Debouncer) Raw() string { return d.raw }

func (d *Debouncer) Pending() bool { return d.pending }
