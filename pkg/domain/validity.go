package domain

import "time"

// EndOfTime is the open-ended sentinel for validity windows. A window whose
// ValidTo holds this value (or the zero time) has not yet ended.
var EndOfTime = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

// Window is the date range during which a relationship record applies.
// Both bounds are inclusive.
type Window struct {
	ValidFrom time.Time `json:"valid_from"`
	ValidTo   time.Time `json:"valid_to"`
}

// OpenWindow returns a window starting at from with no end date.
func OpenWindow(from time.Time) Window {
	return Window{ValidFrom: from, ValidTo: EndOfTime}
}

// OpenEnded reports whether the window has no effective end date.
func (w Window) OpenEnded() bool {
	return w.ValidTo.IsZero() || w.ValidTo.Equal(EndOfTime) || w.ValidTo.After(EndOfTime)
}

// Current reports whether ref falls within the window, bounds inclusive.
func (w Window) Current(ref time.Time) bool {
	if ref.Before(w.ValidFrom) {
		return false
	}
	if w.OpenEnded() {
		return true
	}
	return !ref.After(w.ValidTo)
}

// CurrentNow reports whether the window covers the present moment.
func (w Window) CurrentNow() bool {
	return w.Current(time.Now().UTC())
}

// EndOn closes the window at the given date. It returns false without
// modifying the window when asOf precedes ValidFrom.
func (w *Window) EndOn(asOf time.Time) bool {
	if asOf.Before(w.ValidFrom) {
		return false
	}
	w.ValidTo = asOf
	return true
}
