package agent

import "time"

// withinActiveHours reports whether the local hour falls inside the
// half-open window [start, end). The window may wrap past midnight
// (start > end). start == end means always active.
func withinActiveHours(t time.Time, start, end int) bool {
	if start == end {
		return true
	}
	h := t.Hour()
	if start < end {
		return h >= start && h < end
	}
	// Wraps midnight, e.g. [22, 6).
	return h >= start || h < end
}

// nextWindowOpen returns the next instant at which the window opens,
// strictly after t. Call only when t is outside the window.
func nextWindowOpen(t time.Time, start int) time.Time {
	open := time.Date(t.Year(), t.Month(), t.Day(), start, 0, 0, 0, t.Location())
	if !open.After(t) {
		open = open.AddDate(0, 0, 1)
	}
	return open
}

// localDate formats t's calendar date, used for daily quota rollover.
func localDate(t time.Time) string {
	return t.Format("2006-01-02")
}
