package scheduler

import (
	"errors"
	"time"
)

// ErrNoSlotAvailable means every cadence occurrence inside the lookahead
// horizon is already taken. Reported to the caller, never silently truncated.
var ErrNoSlotAvailable = errors.New("no free slot within the lookahead horizon")

// Cadence is the fixed weekly publishing rhythm: one slot per week at the
// configured weekday and wall-clock time in Location.
type Cadence struct {
	Weekday      time.Weekday
	Hour         int
	Minute       int
	HorizonWeeks int
	Location     *time.Location
}

func (c Cadence) location() *time.Location {
	if c.Location != nil {
		return c.Location
	}
	return time.UTC
}

// NextOccurrence returns the first cadence slot strictly after from. If from
// falls on the target weekday but at or past the target time, the candidate
// rolls to the next week.
func (c Cadence) NextOccurrence(from time.Time) time.Time {
	loc := c.location()
	local := from.In(loc)

	candidate := time.Date(local.Year(), local.Month(), local.Day(), c.Hour, c.Minute, 0, 0, loc)
	days := (int(c.Weekday) - int(local.Weekday()) + 7) % 7
	candidate = candidate.AddDate(0, 0, days)
	if !candidate.After(from) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}

// NextAvailableSlot walks cadence occurrences starting after from, skipping
// any slot present in occupied, and fails with ErrNoSlotAvailable once the
// horizon is exhausted. Deterministic for identical inputs: occupied is only
// probed, never iterated.
func NextAvailableSlot(c Cadence, occupied []time.Time, from time.Time) (time.Time, error) {
	taken := make(map[int64]struct{}, len(occupied))
	for _, t := range occupied {
		taken[t.Truncate(time.Minute).Unix()] = struct{}{}
	}

	candidate := c.NextOccurrence(from)
	horizon := c.HorizonWeeks
	if horizon <= 0 {
		horizon = 52
	}

	for week := 0; week < horizon; week++ {
		if _, busy := taken[candidate.Truncate(time.Minute).Unix()]; !busy {
			return candidate, nil
		}
		// AddDate over the date keeps the wall-clock time stable across DST.
		candidate = candidate.AddDate(0, 0, 7)
	}
	return time.Time{}, ErrNoSlotAvailable
}
