package inventory

import "time"

// =============================================================================
// SHIFT WINDOWS - Fixed wall-clock buckets for reconciliation
// =============================================================================
// Day shift runs 07:00-19:00, Night shift 19:00-07:00 the next morning.
// A timestamp before 07:00 belongs to the previous date's Night shift.
// Note these boundaries are intentionally distinct from the 08:00/18:00
// windows used by production analytics; do not unify them.

type Shift string

const (
	ShiftDay   Shift = "Day"
	ShiftNight Shift = "Night"
)

const (
	ShiftDateLayout = "2006-01-02"

	dayShiftStartHour = 7
	dayShiftEndHour   = 19
)

// Valid reports whether s names a known shift.
func (s Shift) Valid() bool { return s == ShiftDay || s == ShiftNight }

// CurrentShift returns the shift date and shift containing now.
func CurrentShift(now time.Time) (time.Time, Shift) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch {
	case now.Hour() < dayShiftStartHour:
		return day.AddDate(0, 0, -1), ShiftNight
	case now.Hour() < dayShiftEndHour:
		return day, ShiftDay
	default:
		return day, ShiftNight
	}
}

// ShiftWindow returns the [start, end) wall-clock window for a shift date.
func ShiftWindow(shiftDate time.Time, shift Shift) (time.Time, time.Time) {
	day := time.Date(shiftDate.Year(), shiftDate.Month(), shiftDate.Day(), 0, 0, 0, 0, shiftDate.Location())
	if shift == ShiftNight {
		start := day.Add(dayShiftEndHour * time.Hour)
		return start, day.AddDate(0, 0, 1).Add(dayShiftStartHour * time.Hour)
	}
	start := day.Add(dayShiftStartHour * time.Hour)
	return start, day.Add(dayShiftEndHour * time.Hour)
}

// InWindow reports whether t falls inside [start, end).
func InWindow(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

// =============================================================================
// CLOCK - Injectable time source
// =============================================================================

// Clock abstracts time.Now so shift attribution, transit timeouts, and the
// eligibility cache are testable.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
