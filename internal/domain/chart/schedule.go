package chart

import (
	"time"

	"github.com/google/uuid"

	"github.com/wardchart/wardchart/internal/platform/apperr"
)

// TriggersAt reports whether the schedule fires at the candidate hour h.
// The evaluation is pure: it is called once per (row, hour) pair while a grid
// renders, so it must never touch the store.
//
// One-time schedules (IntervalMinutes == 0) fire exactly at their normalized
// start. Recurring schedules fire on every interval boundary from the start,
// until EndAt passes or the occurrence cap is exhausted; when both bounds are
// set each is checked independently and whichever is stricter ends the
// recurrence.
func (s *Schedule) TriggersAt(h time.Time) bool {
	h = NormalizeHour(h)
	start := NormalizeHour(s.StartAt)

	if s.IntervalMinutes == 0 {
		return h.Equal(start)
	}

	if h.Before(start) {
		return false
	}

	elapsed := int(h.Sub(start) / time.Minute)
	if elapsed%s.IntervalMinutes != 0 {
		return false
	}

	if s.EndAt != nil && h.After(*s.EndAt) {
		return false
	}

	if s.Occurrences != nil {
		occurrenceIndex := elapsed/s.IntervalMinutes + 1
		if occurrenceIndex > *s.Occurrences {
			return false
		}
	}

	return true
}

// IsRowScheduledAt reports whether any schedule attached to the row fires at
// h. A row may carry several overlapping schedules.
func IsRowScheduledAt(rowID uuid.UUID, h time.Time, schedules []*Schedule) bool {
	for _, s := range schedules {
		if s.RowID == rowID && s.TriggersAt(h) {
			return true
		}
	}
	return false
}

// ValidateSchedule rejects malformed schedule parameters before they reach
// the store or the evaluator. A negative interval is invalid; an occurrence
// cap of zero is allowed and simply never fires; end/occurrence bounds on a
// one-time schedule are invalid since they have nothing to bound.
func ValidateSchedule(s *Schedule) error {
	if s.RowID == uuid.Nil {
		return apperr.Validationf("row_id is required")
	}
	if s.StartAt.IsZero() {
		return apperr.Validationf("start_at is required")
	}
	if s.IntervalMinutes < 0 {
		return apperr.Validationf("interval_minutes must not be negative, got %d", s.IntervalMinutes)
	}
	if s.IntervalMinutes == 0 {
		if s.EndAt != nil {
			return apperr.Validationf("end_at is only valid for recurring schedules")
		}
		if s.Occurrences != nil {
			return apperr.Validationf("occurrences is only valid for recurring schedules")
		}
		return nil
	}
	if s.Occurrences != nil && *s.Occurrences < 0 {
		return apperr.Validationf("occurrences must not be negative, got %d", *s.Occurrences)
	}
	if s.EndAt != nil && s.EndAt.Before(s.StartAt) {
		return apperr.Validationf("end_at must not precede start_at")
	}
	return nil
}
