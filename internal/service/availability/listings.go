package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voyago/backend/internal/domain"
	"voyago/backend/internal/store"
)

// Slot is one candidate appointment window on a day's grid.
type Slot struct {
	Time      string    `json:"time"`
	At        time.Time `json:"datetime"`
	Available bool      `json:"available"`
}

// DaySummary is the coarse day-level availability used by calendar overviews.
// It reflects working hours and blackouts only; breaks, patterns and bookings
// are deliberately skipped on this fast path.
type DaySummary struct {
	Date            string `json:"date"`
	DayOfWeek       int    `json:"dayOfWeek"`
	HasAvailability bool   `json:"hasAvailability"`
}

// AvailableSlots enumerates the working-hours grid of date at slotMinutes
// cadence and evaluates each instant with the full rule chain. The slot
// duration doubles as the booking-conflict window, so a 60-minute grid checks
// a 60-minute band. A day with no enabled hours yields an empty, non-error
// result. Instants that fail to evaluate are omitted and their errors joined
// into the returned error alongside the surviving entries.
func (e *Engine) AvailableSlots(ctx context.Context, date time.Time, slotMinutes int) ([]Slot, error) {
	if slotMinutes < 1 {
		return nil, validationError("slot duration must be at least one minute")
	}

	hours, err := e.rules.WorkingHoursFor(ctx, date.Weekday())
	if err != nil {
		return nil, fmt.Errorf("working hours: %w", err)
	}
	if hours == nil {
		return []Slot{}, nil
	}
	if err := hours.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", store.ErrBadRule, err)
	}

	day := domain.DateOf(date)
	window := time.Duration(slotMinutes) * time.Minute

	slots := make([]Slot, 0, (hours.EndMinute-hours.StartMinute)/slotMinutes)
	var evalErrs []error
	for minute := hours.StartMinute; minute < hours.EndMinute; minute += slotMinutes {
		at := domain.AtMinute(day, minute)
		v, err := e.evaluate(ctx, at, window)
		if err != nil {
			evalErrs = append(evalErrs, fmt.Errorf("slot %s: %w", domain.FormatClock(minute), err))
			continue
		}
		slots = append(slots, Slot{
			Time:      domain.FormatClock(minute),
			At:        at,
			Available: v.Available,
		})
	}

	return slots, errors.Join(evalErrs...)
}

// AvailableDates summarizes numDays consecutive calendar days starting at
// start. Days that fail to evaluate are omitted and their errors joined into
// the returned error.
func (e *Engine) AvailableDates(ctx context.Context, start time.Time, numDays int) ([]DaySummary, error) {
	if numDays < 1 {
		return nil, validationError("days must be at least 1")
	}

	first := domain.DateOf(start)
	out := make([]DaySummary, 0, numDays)
	var evalErrs []error
	for i := 0; i < numDays; i++ {
		day := first.AddDate(0, 0, i)

		hours, err := e.rules.WorkingHoursFor(ctx, day.Weekday())
		if err != nil {
			evalErrs = append(evalErrs, fmt.Errorf("day %s: working hours: %w", day.Format(time.DateOnly), err))
			continue
		}
		blackout, err := e.rules.BlackoutCovering(ctx, day)
		if err != nil {
			evalErrs = append(evalErrs, fmt.Errorf("day %s: blackout: %w", day.Format(time.DateOnly), err))
			continue
		}

		out = append(out, DaySummary{
			Date:            day.Format(time.DateOnly),
			DayOfWeek:       int(day.Weekday()),
			HasAvailability: hours != nil && blackout == nil,
		})
	}

	return out, errors.Join(evalErrs...)
}
