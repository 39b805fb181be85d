package store

import (
	"context"
	"time"

	"voyago/backend/internal/domain"
)

// RuleSource is the read-only view of the scheduling rules. Rule mutation
// belongs to the admin surface and is not part of this interface; every call
// reads the latest committed state, with no cross-call snapshot isolation.
type RuleSource interface {
	// WorkingHoursFor returns the enabled working hours for a weekday, or
	// nil when the office is closed that day.
	WorkingHoursFor(ctx context.Context, weekday time.Weekday) (*domain.WorkingHours, error)

	// ActiveBreaks returns the active breaks recurring on a weekday.
	ActiveBreaks(ctx context.Context, weekday time.Weekday) ([]domain.BreakTime, error)

	// BlackoutCovering returns an active blackout whose inclusive date range
	// contains date, or nil.
	BlackoutCovering(ctx context.Context, date time.Time) (*domain.BlackoutDate, error)

	// ActivePatterns returns the active recurring patterns whose validity
	// window contains date, ordered by name.
	ActivePatterns(ctx context.Context, date time.Time) ([]domain.RecurringPattern, error)
}
