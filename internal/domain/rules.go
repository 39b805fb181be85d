package domain

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// WorkingHours is the base per-weekday booking interval. At most one enabled
// row may exist per weekday; the schema enforces this alongside Validate.
type WorkingHours struct {
	bun.BaseModel `bun:"table:working_hours"`

	ID          uuid.UUID `bun:"id,pk,type:uuid"`
	DayOfWeek   int16     `bun:"day_of_week,notnull"`
	Enabled     bool      `bun:"enabled,notnull"`
	StartMinute int       `bun:"start_minute,notnull"`
	EndMinute   int       `bun:"end_minute,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
}

func (h *WorkingHours) Validate() error {
	if !validWeekday(h.DayOfWeek) {
		return fmt.Errorf("working hours: day_of_week %d out of range", h.DayOfWeek)
	}
	if !validMinute(h.StartMinute) || !validMinute(h.EndMinute) {
		return fmt.Errorf("working hours: time of day out of range")
	}
	if h.StartMinute >= h.EndMinute {
		return fmt.Errorf("working hours: start %s not before end %s", FormatClock(h.StartMinute), FormatClock(h.EndMinute))
	}
	return nil
}

// Contains reports whether minute falls in [StartMinute, EndMinute).
func (h *WorkingHours) Contains(minute int) bool {
	return minute >= h.StartMinute && minute < h.EndMinute
}

// BreakTime blocks a recurring sub-interval of the working day on every
// matching weekday while active.
type BreakTime struct {
	bun.BaseModel `bun:"table:break_times"`

	ID          uuid.UUID `bun:"id,pk,type:uuid"`
	Name        string    `bun:"name,notnull"`
	StartMinute int       `bun:"start_minute,notnull"`
	EndMinute   int       `bun:"end_minute,notnull"`
	DaysOfWeek  []int16   `bun:"days_of_week,array,notnull"`
	IsActive    bool      `bun:"is_active,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
}

func (b *BreakTime) Validate() error {
	if b.Name == "" {
		return fmt.Errorf("break: name is required")
	}
	if !validMinute(b.StartMinute) || !validMinute(b.EndMinute) {
		return fmt.Errorf("break %q: time of day out of range", b.Name)
	}
	if b.StartMinute >= b.EndMinute {
		return fmt.Errorf("break %q: start not before end", b.Name)
	}
	if len(b.DaysOfWeek) == 0 {
		return fmt.Errorf("break %q: at least one weekday is required", b.Name)
	}
	for _, d := range b.DaysOfWeek {
		if !validWeekday(d) {
			return fmt.Errorf("break %q: day_of_week %d out of range", b.Name, d)
		}
	}
	return nil
}

func (b *BreakTime) AppliesTo(weekday time.Weekday) bool {
	return slices.Contains(b.DaysOfWeek, int16(weekday))
}

func (b *BreakTime) Contains(minute int) bool {
	return minute >= b.StartMinute && minute < b.EndMinute
}

// BlackoutDate blocks every booking on an inclusive calendar date range,
// regardless of working hours.
type BlackoutDate struct {
	bun.BaseModel `bun:"table:blackout_dates"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	Name      string    `bun:"name,notnull"`
	Reason    string    `bun:"reason"`
	StartDate time.Time `bun:"start_date,notnull"`
	EndDate   time.Time `bun:"end_date,notnull"`
	IsActive  bool      `bun:"is_active,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

func (b *BlackoutDate) Validate() error {
	if b.Name == "" {
		return fmt.Errorf("blackout: name is required")
	}
	if b.EndDate.Before(b.StartDate) {
		return fmt.Errorf("blackout %q: end date before start date", b.Name)
	}
	return nil
}

// Covers reports whether date (a midnight value) falls inside the inclusive
// [StartDate, EndDate] range.
func (b *BlackoutDate) Covers(date time.Time) bool {
	d := DateOf(date)
	return !d.Before(DateOf(b.StartDate)) && !d.After(DateOf(b.EndDate))
}

type PatternType string

const (
	PatternTypeWeekly  PatternType = "weekly"
	PatternTypeMonthly PatternType = "monthly"
	PatternTypeCustom  PatternType = "custom"
)

// RecurringPattern narrows the bookable hours for dates matching its day
// predicate within its validity window. Patterns only ever narrow, never
// widen, the working-hours interval.
type RecurringPattern struct {
	bun.BaseModel `bun:"table:recurring_patterns"`

	ID          uuid.UUID   `bun:"id,pk,type:uuid"`
	Name        string      `bun:"name,notnull"`
	Description string      `bun:"description"`
	PatternType PatternType `bun:"pattern_type,notnull"`
	DaysOfWeek  []int16     `bun:"days_of_week,array"`
	DaysOfMonth []int16     `bun:"days_of_month,array"`
	StartMinute *int        `bun:"start_minute"`
	EndMinute   *int        `bun:"end_minute"`
	ValidFrom   *time.Time  `bun:"valid_from"`
	ValidTo     *time.Time  `bun:"valid_to"`
	IsActive    bool        `bun:"is_active,notnull"`
	CreatedAt   time.Time   `bun:"created_at,notnull"`
	UpdatedAt   time.Time   `bun:"updated_at,notnull"`
}

func (p *RecurringPattern) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("pattern: name is required")
	}
	switch p.PatternType {
	case PatternTypeWeekly, PatternTypeMonthly, PatternTypeCustom:
	default:
		return fmt.Errorf("pattern %q: unknown type %q", p.Name, p.PatternType)
	}
	for _, d := range p.DaysOfWeek {
		if !validWeekday(d) {
			return fmt.Errorf("pattern %q: day_of_week %d out of range", p.Name, d)
		}
	}
	for _, d := range p.DaysOfMonth {
		if d < 1 || d > 31 {
			return fmt.Errorf("pattern %q: day_of_month %d out of range", p.Name, d)
		}
	}
	if (p.StartMinute == nil) != (p.EndMinute == nil) {
		return fmt.Errorf("pattern %q: time override needs both start and end", p.Name)
	}
	if p.StartMinute != nil {
		if !validMinute(*p.StartMinute) || !validMinute(*p.EndMinute) {
			return fmt.Errorf("pattern %q: time of day out of range", p.Name)
		}
		if *p.StartMinute >= *p.EndMinute {
			return fmt.Errorf("pattern %q: start not before end", p.Name)
		}
	}
	return nil
}

// InWindow reports whether date falls inside the validity window; open ends
// are unbounded.
func (p *RecurringPattern) InWindow(date time.Time) bool {
	d := DateOf(date)
	if p.ValidFrom != nil && d.Before(DateOf(*p.ValidFrom)) {
		return false
	}
	if p.ValidTo != nil && d.After(DateOf(*p.ValidTo)) {
		return false
	}
	return true
}

// AppliesTo reports whether the pattern's day predicate matches date. A
// pattern with no configured days matches nothing.
func (p *RecurringPattern) AppliesTo(date time.Time) bool {
	switch p.PatternType {
	case PatternTypeWeekly:
		return len(p.DaysOfWeek) > 0 && slices.Contains(p.DaysOfWeek, int16(date.Weekday()))
	case PatternTypeMonthly:
		return len(p.DaysOfMonth) > 0 && slices.Contains(p.DaysOfMonth, int16(date.Day()))
	default:
		return false
	}
}

// HasOverride reports whether the pattern defines special hours.
func (p *RecurringPattern) HasOverride() bool {
	return p.StartMinute != nil && p.EndMinute != nil
}

// OverrideContains reports whether minute falls inside the special hours.
// Only meaningful when HasOverride is true.
func (p *RecurringPattern) OverrideContains(minute int) bool {
	return minute >= *p.StartMinute && minute < *p.EndMinute
}
