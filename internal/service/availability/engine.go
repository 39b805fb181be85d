package availability

import (
	"context"
	"fmt"
	"sort"
	"time"

	"voyago/backend/internal/domain"
	"voyago/backend/internal/store"
)

// DefaultConflictWindow is the band checked for existing bookings when no
// caller-supplied slot duration applies.
const DefaultConflictWindow = 30 * time.Minute

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// Verdict is the evaluator's decision for a single instant. A negative
// verdict is data, not an error; evaluation failures are returned separately.
type Verdict struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

type Config struct {
	// ConflictWindow used by CheckAvailability. Zero means DefaultConflictWindow.
	ConflictWindow time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Engine decides whether an instant may be booked, given the layered
// scheduling rules and existing bookings. It holds no state between calls;
// every evaluation reads the current rule and booking snapshot.
type Engine struct {
	rules          store.RuleSource
	bookings       store.BookingWindow
	conflictWindow time.Duration
	now            func() time.Time
}

func NewEngine(rules store.RuleSource, bookings store.BookingWindow, cfg Config) *Engine {
	window := cfg.ConflictWindow
	if window <= 0 {
		window = DefaultConflictWindow
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		rules:          rules,
		bookings:       bookings,
		conflictWindow: window,
		now:            now,
	}
}

// ConflictWindow returns the configured default conflict window.
func (e *Engine) ConflictWindow() time.Duration {
	return e.conflictWindow
}

// CheckAvailability evaluates a single instant against the full rule chain
// using the default conflict window.
func (e *Engine) CheckAvailability(ctx context.Context, at time.Time) (Verdict, error) {
	return e.evaluate(ctx, at, e.conflictWindow)
}

// evaluation carries the per-instant state shared between stages.
type evaluation struct {
	at     time.Time
	minute int
	window time.Duration
	hours  *domain.WorkingHours
}

type stage struct {
	name string
	run  func(ctx context.Context, ev *evaluation) (*Verdict, error)
}

// stages returns the ordered check chain. Order matters: it decides which
// reason surfaces when several rules block the same instant.
func (e *Engine) stages() []stage {
	return []stage{
		{"past", e.stagePast},
		{"working_hours_day", e.stageDayEnabled},
		{"working_hours_bound", e.stageWithinHours},
		{"blackout", e.stageBlackout},
		{"break", e.stageBreaks},
		{"pattern", e.stagePatterns},
		{"booking_conflict", e.stageBookingConflict},
	}
}

func (e *Engine) evaluate(ctx context.Context, at time.Time, window time.Duration) (Verdict, error) {
	ev := &evaluation{
		at:     at,
		minute: domain.MinuteOfDay(at),
		window: window,
	}
	for _, st := range e.stages() {
		v, err := st.run(ctx, ev)
		if err != nil {
			return Verdict{}, fmt.Errorf("%s: %w", st.name, err)
		}
		if v != nil {
			return *v, nil
		}
	}
	return Verdict{Available: true}, nil
}

func unavailable(reason string) *Verdict {
	return &Verdict{Available: false, Reason: reason}
}

func (e *Engine) stagePast(ctx context.Context, ev *evaluation) (*Verdict, error) {
	if ev.at.Before(e.now()) {
		return unavailable("Cannot book appointments in the past"), nil
	}
	return nil, nil
}

func (e *Engine) stageDayEnabled(ctx context.Context, ev *evaluation) (*Verdict, error) {
	hours, err := e.rules.WorkingHoursFor(ctx, ev.at.Weekday())
	if err != nil {
		return nil, err
	}
	if hours == nil {
		return unavailable("Office is closed on this day"), nil
	}
	if err := hours.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", store.ErrBadRule, err)
	}
	ev.hours = hours
	return nil, nil
}

func (e *Engine) stageWithinHours(ctx context.Context, ev *evaluation) (*Verdict, error) {
	if !ev.hours.Contains(ev.minute) {
		return unavailable(fmt.Sprintf(
			"Outside working hours (%s - %s)",
			domain.FormatClock(ev.hours.StartMinute),
			domain.FormatClock(ev.hours.EndMinute),
		)), nil
	}
	return nil, nil
}

func (e *Engine) stageBlackout(ctx context.Context, ev *evaluation) (*Verdict, error) {
	blackout, err := e.rules.BlackoutCovering(ctx, domain.DateOf(ev.at))
	if err != nil {
		return nil, err
	}
	if blackout == nil {
		return nil, nil
	}
	if err := blackout.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", store.ErrBadRule, err)
	}
	return unavailable("Office closed: " + blackout.Name), nil
}

func (e *Engine) stageBreaks(ctx context.Context, ev *evaluation) (*Verdict, error) {
	breaks, err := e.rules.ActiveBreaks(ctx, ev.at.Weekday())
	if err != nil {
		return nil, err
	}
	for i := range breaks {
		b := &breaks[i]
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s", store.ErrBadRule, err)
		}
		if b.Contains(ev.minute) {
			return unavailable("During break time: " + b.Name), nil
		}
	}
	return nil, nil
}

// stagePatterns applies intersection semantics: the instant must satisfy the
// time override of every matching pattern. This is order-independent and
// strictly narrowing; patterns are sorted by name so the surfaced reason is
// deterministic when more than one blocks the instant.
func (e *Engine) stagePatterns(ctx context.Context, ev *evaluation) (*Verdict, error) {
	patterns, err := e.rules.ActivePatterns(ctx, domain.DateOf(ev.at))
	if err != nil {
		return nil, err
	}
	sort.Slice(patterns, func(i, j int) bool { return patterns[i].Name < patterns[j].Name })
	for i := range patterns {
		p := &patterns[i]
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s", store.ErrBadRule, err)
		}
		if !p.InWindow(ev.at) || !p.AppliesTo(ev.at) || !p.HasOverride() {
			continue
		}
		if !p.OverrideContains(ev.minute) {
			return unavailable("Outside special hours for " + p.Name), nil
		}
	}
	return nil, nil
}

func (e *Engine) stageBookingConflict(ctx context.Context, ev *evaluation) (*Verdict, error) {
	taken, err := e.bookings.HasActiveInWindow(ctx, ev.at, ev.at.Add(ev.window))
	if err != nil {
		return nil, err
	}
	if taken {
		return unavailable("This time slot is already booked"), nil
	}
	return nil, nil
}
