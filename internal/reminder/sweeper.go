package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"voyago/backend/internal/store"
)

// Sweeper finds active appointments starting within the horizon that have not
// been reminded and marks them. Actual delivery (mail, SMS) is left to the
// notification channel consuming the log stream; the sweep only guarantees
// each appointment is picked up once.
type Sweeper struct {
	repo    store.AppointmentRepository
	log     *slog.Logger
	horizon time.Duration
	now     func() time.Time
}

func New(repo store.AppointmentRepository, log *slog.Logger, horizon time.Duration) *Sweeper {
	if log == nil {
		log = slog.Default()
	}
	if horizon <= 0 {
		horizon = 24 * time.Hour
	}
	return &Sweeper{
		repo:    repo,
		log:     log.With(slog.String("component", "reminder")),
		horizon: horizon,
		now:     time.Now,
	}
}

func (s *Sweeper) Run(ctx context.Context) error {
	now := s.now().UTC()
	due, err := s.repo.DueForReminder(ctx, now, s.horizon)
	if err != nil {
		return fmt.Errorf("list due reminders: %w", err)
	}

	var errs []error
	for _, appt := range due {
		if err := s.repo.MarkReminded(ctx, appt.ID, now); err != nil {
			errs = append(errs, fmt.Errorf("mark %s: %w", appt.ID, err))
			continue
		}
		s.log.Info(
			"appointment reminder",
			slog.String("appointment_id", appt.ID.String()),
			slog.String("email", appt.Email),
			slog.Time("appointment_at", appt.AppointmentAt),
			slog.String("service_type", string(appt.ServiceType)),
		)
	}
	return errors.Join(errs...)
}
