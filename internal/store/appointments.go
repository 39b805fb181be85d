package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"voyago/backend/internal/domain"
)

// BookingWindow answers whether any scheduled or confirmed appointment falls
// inside a half-open time window. It is the only booking-side capability the
// availability engine consumes.
type BookingWindow interface {
	HasActiveInWindow(ctx context.Context, start, end time.Time) (bool, error)
}

type AppointmentRepository interface {
	BookingWindow

	// Reserve inserts appt after re-checking the conflict window inside the
	// same transaction. Returns ErrSlotTaken when an active appointment
	// already occupies [appt.AppointmentAt, appt.AppointmentAt+conflictWindow).
	Reserve(ctx context.Context, appt domain.Appointment, conflictWindow time.Duration) (domain.Appointment, error)

	Get(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	List(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.Appointment, error)

	// UpdateStatus moves an appointment to next, enforcing the legal status
	// edges. Cancelling records the cancellation instant.
	UpdateStatus(ctx context.Context, id uuid.UUID, next domain.AppointmentStatus, now time.Time) (domain.Appointment, error)

	// DueForReminder returns active appointments starting within
	// (now, now+horizon] that have not been reminded yet.
	DueForReminder(ctx context.Context, now time.Time, horizon time.Duration) ([]domain.Appointment, error)
	MarkReminded(ctx context.Context, id uuid.UUID, at time.Time) error
}
