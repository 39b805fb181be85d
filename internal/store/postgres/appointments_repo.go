package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"voyago/backend/internal/domain"
	"voyago/backend/internal/store"
)

type AppointmentRepo struct {
	db *bun.DB
}

func NewAppointmentRepo(db *bun.DB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

func (r *AppointmentRepo) HasActiveInWindow(ctx context.Context, start, end time.Time) (bool, error) {
	return hasActiveInWindow(ctx, r.db, start, end)
}

func hasActiveInWindow(ctx context.Context, db bun.IDB, start, end time.Time) (bool, error) {
	return db.NewSelect().
		Model((*domain.Appointment)(nil)).
		Where("appointment_at >= ?", start).
		Where("appointment_at < ?", end).
		Where("status IN (?)", bun.In([]domain.AppointmentStatus{domain.StatusScheduled, domain.StatusConfirmed})).
		Exists(ctx)
}

// Reserve closes the check-then-act gap: the conflict window is re-checked
// and the row inserted inside one transaction, serialized against concurrent
// reservations by an advisory lock on the shared calendar. The partial unique
// index on active slot instants backstops writers that bypass this path.
func (r *AppointmentRepo) Reserve(ctx context.Context, appt domain.Appointment, conflictWindow time.Duration) (domain.Appointment, error) {
	if conflictWindow <= 0 {
		conflictWindow = 30 * time.Minute
	}

	var out domain.Appointment
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockCalendar(ctx, tx); err != nil {
			return err
		}

		taken, err := hasActiveInWindow(ctx, tx, appt.AppointmentAt, appt.AppointmentAt.Add(conflictWindow))
		if err != nil {
			return err
		}
		if taken {
			return store.ErrSlotTaken
		}

		m := appt
		if _, err := tx.NewInsert().Model(&m).Exec(ctx); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "appointments_active_slot" {
				return store.ErrSlotTaken
			}
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	return out, nil
}

func lockCalendar(ctx context.Context, tx bun.Tx) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", "voyago:appointments").Exec(ctx)
	return err
}

func (r *AppointmentRepo) Get(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	var row domain.Appointment
	err := r.db.NewSelect().
		Model(&row).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Appointment{}, store.ErrNotFound
		}
		return domain.Appointment{}, err
	}
	return row, nil
}

func (r *AppointmentRepo) List(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := r.db.NewSelect().
		Model(&rows).
		Where("appointment_at >= ?", windowStart).
		Where("appointment_at < ?", windowEnd).
		OrderExpr("appointment_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AppointmentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, next domain.AppointmentStatus, now time.Time) (domain.Appointment, error) {
	var out domain.Appointment
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var row domain.Appointment
		err := tx.NewSelect().
			Model(&row).
			Where("id = ?", id).
			For("UPDATE").
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrNotFound
			}
			return err
		}

		if !row.Status.CanTransitionTo(next) {
			return store.ErrStatusTransition
		}

		row.Status = next
		if next == domain.StatusCancelled {
			row.CancelledAt = &now
		}

		_, err = tx.NewUpdate().
			Model(&row).
			Column("status", "cancelled_at", "updated_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			return err
		}
		out = row
		return nil
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	return out, nil
}

func (r *AppointmentRepo) DueForReminder(ctx context.Context, now time.Time, horizon time.Duration) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := r.db.NewSelect().
		Model(&rows).
		Where("appointment_at > ?", now).
		Where("appointment_at <= ?", now.Add(horizon)).
		Where("status IN (?)", bun.In([]domain.AppointmentStatus{domain.StatusScheduled, domain.StatusConfirmed})).
		Where("reminders_sent = 0").
		OrderExpr("appointment_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AppointmentRepo) MarkReminded(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := r.db.NewUpdate().
		Model((*domain.Appointment)(nil)).
		Set("reminders_sent = reminders_sent + 1").
		Set("last_reminder_at = ?", at).
		Set("updated_at = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
