package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"voyago/backend/internal/domain"
)

// RuleRepo reads the scheduling rules maintained by the admin surface.
type RuleRepo struct {
	db bun.IDB
}

func NewRuleRepo(db *bun.DB) *RuleRepo {
	return &RuleRepo{db: db}
}

func (r *RuleRepo) WorkingHoursFor(ctx context.Context, weekday time.Weekday) (*domain.WorkingHours, error) {
	var row domain.WorkingHours
	err := r.db.NewSelect().
		Model(&row).
		Where("day_of_week = ?", int(weekday)).
		Where("enabled").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *RuleRepo) ActiveBreaks(ctx context.Context, weekday time.Weekday) ([]domain.BreakTime, error) {
	var rows []domain.BreakTime
	err := r.db.NewSelect().
		Model(&rows).
		Where("is_active").
		Where("? = ANY(days_of_week)", int(weekday)).
		OrderExpr("start_minute ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *RuleRepo) BlackoutCovering(ctx context.Context, date time.Time) (*domain.BlackoutDate, error) {
	var row domain.BlackoutDate
	err := r.db.NewSelect().
		Model(&row).
		Where("is_active").
		Where("start_date <= ?", date).
		Where("end_date >= ?", date).
		OrderExpr("start_date ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *RuleRepo) ActivePatterns(ctx context.Context, date time.Time) ([]domain.RecurringPattern, error) {
	var rows []domain.RecurringPattern
	err := r.db.NewSelect().
		Model(&rows).
		Where("is_active").
		Where("valid_from IS NULL OR valid_from <= ?", date).
		Where("valid_to IS NULL OR valid_to >= ?", date).
		OrderExpr("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
