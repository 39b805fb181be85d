package postgres

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"voyago/backend/internal/domain"
	"voyago/backend/internal/store"
)

// Reserve and UpdateStatus open their own transactions, so the suite cannot
// run inside a single wrapping tx. Instead the pool is pinned to one
// connection and the schema is selected with a session-level search_path,
// which every statement on that connection then inherits.
func openTestDB(t *testing.T) *bun.DB {
	t.Helper()

	databaseURL := strings.TrimSpace(os.Getenv("VOYAGO_TEST_DATABASE_URL"))
	if databaseURL == "" {
		t.Skip("VOYAGO_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := Open(ctx, databaseURL, PoolConfig{MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}

	schema := "voyago_test_" + randomHex(t, 8)
	if _, err := db.NewRaw("CREATE SCHEMA " + schema).Exec(ctx); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = db.NewRaw("DROP SCHEMA IF EXISTS " + schema + " CASCADE").Exec(ctx)
		_ = Close(db)
	})

	if _, err := db.NewRaw("SET search_path TO " + schema).Exec(ctx); err != nil {
		t.Fatalf("set search_path: %v", err)
	}
	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func randomHex(t *testing.T, bytesLen int) string {
	t.Helper()
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read error: %v", err)
	}
	return hex.EncodeToString(b)
}

func testAppointment(at time.Time) domain.Appointment {
	return domain.Appointment{
		FullName:      "Ada Lovelace",
		Email:         "ada@example.com",
		Phone:         "+44 20 7946 0000",
		AppointmentAt: at,
		ServiceType:   domain.ServiceConsultation,
		Status:        domain.StatusScheduled,
		Location:      domain.LocationOffice,
		Source:        domain.SourceWebsite,
	}
}

func TestPostgresIntegration_ReserveConflictAndRelease(t *testing.T) {
	db := openTestDB(t)
	repo := NewAppointmentRepo(db)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	window := 30 * time.Minute
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	a1, err := repo.Reserve(ctx, testAppointment(at), window)
	if err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	if a1.ID == uuid.Nil {
		t.Fatalf("reserve did not assign an id")
	}

	// Same instant and anywhere inside the conflict window are both taken.
	if _, err := repo.Reserve(ctx, testAppointment(at), window); !errors.Is(err, store.ErrSlotTaken) {
		t.Fatalf("same slot err = %v, want %v", err, store.ErrSlotTaken)
	}
	if _, err := repo.Reserve(ctx, testAppointment(at.Add(15*time.Minute)), window); !errors.Is(err, store.ErrSlotTaken) {
		t.Fatalf("inside window err = %v, want %v", err, store.ErrSlotTaken)
	}

	// The window boundary itself is free.
	a2, err := repo.Reserve(ctx, testAppointment(at.Add(window)), window)
	if err != nil {
		t.Fatalf("boundary reserve: %v", err)
	}

	taken, err := repo.HasActiveInWindow(ctx, at, at.Add(time.Minute))
	if err != nil {
		t.Fatalf("HasActiveInWindow: %v", err)
	}
	if !taken {
		t.Fatalf("reserved slot not reported as taken")
	}

	// Cancelling releases the slot for a new reservation.
	cancelled, err := repo.UpdateStatus(ctx, a1.ID, domain.StatusCancelled, time.Now().UTC())
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.CancelledAt == nil {
		t.Fatalf("cancelled_at not set")
	}
	if _, err := repo.Reserve(ctx, testAppointment(at), window); err != nil {
		t.Fatalf("reserve after cancel: %v", err)
	}

	rows, err := repo.List(ctx, at.Add(-time.Hour), at.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}

	got, err := repo.Get(ctx, a2.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Email != "ada@example.com" {
		t.Fatalf("email = %q", got.Email)
	}
	if _, err := repo.Get(ctx, uuid.New()); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing id err = %v, want %v", err, store.ErrNotFound)
	}
}

func TestPostgresIntegration_StatusTransitions(t *testing.T) {
	db := openTestDB(t)
	repo := NewAppointmentRepo(db)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	at := time.Date(2026, 3, 3, 11, 0, 0, 0, time.UTC)
	appt, err := repo.Reserve(ctx, testAppointment(at), 30*time.Minute)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	confirmed, err := repo.UpdateStatus(ctx, appt.ID, domain.StatusConfirmed, time.Now().UTC())
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != domain.StatusConfirmed {
		t.Fatalf("status = %q", confirmed.Status)
	}

	if _, err := repo.UpdateStatus(ctx, appt.ID, domain.StatusScheduled, time.Now().UTC()); !errors.Is(err, store.ErrStatusTransition) {
		t.Fatalf("backwards transition err = %v, want %v", err, store.ErrStatusTransition)
	}

	if _, err := repo.UpdateStatus(ctx, appt.ID, domain.StatusCompleted, time.Now().UTC()); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := repo.UpdateStatus(ctx, appt.ID, domain.StatusConfirmed, time.Now().UTC()); !errors.Is(err, store.ErrStatusTransition) {
		t.Fatalf("terminal transition err = %v, want %v", err, store.ErrStatusTransition)
	}

	if _, err := repo.UpdateStatus(ctx, uuid.New(), domain.StatusConfirmed, time.Now().UTC()); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing id err = %v, want %v", err, store.ErrNotFound)
	}
}

func TestPostgresIntegration_Reminders(t *testing.T) {
	db := openTestDB(t)
	repo := NewAppointmentRepo(db)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)

	within, err := repo.Reserve(ctx, testAppointment(now.Add(3*time.Hour)), 30*time.Minute)
	if err != nil {
		t.Fatalf("reserve within horizon: %v", err)
	}
	if _, err := repo.Reserve(ctx, testAppointment(now.Add(48*time.Hour)), 30*time.Minute); err != nil {
		t.Fatalf("reserve beyond horizon: %v", err)
	}

	due, err := repo.DueForReminder(ctx, now, 24*time.Hour)
	if err != nil {
		t.Fatalf("DueForReminder: %v", err)
	}
	if len(due) != 1 || due[0].ID != within.ID {
		t.Fatalf("due = %v, want only %s", due, within.ID)
	}

	if err := repo.MarkReminded(ctx, within.ID, now); err != nil {
		t.Fatalf("MarkReminded: %v", err)
	}

	due, err = repo.DueForReminder(ctx, now, 24*time.Hour)
	if err != nil {
		t.Fatalf("DueForReminder after mark: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("len(due) = %d after mark, want 0", len(due))
	}

	if err := repo.MarkReminded(ctx, uuid.New(), now); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing id err = %v, want %v", err, store.ErrNotFound)
	}
}

func TestPostgresIntegration_RuleQueries(t *testing.T) {
	db := openTestDB(t)
	repo := NewRuleRepo(db)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now().UTC()
	mondayStart := 9 * 60
	mondayEnd := 17 * 60

	hours := domain.WorkingHours{
		ID:          uuid.New(),
		DayOfWeek:   int16(time.Monday),
		Enabled:     true,
		StartMinute: mondayStart,
		EndMinute:   mondayEnd,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := db.NewInsert().Model(&hours).Exec(ctx); err != nil {
		t.Fatalf("insert working hours: %v", err)
	}

	lunch := domain.BreakTime{
		ID:          uuid.New(),
		Name:        "Lunch",
		StartMinute: 12 * 60,
		EndMinute:   13 * 60,
		DaysOfWeek:  []int16{int16(time.Monday), int16(time.Wednesday)},
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := db.NewInsert().Model(&lunch).Exec(ctx); err != nil {
		t.Fatalf("insert break: %v", err)
	}

	blackout := domain.BlackoutDate{
		ID:        uuid.New(),
		Name:      "Spring maintenance",
		StartDate: time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 4, 8, 0, 0, 0, 0, time.UTC),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := db.NewInsert().Model(&blackout).Exec(ctx); err != nil {
		t.Fatalf("insert blackout: %v", err)
	}

	patternStart := 10 * 60
	patternEnd := 14 * 60
	validFrom := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	validTo := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)
	pattern := domain.RecurringPattern{
		ID:          uuid.New(),
		Name:        "April short days",
		PatternType: domain.PatternTypeWeekly,
		DaysOfWeek:  []int16{int16(time.Monday)},
		StartMinute: &patternStart,
		EndMinute:   &patternEnd,
		ValidFrom:   &validFrom,
		ValidTo:     &validTo,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := db.NewInsert().Model(&pattern).Exec(ctx); err != nil {
		t.Fatalf("insert pattern: %v", err)
	}

	got, err := repo.WorkingHoursFor(ctx, time.Monday)
	if err != nil {
		t.Fatalf("WorkingHoursFor: %v", err)
	}
	if got == nil || got.StartMinute != mondayStart || got.EndMinute != mondayEnd {
		t.Fatalf("monday hours = %+v", got)
	}
	closed, err := repo.WorkingHoursFor(ctx, time.Sunday)
	if err != nil {
		t.Fatalf("WorkingHoursFor sunday: %v", err)
	}
	if closed != nil {
		t.Fatalf("sunday hours = %+v, want nil", closed)
	}

	breaks, err := repo.ActiveBreaks(ctx, time.Monday)
	if err != nil {
		t.Fatalf("ActiveBreaks: %v", err)
	}
	if len(breaks) != 1 || breaks[0].Name != "Lunch" {
		t.Fatalf("monday breaks = %+v", breaks)
	}
	breaks, err = repo.ActiveBreaks(ctx, time.Tuesday)
	if err != nil {
		t.Fatalf("ActiveBreaks tuesday: %v", err)
	}
	if len(breaks) != 0 {
		t.Fatalf("tuesday breaks = %+v, want none", breaks)
	}

	covered, err := repo.BlackoutCovering(ctx, time.Date(2026, 4, 7, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("BlackoutCovering: %v", err)
	}
	if covered == nil || covered.Name != "Spring maintenance" {
		t.Fatalf("covered = %+v", covered)
	}
	outside, err := repo.BlackoutCovering(ctx, time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("BlackoutCovering clear day: %v", err)
	}
	if outside != nil {
		t.Fatalf("clear day = %+v, want nil", outside)
	}

	patterns, err := repo.ActivePatterns(ctx, time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ActivePatterns: %v", err)
	}
	if len(patterns) != 1 || patterns[0].Name != "April short days" {
		t.Fatalf("patterns = %+v", patterns)
	}
	patterns, err = repo.ActivePatterns(ctx, time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ActivePatterns out of window: %v", err)
	}
	if len(patterns) != 0 {
		t.Fatalf("out-of-window patterns = %+v, want none", patterns)
	}
}
