package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"voyago/backend/internal/domain"
	"voyago/backend/internal/service/availability"
	"voyago/backend/internal/store"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// UnavailableError carries the evaluator's reason when a requested slot is
// blocked by a business rule. It is distinct from evaluation failures, which
// propagate as plain errors and block booking outright.
type UnavailableError struct {
	Reason string
}

func (e *UnavailableError) Error() string {
	return "slot unavailable: " + e.Reason
}

type availabilityChecker interface {
	CheckAvailability(ctx context.Context, at time.Time) (availability.Verdict, error)
	ConflictWindow() time.Duration
}

type Service struct {
	repo    store.AppointmentRepository
	checker availabilityChecker
}

func NewService(repo store.AppointmentRepository, checker availabilityChecker) *Service {
	return &Service{repo: repo, checker: checker}
}

type CreateInput struct {
	FullName      string
	Email         string
	Phone         string
	AppointmentAt time.Time
	ServiceType   domain.ServiceType
	Notes         string
	Location      domain.AppointmentLocation
	Source        domain.AppointmentSource
}

// Create books an appointment. The availability check and the insert are two
// separate reads of shared state, so the repository's Reserve re-checks the
// conflict window transactionally; the check here exists to return a precise
// rejection reason before attempting the reservation.
func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Appointment, error) {
	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		return domain.Appointment{}, validationError("full_name is required")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return domain.Appointment{}, validationError("email is required")
	}
	if at := strings.Index(email, "@"); at < 1 || at == len(email)-1 {
		return domain.Appointment{}, validationError("email is invalid")
	}
	phone := strings.TrimSpace(in.Phone)
	if phone == "" {
		return domain.Appointment{}, validationError("phone is required")
	}
	if in.AppointmentAt.IsZero() {
		return domain.Appointment{}, validationError("appointment_at is required")
	}

	serviceType := in.ServiceType
	if serviceType == "" {
		serviceType = domain.ServiceConsultation
	}
	if !serviceType.Valid() {
		return domain.Appointment{}, validationError("unknown service_type")
	}
	location := in.Location
	if location == "" {
		location = domain.LocationOffice
	}
	if !location.Valid() {
		return domain.Appointment{}, validationError("unknown location")
	}
	source := in.Source
	if source == "" {
		source = domain.SourceWebsite
	}
	if !source.Valid() {
		return domain.Appointment{}, validationError("unknown source")
	}

	// Slot instants are minute-normalized so the active-slot uniqueness
	// constraint compares like with like.
	at := in.AppointmentAt.Truncate(time.Minute)

	verdict, err := s.checker.CheckAvailability(ctx, at)
	if err != nil {
		// Fail closed: an unconfirmed availability never becomes a booking.
		return domain.Appointment{}, fmt.Errorf("availability check: %w", err)
	}
	if !verdict.Available {
		return domain.Appointment{}, &UnavailableError{Reason: verdict.Reason}
	}

	appt := domain.Appointment{
		FullName:      fullName,
		Email:         email,
		Phone:         phone,
		AppointmentAt: at,
		ServiceType:   serviceType,
		Notes:         strings.TrimSpace(in.Notes),
		Status:        domain.StatusScheduled,
		Location:      location,
		Source:        source,
	}

	return s.repo.Reserve(ctx, appt, s.checker.ConflictWindow())
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	if id == uuid.Nil {
		return domain.Appointment{}, validationError("appointment_id is required")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.Appointment, error) {
	if windowEnd.Equal(windowStart) || windowEnd.Before(windowStart) {
		return nil, validationError("window_end must be after window_start")
	}
	return s.repo.List(ctx, windowStart, windowEnd)
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, next domain.AppointmentStatus) (domain.Appointment, error) {
	if id == uuid.Nil {
		return domain.Appointment{}, validationError("appointment_id is required")
	}
	if !next.Valid() {
		return domain.Appointment{}, validationError("unknown status")
	}
	return s.repo.UpdateStatus(ctx, id, next, time.Now().UTC())
}
