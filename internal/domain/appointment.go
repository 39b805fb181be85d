package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no-show"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Active reports whether the status occupies a slot for conflict purposes.
func (s AppointmentStatus) Active() bool {
	return s == StatusScheduled || s == StatusConfirmed
}

// CanTransitionTo reports whether next is a legal edge from s. Completed,
// cancelled and no-show are terminal.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	if !next.Valid() || s == next {
		return false
	}
	switch s {
	case StatusScheduled:
		return next == StatusConfirmed || next == StatusCancelled || next == StatusNoShow || next == StatusCompleted
	case StatusConfirmed:
		return next == StatusCompleted || next == StatusCancelled || next == StatusNoShow
	default:
		return false
	}
}

type ServiceType string

const (
	ServiceConsultation   ServiceType = "consultation"
	ServiceFlightBooking  ServiceType = "flight-booking"
	ServiceHotelBooking   ServiceType = "hotel-booking"
	ServiceVisaAssistance ServiceType = "visa-assistance"
	ServiceGroupBooking   ServiceType = "group-booking"
	ServiceOther          ServiceType = "other"
)

func (t ServiceType) Valid() bool {
	switch t {
	case ServiceConsultation, ServiceFlightBooking, ServiceHotelBooking,
		ServiceVisaAssistance, ServiceGroupBooking, ServiceOther:
		return true
	}
	return false
}

type AppointmentLocation string

const (
	LocationOffice AppointmentLocation = "office"
	LocationOnline AppointmentLocation = "online"
	LocationPhone  AppointmentLocation = "phone"
)

func (l AppointmentLocation) Valid() bool {
	switch l {
	case LocationOffice, LocationOnline, LocationPhone:
		return true
	}
	return false
}

type AppointmentSource string

const (
	SourceWebsite  AppointmentSource = "website"
	SourcePhone    AppointmentSource = "phone"
	SourceWalkIn   AppointmentSource = "walk-in"
	SourceEmail    AppointmentSource = "email"
	SourceReferral AppointmentSource = "referral"
)

func (s AppointmentSource) Valid() bool {
	switch s {
	case SourceWebsite, SourcePhone, SourceWalkIn, SourceEmail, SourceReferral:
		return true
	}
	return false
}

type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID             uuid.UUID           `bun:"id,pk,type:uuid" json:"id"`
	FullName       string              `bun:"full_name,notnull" json:"fullName"`
	Email          string              `bun:"email,notnull" json:"email"`
	Phone          string              `bun:"phone,notnull" json:"phone"`
	AppointmentAt  time.Time           `bun:"appointment_at,notnull" json:"appointmentAt"`
	ServiceType    ServiceType         `bun:"service_type,notnull" json:"serviceType"`
	Notes          string              `bun:"notes" json:"notes,omitempty"`
	Status         AppointmentStatus   `bun:"status,notnull" json:"status"`
	Location       AppointmentLocation `bun:"location,notnull" json:"location"`
	Source         AppointmentSource   `bun:"source,notnull" json:"source"`
	RemindersSent  int                 `bun:"reminders_sent,notnull" json:"remindersSent"`
	LastReminderAt *time.Time          `bun:"last_reminder_at" json:"lastReminderAt,omitempty"`
	CancelledAt    *time.Time          `bun:"cancelled_at" json:"cancelledAt,omitempty"`
	CreatedAt      time.Time           `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt      time.Time           `bun:"updated_at,notnull" json:"updatedAt"`
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			a.ID = id
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}
