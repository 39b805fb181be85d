package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"voyago/backend/internal/domain"
	"voyago/backend/internal/service/availability"
	"voyago/backend/internal/service/booking"
	"voyago/backend/internal/store"
)

type availabilityService interface {
	CheckAvailability(ctx context.Context, at time.Time) (availability.Verdict, error)
	AvailableSlots(ctx context.Context, date time.Time, slotMinutes int) ([]availability.Slot, error)
	AvailableDates(ctx context.Context, start time.Time, numDays int) ([]availability.DaySummary, error)
}

type bookingService interface {
	Create(ctx context.Context, in booking.CreateInput) (domain.Appointment, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	List(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next domain.AppointmentStatus) (domain.Appointment, error)
}

type Server struct {
	availability availabilityService
	bookings     bookingService
	log          *slog.Logger
	now          func() time.Time
}

func NewServer(av availabilityService, bk bookingService, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		availability: av,
		bookings:     bk,
		log:          log.With(slog.String("component", "http")),
		now:          time.Now,
	}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.GET("/availability/check", s.handleCheckAvailability)
	api.GET("/availability/slots", s.handleAvailableSlots)
	api.GET("/availability/dates", s.handleAvailableDates)
	api.POST("/appointments", s.handleCreateAppointment)
	api.GET("/appointments", s.handleListAppointments)
	api.GET("/appointments/:id", s.handleGetAppointment)
	api.PATCH("/appointments/:id/status", s.handleUpdateAppointmentStatus)
	api.GET("/calendar.ics", s.handleCalendarFeed)

	return r
}

// parseNaiveDateTime accepts local wall-clock datetimes with or without
// seconds. Instants are naive throughout; no timezone handling.
func parseNaiveDateTime(s string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.Local); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04", s, time.Local)
}

func parseNaiveDate(s string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, s, time.Local)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func (s *Server) internalError(c *gin.Context, op string, err error) {
	s.log.Error(op+" failed", slog.Any("err", err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func (s *Server) writeBookingError(c *gin.Context, op string, err error) {
	var vErr *booking.ValidationError
	if errors.As(err, &vErr) {
		badRequest(c, vErr.Error())
		return
	}
	var uErr *booking.UnavailableError
	if errors.As(err, &uErr) {
		c.JSON(http.StatusConflict, gin.H{"error": uErr.Reason})
		return
	}
	switch {
	case errors.Is(err, store.ErrSlotTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "This time slot is already booked"})
	case errors.Is(err, store.ErrStatusTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "Status change not allowed"})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Appointment not found"})
	default:
		s.internalError(c, op, err)
	}
}
