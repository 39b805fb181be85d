package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"voyago/backend/internal/domain"
	"voyago/backend/internal/service/booking"
)

type createAppointmentRequest struct {
	FullName      string `json:"fullName"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	AppointmentAt string `json:"appointmentAt"`
	ServiceType   string `json:"serviceType"`
	Notes         string `json:"notes"`
	Location      string `json:"location"`
	Source        string `json:"source"`
}

func (s *Server) handleCreateAppointment(c *gin.Context) {
	var req createAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.AppointmentAt == "" {
		badRequest(c, "appointmentAt is required")
		return
	}
	at, err := parseNaiveDateTime(req.AppointmentAt)
	if err != nil {
		badRequest(c, "appointmentAt must be YYYY-MM-DDTHH:MM")
		return
	}

	appt, err := s.bookings.Create(c.Request.Context(), booking.CreateInput{
		FullName:      req.FullName,
		Email:         req.Email,
		Phone:         req.Phone,
		AppointmentAt: at,
		ServiceType:   domain.ServiceType(req.ServiceType),
		Notes:         req.Notes,
		Location:      domain.AppointmentLocation(req.Location),
		Source:        domain.AppointmentSource(req.Source),
	})
	if err != nil {
		s.writeBookingError(c, "appointment create", err)
		return
	}

	s.log.Info(
		"appointment created",
		slog.String("appointment_id", appt.ID.String()),
		slog.Time("appointment_at", appt.AppointmentAt),
		slog.String("service_type", string(appt.ServiceType)),
	)

	c.JSON(http.StatusCreated, gin.H{"appointment": appt})
}

func (s *Server) handleListAppointments(c *gin.Context) {
	from := domain.DateOf(s.now())
	to := from.AddDate(0, 0, defaultDays)

	if raw := c.Query("from"); raw != "" {
		d, err := parseNaiveDate(raw)
		if err != nil {
			badRequest(c, "from must be YYYY-MM-DD")
			return
		}
		from = d
	}
	if raw := c.Query("to"); raw != "" {
		d, err := parseNaiveDate(raw)
		if err != nil {
			badRequest(c, "to must be YYYY-MM-DD")
			return
		}
		// Inclusive end date.
		to = d.AddDate(0, 0, 1)
	}

	appts, err := s.bookings.List(c.Request.Context(), from, to)
	if err != nil {
		s.writeBookingError(c, "appointment list", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"appointments": appts})
}

func (s *Server) handleGetAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid appointment id")
		return
	}

	appt, err := s.bookings.Get(c.Request.Context(), id)
	if err != nil {
		s.writeBookingError(c, "appointment get", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"appointment": appt})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleUpdateAppointmentStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid appointment id")
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		badRequest(c, "status is required")
		return
	}

	appt, err := s.bookings.UpdateStatus(c.Request.Context(), id, domain.AppointmentStatus(req.Status))
	if err != nil {
		s.writeBookingError(c, "appointment status update", err)
		return
	}

	s.log.Info(
		"appointment status updated",
		slog.String("appointment_id", appt.ID.String()),
		slog.String("status", string(appt.Status)),
	)

	c.JSON(http.StatusOK, gin.H{"appointment": appt})
}
