package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultSlotMinutes = 30
	minSlotMinutes     = 5
	maxSlotMinutes     = 240

	defaultDays = 30
	maxDays     = 90
)

func (s *Server) handleCheckAvailability(c *gin.Context) {
	raw := c.Query("datetime")
	if raw == "" {
		badRequest(c, "datetime is required")
		return
	}
	at, err := parseNaiveDateTime(raw)
	if err != nil {
		badRequest(c, "datetime must be YYYY-MM-DDTHH:MM")
		return
	}

	verdict, err := s.availability.CheckAvailability(c.Request.Context(), at)
	if err != nil {
		s.internalError(c, "availability check", err)
		return
	}

	c.JSON(http.StatusOK, verdict)
}

func (s *Server) handleAvailableSlots(c *gin.Context) {
	rawDate := c.Query("date")
	if rawDate == "" {
		badRequest(c, "date is required")
		return
	}
	date, err := parseNaiveDate(rawDate)
	if err != nil {
		badRequest(c, "date must be YYYY-MM-DD")
		return
	}

	duration := defaultSlotMinutes
	if raw := c.Query("duration"); raw != "" {
		duration, err = strconv.Atoi(raw)
		if err != nil || duration < minSlotMinutes || duration > maxSlotMinutes {
			badRequest(c, "duration must be between 5 and 240 minutes")
			return
		}
	}

	slots, err := s.availability.AvailableSlots(c.Request.Context(), date, duration)
	if err != nil {
		if len(slots) == 0 {
			s.internalError(c, "slot listing", err)
			return
		}
		// Partial result: failed instants are omitted rather than shown as
		// unavailable; the listing is still served.
		s.log.Warn("slot listing incomplete", slog.String("date", rawDate), slog.Any("err", err))
	}

	c.JSON(http.StatusOK, gin.H{"date": rawDate, "slots": slots})
}

func (s *Server) handleAvailableDates(c *gin.Context) {
	days := defaultDays
	if raw := c.Query("days"); raw != "" {
		var err error
		days, err = strconv.Atoi(raw)
		if err != nil || days < 1 || days > maxDays {
			badRequest(c, "days must be between 1 and 90")
			return
		}
	}

	dates, err := s.availability.AvailableDates(c.Request.Context(), s.now(), days)
	if err != nil {
		if len(dates) == 0 {
			s.internalError(c, "date listing", err)
			return
		}
		s.log.Warn("date listing incomplete", slog.Int("days", days), slog.Any("err", err))
	}

	c.JSON(http.StatusOK, gin.H{"dates": dates})
}
