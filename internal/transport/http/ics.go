package http

import (
	"net/http"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/gin-gonic/gin"

	"voyago/backend/internal/domain"
)

const feedWindowDays = 90

// handleCalendarFeed serves upcoming active appointments as an iCalendar
// feed, so staff can subscribe from their regular calendar client.
func (s *Server) handleCalendarFeed(c *gin.Context) {
	now := s.now()
	from := domain.DateOf(now)
	to := from.AddDate(0, 0, feedWindowDays)

	appts, err := s.bookings.List(c.Request.Context(), from, to)
	if err != nil {
		s.internalError(c, "calendar feed", err)
		return
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//Voyago//Appointments//EN")
	cal.SetName("Voyago Appointments")

	for _, appt := range appts {
		if !appt.Status.Active() {
			continue
		}
		ev := cal.AddEvent(appt.ID.String() + "@voyago")
		ev.SetDtStampTime(now)
		ev.SetStartAt(appt.AppointmentAt)
		ev.SetEndAt(appt.AppointmentAt.Add(30 * time.Minute))
		ev.SetSummary(string(appt.ServiceType) + " - " + appt.FullName)
		if appt.Notes != "" {
			ev.SetDescription(appt.Notes)
		}
		ev.SetLocation(string(appt.Location))
	}

	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(cal.Serialize()))
}
