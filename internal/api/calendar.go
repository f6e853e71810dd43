package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rosterforge/roster-core/pkg/roster"
)

const icsContentType = "text/calendar; charset=utf-8"

// CalendarHandler exposes get_person_calendar/get_org_calendar/
// rotate_calendar_token (spec §6, §4.6). The person feed route is
// deliberately unauthenticated: the opaque token in the URL path is
// the credential, matching spec §4.6's "anyone holding the token can
// fetch the feed" design.
type CalendarHandler struct {
	service *roster.Service
}

func NewCalendarHandler(service *roster.Service) *CalendarHandler {
	return &CalendarHandler{service: service}
}

// GetPersonCalendar handles GET /calendar/<token>.ics; the route captures
// the whole last segment, so the ".ics" suffix is trimmed here.
func (h *CalendarHandler) GetPersonCalendar(c *gin.Context) {
	token := strings.TrimSuffix(c.Param("token"), ".ics")
	ics, err := h.service.GetPersonCalendar(token, time.Now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, icsContentType, ics)
}

// GetOrgCalendar handles GET /orgs/:orgId/calendar.ics.
func (h *CalendarHandler) GetOrgCalendar(c *gin.Context) {
	caller, err := GetCallerIdentity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}
	ics, err := h.service.GetOrgCalendar(caller, time.Now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, icsContentType, ics)
}

// RotateCalendarToken handles POST /people/:personId/calendar-token.
func (h *CalendarHandler) RotateCalendarToken(c *gin.Context) {
	caller, err := GetCallerIdentity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}
	issued, err := h.service.RotateCalendarToken(caller, c.Param("personId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, issued)
}
