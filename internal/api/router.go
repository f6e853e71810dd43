package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rosterforge/roster-core/internal/auth"
	"github.com/rosterforge/roster-core/internal/storage"
	"github.com/rosterforge/roster-core/pkg/roster"
)

// Version is set by cmd/rosterd at startup, mirroring the teacher's
// health-check response in cmd/hereandnow/server.go.
var Version = "dev"

// NewRouter wires the roster facade's handlers into a gin.Engine,
// generalized from the teacher's setupRouter in cmd/hereandnow/server.go:
// the same health-check/CORS/auth-middleware/route-group shape, carrying
// roster endpoints instead of task endpoints.
func NewRouter(service *roster.Service, bus *storage.Bus, verifier *auth.Verifier) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(CORSMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "roster-core",
			"version":   Version,
		})
	})

	solverHandler := NewSolverHandler(service)
	assignmentHandler := NewAssignmentHandler(service)
	calendarHandler := NewCalendarHandler(service)
	changeBusHandler := NewChangeBusHandler(bus)

	// The person calendar feed is credentialed by its opaque token, not
	// a bearer token, so it lives outside the protected group (spec
	// §4.6).
	router.GET("/calendar/:token", calendarHandler.GetPersonCalendar)

	v1 := router.Group("/api/v1")
	protected := v1.Group("/")
	protected.Use(IdentityMiddleware(verifier))
	{
		protected.POST("/solutions", solverHandler.Solve)
		protected.GET("/events/:eventId/validation", solverHandler.ValidateEvent)

		protected.POST("/events/:eventId/assignments", assignmentHandler.Assign)
		protected.DELETE("/assignments/:assignmentId", assignmentHandler.Unassign)
		protected.POST("/assignments/:assignmentId/swap", assignmentHandler.Swap)
		protected.GET("/assignments", assignmentHandler.ListAssignments)

		protected.GET("/orgs/:orgId/calendar.ics", calendarHandler.GetOrgCalendar)
		protected.POST("/people/:personId/calendar-token", calendarHandler.RotateCalendarToken)

		protected.GET("/events", changeBusHandler.Stream)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "endpoint not found"})
	})

	return router
}
