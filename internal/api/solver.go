package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rosterforge/roster-core/pkg/roster"
	"github.com/rosterforge/roster-core/pkg/scheduler"
)

// SolverHandler exposes solve/validate_event, generalized
// from the teacher's TaskHandler request/response shape in
// internal/api/tasks.go.
type SolverHandler struct {
	service *roster.Service
}

func NewSolverHandler(service *roster.Service) *SolverHandler {
	return &SolverHandler{service: service}
}

type solveRequest struct {
	EventIDs         []string `json:"event_ids" binding:"required"`
	TimeBudgetMillis int64    `json:"time_budget_ms"`
	BacktrackBudget  int      `json:"backtrack_budget"`
	Seed             int64    `json:"seed"`
	AllowRebalancing bool     `json:"allow_rebalancing"`
}

// Solve handles POST /solutions.
func (h *SolverHandler) Solve(c *gin.Context) {
	caller, err := GetCallerIdentity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	var req solveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request format", Details: err.Error()})
		return
	}

	policy := scheduler.Policy{
		TimeBudget:       time.Duration(req.TimeBudgetMillis) * time.Millisecond,
		BacktrackBudget:  req.BacktrackBudget,
		Seed:             req.Seed,
		AllowRebalancing: req.AllowRebalancing,
	}

	solution, err := h.service.Solve(c.Request.Context(), caller, req.EventIDs, policy)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, solution)
}

// ValidateEvent handles GET /events/:eventId/validation.
func (h *SolverHandler) ValidateEvent(c *gin.Context) {
	caller, err := GetCallerIdentity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	report, err := h.service.ValidateEvent(caller, c.Param("eventId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
