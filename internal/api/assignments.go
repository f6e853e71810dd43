package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rosterforge/roster-core/pkg/roster"
)

// AssignmentHandler exposes assign/unassign/swap/list_assignments,
// generalized from the teacher's TaskHandler in internal/api/tasks.go.
type AssignmentHandler struct {
	service *roster.Service
}

func NewAssignmentHandler(service *roster.Service) *AssignmentHandler {
	return &AssignmentHandler{service: service}
}

type assignRequest struct {
	PersonID          string `json:"person_id" binding:"required"`
	Role              string `json:"role" binding:"required"`
	Rebalanceable     bool   `json:"rebalanceable"`
	OverrideRoleCheck bool   `json:"override_role_check"`
}

// Assign handles POST /events/:eventId/assignments.
func (h *AssignmentHandler) Assign(c *gin.Context) {
	caller, err := GetCallerIdentity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request format", Details: err.Error()})
		return
	}

	result, err := h.service.Assign(caller, c.Param("eventId"), req.PersonID, req.Role, roster.AssignOptions{
		Rebalanceable:     req.Rebalanceable,
		OverrideRoleCheck: req.OverrideRoleCheck,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Unassign handles DELETE /assignments/:assignmentId.
func (h *AssignmentHandler) Unassign(c *gin.Context) {
	caller, err := GetCallerIdentity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}
	if err := h.service.Unassign(caller, c.Param("assignmentId")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type swapRequest struct {
	AssignmentID string `json:"assignment_id" binding:"required"`
}

// Swap handles POST /assignments/:assignmentId/swap.
func (h *AssignmentHandler) Swap(c *gin.Context) {
	caller, err := GetCallerIdentity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	var req swapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request format", Details: err.Error()})
		return
	}

	if err := h.service.Swap(caller, c.Param("assignmentId"), req.AssignmentID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListAssignments handles GET /assignments?start=...&end=....
func (h *AssignmentHandler) ListAssignments(c *gin.Context) {
	caller, err := GetCallerIdentity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	window, err := parseWindow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid window", Details: err.Error()})
		return
	}

	assignments, err := h.service.ListAssignments(caller, window)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, assignments)
}

func parseWindow(c *gin.Context) (roster.Window, error) {
	var window roster.Window
	if s := c.Query("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return window, err
		}
		window.Start = t
	}
	if s := c.Query("end"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return window, err
		}
		window.End = t
	}
	return window, nil
}
