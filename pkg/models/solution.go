package models

import (
	"time"

	"github.com/google/uuid"
)

// SolutionMetrics is the scheduler's self-reported quality summary for a
// Solution (spec §4.2 "Outputs").
type SolutionMetrics struct {
	TotalDemand     int                       `json:"total_demand"`
	Filled          int                       `json:"filled"`
	UnfilledByEvent map[string]RoleDemand     `json:"unfilled_by_event"`
	PerPersonCount  map[string]int            `json:"per_person_count"`
	Backtracks      int                       `json:"backtracks"`
	WasCancelled    bool                      `json:"was_cancelled"`
}

// Solution is one cohesive, immutable-after-publish set of Assignments
// produced by a single SchedulerEngine invocation.
type Solution struct {
	ID          string          `db:"id" json:"id"`
	OrgID       string          `db:"org_id" json:"org_id"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	HealthScore float64         `db:"health_score" json:"health_score"`
	Metrics     SolutionMetrics `db:"metrics" json:"metrics"`
	Seed        int64           `db:"seed" json:"seed"`
	Published   bool            `db:"published" json:"published"`
	SupersededBy *string        `db:"superseded_by" json:"superseded_by,omitempty"`
}

func NewSolution(orgID string, seed int64) *Solution {
	return &Solution{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		CreatedAt: time.Now(),
		Seed:      seed,
		Metrics: SolutionMetrics{
			UnfilledByEvent: map[string]RoleDemand{},
			PerPersonCount:  map[string]int{},
		},
	}
}

// ClampHealth keeps the health score within [0,1] as required by spec §4.2.
func ClampHealth(h float64) float64 {
	if h < 0 {
		return 0
	}
	if h > 1 {
		return 1
	}
	return h
}
