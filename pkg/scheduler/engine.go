// Package scheduler implements the constraint-satisfaction search
// described in spec §4.2: given events, an availability index, and a
// policy, it produces a Solution that maximizes covered role-demand
// subject to the H1-H5 hard constraints, scored by the S1-S4 soft
// objectives.
package scheduler

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rosterforge/roster-core/pkg/availability"
	"github.com/rosterforge/roster-core/pkg/models"
)

// slot is one (event, role, ordinal) unit of demand the search must
// fill — the scheduler's "variable". ordinal distinguishes the Nth seat
// of a role that demands more than one person.
type slot struct {
	event   *models.Event
	role    string
	ordinal int
}

// Engine runs one solve. It holds no state across calls; a fresh Engine
// (or a reused one — it is stateless) can run concurrent solves as long
// as each call gets its own Index, matching spec §5's "concurrent solver
// runs are permitted".
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// ForcedAssignment is a pre-existing assignment the solver must keep
// unless it is marked Rebalanceable (spec §4.2 S4 and §9 Open Question).
type ForcedAssignment struct {
	EventID       string
	PersonID      string
	Role          string
	Rebalanceable bool
}

// Solve runs the search to completion (or until the policy's time/
// backtrack budget is exhausted, or ctx is cancelled) and returns a
// Solution plus the assignments it produced.
func (e *Engine) Solve(ctx context.Context, orgID string, events []models.Event, idx *availability.Index, forced []ForcedAssignment, policy Policy) (*models.Solution, []models.Assignment) {
	policy = policy.WithDefaults()
	deadline := time.Now().Add(policy.TimeBudget)

	solution := models.NewSolution(orgID, policy.Seed)
	window := workloadWindowFor(events)

	s := &search{
		idx:            idx,
		policy:         policy,
		deadline:       deadline,
		window:         window,
		backtrackCount: 0,
		busy:           make(map[string][]timeRange),
	}

	forcedByEvent := make(map[string][]ForcedAssignment)
	for _, f := range forced {
		if f.Rebalanceable && policy.AllowRebalancing {
			continue // solver is free to reassign this seat
		}
		forcedByEvent[f.EventID] = append(forcedByEvent[f.EventID], f)
	}

	assignments := make([]models.Assignment, 0, len(events)*2)
	perPersonCount := make(map[string]int)
	unfilledByEvent := make(map[string]models.RoleDemand)
	totalDemand := 0
	filled := 0
	wasCancelled := false

	// Variable ordering: most-constrained events first (smallest
	// candidate set per role), computed once up front since candidate
	// sets for distinct events are independent of each other's outcome
	// except through the shared double-booking/workload state the
	// assignment loop updates incrementally.
	orderedEvents := orderEventsByConstrainedness(events, idx, window)

	for _, event := range orderedEvents {
		select {
		case <-ctx.Done():
			wasCancelled = true
		default:
		}
		if wasCancelled || time.Now().After(deadline) || s.backtrackCount >= policy.BacktrackBudget {
			if remaining := remainingDemand(event, nil); len(remaining) > 0 {
				unfilledByEvent[event.ID] = remaining
			}
			totalDemand += event.TotalDemand()
			continue
		}

		eventAssignments, unfilled := s.assignEvent(&event, forcedByEvent[event.ID], perPersonCount)
		assignments = append(assignments, eventAssignments...)
		for _, a := range eventAssignments {
			perPersonCount[a.PersonID]++
		}
		totalDemand += event.TotalDemand()
		filled += event.TotalDemand() - totalOf(unfilled)
		if len(unfilled) > 0 {
			unfilledByEvent[event.ID] = unfilled
		}
	}

	solution.Metrics = models.SolutionMetrics{
		TotalDemand:     totalDemand,
		Filled:          filled,
		UnfilledByEvent: unfilledByEvent,
		PerPersonCount:  perPersonCount,
		Backtracks:      s.backtrackCount,
		WasCancelled:    wasCancelled,
	}
	solution.HealthScore = computeHealth(totalDemand, filled, perPersonCount, assignments)

	for i := range assignments {
		assignments[i].SolutionID = &solution.ID
	}

	return solution, assignments
}

type search struct {
	idx            *availability.Index
	policy         Policy
	deadline       time.Time
	window         availability.WorkloadWindow
	backtrackCount int
	busy           map[string][]timeRange // personID -> event time ranges claimed earlier in this solve
}

// timeRange is a half-open [start, end) interval, used to track the
// event windows a person has already been committed to within the
// current solve so H3 (no double booking) holds across events, not just
// within one.
type timeRange struct {
	start time.Time
	end   time.Time
}

// assignEvent fills each role-slot of one event using forced
// assignments first, then candidates in value-order (least-used person
// first, then lexicographic id), recording a no-good (skipping a
// candidate) and bumping the backtrack counter whenever a
// would-be-chosen candidate turns out to already be taken by an earlier
// slot in this same event (H5 exclusivity).
func (s *search) assignEvent(event *models.Event, forced []ForcedAssignment, perPersonCount map[string]int) ([]models.Assignment, models.RoleDemand) {
	var result []models.Assignment
	takenInEvent := make(map[string]bool) // H5: one person, one role, per event
	filledByRole := make(map[string]int)

	for _, f := range forced {
		if takenInEvent[f.PersonID] {
			continue
		}
		result = append(result, *models.NewSolverAssignment("", event.ID, f.PersonID, f.Role))
		takenInEvent[f.PersonID] = true
		filledByRole[f.Role]++
	}

	for _, role := range event.Roles() {
		demanded := event.RoleDemand[role]
		for ordinal := filledByRole[role]; ordinal < demanded; ordinal++ {
			candidates := s.idx.Candidates(event, role, s.window)
			candidates = sortByWorkload(candidates, perPersonCount)

			picked := ""
			for _, candidateID := range candidates {
				if takenInEvent[candidateID] {
					s.backtrackCount++
					continue
				}
				if s.isBusyElsewhere(candidateID, event) {
					s.backtrackCount++
					continue
				}
				picked = candidateID
				break
			}
			if picked == "" {
				break // no candidate left: this seat becomes a shortage
			}
			result = append(result, *models.NewSolverAssignment("", event.ID, picked, role))
			takenInEvent[picked] = true
			filledByRole[role]++
		}
	}

	s.markBusy(event, result)
	return result, remainingDemand(event, result)
}

// isBusyElsewhere reports whether personID already holds an assignment
// from an earlier event in this same solve whose [start, end) range
// overlaps event's — H3 for intra-solve assignments, the same exclusivity
// availability.Index.isDoubleBooked enforces against pre-existing
// assignments. An only-candidate overlap here becomes a shortage (the
// caller breaks out of the slot loop), never a double booking.
func (s *search) isBusyElsewhere(personID string, event *models.Event) bool {
	for _, r := range s.busy[personID] {
		if event.StartTime.Before(r.end) && r.start.Before(event.EndTime) {
			return true
		}
	}
	return false
}

// markBusy records event's time range against every person assigned to
// it (forced and solved alike) so later events processed in this same
// Solve call see them as unavailable when they overlap.
func (s *search) markBusy(event *models.Event, assigned []models.Assignment) {
	if len(assigned) == 0 {
		return
	}
	seen := make(map[string]bool, len(assigned))
	for _, a := range assigned {
		if seen[a.PersonID] {
			continue
		}
		seen[a.PersonID] = true
		s.busy[a.PersonID] = append(s.busy[a.PersonID], timeRange{start: event.StartTime, end: event.EndTime})
	}
}

// sortByWorkload re-sorts the index's candidate list using the running
// in-solve perPersonCount (the index's own Workload() only reflects
// pre-existing assignments, not ones made earlier in this same solve).
func sortByWorkload(candidates []string, perPersonCount map[string]int) []string {
	sorted := append([]string(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool {
		wi, wj := perPersonCount[sorted[i]], perPersonCount[sorted[j]]
		if wi != wj {
			return wi < wj
		}
		return sorted[i] < sorted[j]
	})
	return sorted
}

func remainingDemand(event *models.Event, assigned []models.Assignment) models.RoleDemand {
	filledByRole := make(map[string]int)
	for _, a := range assigned {
		filledByRole[a.Role]++
	}
	remaining := models.RoleDemand{}
	for role, demanded := range event.RoleDemand {
		if gap := demanded - filledByRole[role]; gap > 0 {
			remaining[role] = gap
		}
	}
	return remaining
}

func totalOf(demand models.RoleDemand) int {
	total := 0
	for _, n := range demand {
		total += n
	}
	return total
}

// orderEventsByConstrainedness implements the "most-constrained first"
// variable ordering: events with the smallest total candidate set across
// their demanded roles are scheduled first, ties broken by event id for
// determinism.
func orderEventsByConstrainedness(events []models.Event, idx *availability.Index, window availability.WorkloadWindow) []models.Event {
	ordered := append([]models.Event(nil), events...)
	constrainedness := make(map[string]int, len(ordered))
	for i := range ordered {
		event := &ordered[i]
		total := 0
		for _, role := range event.Roles() {
			total += len(idx.Candidates(event, role, window))
		}
		constrainedness[event.ID] = total
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		ci, cj := constrainedness[ordered[i].ID], constrainedness[ordered[j].ID]
		if ci != cj {
			return ci < cj
		}
		return ordered[i].ID < ordered[j].ID
	})
	return ordered
}

func workloadWindowFor(events []models.Event) availability.WorkloadWindow {
	if len(events) == 0 {
		return availability.WorkloadWindow{}
	}
	start, end := events[0].StartTime, events[0].EndTime
	for _, e := range events[1:] {
		if e.StartTime.Before(start) {
			start = e.StartTime
		}
		if e.EndTime.After(end) {
			end = e.EndTime
		}
	}
	return availability.WorkloadWindow{Start: start, End: end}
}

// computeHealth implements spec §4.2's health formula:
// health = coverage*0.6 + fairness_norm*0.3 + diversity*0.1, clamped to
// [0,1].
func computeHealth(totalDemand, filled int, perPersonCount map[string]int, assignments []models.Assignment) float64 {
	coverage := 1.0
	if totalDemand > 0 {
		coverage = float64(filled) / float64(totalDemand)
	}

	fairness := fairnessNorm(perPersonCount)
	diversity := roleDiversity(assignments)

	// Weighted in tenths so that a perfect solve sums to exactly 1.0;
	// 0.6+0.3+0.1 in float64 comes out just below it.
	health := (coverage*6 + fairness*3 + diversity) / 10
	return models.ClampHealth(health)
}

// fairnessNorm computes 1 - stddev/mean over per-person assignment
// counts, guarded against a zero mean (spec §4.2).
func fairnessNorm(perPersonCount map[string]int) float64 {
	if len(perPersonCount) == 0 {
		return 1.0
	}
	counts := make([]float64, 0, len(perPersonCount))
	sum := 0.0
	for _, c := range perPersonCount {
		counts = append(counts, float64(c))
		sum += float64(c)
	}
	mean := sum / float64(len(counts))
	if mean == 0 {
		return 1.0
	}
	variance := 0.0
	for _, c := range counts {
		variance += (c - mean) * (c - mean)
	}
	variance /= float64(len(counts))
	stddev := math.Sqrt(variance)

	norm := 1 - stddev/mean
	if norm < 0 {
		norm = 0
	}
	return norm
}

// roleDiversity rewards spreading distinct roles across the person pool:
// it is the mean, across people with at least one assignment, of
// (distinct roles held / total assignments held) — 1.0 when nobody ever
// repeats a role, trending toward 0 when everyone always takes the same
// role.
func roleDiversity(assignments []models.Assignment) float64 {
	rolesByPerson := make(map[string]map[string]int)
	for _, a := range assignments {
		if rolesByPerson[a.PersonID] == nil {
			rolesByPerson[a.PersonID] = make(map[string]int)
		}
		rolesByPerson[a.PersonID][a.Role]++
	}
	if len(rolesByPerson) == 0 {
		return 1.0
	}

	total := 0.0
	for _, roleCounts := range rolesByPerson {
		distinct := len(roleCounts)
		held := 0
		for _, n := range roleCounts {
			held += n
		}
		total += float64(distinct) / float64(held)
	}
	return total / float64(len(rolesByPerson))
}
