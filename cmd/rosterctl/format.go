package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rosterforge/roster-core/pkg/models"
	"github.com/rosterforge/roster-core/pkg/validation"
)

const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
	ColorBold   = "\033[1m"
)

// Formatter mirrors the teacher's cmd/hereandnow/format.go shape,
// narrowed from Task/User/Location to the roster domain's result types.
type Formatter interface {
	FormatSolution(solution models.Solution) string
	FormatAssignments(assignments []models.Assignment) string
	FormatAssignment(assignment models.Assignment) string
	FormatReport(report validation.Report) string
	FormatToken(token *models.IssuedToken) string
	FormatError(err error) string
	FormatSuccess(message string) string
	FormatWarning(message string) string
	FormatInfo(message string) string
}

func NewFormatter(format string) Formatter {
	switch format {
	case "json":
		return &JSONFormatter{}
	case "table":
		return &TableFormatter{}
	case "human":
		return &HumanFormatter{}
	default:
		return &HumanFormatter{}
	}
}

// JSON Formatter

type JSONFormatter struct{}

func (f *JSONFormatter) FormatSolution(solution models.Solution) string {
	data, _ := json.MarshalIndent(solution, "", "  ")
	return string(data)
}

func (f *JSONFormatter) FormatAssignments(assignments []models.Assignment) string {
	data, _ := json.MarshalIndent(assignments, "", "  ")
	return string(data)
}

func (f *JSONFormatter) FormatAssignment(assignment models.Assignment) string {
	data, _ := json.MarshalIndent(assignment, "", "  ")
	return string(data)
}

func (f *JSONFormatter) FormatReport(report validation.Report) string {
	data, _ := json.MarshalIndent(report, "", "  ")
	return string(data)
}

func (f *JSONFormatter) FormatToken(token *models.IssuedToken) string {
	data, _ := json.MarshalIndent(map[string]string{
		"person_id": token.Record.PersonID,
		"token":     token.Plaintext,
	}, "", "  ")
	return string(data)
}

func (f *JSONFormatter) FormatError(err error) string {
	data, _ := json.MarshalIndent(map[string]interface{}{"error": err.Error(), "type": "error"}, "", "  ")
	return string(data)
}

func (f *JSONFormatter) FormatSuccess(message string) string {
	data, _ := json.MarshalIndent(map[string]interface{}{"message": message, "type": "success"}, "", "  ")
	return string(data)
}

func (f *JSONFormatter) FormatWarning(message string) string {
	data, _ := json.MarshalIndent(map[string]interface{}{"message": message, "type": "warning"}, "", "  ")
	return string(data)
}

func (f *JSONFormatter) FormatInfo(message string) string {
	data, _ := json.MarshalIndent(map[string]interface{}{"message": message, "type": "info"}, "", "  ")
	return string(data)
}

// Table Formatter

type TableFormatter struct{}

func (f *TableFormatter) FormatSolution(solution models.Solution) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tHealth\tFilled\tDemand\tBacktracks\tPublished\n")
	fmt.Fprintf(w, "%s\t%.2f\t%d\t%d\t%d\t%v\n",
		solution.ID, solution.HealthScore, solution.Metrics.Filled,
		solution.Metrics.TotalDemand, solution.Metrics.Backtracks, solution.Published)
	w.Flush()
	return sb.String()
}

func (f *TableFormatter) FormatAssignments(assignments []models.Assignment) string {
	if len(assignments) == 0 {
		return "No assignments found.\n"
	}
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tEvent\tPerson\tRole\tManual\tAssigned\n")
	for _, a := range assignments {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\t%s\n",
			a.ID, a.EventID, a.PersonID, a.Role, a.IsManual, a.AssignedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()
	return sb.String()
}

func (f *TableFormatter) FormatAssignment(assignment models.Assignment) string {
	return f.FormatAssignments([]models.Assignment{assignment})
}

func (f *TableFormatter) FormatReport(report validation.Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Event %s: valid=%v\n", report.EventID, report.IsValid)
	if len(report.Warnings) > 0 {
		w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Kind\tRole\tPerson\tDetail\n")
		for _, warn := range report.Warnings {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", warn.Kind, warn.Role, warn.PersonID, warn.Detail)
		}
		w.Flush()
	}
	return sb.String()
}

func (f *TableFormatter) FormatToken(token *models.IssuedToken) string {
	return fmt.Sprintf("person\ttoken\n%s\t%s\n", token.Record.PersonID, token.Plaintext)
}

func (f *TableFormatter) FormatError(err error) string   { return fmt.Sprintf("ERROR: %v\n", err) }
func (f *TableFormatter) FormatSuccess(msg string) string { return fmt.Sprintf("OK: %s\n", msg) }
func (f *TableFormatter) FormatWarning(msg string) string { return fmt.Sprintf("WARN: %s\n", msg) }
func (f *TableFormatter) FormatInfo(msg string) string    { return fmt.Sprintf("%s\n", msg) }

// Human Formatter

type HumanFormatter struct{}

func (f *HumanFormatter) color(code, s string) string {
	if globalConfig.NoColor {
		return s
	}
	return code + s + ColorReset
}

func (f *HumanFormatter) FormatSolution(solution models.Solution) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", f.color(ColorBold, "Solution"), solution.ID)
	fmt.Fprintf(&sb, "  health score: %.2f\n", solution.HealthScore)
	fmt.Fprintf(&sb, "  filled:       %d / %d\n", solution.Metrics.Filled, solution.Metrics.TotalDemand)
	fmt.Fprintf(&sb, "  backtracks:   %d\n", solution.Metrics.Backtracks)
	if solution.Metrics.WasCancelled {
		fmt.Fprintf(&sb, "  %s\n", f.color(ColorYellow, "cancelled: solve was cancelled before all events were processed"))
	}
	return sb.String()
}

func (f *HumanFormatter) FormatAssignments(assignments []models.Assignment) string {
	if len(assignments) == 0 {
		return "No assignments found.\n"
	}
	var sb strings.Builder
	for _, a := range assignments {
		kind := "manual"
		if !a.IsManual {
			kind = "solved"
		}
		fmt.Fprintf(&sb, "%s %s as %s on event %s (%s)\n", a.PersonID, f.color(ColorCyan, "->"), a.Role, a.EventID, kind)
	}
	return sb.String()
}

func (f *HumanFormatter) FormatAssignment(assignment models.Assignment) string {
	return f.FormatAssignments([]models.Assignment{assignment})
}

func (f *HumanFormatter) FormatReport(report validation.Report) string {
	var sb strings.Builder
	status := f.color(ColorGreen, "valid")
	if !report.IsValid {
		status = f.color(ColorRed, "invalid")
	}
	fmt.Fprintf(&sb, "Event %s is %s\n", report.EventID, status)
	for _, warn := range report.Warnings {
		fmt.Fprintf(&sb, "  %s %s: %s\n", f.color(ColorYellow, "warning"), warn.Kind, warn.Detail)
	}
	for _, blocked := range report.BlockedAssignments {
		fmt.Fprintf(&sb, "  %s assignment %s blocked: %s\n", f.color(ColorRed, "blocked"), blocked.AssignmentID, blocked.Reason)
	}
	return sb.String()
}

func (f *HumanFormatter) FormatToken(token *models.IssuedToken) string {
	return fmt.Sprintf("New calendar token for %s:\n  %s\n", token.Record.PersonID, token.Plaintext)
}

func (f *HumanFormatter) FormatError(err error) string {
	return f.color(ColorRed, fmt.Sprintf("Error: %v", err)) + "\n"
}

func (f *HumanFormatter) FormatSuccess(message string) string {
	return f.color(ColorGreen, "✓ "+message) + "\n"
}

func (f *HumanFormatter) FormatWarning(message string) string {
	return f.color(ColorYellow, "⚠ "+message) + "\n"
}

func (f *HumanFormatter) FormatInfo(message string) string {
	return message + "\n"
}

// Output dispatches on the runtime type of data, mirroring the
// teacher's Output in cmd/hereandnow/format.go.
func Output(formatter Formatter, data interface{}) {
	var output string

	switch v := data.(type) {
	case models.Solution:
		output = formatter.FormatSolution(v)
	case []models.Assignment:
		output = formatter.FormatAssignments(v)
	case models.Assignment:
		output = formatter.FormatAssignment(v)
	case validation.Report:
		output = formatter.FormatReport(v)
	case *models.IssuedToken:
		output = formatter.FormatToken(v)
	case error:
		output = formatter.FormatError(v)
		fmt.Fprint(os.Stderr, output)
		return
	case string:
		if strings.Contains(strings.ToLower(v), "error") {
			output = formatter.FormatError(fmt.Errorf(v))
		} else if strings.Contains(strings.ToLower(v), "warning") {
			output = formatter.FormatWarning(v)
		} else {
			output = formatter.FormatSuccess(v)
		}
	default:
		if data, err := json.MarshalIndent(v, "", "  "); err == nil {
			output = string(data) + "\n"
		} else {
			output = formatter.FormatError(fmt.Errorf("unable to format data: %v", v))
		}
	}

	fmt.Print(output)
}
