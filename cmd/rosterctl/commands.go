package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rosterforge/roster-core/internal/storage"
	"github.com/rosterforge/roster-core/pkg/models"
	"github.com/rosterforge/roster-core/pkg/roster"
	"github.com/rosterforge/roster-core/pkg/scheduler"
)

// openService wires a roster.Service against the configured database,
// the same three-line dance every hereandnow execute* function does
// (LoadConfig, InitDatabase, construct repo) but returning the facade
// directly since rosterctl talks to pkg/roster rather than individual
// repositories.
func openService() (*roster.Service, func(), error) {
	_, repo, closer, err := openRepo()
	if err != nil {
		return nil, nil, err
	}
	return roster.NewService(repo), closer, nil
}

// openRepo additionally exposes the raw storage.Repo for the org/
// person/event seeding commands, which sit below roster.Service's
// scheduling-facing facade (spec §6 names no create_org/create_person
// operations — those are an operator concern, not part of the external
// interface Service implements).
func openRepo() (*storage.DB, *storage.Repo, func(), error) {
	config, err := LoadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}
	db, err := storage.NewDB(storage.Config{Path: config.Database.Path})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening database: %w", err)
	}
	repo := storage.NewRepo(db)
	return db, repo, func() { db.Close() }, nil
}

func callerFromFlags(args []string) (roster.CallerIdentity, []string) {
	actorID, orgID, cachedActor, cachedOrg, rest := "", "", "", "", []string{}
	cachedActor, cachedOrg, _ = currentCaller()

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--actor":
			if i+1 < len(args) {
				actorID = args[i+1]
				i++
			}
		case "--org":
			if i+1 < len(args) {
				orgID = args[i+1]
				i++
			}
		default:
			rest = append(rest, args[i])
		}
	}
	if actorID == "" {
		actorID = cachedActor
	}
	if orgID == "" {
		orgID = cachedOrg
	}
	return roster.CallerIdentity{ActorID: actorID, OrgID: orgID}, rest
}

func exitOn(err error) {
	if err == nil {
		return
	}
	formatter := NewFormatter(globalConfig.Format)
	Output(formatter, err)
	os.Exit(1)
}

// handleOrgCommand manages Organization rows directly against storage,
// the part of rosterctl that substitutes for hereandnow's "init" plus
// "user create" for seeding a demo tenant without HTTP (SPEC_FULL.md's
// "operators seeding demo orgs").
func handleOrgCommand(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Error: org requires a subcommand (create)")
		os.Exit(1)
	}
	_, repo, closer, err := openRepo()
	exitOn(err)
	defer closer()

	switch args[0] {
	case "create":
		executeOrgCreate(repo, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown org subcommand: %s\n", args[0])
		os.Exit(1)
	}
}

func executeOrgCreate(repo *storage.Repo, args []string) {
	name, timezone := "", "UTC"
	for i, arg := range args {
		switch arg {
		case "--name":
			if i+1 < len(args) {
				name = args[i+1]
			}
		case "--timezone":
			if i+1 < len(args) {
				timezone = args[i+1]
			}
		}
	}
	if name == "" {
		fmt.Fprintln(os.Stderr, "Error: org create requires --name")
		os.Exit(1)
	}

	org, err := models.NewOrganization(name, timezone)
	exitOn(err)
	exitOn(repo.Orgs.Create(org))

	formatter := NewFormatter(globalConfig.Format)
	Output(formatter, fmt.Sprintf("Organization %s created with id %s", org.Name, org.ID))
}

// handlePersonCommand manages Person rows directly, mirroring org's
// HTTP-free seeding path.
func handlePersonCommand(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Error: person requires a subcommand (create)")
		os.Exit(1)
	}
	_, repo, closer, err := openRepo()
	exitOn(err)
	defer closer()

	switch args[0] {
	case "create":
		executePersonCreate(repo, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown person subcommand: %s\n", args[0])
		os.Exit(1)
	}
}

func executePersonCreate(repo *storage.Repo, args []string) {
	caller, rest := callerFromFlags(args)
	if caller.OrgID == "" {
		fmt.Fprintln(os.Stderr, "Error: person create requires --org (or a cached login)")
		os.Exit(1)
	}

	name, email, timezone, roles := "", "", "UTC", []string{}
	for i, arg := range rest {
		switch arg {
		case "--name":
			if i+1 < len(rest) {
				name = rest[i+1]
			}
		case "--email":
			if i+1 < len(rest) {
				email = rest[i+1]
			}
		case "--timezone":
			if i+1 < len(rest) {
				timezone = rest[i+1]
			}
		case "--roles":
			if i+1 < len(rest) {
				roles = strings.Split(rest[i+1], ",")
			}
		}
	}
	if name == "" || email == "" {
		fmt.Fprintln(os.Stderr, "Error: person create requires --name and --email")
		os.Exit(1)
	}

	person, err := models.NewPerson(caller.OrgID, email, name, timezone, roles)
	exitOn(err)
	exitOn(repo.People.Create(person))

	formatter := NewFormatter(globalConfig.Format)
	Output(formatter, fmt.Sprintf("Person %s created with id %s", person.Name, person.ID))
}

// handleEventCommand creates events directly, the third seeding
// primitive rosterctl needs before a solve is possible.
func handleEventCommand(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Error: event requires a subcommand (create)")
		os.Exit(1)
	}
	_, repo, closer, err := openRepo()
	exitOn(err)
	defer closer()

	switch args[0] {
	case "create":
		executeEventCreate(repo, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown event subcommand: %s\n", args[0])
		os.Exit(1)
	}
}

func executeEventCreate(repo *storage.Repo, args []string) {
	caller, rest := callerFromFlags(args)
	if caller.OrgID == "" {
		fmt.Fprintln(os.Stderr, "Error: event create requires --org (or a cached login)")
		os.Exit(1)
	}

	eventType, location, startStr, endStr := "service", "", "", ""
	demand := models.RoleDemand{}
	for i, arg := range rest {
		switch arg {
		case "--type":
			if i+1 < len(rest) {
				eventType = rest[i+1]
			}
		case "--location":
			if i+1 < len(rest) {
				location = rest[i+1]
			}
		case "--start":
			if i+1 < len(rest) {
				startStr = rest[i+1]
			}
		case "--end":
			if i+1 < len(rest) {
				endStr = rest[i+1]
			}
		case "--role":
			if i+1 < len(rest) {
				parts := strings.SplitN(rest[i+1], "=", 2)
				if len(parts) == 2 {
					count, err := strconv.Atoi(parts[1])
					exitOn(err)
					demand[parts[0]] = count
				}
			}
		}
	}
	if startStr == "" || endStr == "" {
		fmt.Fprintln(os.Stderr, "Error: event create requires --start and --end (RFC3339)")
		os.Exit(1)
	}
	start, err := time.Parse(time.RFC3339, startStr)
	exitOn(err)
	end, err := time.Parse(time.RFC3339, endStr)
	exitOn(err)

	event, err := models.NewEvent(caller.OrgID, eventType, start, end, demand)
	exitOn(err)
	event.Location = location

	exitOn(repo.Events.Create(event))

	formatter := NewFormatter(globalConfig.Format)
	Output(formatter, fmt.Sprintf("Event %s created with id %s", event.Type, event.ID))
}

func handleSolveCommand(args []string) {
	caller, rest := callerFromFlags(args)
	if caller.OrgID == "" {
		fmt.Fprintln(os.Stderr, "Error: solve requires --org (or a cached login)")
		os.Exit(1)
	}

	var eventIDs []string
	policy := scheduler.Policy{}
	for i, arg := range rest {
		switch arg {
		case "--events":
			if i+1 < len(rest) {
				eventIDs = strings.Split(rest[i+1], ",")
			}
		case "--time-budget":
			if i+1 < len(rest) {
				if d, err := time.ParseDuration(rest[i+1]); err == nil {
					policy.TimeBudget = d
				}
			}
		case "--allow-rebalancing":
			policy.AllowRebalancing = true
		}
	}
	if len(eventIDs) == 0 {
		fmt.Fprintln(os.Stderr, "Error: solve requires --events id1,id2,...")
		os.Exit(1)
	}

	service, closer, err := openService()
	exitOn(err)
	defer closer()

	solution, err := service.Solve(context.Background(), caller, eventIDs, policy)
	exitOn(err)

	formatter := NewFormatter(globalConfig.Format)
	Output(formatter, *solution)
}

func handleValidateCommand(args []string) {
	caller, rest := callerFromFlags(args)
	if caller.OrgID == "" || len(rest) == 0 {
		fmt.Fprintln(os.Stderr, "Error: validate requires an event id and --org (or a cached login)")
		os.Exit(1)
	}

	service, closer, err := openService()
	exitOn(err)
	defer closer()

	report, err := service.ValidateEvent(caller, rest[0])
	exitOn(err)

	formatter := NewFormatter(globalConfig.Format)
	Output(formatter, *report)
}

func handleAssignCommand(args []string) {
	caller, rest := callerFromFlags(args)
	if caller.OrgID == "" || len(rest) < 3 {
		fmt.Fprintln(os.Stderr, "Usage: rosterctl assign <event-id> <person-id> <role> [--rebalanceable] [--override-role-check]")
		os.Exit(1)
	}

	opts := roster.AssignOptions{}
	for _, arg := range rest[3:] {
		switch arg {
		case "--rebalanceable":
			opts.Rebalanceable = true
		case "--override-role-check":
			opts.OverrideRoleCheck = true
		}
	}

	service, closer, err := openService()
	exitOn(err)
	defer closer()

	result, err := service.Assign(caller, rest[0], rest[1], rest[2], opts)
	exitOn(err)

	formatter := NewFormatter(globalConfig.Format)
	Output(formatter, result.Assignment)
	for _, warning := range result.Warnings {
		Output(formatter, "warning: "+warning)
	}
}

func handleUnassignCommand(args []string) {
	caller, rest := callerFromFlags(args)
	if caller.OrgID == "" || len(rest) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: rosterctl unassign <assignment-id>")
		os.Exit(1)
	}

	service, closer, err := openService()
	exitOn(err)
	defer closer()

	exitOn(service.Unassign(caller, rest[0]))

	formatter := NewFormatter(globalConfig.Format)
	Output(formatter, "assignment removed")
}

func handleSwapCommand(args []string) {
	caller, rest := callerFromFlags(args)
	if caller.OrgID == "" || len(rest) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: rosterctl swap <assignment-id-1> <assignment-id-2>")
		os.Exit(1)
	}

	service, closer, err := openService()
	exitOn(err)
	defer closer()

	exitOn(service.Swap(caller, rest[0], rest[1]))

	formatter := NewFormatter(globalConfig.Format)
	Output(formatter, "assignments swapped")
}

func handleListAssignmentsCommand(args []string) {
	caller, rest := callerFromFlags(args)
	if caller.OrgID == "" {
		fmt.Fprintln(os.Stderr, "Error: list-assignments requires --org (or a cached login)")
		os.Exit(1)
	}

	window := roster.Window{}
	for i, arg := range rest {
		switch arg {
		case "--start":
			if i+1 < len(rest) {
				if t, err := time.Parse(time.RFC3339, rest[i+1]); err == nil {
					window.Start = t
				}
			}
		case "--end":
			if i+1 < len(rest) {
				if t, err := time.Parse(time.RFC3339, rest[i+1]); err == nil {
					window.End = t
				}
			}
		}
	}

	service, closer, err := openService()
	exitOn(err)
	defer closer()

	assignments, err := service.ListAssignments(caller, window)
	exitOn(err)

	formatter := NewFormatter(globalConfig.Format)
	Output(formatter, assignments)
}

func handleCalendarCommand(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Error: calendar requires a subcommand (rotate-token, org)")
		os.Exit(1)
	}

	service, closer, err := openService()
	exitOn(err)
	defer closer()

	caller, rest := callerFromFlags(args[1:])

	switch args[0] {
	case "rotate-token":
		if len(rest) < 1 {
			fmt.Fprintln(os.Stderr, "Usage: rosterctl calendar rotate-token <person-id>")
			os.Exit(1)
		}
		token, err := service.RotateCalendarToken(caller, rest[0])
		exitOn(err)
		formatter := NewFormatter(globalConfig.Format)
		Output(formatter, token)
	case "org":
		ics, err := service.GetOrgCalendar(caller, time.Now())
		exitOn(err)
		fmt.Print(string(ics))
	default:
		fmt.Fprintf(os.Stderr, "Unknown calendar subcommand: %s\n", args[0])
		os.Exit(1)
	}
}
