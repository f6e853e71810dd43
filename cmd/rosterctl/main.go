package main

import (
	"fmt"
	"os"
	"strings"
)

const Version = "0.1.0"

type GlobalConfig struct {
	Format     string // json, table, human
	ConfigPath string
	Verbose    bool
	NoColor    bool
}

var globalConfig GlobalConfig

// rosterctl is the operator CLI, generalized from the teacher's
// cmd/hereandnow dispatcher: the same global-flag parsing and
// subcommand table, carrying org/person/event seeding plus the
// scheduling operations (solve/validate/assign/unassign/swap/calendar)
// against the database directly, without going through rosterd's HTTP
// server (SPEC_FULL.md §6: "useful for operators seeding demo orgs and
// for the integration tests that exercise the whole stack without
// HTTP").
func main() {
	if len(os.Args) < 2 {
		showHelp()
		return
	}

	args, err := parseGlobalFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(args) == 0 {
		showHelp()
		return
	}

	command := args[0]
	commandArgs := args[1:]

	switch command {
	case "help", "--help", "-h":
		showHelp()
	case "version", "--version", "-v":
		fmt.Printf("rosterctl version %s\n", Version)
	case "login":
		handleLoginCommand(commandArgs)
	case "org":
		handleOrgCommand(commandArgs)
	case "person":
		handlePersonCommand(commandArgs)
	case "event":
		handleEventCommand(commandArgs)
	case "solve":
		handleSolveCommand(commandArgs)
	case "validate":
		handleValidateCommand(commandArgs)
	case "assign":
		handleAssignCommand(commandArgs)
	case "unassign":
		handleUnassignCommand(commandArgs)
	case "swap":
		handleSwapCommand(commandArgs)
	case "list-assignments":
		handleListAssignmentsCommand(commandArgs)
	case "calendar":
		handleCalendarCommand(commandArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		fmt.Fprintf(os.Stderr, "Run 'rosterctl help' for usage information.\n")
		os.Exit(1)
	}
}

func parseGlobalFlags(args []string) ([]string, error) {
	remainingArgs := []string{}
	globalConfig.Format = "human"

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch {
		case arg == "--format" && i+1 < len(args):
			format := args[i+1]
			if format != "json" && format != "table" && format != "human" {
				return nil, fmt.Errorf("invalid format: %s (must be json, table, or human)", format)
			}
			globalConfig.Format = format
			i++
		case strings.HasPrefix(arg, "--format="):
			format := strings.TrimPrefix(arg, "--format=")
			if format != "json" && format != "table" && format != "human" {
				return nil, fmt.Errorf("invalid format: %s (must be json, table, or human)", format)
			}
			globalConfig.Format = format
		case arg == "--config" && i+1 < len(args):
			globalConfig.ConfigPath = args[i+1]
			i++
		case strings.HasPrefix(arg, "--config="):
			globalConfig.ConfigPath = strings.TrimPrefix(arg, "--config=")
		case arg == "--verbose":
			globalConfig.Verbose = true
		case arg == "--no-color":
			globalConfig.NoColor = true
		default:
			remainingArgs = append(remainingArgs, arg)
		}
	}

	return remainingArgs, nil
}

func showHelp() {
	fmt.Printf(`rosterctl - volunteer assignment scheduling operator CLI

USAGE:
    rosterctl [GLOBAL OPTIONS] <COMMAND> [OPTIONS]

VERSION:
    %s

GLOBAL OPTIONS:
    --format <format>    Output format: json, table, human (default: human)
    --config <path>      Config file path (default: ~/.rosterd/config.yaml)
    --verbose            Enable verbose output
    --no-color           Disable colored output
    --help, -h           Show help
    --version            Show version

COMMANDS:
    login                     Authenticate as the local operator
    org create                Create an organization
    person create             Create a person within an org
    event create               Create an event within an org
    solve                     Run the scheduler over a set of events
    validate <event-id>       Re-validate one event's assignments
    assign <event> <person> <role>   Manually assign a person
    unassign <assignment-id>  Remove a manual or solved assignment
    swap <a1> <a2>            Swap two assignments' people
    list-assignments          List assignments in an org within a window
    calendar rotate-token <person-id>   Issue a fresh calendar token
    calendar org              Print the org-wide ICS feed

Most commands accept --org/--actor, or fall back to the identity cached
by 'rosterctl login'.

EXAMPLES:
    rosterctl login set-password --actor admin --org org-1
    rosterctl login
    rosterctl org create --name "Riverside Church"
    rosterctl person create --org org-1 --name "Jo Lee" --email jo@example.com --roles usher,greeter
    rosterctl event create --org org-1 --type service --start 2026-08-02T09:00:00Z --end 2026-08-02T10:30:00Z --role usher=2
    rosterctl solve --org org-1 --events evt-1,evt-2
    rosterctl validate evt-1 --org org-1

Use 'rosterctl <command> --help' for more information about a specific command.
`, Version)
}
