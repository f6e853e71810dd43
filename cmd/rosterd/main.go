package main

import (
	"fmt"
	"os"
)

const Version = "0.1.0"

// rosterd is the HTTP front door over the roster scheduling core,
// generalized from the teacher's cmd/hereandnow dispatcher down to the
// one subcommand this binary needs: serve. Operator tasks (seeding,
// running a one-off solve, printing an ICS) live in cmd/rosterctl.
func main() {
	if len(os.Args) < 2 {
		runServe(false)
		return
	}

	switch os.Args[1] {
	case "help", "--help", "-h":
		showHelp()
	case "version", "--version", "-v":
		fmt.Printf("rosterd version %s\n", Version)
	case "serve":
		dev := false
		for _, arg := range os.Args[2:] {
			if arg == "--dev" {
				dev = true
			}
		}
		runServe(dev)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'rosterd help' for usage information.\n")
		os.Exit(1)
	}
}

func showHelp() {
	fmt.Printf(`rosterd - volunteer assignment scheduling core HTTP server

USAGE:
    rosterd [COMMAND]

COMMANDS:
    serve [--dev]    Start the API server (default if no command given)
    version          Show version
    help             Show this help

CONFIG:
    ~/.rosterd/config.yaml, or ROSTERD_CONFIG env var.
    ROSTERD_TOKEN_SECRET overrides the configured caller-identity secret.
`)
}
