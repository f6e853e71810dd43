package main

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/rosterforge/roster-core/internal/auth"
	"golang.org/x/crypto/argon2"
	"golang.org/x/term"
)

// handleLoginCommand authenticates the local operator against the
// argon2 hash in ~/.rosterd/operator.yaml and, on success, mints an
// identity token via internal/auth and caches it for subsequent
// rosterctl invocations. Unlike the teacher's full AuthService
// (internal/auth/service.go in cmd/hereandnow/user.go), this is the
// only password check left in the repository: rosterd's HTTP path only
// ever verifies tokens, never passwords (SPEC_FULL.md §9).
func handleLoginCommand(args []string) {
	if len(args) > 0 && (args[0] == "--help" || args[0] == "-h") {
		fmt.Printf(`Operator Login

USAGE:
    rosterctl login [OPTIONS]
    rosterctl login set-password --actor <id> --org <id> [OPTIONS]

DESCRIPTION:
    Authenticates against the local operator credential and caches a
    signed token at ~/.rosterd/operator.token; subsequent rosterctl
    commands verify it locally to take the default actor and org.

SUBCOMMANDS:
    set-password        Create or replace the local operator credential

OPTIONS:
    --actor <id>         Caller id stored in the credential (set-password)
    --org <id>           Org id stored in the credential (set-password)
    --ttl <duration>     Token lifetime, e.g. 12h (default: 12h)
    --help, -h          Show this help
`)
		return
	}

	if len(args) > 0 && args[0] == "set-password" {
		executeSetOperatorPassword(args[1:])
		return
	}

	executeLogin(args)
}

func executeSetOperatorPassword(args []string) {
	actorID, orgID := "", ""
	for i, arg := range args {
		switch arg {
		case "--actor":
			if i+1 < len(args) {
				actorID = args[i+1]
			}
		case "--org":
			if i+1 < len(args) {
				orgID = args[i+1]
			}
		}
	}
	if actorID == "" || orgID == "" {
		fmt.Fprintf(os.Stderr, "Error: set-password requires --actor and --org\n")
		os.Exit(1)
	}

	fmt.Print("New operator password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading password: %v\n", err)
		os.Exit(1)
	}
	password := string(passwordBytes)
	fmt.Println()

	if len(password) < 8 {
		fmt.Fprintf(os.Stderr, "Error: password must be at least 8 characters\n")
		os.Exit(1)
	}

	fmt.Print("Confirm password: ")
	confirmBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading password confirmation: %v\n", err)
		os.Exit(1)
	}
	fmt.Println()
	if password != string(confirmBytes) {
		fmt.Fprintf(os.Stderr, "Error: passwords do not match\n")
		os.Exit(1)
	}

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating salt: %v\n", err)
		os.Exit(1)
	}
	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)

	cred := &operatorCredential{
		ActorID: actorID,
		OrgID:   orgID,
		Salt:    fmt.Sprintf("%x", salt),
		Hash:    fmt.Sprintf("%x", hash),
	}
	if err := saveOperatorCredential(cred); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving operator credential: %v\n", err)
		os.Exit(1)
	}

	formatter := NewFormatter(globalConfig.Format)
	Output(formatter, fmt.Sprintf("Operator credential set for actor %s in org %s", actorID, orgID))
}

func executeLogin(args []string) {
	ttl := 12 * time.Hour
	for i, arg := range args {
		if arg == "--ttl" && i+1 < len(args) {
			if d, err := time.ParseDuration(args[i+1]); err == nil {
				ttl = d
			}
		}
	}

	cred, err := loadOperatorCredential()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: no operator credential set. Run 'rosterctl login set-password' first.\n")
		os.Exit(1)
	}

	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading password: %v\n", err)
		os.Exit(1)
	}
	password := string(passwordBytes)
	fmt.Println()

	salt, err := hex.DecodeString(cred.Salt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: corrupt operator credential: %v\n", err)
		os.Exit(1)
	}
	wantHash, err := hex.DecodeString(cred.Hash)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: corrupt operator credential: %v\n", err)
		os.Exit(1)
	}
	candidate := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	if subtle.ConstantTimeCompare(candidate, wantHash) != 1 {
		fmt.Fprintf(os.Stderr, "Error: incorrect password\n")
		os.Exit(1)
	}

	config, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	verifier := auth.NewVerifier(config.Auth.TokenSecret)
	token, err := verifier.Issue(cred.ActorID, cred.OrgID, time.Now().Add(ttl))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error minting token: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(tokenCachePath(), []byte(token), 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error caching token: %v\n", err)
		os.Exit(1)
	}

	formatter := NewFormatter(globalConfig.Format)
	Output(formatter, fmt.Sprintf("Logged in as %s (org %s), token cached for %s", cred.ActorID, cred.OrgID, ttl))
}

func currentCaller() (string, string, error) {
	config, err := LoadConfig()
	if err != nil {
		return "", "", err
	}
	tokenBytes, err := os.ReadFile(tokenCachePath())
	if err != nil {
		return "", "", fmt.Errorf("not logged in: run 'rosterctl login' first")
	}
	verifier := auth.NewVerifier(config.Auth.TokenSecret)
	caller, err := verifier.Verify(strings.TrimSpace(string(tokenBytes)))
	if err != nil {
		return "", "", fmt.Errorf("cached token invalid: %w", err)
	}
	return caller.ActorID, caller.OrgID, nil
}
