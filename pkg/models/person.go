package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var personEmailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Person is a volunteer within an Organization: a pool of role
// capabilities the scheduler may draw on.
type Person struct {
	ID         string    `db:"id" json:"id"`
	OrgID      string    `db:"org_id" json:"org_id"`
	Email      string    `db:"email" json:"email"`
	Name       string    `db:"name" json:"name"`
	Roles      []string  `db:"roles" json:"roles"`
	Timezone   string    `db:"timezone" json:"timezone"`
	Language   string    `db:"language" json:"language"`
	IsArchived bool      `db:"is_archived" json:"is_archived"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

func NewPerson(orgID, email, name, timezone string, roles []string) (*Person, error) {
	if orgID == "" {
		return nil, fmt.Errorf("org ID is required")
	}
	normalizedEmail, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if err := validateTimezone(timezone); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Person{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		Email:     normalizedEmail,
		Name:      name,
		Roles:     dedupeRoles(roles),
		Timezone:  timezone,
		Language:  "en",
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func normalizeEmail(email string) (string, error) {
	if email == "" {
		return "", fmt.Errorf("email is required")
	}
	normalized := strings.ToLower(strings.TrimSpace(email))
	if !personEmailRegex.MatchString(normalized) {
		return "", fmt.Errorf("invalid email: %s", email)
	}
	return normalized, nil
}

func dedupeRoles(roles []string) []string {
	seen := make(map[string]bool, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// HasRole reports whether the person is capable of the given role.
func (p *Person) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (p *Person) AddRole(role string) {
	if role == "" || p.HasRole(role) {
		return
	}
	p.Roles = append(p.Roles, role)
	p.UpdatedAt = time.Now()
}

func (p *Person) RemoveRole(role string) {
	for i, r := range p.Roles {
		if r == role {
			p.Roles = append(p.Roles[:i], p.Roles[i+1:]...)
			p.UpdatedAt = time.Now()
			return
		}
	}
}

func (p *Person) Archive() {
	p.IsArchived = true
	p.UpdatedAt = time.Now()
}

func (p *Person) Validate() error {
	if p.OrgID == "" {
		return fmt.Errorf("org ID is required")
	}
	if _, err := normalizeEmail(p.Email); err != nil {
		return err
	}
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if err := validateTimezone(p.Timezone); err != nil {
		return err
	}
	return nil
}

// LocalDate converts an instant to the person's timezone-local calendar
// date. This is the single authoritative conversion used by the
// blackout-intersection rule (spec §3).
func (p *Person) LocalDate(instant time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid person timezone %s: %w", p.Timezone, err)
	}
	local := instant.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC), nil
}
