package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Organization is the tenant boundary: it owns people, teams, events,
// solutions, and calendar tokens.
type Organization struct {
	ID         string          `db:"id" json:"id"`
	Name       string          `db:"name" json:"name"`
	Timezone   string          `db:"timezone" json:"timezone"`
	KnownRoles []string        `db:"known_roles" json:"known_roles"`
	Config     json.RawMessage `db:"config" json:"config"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// allowed top-level config keys; the policy blob is arbitrary JSON but we
// reject unknown top-level keys so typos fail on write, not on read.
var knownConfigKeys = map[string]bool{
	"solver":              true,
	"calendar":            true,
	"org":                 true,
	"default_timezone":    true,
	"allow_double_assign": true,
}

func NewOrganization(name, timezone string) (*Organization, error) {
	if name == "" {
		return nil, fmt.Errorf("organization name is required")
	}
	if err := validateTimezone(timezone); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Organization{
		ID:        uuid.New().String(),
		Name:      name,
		Timezone:  timezone,
		Config:    json.RawMessage(`{}`),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// SetConfig validates the config is well-formed JSON whose top-level keys
// are all recognized policy sections before accepting it.
func (o *Organization) SetConfig(config []byte) error {
	if len(config) == 0 {
		o.Config = json.RawMessage(`{}`)
		o.UpdatedAt = time.Now()
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(config, &raw); err != nil {
		return fmt.Errorf("config must be a JSON object: %w", err)
	}

	for key := range raw {
		if !knownConfigKeys[key] {
			return fmt.Errorf("unknown config section: %s", key)
		}
	}

	o.Config = json.RawMessage(config)
	o.UpdatedAt = time.Now()
	return nil
}

// HasKnownRole reports whether role is one of the org's known roles. Custom
// (unregistered) roles are permitted per spec: "roles ⊆ org.known_roles
// ∪ {custom}" — this method is advisory for UI hints, not enforcement.
func (o *Organization) HasKnownRole(role string) bool {
	for _, r := range o.KnownRoles {
		if r == role {
			return true
		}
	}
	return false
}

func (o *Organization) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("organization name is required")
	}
	if err := validateTimezone(o.Timezone); err != nil {
		return err
	}
	return nil
}

func validateTimezone(timezone string) error {
	if timezone == "" {
		return fmt.Errorf("timezone is required")
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return fmt.Errorf("invalid IANA timezone: %s", timezone)
	}
	return nil
}
