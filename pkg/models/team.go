package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Team groups Persons within an Organization for convenience filtering;
// the scheduler does not use Team membership directly today, but
// candidate listing can be scoped to a team by callers.
type Team struct {
	ID        string    `db:"id" json:"id"`
	OrgID     string    `db:"org_id" json:"org_id"`
	Name      string    `db:"name" json:"name"`
	MemberIDs []string  `db:"member_ids" json:"member_ids"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func NewTeam(orgID, name string) (*Team, error) {
	if orgID == "" {
		return nil, fmt.Errorf("org ID is required")
	}
	if name == "" {
		return nil, fmt.Errorf("team name is required")
	}

	now := time.Now()
	return &Team{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		Name:      name,
		MemberIDs: []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (t *Team) AddMember(personID string) {
	for _, id := range t.MemberIDs {
		if id == personID {
			return
		}
	}
	t.MemberIDs = append(t.MemberIDs, personID)
	t.UpdatedAt = time.Now()
}

func (t *Team) RemoveMember(personID string) {
	for i, id := range t.MemberIDs {
		if id == personID {
			t.MemberIDs = append(t.MemberIDs[:i], t.MemberIDs[i+1:]...)
			t.UpdatedAt = time.Now()
			return
		}
	}
}

func (t *Team) HasMember(personID string) bool {
	for _, id := range t.MemberIDs {
		if id == personID {
			return true
		}
	}
	return false
}

func (t *Team) Validate() error {
	if t.OrgID == "" {
		return fmt.Errorf("org ID is required")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}
	return nil
}
