package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTeam_RejectsMissingFields(t *testing.T) {
	_, err := NewTeam("", "Ushers")
	assert.Error(t, err)

	_, err = NewTeam("org-1", "")
	assert.Error(t, err)
}

func TestTeam_AddMemberIsIdempotent(t *testing.T) {
	team, err := NewTeam("org-1", "Ushers")
	require.NoError(t, err)

	team.AddMember("person-1")
	team.AddMember("person-1")
	assert.Equal(t, []string{"person-1"}, team.MemberIDs)
}

func TestTeam_RemoveMember(t *testing.T) {
	team, err := NewTeam("org-1", "Ushers")
	require.NoError(t, err)

	team.AddMember("person-1")
	team.AddMember("person-2")
	team.RemoveMember("person-1")

	assert.False(t, team.HasMember("person-1"))
	assert.True(t, team.HasMember("person-2"))
}
