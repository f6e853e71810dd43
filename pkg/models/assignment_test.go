package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSolverAssignment_SetsSolutionIDAndNotManual(t *testing.T) {
	a := NewSolverAssignment("solution-1", "event-1", "person-1", "usher")
	assert.False(t, a.IsManual)
	assert.NotNil(t, a.SolutionID)
	assert.Equal(t, "solution-1", *a.SolutionID)
}

func TestNewManualAssignment_HasNilSolutionID(t *testing.T) {
	a := NewManualAssignment("event-1", "person-1", "usher")
	assert.True(t, a.IsManual)
	assert.Nil(t, a.SolutionID)
}

func TestSameBinding(t *testing.T) {
	a1 := NewManualAssignment("event-1", "person-1", "usher")
	a2 := NewManualAssignment("event-1", "person-1", "usher")
	a3 := NewManualAssignment("event-1", "person-1", "greeter")

	assert.True(t, a1.SameBinding(a2), "same (event, person, role) tuple is the same binding regardless of assignment id")
	assert.False(t, a1.SameBinding(a3))
}

func TestAssignment_ValidateRequiresAllFields(t *testing.T) {
	a := &Assignment{}
	assert.Error(t, a.Validate())

	a = NewManualAssignment("event-1", "person-1", "usher")
	assert.NoError(t, a.Validate())
}
