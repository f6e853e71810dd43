package rosterr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_ClassifiesTypedErrors(t *testing.T) {
	err := NotFoundf("person %s not found", "p1")
	assert.Equal(t, NotFound, KindOf(err))
	assert.True(t, Is(err, NotFound))
	assert.False(t, Is(err, Conflict))
}

func TestKindOf_DefaultsToInternalForUnclassifiedErrors(t *testing.T) {
	raw := errors.New("boom")
	assert.Equal(t, Internal, KindOf(raw))
}

func TestWrap_PreservesCauseForUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	wrapped := Wrap(Internal, "writing solution", cause)

	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, wrapped.Error(), "writing solution")
}
