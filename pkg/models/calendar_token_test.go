package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueCalendarToken_ProducesDistinctHashOfPlaintext(t *testing.T) {
	issued, err := IssueCalendarToken("person-1")
	require.NoError(t, err)

	assert.NotEmpty(t, issued.Plaintext)
	assert.Equal(t, HashCalendarToken(issued.Plaintext), issued.Record.TokenHash)
	assert.NotEqual(t, []byte(issued.Plaintext), issued.Record.TokenHash)
}

func TestIssueCalendarToken_TwoIssuancesAreNotEqual(t *testing.T) {
	first, err := IssueCalendarToken("person-1")
	require.NoError(t, err)
	second, err := IssueCalendarToken("person-1")
	require.NoError(t, err)

	assert.NotEqual(t, first.Plaintext, second.Plaintext)
}

func TestCalendarToken_RetireServesOnceThenIsExhausted(t *testing.T) {
	issued, err := IssueCalendarToken("person-1")
	require.NoError(t, err)
	token := issued.Record

	assert.False(t, token.IsRetired())
	token.Retire()
	assert.True(t, token.IsRetired())

	assert.False(t, token.ServedOnce, "retiring does not itself consume the one-more-fetch allowance")
	token.ServedOnce = true
	assert.True(t, token.ServedOnce)
}

func TestCalendarToken_RetireIsIdempotent(t *testing.T) {
	issued, err := IssueCalendarToken("person-1")
	require.NoError(t, err)
	token := issued.Record

	token.Retire()
	firstRetiredAt := token.RetiredAt
	token.Retire()
	assert.Equal(t, firstRetiredAt, token.RetiredAt)
}
