package calendarfeed

import (
	"crypto/subtle"

	"github.com/rosterforge/roster-core/pkg/models"
	"github.com/rosterforge/roster-core/pkg/rosterr"
)

// TokenRepository is the storage contract CalendarFeed needs for token
// lookups and rotation (part of AssignmentStore's calendar_tokens
// table, spec §6 "Persisted state layout").
type TokenRepository interface {
	GetByHash(hash []byte) (*models.CalendarToken, error)
	Create(token models.CalendarToken) error
	MarkServedOnce(personID string) error
	RetireAllForPerson(personID string) error
}

// Resolve looks up the person a plaintext calendar token belongs to,
// enforcing the retire-then-404 lifecycle from spec §4.6/§7: a retired
// token still serves exactly one more fetch (the "this feed is retired"
// placeholder), then every subsequent fetch is NOT_FOUND.
func Resolve(repo TokenRepository, plaintext string) (personID string, retiredFirstFetch bool, err error) {
	hash := models.HashCalendarToken(plaintext)
	record, err := repo.GetByHash(hash)
	if err != nil {
		return "", false, err
	}
	if record == nil {
		return "", false, rosterr.NotFoundf("calendar token not recognized")
	}

	// constant-time comparison isn't strictly needed here (the lookup
	// already happened by hash equality in storage), but guards against
	// a repo implementation that does a prefix match instead of an
	// exact one.
	if subtle.ConstantTimeCompare(record.TokenHash, hash) != 1 {
		return "", false, rosterr.NotFoundf("calendar token not recognized")
	}

	if !record.IsRetired() {
		return record.PersonID, false, nil
	}
	if !record.ServedOnce {
		if err := repo.MarkServedOnce(record.PersonID); err != nil {
			return "", false, err
		}
		return record.PersonID, true, nil
	}
	return "", false, rosterr.NotFoundf("calendar token has been retired")
}

// Rotate issues a fresh token for a person and retires every prior one,
// per spec §4.6: "rotation creates a new token and invalidates the old
// URL".
func Rotate(repo TokenRepository, personID string) (*models.IssuedToken, error) {
	if err := repo.RetireAllForPerson(personID); err != nil {
		return nil, err
	}
	issued, err := models.IssueCalendarToken(personID)
	if err != nil {
		return nil, err
	}
	if err := repo.Create(issued.Record); err != nil {
		return nil, err
	}
	return issued, nil
}
