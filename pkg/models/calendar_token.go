package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"
)

const calendarTokenBytes = 32

// CalendarToken is the persisted (hashed) half of a person's calendar
// feed credential. The plaintext token is never stored — only its
// SHA-256 digest — per spec §9 "Token storage". Rotation supersedes the
// previous token and the old one is retained in RetiredAt form so the
// feed can serve one last "retired" response (spec §4.6).
type CalendarToken struct {
	PersonID   string     `db:"person_id" json:"person_id"`
	TokenHash  []byte     `db:"token_hash" json:"-"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	RetiredAt  *time.Time `db:"retired_at" json:"retired_at,omitempty"`
	ServedOnce bool       `db:"served_once" json:"-"`
}

// IssuedToken is the plaintext token returned to the caller only at
// creation/rotation time, and its paired CalendarToken storage record.
type IssuedToken struct {
	Plaintext string
	Record    CalendarToken
}

// IssueCalendarToken generates a fresh opaque, URL-safe token of at
// least 32 random bytes and its hashed storage record.
func IssueCalendarToken(personID string) (*IssuedToken, error) {
	raw := make([]byte, calendarTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate calendar token: %w", err)
	}
	plaintext := base64.RawURLEncoding.EncodeToString(raw)

	return &IssuedToken{
		Plaintext: plaintext,
		Record: CalendarToken{
			PersonID:  personID,
			TokenHash: HashCalendarToken(plaintext),
			CreatedAt: time.Now(),
		},
	}, nil
}

// HashCalendarToken computes the lookup digest for a plaintext token.
// A deterministic digest (rather than a slow KDF like argon2) is
// appropriate here: the token already carries 256 bits of entropy from
// crypto/rand, so there is nothing for a slow hash to protect against
// that the entropy doesn't already provide, and a slow hash would add
// needless latency to every calendar fetch.
func HashCalendarToken(plaintext string) []byte {
	sum := sha256.Sum256([]byte(plaintext))
	return sum[:]
}

func (c *CalendarToken) IsRetired() bool {
	return c.RetiredAt != nil
}

// Retire marks the token superseded by a rotation. The first fetch after
// retirement is still served (ServedOnce flips to true); subsequent
// fetches report NOT_FOUND.
func (c *CalendarToken) Retire() {
	if c.RetiredAt != nil {
		return
	}
	now := time.Now()
	c.RetiredAt = &now
}
