// Package auth verifies the bearer tokens that carry a caller's identity
// into the roster facade. It hand-assembles and signs JWT-shaped tokens
// rather than importing a JWT library, the same field-control posture the
// teacher's internal/auth/jwt.go takes with session tokens. Authorization
// policy (who may act on which org) is the external collaborator's job
// per spec.md §1; this package only answers "who is this caller".
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rosterforge/roster-core/pkg/roster"
)

type header struct {
	Algorithm string `json:"alg"`
	Type      string `json:"typ"`
}

// claims is the payload an identity token carries: the caller's actor id
// and the single org they are scoped to, per roster.CallerIdentity.
type claims struct {
	ActorID   string `json:"actor_id"`
	OrgID     string `json:"org_id"`
	ExpiresAt int64  `json:"exp"`
	IssuedAt  int64  `json:"iat"`
}

// Verifier signs and verifies identity tokens with a single shared
// secret, grounded on the teacher's JWTServiceImpl HMAC-HS256 scheme.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Issue mints a token for (actorID, orgID) valid until expiresAt. Used by
// rosterctl and test fixtures; the HTTP front door accepts tokens minted
// this way rather than running its own login flow.
func (v *Verifier) Issue(actorID, orgID string, expiresAt time.Time) (string, error) {
	h := header{Algorithm: "HS256", Type: "JWT"}
	c := claims{ActorID: actorID, OrgID: orgID, ExpiresAt: expiresAt.Unix(), IssuedAt: time.Now().Unix()}

	headerJSON, err := json.Marshal(h)
	if err != nil {
		return "", fmt.Errorf("failed to marshal header: %w", err)
	}
	claimsJSON, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal claims: %w", err)
	}

	headerB64 := base64.RawURLEncoding.EncodeToString(headerJSON)
	claimsB64 := base64.RawURLEncoding.EncodeToString(claimsJSON)
	message := headerB64 + "." + claimsB64

	return message + "." + v.sign(message), nil
}

// Verify checks the token's signature and expiry and returns the caller
// identity it carries. This is the only thing internal/api's middleware
// needs: it does not look up a session store or a user record, since the
// core has no user model of its own.
func (v *Verifier) Verify(token string) (roster.CallerIdentity, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return roster.CallerIdentity{}, fmt.Errorf("invalid token format")
	}
	headerB64, claimsB64, signatureB64 := parts[0], parts[1], parts[2]

	message := headerB64 + "." + claimsB64
	expected := v.sign(message)
	if !hmac.Equal([]byte(signatureB64), []byte(expected)) {
		return roster.CallerIdentity{}, fmt.Errorf("invalid signature")
	}

	claimsJSON, err := base64.RawURLEncoding.DecodeString(claimsB64)
	if err != nil {
		return roster.CallerIdentity{}, fmt.Errorf("failed to decode claims: %w", err)
	}
	var c claims
	if err := json.Unmarshal(claimsJSON, &c); err != nil {
		return roster.CallerIdentity{}, fmt.Errorf("failed to unmarshal claims: %w", err)
	}

	if time.Now().Unix() > c.ExpiresAt {
		return roster.CallerIdentity{}, fmt.Errorf("token expired")
	}
	if c.ActorID == "" || c.OrgID == "" {
		return roster.CallerIdentity{}, fmt.Errorf("token missing actor_id or org_id")
	}

	return roster.CallerIdentity{ActorID: c.ActorID, OrgID: c.OrgID}, nil
}

func (v *Verifier) sign(message string) string {
	h := hmac.New(sha256.New, v.secret)
	h.Write([]byte(message))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
