package session

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/spec-kit/payment-portal/internal/domain"
)

// Snapshot is the minimal principal state attached to an authenticated session.
// It never carries the credential hash.
type Snapshot struct {
	PrincipalID string               `json:"principal_id"`
	Kind        domain.PrincipalKind `json:"kind"`
	Role        domain.Role          `json:"role"`
	FullName    string               `json:"full_name"`
	LoginKey    string               `json:"login_key"`
}

// Record is the server-side session state keyed by the opaque cookie value.
// A record without a user snapshot is anonymous and grants no access.
type Record struct {
	ID           string    `json:"-"`
	User         *Snapshot `json:"user,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// NewID returns a fresh cryptographically random session identifier
// (16 random bytes, hex encoded).
func NewID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
