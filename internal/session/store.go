package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound signals that no record exists for the given session id.
var ErrNotFound = errors.New("session: not found")

// Store is the durable, shared session backend. Any portal instance must be able to
// serve any session id, so implementations live outside process memory.
type Store interface {
	// Get loads the record for id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)
	// Save writes the record with the given time-to-live.
	Save(ctx context.Context, rec *Record, ttl time.Duration) error
	// Touch persists refreshed activity state and extends the time-to-live.
	Touch(ctx context.Context, rec *Record, ttl time.Duration) error
	// Destroy removes the record. Destroying an unknown id is not an error.
	Destroy(ctx context.Context, id string) error
}
