package session

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrNotAuthenticated signals that no valid authenticated session exists.
	ErrNotAuthenticated = errors.New("session: not authenticated")
	// ErrExpired signals idle or absolute timeout. The record has already been
	// destroyed server-side when this is returned.
	ErrExpired = errors.New("session: expired")
)

// Manager owns the session lifecycle: establish on login, validate and touch on
// every authenticated request, destroy on logout or expiry.
type Manager struct {
	store    Store
	idle     time.Duration
	absolute time.Duration
	logger   *zap.Logger
}

// NewManager builds a manager enforcing the given idle and absolute timeouts.
func NewManager(store Store, idle, absolute time.Duration, logger *zap.Logger) *Manager {
	return &Manager{store: store, idle: idle, absolute: absolute, logger: logger}
}

// Establish creates a freshly-identified session for the verified principal.
// Any prior session id presented by the client is destroyed first, so the old id
// never grants access once login begins (session fixation defense). Only after the
// old id is gone is the new id written.
func (m *Manager) Establish(ctx context.Context, priorID string, user Snapshot) (*Record, error) {
	if priorID != "" {
		if err := m.store.Destroy(ctx, priorID); err != nil {
			return nil, err
		}
	}

	id, err := NewID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	rec := &Record{
		ID:           id,
		User:         &user,
		CreatedAt:    now,
		LastActivity: now,
	}
	if err := m.store.Save(ctx, rec, m.ttlFor(rec, now)); err != nil {
		return nil, err
	}

	m.logger.Info("session established",
		zap.String("principal_id", user.PrincipalID),
		zap.String("role", string(user.Role)))
	return rec, nil
}

// Validate loads the session, enforces both timeouts and refreshes activity.
// Expired sessions are destroyed as a side effect of detection, so a raced retry
// with the same id fails with ErrNotAuthenticated, not a stale grant.
func (m *Manager) Validate(ctx context.Context, id string) (*Record, error) {
	if id == "" {
		return nil, ErrNotAuthenticated
	}

	rec, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotAuthenticated
	}
	if err != nil {
		return nil, err
	}
	if rec.User == nil {
		// anonymous sessions grant no access
		return nil, ErrNotAuthenticated
	}

	now := time.Now()
	if now.Sub(rec.CreatedAt) > m.absolute || now.Sub(rec.LastActivity) > m.idle {
		if err := m.store.Destroy(ctx, id); err != nil {
			return nil, err
		}
		m.logger.Info("session expired",
			zap.String("principal_id", rec.User.PrincipalID),
			zap.Time("created_at", rec.CreatedAt),
			zap.Time("last_activity", rec.LastActivity))
		return nil, ErrExpired
	}

	rec.LastActivity = now
	if err := m.store.Touch(ctx, rec, m.ttlFor(rec, now)); err != nil {
		return nil, err
	}
	return rec, nil
}

// Destroy removes the session state for id.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return m.store.Destroy(ctx, id)
}

// AbsoluteTimeout exposes the absolute lifetime for cookie max-age.
func (m *Manager) AbsoluteTimeout() time.Duration {
	return m.absolute
}

// ttlFor caps the store TTL at the remaining absolute lifetime, so Redis cannot
// outlive the absolute timeout no matter how often the session is touched.
func (m *Manager) ttlFor(rec *Record, now time.Time) time.Duration {
	ttl := m.idle
	if remaining := m.absolute - now.Sub(rec.CreatedAt); remaining < ttl {
		ttl = remaining
	}
	return ttl
}
