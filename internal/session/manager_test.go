package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/payment-portal/internal/domain"
)

// memoryStore is an in-process Store double. TTLs are recorded, not enforced;
// the manager's own timeout checks are what is under test.
type memoryStore struct {
	mu      sync.Mutex
	records map[string]Record
	ttls    map[string]time.Duration
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		records: make(map[string]Record),
		ttls:    make(map[string]time.Duration),
	}
}

func (s *memoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	rec.ID = id
	return &rec, nil
}

func (s *memoryStore) Save(_ context.Context, rec *Record, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = *rec
	s.ttls[rec.ID] = ttl
	return nil
}

func (s *memoryStore) Touch(ctx context.Context, rec *Record, ttl time.Duration) error {
	return s.Save(ctx, rec, ttl)
}

func (s *memoryStore) Destroy(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	delete(s.ttls, id)
	return nil
}

func (s *memoryStore) rewind(id string, createdBy, activityBy time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.records[id]
	rec.CreatedAt = rec.CreatedAt.Add(-createdBy)
	rec.LastActivity = rec.LastActivity.Add(-activityBy)
	s.records[id] = rec
}

func testSnapshot() Snapshot {
	return Snapshot{
		PrincipalID: "cust-1",
		Kind:        domain.PrincipalKindCustomer,
		Role:        domain.RoleCustomer,
		FullName:    "Amara Okafor",
		LoginKey:    "1234567890",
	}
}

func newTestManager(store Store) *Manager {
	return NewManager(store, 15*time.Minute, 30*time.Minute, zap.NewNop())
}

func TestManager_EstablishRegeneratesID(t *testing.T) {
	store := newMemoryStore()
	m := newTestManager(store)
	ctx := context.Background()

	first, err := m.Establish(ctx, "", testSnapshot())
	if err != nil {
		t.Fatalf("establish: %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected non-empty session id")
	}

	second, err := m.Establish(ctx, first.ID, testSnapshot())
	if err != nil {
		t.Fatalf("re-establish: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("expected a fresh session id on login")
	}

	// the pre-login id must no longer grant access
	if _, err := m.Validate(ctx, first.ID); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated for old id, got %v", err)
	}
	if _, err := m.Validate(ctx, second.ID); err != nil {
		t.Fatalf("new id should validate: %v", err)
	}
}

func TestManager_ValidateTouchesActivity(t *testing.T) {
	store := newMemoryStore()
	m := newTestManager(store)
	ctx := context.Background()

	rec, err := m.Establish(ctx, "", testSnapshot())
	if err != nil {
		t.Fatalf("establish: %v", err)
	}

	store.rewind(rec.ID, 0, 10*time.Minute)
	before, _ := store.Get(ctx, rec.ID)

	got, err := m.Validate(ctx, rec.ID)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !got.LastActivity.After(before.LastActivity) {
		t.Fatal("expected LastActivity to be refreshed")
	}
	if got.User == nil || got.User.PrincipalID != "cust-1" {
		t.Fatalf("snapshot lost on touch: %+v", got.User)
	}
}

func TestManager_IdleTimeoutDestroys(t *testing.T) {
	store := newMemoryStore()
	m := newTestManager(store)
	ctx := context.Background()

	rec, err := m.Establish(ctx, "", testSnapshot())
	if err != nil {
		t.Fatalf("establish: %v", err)
	}

	store.rewind(rec.ID, 0, 15*time.Minute+time.Millisecond)

	if _, err := m.Validate(ctx, rec.ID); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	// destroyed, not just flagged: the same id now reads as unauthenticated
	if _, err := m.Validate(ctx, rec.ID); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated after destruction, got %v", err)
	}
}

func TestManager_AbsoluteTimeoutDestroys(t *testing.T) {
	store := newMemoryStore()
	m := newTestManager(store)
	ctx := context.Background()

	rec, err := m.Establish(ctx, "", testSnapshot())
	if err != nil {
		t.Fatalf("establish: %v", err)
	}

	// recent activity does not save a session past its absolute lifetime
	store.rewind(rec.ID, 30*time.Minute+time.Millisecond, 0)

	if _, err := m.Validate(ctx, rec.ID); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if _, ok := store.records[rec.ID]; ok {
		t.Fatal("expected record to be destroyed")
	}
}

func TestManager_AnonymousSessionDenied(t *testing.T) {
	store := newMemoryStore()
	m := newTestManager(store)
	ctx := context.Background()

	id, err := NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	now := time.Now()
	anon := &Record{ID: id, CreatedAt: now, LastActivity: now}
	if err := store.Save(ctx, anon, time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := m.Validate(ctx, id); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated for anonymous session, got %v", err)
	}
}

func TestManager_DestroyAndUnknown(t *testing.T) {
	store := newMemoryStore()
	m := newTestManager(store)
	ctx := context.Background()

	rec, err := m.Establish(ctx, "", testSnapshot())
	if err != nil {
		t.Fatalf("establish: %v", err)
	}
	if err := m.Destroy(ctx, rec.ID); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if _, err := m.Validate(ctx, rec.ID); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated after logout, got %v", err)
	}

	if _, err := m.Validate(ctx, "absent"); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated for unknown id, got %v", err)
	}
	if _, err := m.Validate(ctx, ""); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated for empty id, got %v", err)
	}
}

func TestManager_TTLCappedByAbsoluteLifetime(t *testing.T) {
	store := newMemoryStore()
	m := newTestManager(store)
	ctx := context.Background()

	rec, err := m.Establish(ctx, "", testSnapshot())
	if err != nil {
		t.Fatalf("establish: %v", err)
	}

	// 20 minutes into a 30 minute session, only 10 minutes of TTL remain
	store.rewind(rec.ID, 20*time.Minute, 0)
	if _, err := m.Validate(ctx, rec.ID); err != nil {
		t.Fatalf("validate: %v", err)
	}

	ttl := store.ttls[rec.ID]
	if ttl > 10*time.Minute {
		t.Fatalf("expected ttl capped near remaining lifetime, got %v", ttl)
	}
	if ttl <= 0 {
		t.Fatalf("expected positive ttl, got %v", ttl)
	}
}
