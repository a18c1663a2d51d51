package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long an untouched session is kept.
const DefaultTTL = 24 * time.Hour

var (
	// ErrNotFound is returned for unknown or expired sessions.
	ErrNotFound = errors.New("session not found")
	// ErrStale is returned when the résumé changed while a result was being
	// computed from it.
	ErrStale = errors.New("session changed during request")
)

// Store persists session state.
type Store interface {
	Create(ctx context.Context) (*State, error)
	Get(ctx context.Context, id uuid.UUID) (*State, error)
	Save(ctx context.Context, state *State) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Modifier is implemented by stores that can load, change and save a session
// as one atomic step. If fn returns an error nothing is saved.
type Modifier interface {
	Modify(ctx context.Context, id uuid.UUID, fn func(*State) error) (*State, error)
}

// Update loads a session, applies fn, and saves it.
func Update(ctx context.Context, store Store, id uuid.UUID, fn func(*State)) (*State, error) {
	return modify(ctx, store, id, func(st *State) error {
		fn(st)
		return nil
	})
}

// UpdateRevision is Update for results derived from the résumé at revision.
// It returns ErrStale without saving when the résumé has since been replaced
// or the session reset.
func UpdateRevision(ctx context.Context, store Store, id uuid.UUID, revision int, fn func(*State)) (*State, error) {
	return modify(ctx, store, id, func(st *State) error {
		if st.Revision != revision {
			return ErrStale
		}
		fn(st)
		return nil
	})
}

func modify(ctx context.Context, store Store, id uuid.UUID, fn func(*State) error) (*State, error) {
	if m, ok := store.(Modifier); ok {
		return m.Modify(ctx, id, fn)
	}

	state, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(state); err != nil {
		return nil, err
	}
	if err := store.Save(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*State
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore creates a MemoryStore. A ttl of zero uses DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		sessions: make(map[uuid.UUID]*State),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create starts a new session.
func (m *MemoryStore) Create(_ context.Context) (*State, error) {
	state := New(m.now())

	m.mu.Lock()
	m.sessions[state.ID] = state.Clone()
	m.mu.Unlock()

	return state, nil
}

// Get returns a copy of the session, or ErrNotFound if it is unknown or expired.
func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) (*State, error) {
	m.mu.RLock()
	state, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok || m.expired(state) {
		return nil, ErrNotFound
	}
	return state.Clone(), nil
}

// Save replaces the stored session.
func (m *MemoryStore) Save(_ context.Context, state *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.sessions[state.ID]
	if !ok || m.expired(existing) {
		return ErrNotFound
	}
	m.sessions[state.ID] = state.Clone()
	return nil
}

// Modify applies fn to the session while holding the store lock.
func (m *MemoryStore) Modify(_ context.Context, id uuid.UUID, fn func(*State) error) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.sessions[id]
	if !ok || m.expired(existing) {
		return nil, ErrNotFound
	}
	state := existing.Clone()
	if err := fn(state); err != nil {
		return nil, err
	}
	m.sessions[id] = state.Clone()
	return state, nil
}

// Delete removes the session.
func (m *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, state := range m.sessions {
		if m.expired(state) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, including expired ones not yet swept.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// StartSweeper runs Sweep every interval until ctx is done.
func (m *MemoryStore) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *MemoryStore) expired(state *State) bool {
	return m.now().Sub(state.UpdatedAt) > m.ttl
}
