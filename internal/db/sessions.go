package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jonathan/career-omni/internal/session"
)

// SessionStore implements session.Store on PostgreSQL.
type SessionStore struct {
	db  *DB
	ttl time.Duration
	now func() time.Time
}

var (
	_ session.Store    = (*SessionStore)(nil)
	_ session.Modifier = (*SessionStore)(nil)
)

// NewSessionStore returns a store whose sessions expire after ttl of inactivity.
// A ttl of zero uses session.DefaultTTL.
func NewSessionStore(db *DB, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	return &SessionStore{db: db, ttl: ttl, now: time.Now}
}

func (s *SessionStore) cutoff() time.Time {
	return s.now().Add(-s.ttl)
}

// Create inserts a new empty session.
func (s *SessionStore) Create(ctx context.Context) (*session.State, error) {
	state := session.New(s.now().UTC())
	_, err := s.db.pool.Exec(ctx,
		`INSERT INTO sessions (id, created_at, updated_at) VALUES ($1, $2, $3)`,
		state.ID, state.CreatedAt, state.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return state, nil
}

const selectSession = `SELECT id, created_at, updated_at, resume_filename, resume_text, revision,
        analysis_complete, analysis, analyzed_at,
        job_description, generated_resume, has_generated_resume
 FROM sessions
 WHERE id = $1 AND updated_at > $2`

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Get loads a session that has not expired.
func (s *SessionStore) Get(ctx context.Context, id uuid.UUID) (*session.State, error) {
	return s.get(ctx, s.db.pool, selectSession, id)
}

func (s *SessionStore) get(ctx context.Context, q querier, query string, id uuid.UUID) (*session.State, error) {
	var state session.State
	var analyzedAt *time.Time
	err := q.QueryRow(ctx, query, id, s.cutoff()).Scan(
		&state.ID, &state.CreatedAt, &state.UpdatedAt, &state.ResumeFilename, &state.ResumeText, &state.Revision,
		&state.AnalysisComplete, &state.Analysis, &analyzedAt,
		&state.JobDescription, &state.GeneratedResume, &state.HasGeneratedResume,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if analyzedAt != nil {
		state.AnalyzedAt = *analyzedAt
	}
	return &state, nil
}

// Save writes every field of an existing session.
func (s *SessionStore) Save(ctx context.Context, state *session.State) error {
	return s.save(ctx, s.db.pool, state)
}

func (s *SessionStore) save(ctx context.Context, q querier, state *session.State) error {
	var analyzedAt *time.Time
	if !state.AnalyzedAt.IsZero() {
		analyzedAt = &state.AnalyzedAt
	}
	tag, err := q.Exec(ctx,
		`UPDATE sessions SET
		    updated_at = $2, resume_filename = $3, resume_text = $4, revision = $5,
		    analysis_complete = $6, analysis = $7, analyzed_at = $8,
		    job_description = $9, generated_resume = $10, has_generated_resume = $11
		 WHERE id = $1 AND updated_at > $12`,
		state.ID, state.UpdatedAt, state.ResumeFilename, state.ResumeText, state.Revision,
		state.AnalysisComplete, state.Analysis, analyzedAt,
		state.JobDescription, state.GeneratedResume, state.HasGeneratedResume,
		s.cutoff(),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrNotFound
	}
	return nil
}

// Modify locks the session row, applies fn and saves the result in one
// transaction.
func (s *SessionStore) Modify(ctx context.Context, id uuid.UUID, fn func(*session.State) error) (*session.State, error) {
	tx, err := s.db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	state, err := s.get(ctx, tx, selectSession+" FOR UPDATE", id)
	if err != nil {
		return nil, err
	}
	if err := fn(state); err != nil {
		return nil, err
	}
	if err := s.save(ctx, tx, state); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit session: %w", err)
	}
	return state, nil
}

// Delete removes a session.
func (s *SessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrNotFound
	}
	return nil
}

// DeleteExpired removes sessions idle for longer than the TTL.
func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := s.db.pool.Exec(ctx, `DELETE FROM sessions WHERE updated_at <= $1`, s.cutoff())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// StartSweeper runs DeleteExpired every interval until ctx is done.
func (s *SessionStore) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.DeleteExpired(ctx); err != nil {
				log.Printf("[sessions] sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("[sessions] removed %d expired sessions", n)
			}
		}
	}
}
