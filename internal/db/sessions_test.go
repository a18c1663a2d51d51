package db

import (
	"testing"
	"time"

	"github.com/jonathan/career-omni/internal/session"
	"github.com/stretchr/testify/assert"
)

func TestNewSessionStore_DefaultTTL(t *testing.T) {
	store := NewSessionStore(&DB{}, 0)
	assert.Equal(t, session.DefaultTTL, store.ttl)
}

func TestSessionStore_Cutoff(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewSessionStore(&DB{}, 2*time.Hour)
	store.now = func() time.Time { return now }

	assert.Equal(t, now.Add(-2*time.Hour), store.cutoff())
}

func TestSchemaSQL_CoversStateFields(t *testing.T) {
	for _, column := range []string{
		"resume_filename", "resume_text", "revision", "analysis_complete", "analysis",
		"analyzed_at", "job_description", "generated_resume", "has_generated_resume",
	} {
		assert.Contains(t, schemaSQL, column)
	}
}

func TestClose_NilPool(t *testing.T) {
	db := &DB{}
	assert.NotPanics(t, db.Close)
}
