// Package session holds per-user CareerOmni state and the stores that keep it
// between requests.
package session

import (
	"time"

	"github.com/google/uuid"
)

// State is everything one user has done in a session. It starts empty and is
// changed only through the Record* and Reset methods.
type State struct {
	ID        uuid.UUID `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ResumeFilename string `json:"resume_filename,omitempty"`
	ResumeText     string `json:"resume_text,omitempty"`
	// Revision changes whenever the résumé is replaced or the session is
	// reset. Results computed from an older revision must not be recorded.
	Revision int `json:"revision"`

	AnalysisComplete bool      `json:"analysis_complete"`
	Analysis         string    `json:"analysis,omitempty"`
	AnalyzedAt       time.Time `json:"analyzed_at,omitempty"`

	JobDescription     string `json:"job_description,omitempty"`
	GeneratedResume    string `json:"generated_resume,omitempty"`
	HasGeneratedResume bool   `json:"has_generated_resume"`
}

// New returns a fresh session with a random ID.
func New(now time.Time) *State {
	return &State{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasResume reports whether extracted résumé text is available.
func (s *State) HasResume() bool {
	return s.ResumeText != ""
}

// RecordUpload stores newly extracted résumé text. Any earlier analysis is
// cleared since it described a different document.
func (s *State) RecordUpload(filename, text string, now time.Time) {
	s.ResumeFilename = filename
	s.ResumeText = text
	s.Revision++
	s.AnalysisComplete = false
	s.Analysis = ""
	s.AnalyzedAt = time.Time{}
	s.UpdatedAt = now
}

// RecordAnalysis stores a completed analysis.
func (s *State) RecordAnalysis(text string, now time.Time) {
	s.Analysis = text
	s.AnalysisComplete = true
	s.AnalyzedAt = now
	s.UpdatedAt = now
}

// RecordGeneration stores a generated résumé and the job description it targets.
func (s *State) RecordGeneration(jobDescription, text string, now time.Time) {
	s.JobDescription = jobDescription
	s.GeneratedResume = text
	s.HasGeneratedResume = true
	s.UpdatedAt = now
}

// Reset returns the session to its initial values, keeping ID and CreatedAt.
// The revision still advances so in-flight results are discarded.
func (s *State) Reset(now time.Time) {
	*s = State{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		UpdatedAt: now,
		Revision:  s.Revision + 1,
	}
}

// Clone returns a copy safe to modify independently.
func (s *State) Clone() *State {
	c := *s
	return &c
}
