package server

import (
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonathan/career-omni/internal/server/middleware"
	"github.com/jonathan/career-omni/internal/session"
)

// CreateSessionResponse carries the token used on every other request.
type CreateSessionResponse struct {
	SessionID uuid.UUID `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresIn int64     `json:"expires_in"`
}

// SessionResponse summarizes a session without repeating large text fields.
type SessionResponse struct {
	SessionID          uuid.UUID  `json:"session_id"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	HasResume          bool       `json:"has_resume"`
	ResumeFilename     string     `json:"resume_filename,omitempty"`
	ResumeCharacters   int        `json:"resume_characters"`
	AnalysisComplete   bool       `json:"analysis_complete"`
	AnalyzedAt         *time.Time `json:"analyzed_at,omitempty"`
	HasGeneratedResume bool       `json:"has_generated_resume"`
	JobDescription     string     `json:"job_description,omitempty"`
}

func newSessionResponse(state *session.State) SessionResponse {
	resp := SessionResponse{
		SessionID:          state.ID,
		CreatedAt:          state.CreatedAt,
		UpdatedAt:          state.UpdatedAt,
		HasResume:          state.HasResume(),
		ResumeFilename:     state.ResumeFilename,
		ResumeCharacters:   utf8.RuneCountInString(state.ResumeText),
		AnalysisComplete:   state.AnalysisComplete,
		HasGeneratedResume: state.HasGeneratedResume,
		JobDescription:     state.JobDescription,
	}
	if state.AnalysisComplete && !state.AnalyzedAt.IsZero() {
		at := state.AnalyzedAt
		resp.AnalyzedAt = &at
	}
	return resp
}

// handleCreateSession starts an empty session and issues its token.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.store.Create(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	token, err := s.jwtService.GenerateToken(state.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, CreateSessionResponse{
		SessionID: state.ID,
		Token:     token,
		ExpiresIn: int64(s.jwtService.Expiration().Seconds()),
	})
}

// handleGetSession returns the session summary.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	state, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, newSessionResponse(state))
}

// handleResetSession clears everything but the session identity.
func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.GetSessionID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "missing or invalid session token")
		return
	}

	state, err := session.Update(r.Context(), s.store, id, func(st *session.State) {
		st.Reset(s.now())
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, newSessionResponse(state))
}

// loadSession fetches the caller's session, writing the error response on failure.
func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (*session.State, bool) {
	id, err := middleware.GetSessionID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "missing or invalid session token")
		return nil, false
	}

	state, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return state, true
}
