package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/career-omni/internal/generation"
	"github.com/jonathan/career-omni/internal/ingestion"
	"github.com/jonathan/career-omni/internal/session"
)

// maxJSONBody bounds generation request bodies.
const maxJSONBody = 1 << 20

// GenerateRequest is the body of POST /generation.
type GenerateRequest struct {
	JobDescription string `json:"job_description" validate:"max=20000"`
	JobURL         string `json:"job_url,omitempty" validate:"omitempty,url"`
}

// GenerateResponse carries the generated résumé.
type GenerateResponse struct {
	GeneratedResume string              `json:"generated_resume"`
	JobDescription  string              `json:"job_description"`
	Source          *ingestion.Metadata `json:"source,omitempty"`
}

// handleGenerate drafts a résumé for the submitted job description. A blank
// job description is reported as a warning and leaves the session unchanged.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	state, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	var req GenerateRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			s.errorResponse(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.validator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	result, err := s.generator.Generate(r.Context(), generation.Request{
		JobDescription: req.JobDescription,
		JobURL:         req.JobURL,
		ResumeText:     state.ResumeText,
	})
	if errors.Is(err, generation.ErrEmptyJobDescription) {
		s.warningResponse(w, userMessage(err))
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if _, err := session.UpdateRevision(r.Context(), s.store, state.ID, state.Revision, func(st *session.State) {
		st.RecordGeneration(result.JobDescription, result.Text, s.now())
	}); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, GenerateResponse{
		GeneratedResume: result.Text,
		JobDescription:  result.JobDescription,
		Source:          result.Source,
	})
}

// handleGetGeneration returns the last generated résumé.
func (s *Server) handleGetGeneration(w http.ResponseWriter, r *http.Request) {
	state, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	if !state.HasGeneratedResume {
		s.writeError(w, r, &ErrNotAvailable{What: "generated resume"})
		return
	}

	s.jsonResponse(w, http.StatusOK, GenerateResponse{
		GeneratedResume: state.GeneratedResume,
		JobDescription:  state.JobDescription,
	})
}

// handleDownloadGeneration returns the generated résumé as plain text named
// generated_resume.docx or generated_resume.pdf.
func (s *Server) handleDownloadGeneration(w http.ResponseWriter, r *http.Request) {
	format, err := generation.ParseFormat(r.PathValue("format"))
	if err != nil {
		s.writeError(w, r, &ErrValidation{Field: "format", Message: err.Error()})
		return
	}

	state, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	if !state.HasGeneratedResume {
		s.writeError(w, r, &ErrNotAvailable{What: "generated resume"})
		return
	}

	file, err := generation.Download(state.GeneratedResume, format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		log.Printf("[generation] failed to write download: %v", err)
	}
}

// extractValidationErrors extracts validation error messages from validator errors.
func extractValidationErrors(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		e := validationErrors[0]
		return (&ErrValidation{Field: e.Field(), Message: e.Tag()}).Error()
	}
	return err.Error()
}
