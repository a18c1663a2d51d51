package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"path"
	"time"

	"github.com/jonathan/career-omni/internal/analysis"
	"github.com/jonathan/career-omni/internal/archive"
	"github.com/jonathan/career-omni/internal/session"
)

// ArchiveNameHeader carries the archived export name for
// GET /analysis/archive/{name}.
const ArchiveNameHeader = "X-Archive-Name"

// SectionResponse is one critique section. Display holds the fallback message
// when the section is absent.
type SectionResponse struct {
	Index   int                `json:"index"`
	ID      analysis.SectionID `json:"id"`
	Heading string             `json:"heading"`
	Status  analysis.Status    `json:"status"`
	Body    string             `json:"body"`
	Display string             `json:"display"`
}

// AnalysisResponse is the raw critique and its sections.
type AnalysisResponse struct {
	Analysis   string               `json:"analysis"`
	Preamble   string               `json:"preamble,omitempty"`
	Sections   []SectionResponse    `json:"sections"`
	Complete   bool                 `json:"complete"`
	Missing    []analysis.SectionID `json:"missing"`
	AnalyzedAt time.Time            `json:"analyzed_at"`
}

func newAnalysisResponse(text string, sections *analysis.Sections, at time.Time) AnalysisResponse {
	resp := AnalysisResponse{
		Analysis:   text,
		Preamble:   sections.Preamble,
		Sections:   make([]SectionResponse, 0, len(sections.Items)),
		Complete:   sections.Complete(),
		Missing:    sections.Missing(),
		AnalyzedAt: at,
	}
	if resp.Missing == nil {
		resp.Missing = []analysis.SectionID{}
	}
	for _, item := range sections.Items {
		resp.Sections = append(resp.Sections, SectionResponse{
			Index:   item.Index,
			ID:      item.ID,
			Heading: item.Label,
			Status:  item.Status,
			Body:    item.Body,
			Display: item.Display(),
		})
	}
	return resp
}

// runAnalysis analyzes the session's résumé and records the result. The result
// is dropped with session.ErrStale if the résumé changed during the call.
func (s *Server) runAnalysis(r *http.Request, state *session.State) (*analysis.Result, error) {
	result, err := s.analyzer.Analyze(r.Context(), state.ResumeText)
	if err != nil {
		return nil, err
	}

	if _, err := session.UpdateRevision(r.Context(), s.store, state.ID, state.Revision, func(st *session.State) {
		st.RecordAnalysis(result.Text, result.CreatedAt)
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// handleAnalyze critiques the uploaded résumé.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	state, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	result, err := s.runAnalysis(r, state)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, newAnalysisResponse(result.Text, result.Sections, result.CreatedAt))
}

// handleAnalyzeStream critiques the uploaded résumé, reporting progress as
// server-sent events.
func (s *Server) handleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	state, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	sse.WriteStatus("Analyzing resume...")
	result, err := s.runAnalysis(r, state)
	if err != nil {
		if HTTPStatus(err) >= http.StatusInternalServerError {
			log.Printf("[analysis] stream failed: %v", err)
		}
		sse.WriteError(userMessage(err))
		sse.WriteComplete(state.ID.String(), "failed")
		return
	}

	if err := sse.WriteEvent("analysis", newAnalysisResponse(result.Text, result.Sections, result.CreatedAt)); err != nil {
		log.Printf("[analysis] failed to write event: %v", err)
		return
	}
	sse.WriteComplete(state.ID.String(), "completed")
}

// handleGetAnalysis returns the stored critique, split into sections again.
func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	state, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	if !state.AnalysisComplete {
		s.writeError(w, r, &ErrNotAvailable{What: "analysis"})
		return
	}

	sections := analysis.Split(state.Analysis, analysis.DefaultHeadings)
	s.jsonResponse(w, http.StatusOK, newAnalysisResponse(state.Analysis, sections, state.AnalyzedAt))
}

// handleDownloadAnalysis returns resume_analysis.json for the stored critique.
// When an archive is configured a copy is stored there too and its name is
// returned in the ArchiveNameHeader header.
func (s *Server) handleDownloadAnalysis(w http.ResponseWriter, r *http.Request) {
	state, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	if !state.AnalysisComplete {
		s.writeError(w, r, &ErrNotAvailable{What: "analysis"})
		return
	}

	data, err := analysis.Export(state.Analysis, s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if s.archiver != nil {
		if key, err := s.archiver.PutAnalysis(r.Context(), state.ID, data); err != nil {
			log.Printf("[archive] failed to store analysis for %s: %v", state.ID, err)
		} else {
			w.Header().Set(ArchiveNameHeader, path.Base(key))
		}
	}

	writeAnalysisExport(w, data)
}

// handleGetArchivedAnalysis returns an export archived by an earlier download
// of this session.
func (s *Server) handleGetArchivedAnalysis(w http.ResponseWriter, r *http.Request) {
	state, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	if s.archiver == nil {
		s.writeError(w, r, &ErrNotAvailable{What: "analysis archive"})
		return
	}

	data, err := s.archiver.GetAnalysis(r.Context(), state.ID, r.PathValue("name"))
	switch {
	case errors.Is(err, archive.ErrInvalidName):
		s.writeError(w, r, &ErrValidation{Field: "name", Message: err.Error()})
		return
	case errors.Is(err, archive.ErrObjectNotFound):
		s.writeError(w, r, &ErrNotAvailable{What: "archived analysis"})
		return
	case err != nil:
		s.writeError(w, r, err)
		return
	}

	writeAnalysisExport(w, data)
}

func writeAnalysisExport(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", analysis.ExportContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", analysis.ExportFilename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Printf("[analysis] failed to write download: %v", err)
	}
}
