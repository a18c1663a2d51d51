package server

import (
	"errors"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"unicode/utf8"

	"github.com/jonathan/career-omni/internal/session"
)

// multipartOverhead covers form boundaries and headers around the file part.
const multipartOverhead = 64 << 10

// UploadResponse describes the extracted résumé.
type UploadResponse struct {
	Filename   string `json:"filename"`
	Characters int    `json:"characters"`
	Text       string `json:"text"`
}

// handleUploadResume extracts text from a PDF or DOCX in the "file" form field
// and stores it on the session. Any earlier analysis is discarded.
func (s *Server) handleUploadResume(w http.ResponseWriter, r *http.Request) {
	state, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			s.errorResponse(w, http.StatusRequestEntityTooLarge, "The uploaded file is too large.")
			return
		}
		s.writeError(w, r, &ErrValidation{Field: "file", Message: "expected a multipart form upload"})
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, &ErrValidation{Field: "file", Message: "required"})
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > s.maxUploadBytes {
		s.errorResponse(w, http.StatusRequestEntityTooLarge, "The uploaded file is too large.")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	filename := filepath.Base(header.Filename)
	text, err := s.extractor.Extract(r.Context(), filename, data)
	if err != nil {
		log.Printf("[upload] %s: %v", filename, err)
		s.writeError(w, r, err)
		return
	}

	if _, err := session.Update(r.Context(), s.store, state.ID, func(st *session.State) {
		st.RecordUpload(filename, text, s.now())
	}); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, UploadResponse{
		Filename:   filename,
		Characters: utf8.RuneCountInString(text),
		Text:       text,
	})
}
