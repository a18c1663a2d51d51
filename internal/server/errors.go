package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/career-omni/internal/analysis"
	"github.com/jonathan/career-omni/internal/extraction"
	"github.com/jonathan/career-omni/internal/generation"
	"github.com/jonathan/career-omni/internal/session"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrNotAvailable indicates the session has nothing to return yet
type ErrNotAvailable struct {
	What string
}

func (e *ErrNotAvailable) Error() string {
	return fmt.Sprintf("no %s available for this session", e.What)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		maxBytes      *http.MaxBytesError
		validation    *ErrValidation
		notAvailable  *ErrNotAvailable
		extractionErr *extraction.Error
		analysisErr   *analysis.Error
		generationErr *generation.Error
	)

	switch {
	case errors.Is(err, generation.ErrEmptyJobDescription):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrNotFound), errors.As(err, &notAvailable):
		return http.StatusNotFound
	case errors.Is(err, session.ErrStale):
		return http.StatusConflict
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &extractionErr):
		switch extractionErr.Reason {
		case extraction.ReasonUnsupportedType:
			return http.StatusUnsupportedMediaType
		case extraction.ReasonIO:
			return http.StatusInternalServerError
		default:
			return http.StatusUnprocessableEntity
		}
	case errors.As(err, &analysisErr):
		if analysisErr.Reason == analysis.ReasonEmptyInput {
			return http.StatusBadRequest
		}
		return http.StatusBadGateway
	case errors.As(err, &generationErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// userMessage returns the text shown to the client for err.
func userMessage(err error) string {
	var messager interface{ Message() string }
	if errors.As(err, &messager) {
		return messager.Message()
	}

	var generationErr *generation.Error
	switch {
	case errors.Is(err, generation.ErrEmptyJobDescription):
		return "Please enter a job description."
	case errors.Is(err, session.ErrNotFound):
		return "Session not found or expired. Please start a new session."
	case errors.Is(err, session.ErrStale):
		return "Your resume changed while this request was running. Please try again."
	case errors.As(err, &generationErr):
		return "Error generating resume. Please try again later."
	}

	if HTTPStatus(err) == http.StatusInternalServerError {
		return "Internal server error"
	}
	return err.Error()
}
