package analysis

import "fmt"

// Reason classifies why an analysis request failed.
type Reason string

const (
	// ReasonEmptyInput means there was no résumé text to analyze
	ReasonEmptyInput Reason = "empty_input"
	// ReasonModelFailure means the model call returned an error
	ReasonModelFailure Reason = "model_failure"
	// ReasonEmptyResponse means the model replied with no text
	ReasonEmptyResponse Reason = "empty_response"
)

// Error is returned by Analyze.
type Error struct {
	Reason Reason
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("analysis failed: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("analysis failed: %s", e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Message returns the user-facing explanation for the failure.
func (e *Error) Message() string {
	switch e.Reason {
	case ReasonEmptyInput:
		return "Please upload a resume before requesting an analysis."
	case ReasonEmptyResponse:
		return "The analysis service returned an empty response. Please try again."
	default:
		return "Error analyzing resume. Please try again later."
	}
}
