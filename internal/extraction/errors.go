package extraction

import "fmt"

// Reason classifies why an extraction failed.
type Reason string

const (
	// ReasonEmptyFile means the upload had no bytes
	ReasonEmptyFile Reason = "empty_file"
	// ReasonUnsupportedType means no partitioner handles the file extension
	ReasonUnsupportedType Reason = "unsupported_type"
	// ReasonCorruptDocument means the partitioner could not parse the document
	ReasonCorruptDocument Reason = "corrupt_document"
	// ReasonNoText means the document parsed but held no extractable text
	ReasonNoText Reason = "no_text"
	// ReasonIO means the temporary file could not be written
	ReasonIO Reason = "io"
)

// Error is returned by Extract. Message is safe to show to the uploader.
type Error struct {
	Reason   Reason
	Filename string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extract %s: %s: %v", e.Filename, e.Reason, e.Cause)
	}
	return fmt.Sprintf("extract %s: %s", e.Filename, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Message returns the user-facing explanation for the failure.
func (e *Error) Message() string {
	switch e.Reason {
	case ReasonEmptyFile:
		return "The uploaded file is empty. Please upload your resume again."
	case ReasonUnsupportedType:
		return "Unsupported file type. Please upload a PDF or DOCX file."
	case ReasonNoText:
		return "No text could be found in the uploaded file. Scanned documents are not supported."
	case ReasonIO:
		return "The upload could not be processed. Please try again."
	default:
		return "Failed to extract text from the document. Please ensure the file is not corrupted."
	}
}
