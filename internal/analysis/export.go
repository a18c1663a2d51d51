package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonathan/career-omni/internal/schemas"
)

const (
	// ExportFilename is the download name of the analysis export.
	ExportFilename = "resume_analysis.json"
	// ExportContentType is served with the export.
	ExportContentType = "application/json"
	// TimestampLayout formats the export timestamp in local time.
	TimestampLayout = "2006-01-02 15:04:05.000000"
)

// ExportDocument is the JSON shape of resume_analysis.json.
type ExportDocument struct {
	ResumeAnalysis string `json:"resume_analysis"`
	Timestamp      string `json:"timestamp"`
}

// Export renders the analysis text and timestamp as indented JSON and checks
// the result against the export schema.
func Export(text string, now time.Time) ([]byte, error) {
	doc := ExportDocument{
		ResumeAnalysis: text,
		Timestamp:      now.Format(TimestampLayout),
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode analysis export: %w", err)
	}
	data := bytes.TrimRight(buf.Bytes(), "\n")

	if err := schemas.Validate(schemas.ResumeAnalysis, data); err != nil {
		return nil, fmt.Errorf("analysis export is invalid: %w", err)
	}
	return data, nil
}
