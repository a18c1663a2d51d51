package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Source identifies where a job description came from.
type Source string

const (
	// SourceText is a description pasted into a request body
	SourceText Source = "text"
	// SourceFile is a description read from disk
	SourceFile Source = "file"
	// SourceURL is a description fetched from a job board
	SourceURL Source = "url"
)

// Metadata describes an ingested job description
type Metadata struct {
	Source    Source `json:"source"`
	Location  string `json:"location,omitempty"` // file path or URL
	Platform  string `json:"platform,omitempty"`
	Timestamp string `json:"timestamp"` // RFC3339
	Hash      string `json:"hash"`      // SHA256 hex digest of the cleaned text
	Rendered  bool   `json:"rendered,omitempty"`
}

// NewMetadata creates Metadata stamped with the current time and the content hash
func NewMetadata(content string, source Source) *Metadata {
	return &Metadata{
		Source:    source,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Hash:      computeHash(content),
	}
}

func computeHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}
