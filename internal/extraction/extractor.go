// Package extraction turns uploaded résumé documents into plain text.
package extraction

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jonathan/career-omni/internal/ingestion"
)

// Extractor writes each upload to a temporary file and hands the path to the
// partitioner registered for the file's extension.
type Extractor struct {
	partitioners map[string]Partitioner
	tempDir      string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithTempDir places temporary files in dir instead of os.TempDir().
func WithTempDir(dir string) Option {
	return func(e *Extractor) { e.tempDir = dir }
}

// WithPartitioner registers p for a file extension such as ".pdf".
func WithPartitioner(ext string, p Partitioner) Option {
	return func(e *Extractor) { e.partitioners[strings.ToLower(ext)] = p }
}

// NewExtractor returns an Extractor handling .pdf and .docx uploads.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		partitioners: map[string]Partitioner{
			".pdf":  PDFPartitioner{},
			".docx": DOCXPartitioner{},
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SupportedExtensions lists the accepted file extensions in sorted order.
func (e *Extractor) SupportedExtensions() []string {
	exts := make([]string, 0, len(e.partitioners))
	for ext := range e.partitioners {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extract returns the document text with elements joined by newlines.
// On failure it returns "" and an *Error. The temporary file is always removed.
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	partitioner, ok := e.partitioners[ext]
	if !ok {
		return "", &Error{Reason: ReasonUnsupportedType, Filename: filename}
	}
	if len(data) == 0 {
		return "", &Error{Reason: ReasonEmptyFile, Filename: filename}
	}

	path, err := e.writeTemp(ext, data)
	if err != nil {
		log.Printf("[extraction] temp file for %s: %v", filename, err)
		return "", &Error{Reason: ReasonIO, Filename: filename, Cause: err}
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("[extraction] failed to remove %s: %v", path, err)
		}
	}()

	elements, err := safePartition(ctx, partitioner, path)
	if err != nil {
		log.Printf("[extraction] partitioning %s failed: %v", filename, err)
		return "", &Error{Reason: ReasonCorruptDocument, Filename: filename, Cause: err}
	}

	text := ingestion.CleanText(strings.Join(elements, "\n"))
	if text == "" {
		return "", &Error{Reason: ReasonNoText, Filename: filename}
	}

	log.Printf("[extraction] %s: %d elements, %d chars", filename, len(elements), len(text))
	return text, nil
}

func (e *Extractor) writeTemp(ext string, data []byte) (string, error) {
	f, err := os.CreateTemp(e.tempDir, "careeromni-upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	path := f.Name()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	return path, nil
}

// safePartition converts parser panics on malformed input into errors.
func safePartition(ctx context.Context, p Partitioner, path string) (elements []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			elements = nil
			err = fmt.Errorf("parser panic: %v", r)
		}
	}()
	return p.Partition(ctx, path)
}
