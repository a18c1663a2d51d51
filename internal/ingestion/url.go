package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jonathan/career-omni/internal/fetch"
)

var (
	// ErrHTTPRequestFailed is returned when the posting page cannot be retrieved
	ErrHTTPRequestFailed = errors.New("HTTP request failed")
	// ErrContentExtractionFailed is returned when no text can be pulled from the page
	ErrContentExtractionFailed = errors.New("content extraction failed")
)

// URLOptions controls how a job posting URL is ingested.
type URLOptions struct {
	// UseBrowser enables a headless Chrome re-render when the HTTP fetch yields too little text
	UseBrowser bool
	Verbose    bool
	Fetch      *fetch.Options
	// render is swapped in tests
	render func(ctx context.Context, url string) (string, error)
}

// IngestFromURL fetches a job posting, extracts its main text with platform-specific
// selectors, and returns the cleaned text with metadata.
func IngestFromURL(ctx context.Context, urlStr string, opts URLOptions) (string, *Metadata, error) {
	platform := fetch.DetectPlatform(urlStr)
	selectors := fetch.SelectorsFor(platform)
	if opts.Verbose {
		log.Printf("[VERBOSE] URL: %s (platform %s)", urlStr, platform)
	}

	result, err := fetch.URL(ctx, urlStr, opts.Fetch)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrHTTPRequestFailed, err)
	}

	text, err := fetch.ExtractMainText(result.HTML, selectors)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrContentExtractionFailed, err)
	}
	if opts.Verbose {
		log.Printf("[VERBOSE] Extracted text: %d chars", len(text))
	}

	rendered := false
	if opts.UseBrowser && fetch.ShouldUseBrowser(text) {
		render := opts.render
		if render == nil {
			render = func(ctx context.Context, url string) (string, error) {
				return fetch.RenderWithBrowser(ctx, url, fetch.BrowserTimeout)
			}
		}
		html, renderErr := render(ctx, urlStr)
		if renderErr != nil {
			// keep the HTTP content
			log.Printf("[ingestion] browser fallback failed for %s: %v", urlStr, renderErr)
		} else if browserText, extractErr := fetch.ExtractMainText(html, selectors); extractErr == nil {
			text = browserText
			rendered = true
		}
	}

	cleaned := CleanText(text)
	if cleaned == "" {
		return "", nil, fmt.Errorf("%w: page has no readable text", ErrContentExtractionFailed)
	}

	metadata := NewMetadata(cleaned, SourceURL)
	metadata.Location = urlStr
	metadata.Platform = string(platform)
	metadata.Rendered = rendered
	return cleaned, metadata, nil
}
