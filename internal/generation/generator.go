// Package generation drafts a new résumé for a job description.
package generation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jonathan/career-omni/internal/ingestion"
	"github.com/jonathan/career-omni/internal/llm"
	"github.com/jonathan/career-omni/internal/prompts"
)

// ErrEmptyJobDescription is a warning: nothing was generated and no model call was made.
var ErrEmptyJobDescription = errors.New("please enter a job description")

// Error wraps a failed job posting fetch or model call.
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("generation failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("generation failed: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Request describes one generation. JobURL is used only when JobDescription is blank.
type Request struct {
	JobDescription string
	JobURL         string
	// ResumeText is the candidate's current résumé, if one was uploaded
	ResumeText string
}

// Result is a generated résumé and the job description it was written for.
type Result struct {
	Text           string
	JobDescription string
	// Source is set when the job description was fetched from JobURL
	Source *ingestion.Metadata
}

// IngestFunc fetches a job posting and returns its cleaned text.
type IngestFunc func(ctx context.Context, url string, opts ingestion.URLOptions) (string, *ingestion.Metadata, error)

// Generator calls the model with the generation prompt.
type Generator struct {
	client  llm.Client
	tier    llm.ModelTier
	timeout time.Duration
	urlOpts ingestion.URLOptions
	ingest  IngestFunc
}

// Option configures a Generator.
type Option func(*Generator)

// WithTimeout bounds each model call. Zero disables the extra bound.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) { g.timeout = d }
}

// WithURLOptions sets how job posting URLs are fetched.
func WithURLOptions(opts ingestion.URLOptions) Option {
	return func(g *Generator) { g.urlOpts = opts }
}

// WithIngestFunc replaces the job posting fetcher.
func WithIngestFunc(fn IngestFunc) Option {
	return func(g *Generator) { g.ingest = fn }
}

// NewGenerator creates a Generator that uses client for model calls.
func NewGenerator(client llm.Client, opts ...Option) *Generator {
	g := &Generator{
		client:  client,
		tier:    llm.TierAdvanced,
		timeout: llm.DefaultTimeout,
		ingest:  ingestion.IngestFromURL,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// BuildPrompt fills the generation prompt. The candidate background block is
// included only when résumé text is present.
func BuildPrompt(jobDescription, resumeText string) (string, error) {
	background := ""
	if strings.TrimSpace(resumeText) != "" {
		var err error
		background, err = prompts.Render(prompts.ResumeFile, prompts.KeyCandidateBlock, map[string]string{
			"ResumeText": resumeText,
		})
		if err != nil {
			return "", err
		}
	}
	return prompts.Render(prompts.ResumeFile, prompts.KeyGenerateResume, map[string]string{
		"JobDescription":      jobDescription,
		"CandidateBackground": background,
	})
}

// Generate drafts a résumé. A blank job description (and no URL) returns
// ErrEmptyJobDescription without calling the model.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	jobDescription := strings.TrimSpace(req.JobDescription)
	var source *ingestion.Metadata

	if jobDescription == "" && strings.TrimSpace(req.JobURL) != "" {
		text, meta, err := g.ingest(ctx, strings.TrimSpace(req.JobURL), g.urlOpts)
		if err != nil {
			log.Printf("[generation] failed to fetch job posting %s: %v", req.JobURL, err)
			return nil, &Error{Message: "failed to fetch job posting", Cause: err}
		}
		jobDescription = strings.TrimSpace(text)
		source = meta
	}
	if jobDescription == "" {
		return nil, ErrEmptyJobDescription
	}

	prompt, err := BuildPrompt(jobDescription, req.ResumeText)
	if err != nil {
		return nil, fmt.Errorf("failed to build generation prompt: %w", err)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := g.client.GenerateContent(ctx, prompt, g.tier)
	if err != nil {
		log.Printf("[generation] model call failed after %v: %v", time.Since(start), err)
		return nil, &Error{Message: "model call failed", Cause: err}
	}

	text = llm.StripCodeFence(text)
	if text == "" {
		return nil, &Error{Message: "model returned an empty resume"}
	}
	log.Printf("[generation] completed in %v (%d chars)", time.Since(start), len(text))

	return &Result{
		Text:           text,
		JobDescription: jobDescription,
		Source:         source,
	}, nil
}
