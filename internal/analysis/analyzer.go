// Package analysis requests a four-section résumé critique from the LLM and
// splits the reply into its sections.
package analysis

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jonathan/career-omni/internal/llm"
	"github.com/jonathan/career-omni/internal/prompts"
)

// Result is one completed analysis.
type Result struct {
	Text      string
	Sections  *Sections
	CreatedAt time.Time
}

// Analyzer sends résumé text to the model with the critique prompt.
type Analyzer struct {
	client   llm.Client
	tier     llm.ModelTier
	timeout  time.Duration
	headings []Heading
	now      func() time.Time
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithTimeout bounds each model call. Zero disables the extra bound.
func WithTimeout(d time.Duration) Option {
	return func(a *Analyzer) { a.timeout = d }
}

// WithTier selects the model tier used for analysis.
func WithTier(tier llm.ModelTier) Option {
	return func(a *Analyzer) { a.tier = tier }
}

// WithClock overrides the time source used to stamp results.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// NewAnalyzer creates an Analyzer that uses client for model calls.
func NewAnalyzer(client llm.Client, opts ...Option) *Analyzer {
	a := &Analyzer{
		client:   client,
		tier:     llm.TierStandard,
		timeout:  llm.DefaultTimeout,
		headings: DefaultHeadings,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BuildPrompt embeds résumé text into the critique prompt.
func BuildPrompt(resumeText string) (string, error) {
	return prompts.Render(prompts.ResumeFile, prompts.KeyAnalyzeResume, map[string]string{
		"ResumeText": resumeText,
	})
}

// Analyze requests a critique of resumeText. It makes one model call and does
// not retry.
func (a *Analyzer) Analyze(ctx context.Context, resumeText string) (*Result, error) {
	if strings.TrimSpace(resumeText) == "" {
		return nil, &Error{Reason: ReasonEmptyInput}
	}

	prompt, err := BuildPrompt(resumeText)
	if err != nil {
		return nil, fmt.Errorf("failed to build analysis prompt: %w", err)
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := a.client.GenerateContent(ctx, prompt, a.tier)
	if err != nil {
		log.Printf("[analysis] model call failed after %v: %v", time.Since(start), err)
		return nil, &Error{Reason: ReasonModelFailure, Cause: err}
	}

	text = strings.TrimSpace(llm.StripCodeFence(text))
	if text == "" {
		log.Printf("[analysis] model returned an empty response")
		return nil, &Error{Reason: ReasonEmptyResponse}
	}

	sections := Split(text, a.headings)
	if missing := sections.Missing(); len(missing) > 0 {
		log.Printf("[analysis] response is missing sections: %v", missing)
	}
	log.Printf("[analysis] completed in %v (%d chars)", time.Since(start), len(text))

	return &Result{
		Text:      text,
		Sections:  sections,
		CreatedAt: a.now(),
	}, nil
}
