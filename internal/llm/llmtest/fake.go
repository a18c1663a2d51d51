// Package llmtest provides an in-memory llm.Client for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/jonathan/career-omni/internal/llm"
)

// Call records one GenerateContent invocation.
type Call struct {
	Prompt string
	Tier   llm.ModelTier
}

// Fake returns a canned response or error and records every call.
type Fake struct {
	Response string
	Err      error
	// Respond, when set, takes precedence over Response and Err.
	Respond func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)

	mu     sync.Mutex
	calls  []Call
	closed bool
}

var _ llm.Client = (*Fake)(nil)

// GenerateContent implements llm.Client.
func (f *Fake) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Prompt: prompt, Tier: tier})
	f.mu.Unlock()

	if f.Respond != nil {
		return f.Respond(ctx, prompt, tier)
	}
	if f.Err != nil {
		return "", f.Err
	}
	return f.Response, nil
}

// Close implements llm.Client.
func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Calls returns a copy of the recorded calls.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Closed reports whether Close was called.
func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
