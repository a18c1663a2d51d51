// Package llm provides the model configuration and client abstraction used for
// résumé analysis and résumé generation.
package llm

import "time"

// ModelTier represents the capability level of a model.
type ModelTier string

const (
	// TierLite is for short, cheap tasks such as cleaning fetched job postings
	TierLite ModelTier = "lite"
	// TierStandard is for résumé critique
	TierStandard ModelTier = "standard"
	// TierAdvanced is for long-form résumé generation
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// ProviderGemini is the Google Gemini provider, currently the only one wired.
const ProviderGemini Provider = "gemini"

// DefaultTemperature matches the sampling temperature the critique prompts were tuned for.
const DefaultTemperature float32 = 0.7

// DefaultTimeout bounds a single model call.
const DefaultTimeout = 120 * time.Second

// Config holds the model configuration for the application
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	Temperature float32
	Timeout     time.Duration
}

// DefaultConfig returns the default Gemini configuration
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature: DefaultTemperature,
		Timeout:     DefaultTimeout,
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a copy of the Config with a specific model for a tier.
// An empty model name leaves the tier unchanged.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	next := &Config{
		Provider:    c.Provider,
		Models:      make(map[ModelTier]string, len(c.Models)+1),
		Temperature: c.Temperature,
		Timeout:     c.Timeout,
	}
	for k, v := range c.Models {
		next.Models[k] = v
	}
	if model != "" {
		next.Models[tier] = model
	}
	return next
}
