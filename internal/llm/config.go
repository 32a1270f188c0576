// Package llm provides centralized LLM configuration, the generative backend
// abstraction, cost metering and the Gemini implementation.
package llm

import "fmt"

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for simple tasks: short prompts, small structured outputs
	TierLite ModelTier = "lite"
	// TierStandard is for moderate reasoning: research notes, screen specs
	TierStandard ModelTier = "standard"
	// TierAdvanced is for complex reasoning: the product concept
	TierAdvanced ModelTier = "advanced"
	// TierImage is for image-capable generation: showcase and screen renders
	TierImage ModelTier = "image"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
)

// Config maps each model tier to a concrete model name
type Config struct {
	Provider Provider
	Models   map[ModelTier]string
}

// DefaultConfig returns the Gemini tier mapping
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the built-in Gemini models per tier
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
			TierImage:    "gemini-2.5-flash-image",
		},
	}
}

// GetModel resolves the model for a tier. Text tiers fall back to the
// standard model and then the lite one; the image tier never falls back
// because text models cannot render.
func (c *Config) GetModel(tier ModelTier) string {
	if model := c.Models[tier]; model != "" {
		return model
	}
	if tier == TierImage {
		return ""
	}
	for _, fallback := range []ModelTier{TierStandard, TierLite} {
		if model := c.Models[fallback]; model != "" {
			return model
		}
	}
	return ""
}

// WithModel returns a copy of the config with one tier pointed at model.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	out := &Config{
		Provider: c.Provider,
		Models:   make(map[ModelTier]string, len(c.Models)+1),
	}
	for k, v := range c.Models {
		out.Models[k] = v
	}
	out.Models[tier] = model
	return out
}

// WithModels applies per-tier overrides keyed by tier name, as found in
// configuration files.
func (c *Config) WithModels(overrides map[string]string) (*Config, error) {
	out := c
	for name, model := range overrides {
		tier, err := ParseModelTier(name)
		if err != nil {
			return nil, err
		}
		if model == "" {
			continue
		}
		out = out.WithModel(tier, model)
	}
	return out, nil
}

// ParseModelTier converts a tier name into a ModelTier.
func ParseModelTier(name string) (ModelTier, error) {
	switch tier := ModelTier(name); tier {
	case TierLite, TierStandard, TierAdvanced, TierImage:
		return tier, nil
	default:
		return "", &ConfigurationError{Message: fmt.Sprintf("unknown model tier %q", name)}
	}
}

// GenerationProfile carries the sampling settings for one stage.
type GenerationProfile struct {
	Tier             ModelTier `yaml:"tier" json:"tier"`
	Temperature      float32   `yaml:"temperature" json:"temperature"`
	TopP             float32   `yaml:"topP" json:"top_p,omitempty"`
	TopK             int32     `yaml:"topK" json:"top_k,omitempty"`
	MaxOutputTokens  int32     `yaml:"maxOutputTokens" json:"max_output_tokens,omitempty"`
	ResponseMIMEType string    `yaml:"responseMimeType" json:"response_mime_type,omitempty"`
}
