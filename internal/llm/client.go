package llm

import (
	"context"

	"github.com/jonathan/showcase-forge/internal/types"
)

// Request is a single call to the generative backend.
type Request struct {
	Stage     types.StageID
	RequestID string
	Prompt    string
	Profile   GenerationProfile
	// Image asks for inline image output instead of text.
	Image bool
}

// InlineData is binary content returned by the backend.
type InlineData struct {
	MIMEType string
	Data     []byte
}

// Response is what the backend returned for a Request.
type Response struct {
	Text             string
	Image            *InlineData
	PromptTokens     int
	CompletionTokens int
	Model            string
}

// Backend is an abstraction over generative providers. Any non-success
// response, blocked content or transport failure is returned as an error.
type Backend interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	// Close releases any resources held by the backend
	Close() error
}

// NewBackend creates a backend based on configuration
func NewBackend(ctx context.Context, config *Config, apiKey string) (Backend, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, config, apiKey)
	default:
		return NewGeminiClient(ctx, config, apiKey)
	}
}
