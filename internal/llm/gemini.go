package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient implements Backend for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, &ConfigurationError{Message: "API key is required", Cause: ErrMissingCredentials}
	}
	if config == nil {
		config = DefaultConfig()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, &TransportError{Message: "failed to create Gemini client", Cause: err}
	}

	return &GeminiClient{
		client: client,
		config: config,
	}, nil
}

// Generate performs one GenerateContent call for the request's profile.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (*Response, error) {
	tier := req.Profile.Tier
	if req.Image {
		tier = TierImage
	}
	if tier == "" {
		tier = TierStandard
	}
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return nil, &ConfigurationError{Message: fmt.Sprintf("no model configured for tier %s", tier)}
	}

	model := c.client.GenerativeModel(modelName)
	applyProfile(model, req.Profile, req.Image)

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return nil, &ContentBlockedError{Reason: blockReason(blocked)}
		}
		return nil, &TransportError{Message: "failed to generate content", Cause: err}
	}

	out, err := convertResponse(resp, req.Image)
	if err != nil {
		return nil, err
	}
	out.Model = modelName
	return out, nil
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// applyProfile copies the stage's sampling settings onto the model
func applyProfile(model *genai.GenerativeModel, profile GenerationProfile, image bool) {
	model.SetTemperature(profile.Temperature)
	if profile.TopP > 0 {
		model.SetTopP(profile.TopP)
	}
	if profile.TopK > 0 {
		model.SetTopK(profile.TopK)
	}
	if profile.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(profile.MaxOutputTokens)
	}
	if !image && profile.ResponseMIMEType != "" {
		model.ResponseMIMEType = profile.ResponseMIMEType
	}
}

// convertResponse extracts text, inline image data and token usage
func convertResponse(resp *genai.GenerateContentResponse, wantImage bool) (*Response, error) {
	if resp == nil {
		return nil, &TransportError{Message: "empty response"}
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return nil, &ContentBlockedError{Reason: resp.PromptFeedback.BlockReason.String()}
	}
	if len(resp.Candidates) == 0 {
		return nil, &TransportError{Message: "no candidates in response"}
	}

	candidate := resp.Candidates[0]
	switch candidate.FinishReason {
	case genai.FinishReasonSafety, genai.FinishReasonRecitation:
		return nil, &ContentBlockedError{Reason: candidate.FinishReason.String()}
	}
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, &TransportError{Message: "no content in response"}
	}

	out := &Response{}
	var texts []string
	for _, part := range candidate.Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			texts = append(texts, string(p))
		case genai.Blob:
			if out.Image == nil {
				out.Image = &InlineData{MIMEType: p.MIMEType, Data: p.Data}
			}
		}
	}
	out.Text = strings.Join(texts, "")

	if resp.UsageMetadata != nil {
		out.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	if wantImage && out.Image == nil {
		return nil, &TransportError{Message: "no image data in response"}
	}
	if !wantImage && out.Text == "" {
		return nil, &TransportError{Message: "no text parts in response"}
	}
	return out, nil
}

// blockReason describes why the SDK reported blocked content
func blockReason(err *genai.BlockedError) string {
	if err.PromptFeedback != nil && err.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return err.PromptFeedback.BlockReason.String()
	}
	if err.Candidate != nil {
		return err.Candidate.FinishReason.String()
	}
	return err.Error()
}

var _ Backend = (*GeminiClient)(nil)
