package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// NewGeminiClient opens one client shared by every Gemini model provider.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

// GeminiProvider generates with one Gemini model.
type GeminiProvider struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiProvider wraps model on client.
func NewGeminiProvider(client *genai.Client, model string) *GeminiProvider {
	return &GeminiProvider{client: client, model: model, temperature: 0.8}
}

func (p *GeminiProvider) Name() string {
	return "gemini/" + p.model
}

func (p *GeminiProvider) Generate(ctx context.Context, system, prompt string) (string, error) {
	model := p.client.GenerativeModel(p.model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(p.temperature)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		if isGeminiRateLimit(err) {
			return "", fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("%w: no response from Gemini", ErrMalformedOutput)
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return strings.TrimSpace(sb.String())
}

// isGeminiRateLimit recognizes quota errors both as typed API errors and by
// their message, since the client does not always surface the status code.
func isGeminiRateLimit(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "resource exhausted") ||
		strings.Contains(msg, "quota")
}
