// Package llm wraps the Gemini generative API behind a small client
// abstraction so the grading pipeline can substitute a fake in tests.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// pdfMIMEType is the media type attached to submission bytes.
const pdfMIMEType = "application/pdf"

// Client is the abstraction over the generative scoring service.
type Client interface {
	// GradeDocument submits document bytes plus the grading prompt and
	// returns the model's raw text reply.
	GradeDocument(ctx context.Context, document []byte, prompt string) (string, error)
	// Model returns the configured model name.
	Model() string
	// Close releases any resources held by the client.
	Close() error
}

// GeminiClient implements Client for Google Gemini.
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewClient creates a Gemini-backed client. The caller owns the client and
// injects it into the scheduler; there is no hidden process-wide singleton.
func NewClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config == nil {
		config = DefaultConfig()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{client: client, config: config}, nil
}

// GradeDocument sends the document and prompt in one generate call.
func (c *GeminiClient) GradeDocument(ctx context.Context, document []byte, prompt string) (string, error) {
	model := c.client.GenerativeModel(c.config.Model)
	model.SetTemperature(c.config.Temperature)

	resp, err := model.GenerateContent(ctx,
		genai.Blob{MIMEType: pdfMIMEType, Data: document},
		genai.Text(prompt),
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return extractTextFromResponse(resp)
}

// Model returns the configured model name.
func (c *GeminiClient) Model() string {
	return c.config.Model
}

// Close releases resources held by the client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// extractTextFromResponse pulls the reply text out of the response. Gemini
// replies carry text nested inside candidate content parts; a reply with no
// extractable text is an error the caller treats as a service failure.
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}
