package classifier

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Google implements Classifier for Gemini models.
type Google struct {
	client *genai.Client
	model  string
}

// NewGoogle creates a Gemini-backed classifier.
func NewGoogle(apiKey, model string) (*Google, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google API key is required")
	}
	if model == "" {
		model = "gemini-2.0-pro"
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create google client: %w", err)
	}
	return &Google{client: client, model: model}, nil
}

// Name returns the backend identifier.
func (c *Google) Name() string {
	return "google"
}

// Complete sends the request to Gemini and returns the response text.
func (c *Google) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(flattenPrompt(req)), nil)
	if err != nil {
		return "", fmt.Errorf("google API error: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("google returned no candidates")
	}

	var content string
	if resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" {
				content += part.Text
			}
		}
	}
	return content, nil
}
