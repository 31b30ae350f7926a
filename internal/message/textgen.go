// internal/message/textgen.go
package message

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultGenTimeout = 10 * time.Second

// TextGenerator is the external text-generation service. Callers must treat
// it as best-effort: any failure falls back to the local template path.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenClient talks to an OpenAI-compatible chat completion endpoint.
type GenClient struct {
	APIKey  string
	Model   string
	BaseURL string

	HTTPClient *http.Client
}

func NewGenClient(apiKey, model, baseURL string) *GenClient {
	if model == "" {
		model = "gpt-4o-mini"
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	return &GenClient{
		APIKey:     apiKey,
		Model:      model,
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: defaultGenTimeout},
	}
}

type genRequest struct {
	Model    string       `json:"model"`
	Messages []genMessage `json:"messages"`
}

type genMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type genResponse struct {
	Choices []struct {
		Message genMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *GenClient) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(genRequest{
		Model:    c.Model,
		Messages: []genMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed genResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("malformed generation response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("generation service error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("generation service returned no text")
	}
	return parsed.Choices[0].Message.Content, nil
}

var _ TextGenerator = (*GenClient)(nil)
