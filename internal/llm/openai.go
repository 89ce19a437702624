package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"faqbot/internal/domain"
)

// DefaultOpenAIModel is the chat model used when none is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIChat calls an OpenAI-compatible /chat/completions endpoint.
type OpenAIChat struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewOpenAIChat creates a chat client. An empty apiKey disables generation.
func NewOpenAIChat(baseURL, apiKey, model string, timeout time.Duration) (*OpenAIChat, error) {
	if apiKey == "" {
		return nil, &domain.ConfigurationError{Feature: "chat", Setting: "OpenAI API key"}
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &OpenAIChat{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// Model returns the configured model name.
func (c *OpenAIChat) Model() string { return c.model }

type openAIChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate returns the first choice's content, or "" when the service
// returned no content.
func (c *OpenAIChat) Generate(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(openAIChatRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &domain.TransportError{Service: "generation", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &domain.TransportError{Service: "generation", Status: resp.StatusCode, Err: fmt.Errorf("%s", respBody)}
	}

	var result openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &domain.TransportError{Service: "generation", Err: fmt.Errorf("decode chat response: %w", err)}
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == nil {
		return "", nil
	}
	return *result.Choices[0].Message.Content, nil
}
