package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"validoc/internal/advisor"
	"validoc/internal/config"
	"validoc/internal/port"
)

const apiURL = "https://api.groq.com/openai/v1/chat/completions"

// Advisor implements port.Advisor using the Groq chat completions API.
type Advisor struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewAdvisor creates a Groq-based advisor from a provider config.
func NewAdvisor(cfg *config.AdvisorProviderConfig) *Advisor {
	return newAdvisor(cfg, apiURL)
}

// NewAdvisorWithEndpoint creates an advisor pointing at a custom API endpoint (for testing).
func NewAdvisorWithEndpoint(cfg *config.AdvisorProviderConfig, endpoint string) *Advisor {
	return newAdvisor(cfg, endpoint)
}

func newAdvisor(cfg *config.AdvisorProviderConfig, endpoint string) *Advisor {
	model := cfg.DefaultModel
	if model == "" {
		model = "llama-3.3-70b-versatile"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Advisor{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (a *Advisor) Review(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: advisor.SystemMessage},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.1,
		MaxTokens:   2000,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling groq API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("groq API error (status %d): %s", resp.StatusCode, string(respBody))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := advisor.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return "", advisor.NewRateLimitError("groq", baseErr, retryAfter)
		}
		return "", baseErr
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("groq response contained no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func init() {
	advisor.RegisterProvider("groq", func(cfg *config.AdvisorProviderConfig) (port.Advisor, error) {
		return NewAdvisor(cfg), nil
	})
}
