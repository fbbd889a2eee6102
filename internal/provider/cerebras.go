package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/crossval/quorum/internal/domain"
)

const (
	cerebrasAPIURL       = "https://api.cerebras.ai/v1/chat/completions"
	cerebrasDefaultModel = "llama-3.3-70b"
)

type CerebrasClient struct {
	apiKey     string
	httpClient *http.Client
}

func NewCerebrasClient(apiKey string) *CerebrasClient {
	return &CerebrasClient{
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

// Cerebras uses OpenAI-compatible request/response format
type cerebrasMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type cerebrasRequest struct {
	Model       string            `json:"model"`
	Messages    []cerebrasMessage `json:"messages"`
	Temperature float32           `json:"temperature"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
}

type cerebrasResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *CerebrasClient) complete(ctx context.Context, model, prompt string, maxTokens int, temp float32) (string, int, error) {
	body, err := json.Marshal(cerebrasRequest{
		Model:       model,
		Messages:    []cerebrasMessage{{Role: "user", Content: prompt}},
		Temperature: temp,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", 0, fmt.Errorf("marshal cerebras request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cerebrasAPIURL, bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("create cerebras request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("cerebras request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("read cerebras response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("cerebras API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result cerebrasResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", 0, fmt.Errorf("unmarshal cerebras response: %w", err)
	}

	if result.Error != nil {
		return "", 0, fmt.Errorf("cerebras API error: %s", result.Error.Message)
	}

	if len(result.Choices) == 0 {
		return "", 0, fmt.Errorf("cerebras API returned no choices")
	}

	return strings.TrimSpace(result.Choices[0].Message.Content), result.Usage.TotalTokens, nil
}

func (c *CerebrasClient) Invoke(ctx context.Context, desc domain.ProviderDescriptor, prompt string) (*domain.RawVerdict, error) {
	model := desc.Name
	if model == "" {
		model = cerebrasDefaultModel
	}

	answer, tokens, err := c.complete(ctx, model, prompt, desc.MaxTokens, desc.Temperature)
	if err != nil {
		return nil, fmt.Errorf("invoke %s: %w", desc.ID, err)
	}

	if tokens == 0 {
		tokens = estimateTokens(prompt, answer)
	}
	return parseVerdict(answer, tokens)
}
