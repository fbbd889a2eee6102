package provider

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/crossval/quorum/internal/domain"
)

// NewInvoker creates a provider client for the given kind.
// Returns an error if the kind is unknown or the API key is empty (except for mock).
func NewInvoker(kind domain.ProviderKind, apiKey string) (domain.Invoker, error) {
	switch kind {
	case domain.KindOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for OpenAI provider")
		}
		return NewOpenAIClient(apiKey), nil

	case domain.KindAnthropic:
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for Anthropic provider")
		}
		return NewAnthropicClient(apiKey), nil

	case domain.KindGemini:
		if apiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		return NewGeminiClient(apiKey), nil

	case domain.KindCerebras:
		if apiKey == "" {
			return nil, fmt.Errorf("CEREBRAS_API_KEY is required for Cerebras provider")
		}
		return NewCerebrasClient(apiKey), nil

	case domain.KindMock:
		return NewMockInvoker(), nil

	default:
		return nil, fmt.Errorf("unknown provider kind: %s (valid options: openai, anthropic, gemini, cerebras, mock)", kind)
	}
}

// ValidationPrompt renders the validation prompt for a request.
func ValidationPrompt(req *domain.ValidationRequest) string {
	domainTag := req.Domain
	if domainTag == "" {
		domainTag = "general"
	}
	return fmt.Sprintf(validationPrompt, domainTag, req.Hypothesis, renderContext(req.Context))
}

func renderContext(ctx map[string]any) string {
	if len(ctx) == 0 {
		return "(none)"
	}
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("- %s: %v\n", k, ctx[k]))
	}
	return sb.String()
}

// parseVerdict decodes the model's JSON answer, tolerating markdown fences.
func parseVerdict(raw string, tokensUsed int) (*domain.RawVerdict, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var v domain.RawVerdict
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("parse verdict: %w (raw: %s)", err, raw)
	}

	if v.Confidence < 0 {
		v.Confidence = 0
	}
	if v.Confidence > 1 {
		v.Confidence = 1
	}
	v.TokensUsed = tokensUsed
	return &v, nil
}

// estimateTokens approximates token usage when the API does not report it.
func estimateTokens(prompt, answer string) int {
	return (len(prompt) + len(answer)) / 4
}
