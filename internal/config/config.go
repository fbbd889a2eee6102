package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/crossval/quorum/internal/domain"
	"github.com/joho/godotenv"
)

// Load reads the .env file specified by QUORUM_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("QUORUM_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// APIKey is the static key protecting the validation endpoints.
// Empty disables auth.
func APIKey() string {
	return os.Getenv("API_KEY")
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

func AnthropicAPIKey() string {
	return os.Getenv("ANTHROPIC_API_KEY")
}

func GeminiAPIKey() string {
	return os.Getenv("GEMINI_API_KEY")
}

func CerebrasAPIKey() string {
	return os.Getenv("CEREBRAS_API_KEY")
}

// ProviderAPIKey returns the API key for a provider kind.
func ProviderAPIKey(kind domain.ProviderKind) string {
	switch kind {
	case domain.KindAnthropic:
		return AnthropicAPIKey()
	case domain.KindGemini:
		return GeminiAPIKey()
	case domain.KindCerebras:
		return CerebrasAPIKey()
	case domain.KindMock:
		return ""
	default:
		return OpenAIAPIKey()
	}
}

// EmbeddingProvider returns the configured embedding provider.
// Empty disables semantic reuse of prior results.
// Valid values: openai, mock
func EmbeddingProvider() string {
	return os.Getenv("EMBEDDING_PROVIDER")
}

// EmbeddingAPIKey returns the API key for the configured embedding provider.
func EmbeddingAPIKey() string {
	switch EmbeddingProvider() {
	case "mock":
		return ""
	default:
		return OpenAIAPIKey()
	}
}

// ProvidersPath points to the JSON file of provider descriptors.
func ProvidersPath() string {
	p := os.Getenv("PROVIDERS_PATH")
	if p == "" {
		return "providers.json"
	}
	return p
}

// LoadProviders reads provider descriptors from the JSON file at path.
func LoadProviders(path string) ([]domain.ProviderDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read providers file: %w", err)
	}
	var descriptors []domain.ProviderDescriptor
	if err := json.Unmarshal(data, &descriptors); err != nil {
		return nil, fmt.Errorf("parse providers file: %w", err)
	}
	return descriptors, nil
}

// ConcurrencyLimit bounds in-flight provider queries per request.
// Defaults to 3 if not set.
func ConcurrencyLimit() int {
	n, err := strconv.Atoi(os.Getenv("CONCURRENCY_LIMIT"))
	if err != nil || n <= 0 {
		return 3
	}
	return n
}

// BudgetLimit is the cumulative cost ceiling across all requests.
// Defaults to 0 (unlimited) if not set.
func BudgetLimit() float64 {
	limit, err := strconv.ParseFloat(os.Getenv("BUDGET_LIMIT"), 64)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

// SimilarityThreshold gates semantic reuse of prior validations.
// Defaults to 0.95 if not set.
func SimilarityThreshold() float32 {
	t, err := strconv.ParseFloat(os.Getenv("SIMILARITY_THRESHOLD"), 32)
	if err != nil || t <= 0 || t > 1 {
		return 0.95
	}
	return float32(t)
}

func MigrationsPath() string {
	p := os.Getenv("MIGRATIONS_PATH")
	if p == "" {
		return "migrations"
	}
	return p
}

// RateLimitRPS returns requests per second limit for the HTTP surface.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}
