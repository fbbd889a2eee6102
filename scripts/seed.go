// Seed script for bootstrapping a Quorum deployment.
// Applies the schema migration and writes a starter providers.json.
// Run with: go run ./scripts/seed.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

type seedProvider struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Kind             string  `json:"kind"`
	Family           string  `json:"family"`
	CostPerKiloToken float64 `json:"cost_per_kilo_token"`
	MeanLatency      int64   `json:"mean_latency"`
	Reliability      float64 `json:"reliability"`
	RateRPS          float64 `json:"rate_rps,omitempty"`
	RateBurst        int     `json:"rate_burst,omitempty"`
	MaxTokens        int     `json:"max_tokens,omitempty"`
}

func main() {
	// Load environment
	envFile := os.Getenv("QUORUM_ENV")
	if envFile == "" {
		envFile = ".env"
	}
	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		applyMigration(dbURL)
	} else {
		fmt.Println("DATABASE_URL not set, skipping schema migration")
	}

	writeProvidersFile()

	fmt.Println("\n=== Seed Complete ===")
	fmt.Println("\nTo validate a hypothesis:")
	fmt.Println(`curl -X POST http://localhost:8080/v1/validate -d '{"hypothesis":"water boils at 100C at sea level","max_cost":0.5}'`)
}

func applyMigration(dbURL string) {
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	fmt.Println("Connected to database")

	schema, err := os.ReadFile("migrations/0001_init.sql")
	if err != nil {
		log.Fatalf("Failed to read migration: %v", err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		log.Fatalf("Failed to apply migration: %v", err)
	}
	fmt.Println("Applied schema migration")
}

func writeProvidersFile() {
	path := os.Getenv("PROVIDERS_PATH")
	if path == "" {
		path = "providers.json"
	}
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Providers file %s already exists, leaving it alone\n", path)
		return
	}

	// Latencies are nanoseconds, matching time.Duration JSON encoding.
	providers := []seedProvider{
		{ID: "openai-mini", Name: "gpt-4o-mini", Kind: "openai", Family: "gpt",
			CostPerKiloToken: 0.00015, MeanLatency: 800_000_000, Reliability: 0.95,
			RateRPS: 5, RateBurst: 10, MaxTokens: 1000},
		{ID: "anthropic-haiku", Name: "claude-3-5-haiku-20241022", Kind: "anthropic", Family: "claude",
			CostPerKiloToken: 0.0008, MeanLatency: 900_000_000, Reliability: 0.94,
			RateRPS: 5, RateBurst: 10, MaxTokens: 1000},
		{ID: "gemini-flash", Name: "gemini-2.0-flash", Kind: "gemini", Family: "gemini",
			CostPerKiloToken: 0.0001, MeanLatency: 700_000_000, Reliability: 0.92,
			RateRPS: 10, RateBurst: 20, MaxTokens: 1000},
		{ID: "cerebras-llama", Name: "llama-3.3-70b", Kind: "cerebras", Family: "llama",
			CostPerKiloToken: 0.0006, MeanLatency: 300_000_000, Reliability: 0.9,
			RateRPS: 10, RateBurst: 20, MaxTokens: 1000},
	}

	data, err := json.MarshalIndent(providers, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal providers: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Fatalf("Failed to write providers file: %v", err)
	}
	fmt.Printf("Wrote starter providers file to %s\n", path)
}
