package store

import (
	"context"
	"errors"
	"time"

	"github.com/crossval/quorum/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ResponseCacheStore persists provider responses keyed by (request, provider).
type ResponseCacheStore struct {
	db *pgxpool.Pool
}

func NewResponseCacheStore(db *pgxpool.Pool) *ResponseCacheStore {
	return &ResponseCacheStore{db: db}
}

func (s *ResponseCacheStore) Get(ctx context.Context, requestID uuid.UUID, providerID string) (*domain.ProviderResponse, error) {
	r := &domain.ProviderResponse{}
	var latencyUS int64
	err := s.db.QueryRow(ctx,
		`SELECT request_id, provider_id, verdict, confidence, reasoning, evidence, concerns, latency_us, cost, created_at, error
		 FROM response_cache WHERE request_id = $1 AND provider_id = $2`,
		requestID, providerID,
	).Scan(&r.RequestID, &r.ProviderID, &r.Verdict, &r.Confidence, &r.Reasoning, &r.Evidence, &r.Concerns, &latencyUS, &r.Cost, &r.Timestamp, &r.Err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	r.Latency = time.Duration(latencyUS) * time.Microsecond
	return r, nil
}

func (s *ResponseCacheStore) Put(ctx context.Context, resp *domain.ProviderResponse) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO response_cache (request_id, provider_id, verdict, confidence, reasoning, evidence, concerns, latency_us, cost, created_at, error)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (request_id, provider_id) DO NOTHING`,
		resp.RequestID, resp.ProviderID, resp.Verdict, resp.Confidence, resp.Reasoning, resp.Evidence, resp.Concerns,
		resp.Latency.Microseconds(), resp.Cost, resp.Timestamp, resp.Err,
	)
	return err
}
