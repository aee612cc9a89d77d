// Package audit records mutating operations and LLM usage. Failures
// are logged, never propagated; an audit miss must not fail a request.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/promptforge/promptforge/internal/auth"
	"github.com/promptforge/promptforge/internal/models"
)

type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

type Entry struct {
	Action       string
	ResourceType string
	ResourceID   *uuid.UUID
	Details      map[string]interface{}
}

// Record writes one audit row attributed to the request's user.
func (s *Service) Record(ctx context.Context, entry Entry) {
	var userID *uuid.UUID
	if u := auth.UserFromContext(ctx); u != nil {
		userID = &u.ID
	}

	details, _ := json.Marshal(entry.Details)

	_, err := s.db.Exec(ctx,
		`INSERT INTO audit_logs (user_id, action, resource_type, resource_id, details)
		 VALUES ($1, $2, $3, $4, $5)`,
		userID, entry.Action, entry.ResourceType, entry.ResourceID, details,
	)
	if err != nil {
		slog.Error("audit write failed", "action", entry.Action, "error", err)
	}
}

// RecordUsage persists a single LLM call for cost accounting.
func (s *Service) RecordUsage(ctx context.Context, rec models.LLMUsageLog) error {
	var userID *uuid.UUID
	if u := auth.UserFromContext(ctx); u != nil {
		userID = &u.ID
	}

	metadata, _ := json.Marshal(rec.Metadata)

	_, err := s.db.Exec(ctx,
		`INSERT INTO llm_usage_logs (user_id, prompt_id, provider, model, input_tokens, output_tokens, total_tokens, cost_usd, latency_ms, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		userID, rec.PromptID, rec.Provider, rec.Model, rec.InputTokens, rec.OutputTokens,
		rec.TotalTokens, rec.CostUSD, rec.LatencyMs, metadata,
	)
	if err != nil {
		return fmt.Errorf("insert usage log: %w", err)
	}
	return nil
}
