package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	UserID       *uuid.UUID      `json:"user_id,omitempty" db:"user_id"`
	Action       string          `json:"action" db:"action"`
	ResourceType string          `json:"resource_type" db:"resource_type"`
	ResourceID   *uuid.UUID      `json:"resource_id,omitempty" db:"resource_id"`
	Details      json.RawMessage `json:"details,omitempty" db:"details"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

type LLMUsageLog struct {
	ID           uuid.UUID              `json:"id" db:"id"`
	UserID       *uuid.UUID             `json:"user_id,omitempty" db:"user_id"`
	PromptID     *uuid.UUID             `json:"prompt_id,omitempty" db:"prompt_id"`
	Provider     string                 `json:"provider" db:"provider"`
	Model        string                 `json:"model" db:"model"`
	InputTokens  int                    `json:"input_tokens" db:"input_tokens"`
	OutputTokens int                    `json:"output_tokens" db:"output_tokens"`
	TotalTokens  int                    `json:"total_tokens" db:"total_tokens"`
	CostUSD      float64                `json:"cost_usd" db:"cost_usd"`
	LatencyMs    int64                  `json:"latency_ms" db:"latency_ms"`
	Metadata     map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	CreatedAt    time.Time              `json:"created_at" db:"created_at"`
}
