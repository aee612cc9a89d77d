package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// Prompt is the user's editable current draft. Version history lives in
// PromptVersion rows and is never implied by the draft's contents.
type Prompt struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	OwnerID        uuid.UUID       `json:"owner_id" db:"owner_id"`
	Title          string          `json:"title" db:"title"`
	Content        string          `json:"content" db:"content"`
	Tags           []string        `json:"tags" db:"tags"`
	ModelParams    json.RawMessage `json:"model_params" db:"model_params"`
	Status         string          `json:"status" db:"status"`
	ContentTokens  int             `json:"content_tokens" db:"content_tokens"`
	TotalTokens    int             `json:"total_tokens" db:"total_tokens"`
	TotalCostUSD   float64         `json:"total_cost_usd" db:"total_cost_usd"`
	TestsPassed    int             `json:"tests_passed" db:"tests_passed"`
	TestsFailed    int             `json:"tests_failed" db:"tests_failed"`
	SecurityPassed int             `json:"security_passed" db:"security_passed"`
	SecurityFailed int             `json:"security_failed" db:"security_failed"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// PromptVersion is an immutable snapshot of a prompt's content and model
// parameters. Rows are append-only; version numbers per prompt are 1..N
// with no gaps.
type PromptVersion struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	PromptID    uuid.UUID       `json:"prompt_id" db:"prompt_id"`
	Version     int             `json:"version" db:"version"`
	Content     string          `json:"content" db:"content"`
	ModelParams json.RawMessage `json:"model_params" db:"model_params"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}
