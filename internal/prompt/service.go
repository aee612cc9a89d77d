// Package prompt owns the mutable draft record: creation, partial
// updates, owner-scoped reads and cascade deletion. Version history is
// the version package's concern.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/promptforge/promptforge/internal/apperr"
	"github.com/promptforge/promptforge/internal/canonicaljson"
	"github.com/promptforge/promptforge/internal/models"
)

const promptColumns = `id, owner_id, title, content, tags, model_params, status,
	content_tokens, total_tokens, total_cost_usd, tests_passed, tests_failed,
	security_passed, security_failed, created_at, updated_at`

type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

// DefaultModelConfig is applied to drafts created without explicit
// model parameters.
func DefaultModelConfig() models.ModelConfig {
	return models.ModelConfig{
		Provider: models.ProviderOpenAI,
		Name:     "gpt-4o",
		Parameters: models.ModelParameters{
			Temperature: 0.7,
			MaxTokens:   2048,
			TopP:        1,
		},
	}
}

type CreateRequest struct {
	Title       string              `json:"title"`
	Tags        []string            `json:"tags"`
	ModelParams *models.ModelConfig `json:"model_params"`
}

func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req CreateRequest) (*models.Prompt, error) {
	cfg := DefaultModelConfig()
	if req.ModelParams != nil {
		cfg = *req.ModelParams
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfgJSON, err := canonicaljson.Marshal(cfg)
	if err != nil {
		return nil, apperr.Store("serialize model params", err)
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	row := s.db.QueryRow(ctx,
		`INSERT INTO prompts (owner_id, title, content, tags, model_params, status)
		 VALUES ($1, $2, '', $3, $4, $5)
		 RETURNING `+promptColumns,
		ownerID, req.Title, tags, cfgJSON, models.StatusDraft,
	)
	p, err := scanPrompt(row)
	if err != nil {
		return nil, apperr.Store("insert prompt", err)
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id, ownerID uuid.UUID) (*models.Prompt, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+promptColumns+` FROM prompts WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	p, err := scanPrompt(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("prompt %s not found", id)
	}
	if err != nil {
		return nil, apperr.Store("get prompt", err)
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.Prompt, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+promptColumns+` FROM prompts
		 WHERE owner_id = $1 ORDER BY updated_at DESC LIMIT $2 OFFSET $3`,
		ownerID, limit, offset,
	)
	if err != nil {
		return nil, apperr.Store("list prompts", err)
	}
	defer rows.Close()

	prompts := []models.Prompt{}
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, apperr.Store("scan prompt", err)
		}
		prompts = append(prompts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("iterate prompts", err)
	}
	return prompts, nil
}

// Patch applies only the fields that were present in the request body.
// Pointer fields keep "set to empty" distinct from "not sent": an
// explicit empty title clears the title instead of being dropped.
type Patch struct {
	Title       *string             `json:"title"`
	Content     *string             `json:"content"`
	ModelParams *models.ModelConfig `json:"model_params"`
	Tags        *[]string           `json:"tags"`
	Status      *string             `json:"status"`
}

func (p Patch) validate() error {
	if p.ModelParams != nil {
		if err := p.ModelParams.Validate(); err != nil {
			return err
		}
	}
	if p.Status != nil {
		switch *p.Status {
		case models.StatusDraft, models.StatusPublished, models.StatusArchived:
		default:
			return apperr.Validation("invalid status %q", *p.Status)
		}
	}
	return nil
}

// Update mutates the draft in place. Ownership failures surface as
// NotFound so callers cannot probe for other users' prompt IDs.
func (s *Service) Update(ctx context.Context, id, ownerID uuid.UUID, patch Patch) (*models.Prompt, error) {
	if err := patch.validate(); err != nil {
		return nil, err
	}

	sets := []string{"updated_at = now()"}
	args := []interface{}{}
	argIdx := 1

	addSet := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, argIdx))
		args = append(args, val)
		argIdx++
	}

	if patch.Title != nil {
		addSet("title", *patch.Title)
	}
	if patch.Content != nil {
		addSet("content", *patch.Content)
	}
	if patch.ModelParams != nil {
		cfgJSON, err := canonicaljson.Marshal(*patch.ModelParams)
		if err != nil {
			return nil, apperr.Store("serialize model params", err)
		}
		addSet("model_params", cfgJSON)
	}
	if patch.Tags != nil {
		addSet("tags", *patch.Tags)
	}
	if patch.Status != nil {
		addSet("status", *patch.Status)
	}

	query := fmt.Sprintf(
		`UPDATE prompts SET %s WHERE id = $%d AND owner_id = $%d RETURNING %s`,
		strings.Join(sets, ", "), argIdx, argIdx+1, promptColumns,
	)
	args = append(args, id, ownerID)

	row := s.db.QueryRow(ctx, query, args...)
	updated, err := scanPrompt(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("prompt %s not found", id)
	}
	if err != nil {
		return nil, apperr.Store("update prompt", err)
	}
	return updated, nil
}

// Delete removes the prompt and all of its versions in one transaction,
// so no orphaned version rows can survive a partial failure.
func (s *Service) Delete(ctx context.Context, id, ownerID uuid.UUID) (*models.Prompt, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, apperr.Store("begin tx", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`SELECT `+promptColumns+` FROM prompts WHERE id = $1 AND owner_id = $2 FOR UPDATE`,
		id, ownerID,
	)
	p, err := scanPrompt(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("prompt %s not found", id)
	}
	if err != nil {
		return nil, apperr.Store("get prompt", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM prompt_versions WHERE prompt_id = $1`, id); err != nil {
		return nil, apperr.Store("delete versions", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM prompts WHERE id = $1`, id); err != nil {
		return nil, apperr.Store("delete prompt", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.Store("commit", err)
	}
	return p, nil
}

// AddUsage folds a run's token/cost usage into the prompt's aggregate
// counters.
func (s *Service) AddUsage(ctx context.Context, id, ownerID uuid.UUID, tokens int, costUSD float64) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE prompts
		 SET total_tokens = total_tokens + $1, total_cost_usd = total_cost_usd + $2
		 WHERE id = $3 AND owner_id = $4`,
		tokens, costUSD, id, ownerID,
	)
	if err != nil {
		return apperr.Store("add usage", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("prompt %s not found", id)
	}
	return nil
}

func scanPrompt(row pgx.Row) (*models.Prompt, error) {
	var p models.Prompt
	err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Content, &p.Tags, &p.ModelParams, &p.Status,
		&p.ContentTokens, &p.TotalTokens, &p.TotalCostUSD, &p.TestsPassed, &p.TestsFailed,
		&p.SecurityPassed, &p.SecurityFailed, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
