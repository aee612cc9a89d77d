// Package version maintains the append-only version history of a
// prompt. Version numbers per prompt are 1..N with no gaps; saving
// identical content is a recognized no-op, not a new row.
package version

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/promptforge/promptforge/internal/apperr"
	"github.com/promptforge/promptforge/internal/canonicaljson"
	"github.com/promptforge/promptforge/internal/metrics"
	"github.com/promptforge/promptforge/internal/models"
)

const pgUniqueViolation = "23505"

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// SaveResult reports whether a save produced a new version or matched
// the existing latest one.
type SaveResult struct {
	Created bool
	Version *models.PromptVersion
}

// SaveVersion snapshots (content, params) as the next version of the
// prompt. The read-latest/insert pair runs inside one transaction with
// the prompts row locked, so concurrent saves for the same prompt
// serialize; the UNIQUE(prompt_id, version) constraint backstops the
// lock and surfaces as a conflict rather than a duplicate number.
//
// If content and params are structurally identical to the latest
// version, nothing is written and the existing version is returned.
func (s *Store) SaveVersion(ctx context.Context, promptID uuid.UUID, content string, params models.ModelConfig) (*SaveResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	paramsJSON, err := canonicaljson.Marshal(params)
	if err != nil {
		return nil, apperr.Store("serialize model params", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, apperr.Store("begin tx", err)
	}
	defer tx.Rollback(ctx)

	// Lock the owning prompt row for the duration of the decision.
	// NO KEY UPDATE self-excludes, so concurrent saves serialize, but
	// does not fight the KEY SHARE locks that version inserts' foreign
	// key checks take on this row.
	var lockedID uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM prompts WHERE id = $1 FOR NO KEY UPDATE`, promptID).Scan(&lockedID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("prompt %s not found", promptID)
	}
	if err != nil {
		return nil, apperr.Store("lock prompt", err)
	}

	latest, err := latestVersion(ctx, tx, promptID)
	if err != nil {
		return nil, err
	}

	if latest != nil && latest.Content == content && canonicaljson.Equal(latest.ModelParams, paramsJSON) {
		metrics.VersionSaves.WithLabelValues("unchanged").Inc()
		return &SaveResult{Created: false, Version: latest}, nil
	}

	next := 1
	if latest != nil {
		next = latest.Version + 1
	}

	var v models.PromptVersion
	err = tx.QueryRow(ctx,
		`INSERT INTO prompt_versions (prompt_id, version, content, model_params)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, prompt_id, version, content, model_params, created_at`,
		promptID, next, content, paramsJSON,
	).Scan(&v.ID, &v.PromptID, &v.Version, &v.Content, &v.ModelParams, &v.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, apperr.Conflict("version %d for prompt %s already exists", next, promptID)
		}
		return nil, apperr.Store("insert version", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.Store("commit", err)
	}

	metrics.VersionSaves.WithLabelValues("created").Inc()
	return &SaveResult{Created: true, Version: &v}, nil
}

func latestVersion(ctx context.Context, tx pgx.Tx, promptID uuid.UUID) (*models.PromptVersion, error) {
	var v models.PromptVersion
	err := tx.QueryRow(ctx,
		`SELECT id, prompt_id, version, content, model_params, created_at
		 FROM prompt_versions WHERE prompt_id = $1
		 ORDER BY version DESC LIMIT 1`,
		promptID,
	).Scan(&v.ID, &v.PromptID, &v.Version, &v.Content, &v.ModelParams, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Store("fetch latest version", err)
	}
	return &v, nil
}

// ListVersions returns all versions newest first. An unknown prompt
// yields an empty list, not an error.
func (s *Store) ListVersions(ctx context.Context, promptID uuid.UUID) ([]models.PromptVersion, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, prompt_id, version, content, model_params, created_at
		 FROM prompt_versions WHERE prompt_id = $1
		 ORDER BY version DESC`,
		promptID,
	)
	if err != nil {
		return nil, apperr.Store("list versions", err)
	}
	defer rows.Close()

	versions := []models.PromptVersion{}
	for rows.Next() {
		var v models.PromptVersion
		if err := rows.Scan(&v.ID, &v.PromptID, &v.Version, &v.Content, &v.ModelParams, &v.CreatedAt); err != nil {
			return nil, apperr.Store("scan version", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("iterate versions", err)
	}
	return versions, nil
}

// RestoreVersion copies a snapshot's content and model params back onto
// the live draft. It updates the prompt only; no new version row is
// created by restoring.
func (s *Store) RestoreVersion(ctx context.Context, promptID, versionID, ownerID uuid.UUID) (*models.Prompt, error) {
	var v models.PromptVersion
	err := s.db.QueryRow(ctx,
		`SELECT id, prompt_id, version, content, model_params, created_at
		 FROM prompt_versions WHERE id = $1 AND prompt_id = $2`,
		versionID, promptID,
	).Scan(&v.ID, &v.PromptID, &v.Version, &v.Content, &v.ModelParams, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("version %s not found for prompt %s", versionID, promptID)
	}
	if err != nil {
		return nil, apperr.Store("fetch version", err)
	}

	var p models.Prompt
	err = s.db.QueryRow(ctx,
		`UPDATE prompts
		 SET content = $1, model_params = $2, updated_at = now()
		 WHERE id = $3 AND owner_id = $4
		 RETURNING id, owner_id, title, content, tags, model_params, status,
		           content_tokens, total_tokens, total_cost_usd, tests_passed, tests_failed,
		           security_passed, security_failed, created_at, updated_at`,
		v.Content, v.ModelParams, promptID, ownerID,
	).Scan(&p.ID, &p.OwnerID, &p.Title, &p.Content, &p.Tags, &p.ModelParams, &p.Status,
		&p.ContentTokens, &p.TotalTokens, &p.TotalCostUSD, &p.TestsPassed, &p.TestsFailed,
		&p.SecurityPassed, &p.SecurityFailed, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("prompt %s not found", promptID)
	}
	if err != nil {
		return nil, apperr.Store("restore prompt", err)
	}

	return &p, nil
}
