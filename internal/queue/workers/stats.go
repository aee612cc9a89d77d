package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/promptforge/promptforge/internal/queue"
	"github.com/promptforge/promptforge/pkg/tokenizer"
)

// StatsWorker refreshes a draft's estimated token count. The estimate
// is display metadata; recomputing it off the request path keeps saves
// cheap.
type StatsWorker struct {
	db *pgxpool.Pool
}

func NewStatsWorker(db *pgxpool.Pool) *StatsWorker {
	return &StatsWorker{db: db}
}

func (w *StatsWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.PromptStatsPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	promptID, err := uuid.Parse(payload.PromptID)
	if err != nil {
		return fmt.Errorf("invalid prompt id %q: %w", payload.PromptID, err)
	}

	var content string
	err = w.db.QueryRow(ctx, `SELECT content FROM prompts WHERE id = $1`, promptID).Scan(&content)
	if errors.Is(err, pgx.ErrNoRows) {
		// Deleted between enqueue and processing; nothing to do.
		return nil
	}
	if err != nil {
		return fmt.Errorf("load prompt: %w", err)
	}

	tokens := tokenizer.CountTokens(content)
	if _, err := w.db.Exec(ctx,
		`UPDATE prompts SET content_tokens = $1 WHERE id = $2`, tokens, promptID,
	); err != nil {
		return fmt.Errorf("update token estimate: %w", err)
	}

	slog.Info("refreshed prompt stats", "prompt_id", promptID, "content_tokens", tokens)
	return nil
}
