package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/promptforge/promptforge/internal/apperr"
	"github.com/promptforge/promptforge/internal/models"
	"github.com/promptforge/promptforge/internal/queue"
	"github.com/promptforge/promptforge/internal/vectordb"
)

// ProbeWorker runs connectivity checks for newly registered vector
// stores and records the result.
type ProbeWorker struct {
	svc *vectordb.Service
}

func NewProbeWorker(svc *vectordb.Service) *ProbeWorker {
	return &ProbeWorker{svc: svc}
}

func (w *ProbeWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.VectorDBProbePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	dbID, err := uuid.Parse(payload.DatabaseID)
	if err != nil {
		return fmt.Errorf("invalid database id %q: %w", payload.DatabaseID, err)
	}
	ownerID, err := uuid.Parse(payload.OwnerID)
	if err != nil {
		return fmt.Errorf("invalid owner id %q: %w", payload.OwnerID, err)
	}

	record, err := w.svc.Get(ctx, dbID, ownerID)
	if apperr.IsKind(err, apperr.KindNotFound) {
		// Deleted before the probe ran.
		return nil
	}
	if err != nil {
		return err
	}

	cfg, err := w.svc.DecodeConfig(ctx, dbID, ownerID)
	if err != nil {
		// A decode failure means the operator secret changed or the row
		// was tampered with. Mark the connection errored and stop; the
		// task must not retry its way past a broken ciphertext.
		slog.Error("connection config unreadable", "database_id", dbID, "error", err)
		if setErr := w.svc.SetProbeResult(ctx, dbID, models.ConnStatusError, 0); setErr != nil {
			return setErr
		}
		return nil
	}

	result, err := vectordb.Probe(ctx, record.Type, record.CollectionName, cfg)
	if err != nil {
		return fmt.Errorf("probe %s: %w", dbID, err)
	}

	if err := w.svc.SetProbeResult(ctx, dbID, result.Status, result.DocumentCount); err != nil {
		return err
	}

	slog.Info("probed vector database",
		"database_id", dbID,
		"type", record.Type,
		"status", result.Status,
		"document_count", result.DocumentCount,
	)
	return nil
}
