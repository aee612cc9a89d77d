// Package vectordb manages registered external vector stores. The
// connection credentials pass through the secrets codec on the way in
// and never leave the service decrypted except to the prober.
package vectordb

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/promptforge/promptforge/internal/apperr"
	"github.com/promptforge/promptforge/internal/metrics"
	"github.com/promptforge/promptforge/internal/models"
	"github.com/promptforge/promptforge/internal/secrets"
)

const dbColumns = `id, owner_id, type, collection_name, description,
	connection_config, status, document_count, last_connected, created_at`

type Service struct {
	db    *pgxpool.Pool
	codec *secrets.Codec
}

func NewService(db *pgxpool.Pool, codec *secrets.Codec) *Service {
	return &Service{db: db, codec: codec}
}

type CreateRequest struct {
	Type           string
	CollectionName string
	Description    string
	// Config carries the connection fields (hosts, keys, passwords)
	// with metadata keys already stripped by the handler.
	Config map[string]interface{}
}

func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req CreateRequest) (*models.VectorDatabase, error) {
	if !models.ValidVectorDBType(req.Type) {
		return nil, apperr.Validation("unsupported database type %q", req.Type)
	}
	if req.CollectionName == "" {
		return nil, apperr.Validation("collection name required")
	}

	opaque, err := s.codec.Encode(req.Config)
	if err != nil {
		return nil, apperr.Store("encrypt connection config", err)
	}

	var d models.VectorDatabase
	err = s.db.QueryRow(ctx,
		`INSERT INTO vector_databases (owner_id, type, collection_name, description, connection_config, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+dbColumns,
		ownerID, req.Type, req.CollectionName, req.Description, opaque, models.ConnStatusIndexing,
	).Scan(&d.ID, &d.OwnerID, &d.Type, &d.CollectionName, &d.Description,
		&d.ConnectionConfig, &d.Status, &d.DocumentCount, &d.LastConnected, &d.CreatedAt)
	if err != nil {
		return nil, apperr.Store("insert vector database", err)
	}
	return &d, nil
}

// List returns the caller's registered stores. ConnectionConfig is
// carried internally but marshals to nothing; list responses never
// include ciphertext or plaintext credentials.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID) ([]models.VectorDatabase, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+dbColumns+` FROM vector_databases
		 WHERE owner_id = $1 ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, apperr.Store("list vector databases", err)
	}
	defer rows.Close()

	dbs := []models.VectorDatabase{}
	for rows.Next() {
		var d models.VectorDatabase
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.Type, &d.CollectionName, &d.Description,
			&d.ConnectionConfig, &d.Status, &d.DocumentCount, &d.LastConnected, &d.CreatedAt); err != nil {
			return nil, apperr.Store("scan vector database", err)
		}
		dbs = append(dbs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("iterate vector databases", err)
	}
	return dbs, nil
}

func (s *Service) Get(ctx context.Context, id, ownerID uuid.UUID) (*models.VectorDatabase, error) {
	var d models.VectorDatabase
	err := s.db.QueryRow(ctx,
		`SELECT `+dbColumns+` FROM vector_databases WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	).Scan(&d.ID, &d.OwnerID, &d.Type, &d.CollectionName, &d.Description,
		&d.ConnectionConfig, &d.Status, &d.DocumentCount, &d.LastConnected, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("vector database %s not found", id)
	}
	if err != nil {
		return nil, apperr.Store("get vector database", err)
	}
	return &d, nil
}

func (s *Service) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM vector_databases WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return apperr.Store("delete vector database", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("vector database %s not found", id)
	}
	return nil
}

// DecodeConfig decrypts a stored connection config for internal use
// (the prober). Decode failures indicate a rotated or wrong operator
// secret and propagate as-is; they are never masked as empty configs.
func (s *Service) DecodeConfig(ctx context.Context, id, ownerID uuid.UUID) (map[string]interface{}, error) {
	d, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	var cfg map[string]interface{}
	if err := s.codec.Decode(d.ConnectionConfig, &cfg); err != nil {
		metrics.CodecFailures.Inc()
		return nil, err
	}
	return cfg, nil
}

// SetProbeResult records the outcome of a connectivity probe.
func (s *Service) SetProbeResult(ctx context.Context, id uuid.UUID, status string, documentCount int) error {
	_, err := s.db.Exec(ctx,
		`UPDATE vector_databases
		 SET status = $1, document_count = $2, last_connected = now()
		 WHERE id = $3`,
		status, documentCount, id,
	)
	if err != nil {
		return apperr.Store("record probe result", err)
	}
	return nil
}
