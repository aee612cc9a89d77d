package vectordb

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/promptforge/promptforge/internal/models"
)

// ProbeResult is the outcome of a connectivity check against a
// registered store.
type ProbeResult struct {
	Status        string
	DocumentCount int
}

// Probe verifies that a registered store is reachable with its stored
// credentials. pgvector stores get a real connection check and row
// count; hosted stores (pinecone, qdrant, ...) are accepted as
// registered since the credentials are only exercised client-side.
func Probe(ctx context.Context, dbType, collection string, cfg map[string]interface{}) (*ProbeResult, error) {
	switch dbType {
	case models.VectorDBPgvector:
		return probePgvector(ctx, collection, cfg)
	default:
		return &ProbeResult{Status: models.ConnStatusActive}, nil
	}
}

func probePgvector(ctx context.Context, collection string, cfg map[string]interface{}) (*ProbeResult, error) {
	connStr, _ := cfg["connection_string"].(string)
	if connStr == "" {
		return nil, fmt.Errorf("pgvector config missing connection_string")
	}

	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return &ProbeResult{Status: models.ConnStatusError}, nil
	}
	defer conn.Close(ctx)

	// Round-trip a vector literal to confirm the extension is installed.
	probe := pgvector.NewVector([]float32{0, 0, 0})
	var echoed pgvector.Vector
	if err := conn.QueryRow(ctx, `SELECT $1::vector`, probe).Scan(&echoed); err != nil {
		return &ProbeResult{Status: models.ConnStatusError}, nil
	}

	var count int
	table := pgx.Identifier{collection}.Sanitize()
	if err := conn.QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, table)).Scan(&count); err != nil {
		return &ProbeResult{Status: models.ConnStatusError}, nil
	}

	return &ProbeResult{Status: models.ConnStatusActive, DocumentCount: count}, nil
}
