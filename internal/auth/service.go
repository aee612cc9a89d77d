package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/promptforge/promptforge/internal/models"
)

// Service provisions local user rows for identities asserted by the
// external auth provider. Identity lives in the JWT; the row exists so
// prompts and databases have an owner to reference.
type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

// EnsureUser upserts the user on first sight and returns the row.
func (s *Service) EnsureUser(ctx context.Context, id uuid.UUID, email, fullName string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx,
		`INSERT INTO users (id, email, full_name)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email
		 RETURNING id, email, full_name, created_at`,
		id, email, fullName,
	).Scan(&u.ID, &u.Email, &u.FullName, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}
	return &u, nil
}
