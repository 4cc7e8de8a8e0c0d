package user

import (
	"context"

	"arbor/internal/domain"
)

type Repository interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	// Upsert creates the user or replaces its password hash.
	Upsert(ctx context.Context, username, passwordHash string) (*domain.User, error)
}
