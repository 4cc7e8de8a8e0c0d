package site

import (
	"context"

	"arbor/internal/domain"
)

type Repository interface {
	GetByKey(ctx context.Context, key string) (*domain.Site, error)
	GetByHost(ctx context.Context, host string) (*domain.Site, error)
	List(ctx context.Context) ([]domain.Site, error)
	Upsert(ctx context.Context, s domain.Site) (*domain.Site, error)
}
