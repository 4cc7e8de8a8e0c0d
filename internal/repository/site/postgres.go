package site

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"arbor/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) GetByKey(ctx context.Context, key string) (*domain.Site, error) {
	const q = `
SELECT id::text, key, name, host, created_at
FROM sites
WHERE key = $1
`
	var s domain.Site
	err := r.pool.QueryRow(ctx, q, key).Scan(&s.ID, &s.Key, &s.Name, &s.Host, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresRepo) GetByHost(ctx context.Context, host string) (*domain.Site, error) {
	const q = `
SELECT id::text, key, name, host, created_at
FROM sites
WHERE host = $1
`
	var s domain.Site
	err := r.pool.QueryRow(ctx, q, host).Scan(&s.ID, &s.Key, &s.Name, &s.Host, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Site, error) {
	const q = `
SELECT id::text, key, name, host, created_at
FROM sites
ORDER BY key ASC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Site
	for rows.Next() {
		var s domain.Site
		if err := rows.Scan(&s.ID, &s.Key, &s.Name, &s.Host, &s.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, s domain.Site) (*domain.Site, error) {
	const q = `
INSERT INTO sites (key, name, host)
VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE
SET name = EXCLUDED.name,
    host = EXCLUDED.host
RETURNING id::text, created_at
`
	var out domain.Site
	err := r.pool.QueryRow(ctx, q, s.Key, s.Name, s.Host).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return nil, err
	}
	out.Key = s.Key
	out.Name = s.Name
	out.Host = s.Host
	return &out, nil
}
