package page

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"arbor/internal/domain"
	"arbor/internal/pagetype"
)

const baseColumns = `id::text, site_id::text, COALESCE(parent_id::text, ''), type, slug, title, position, active, created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	types  *pagetype.Registry
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, types *pagetype.Registry, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, types: types, logger: logger}
}

func scanPage(row pgx.Row) (*domain.Page, error) {
	var p domain.Page
	err := row.Scan(&p.ID, &p.SiteID, &p.ParentID, &p.Type, &p.Slug, &p.Title, &p.Position, &p.Active, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepo) loadPayload(ctx context.Context, q pagetype.Querier, p *domain.Page) (pagetype.Payload, error) {
	t, ok := r.types.Get(p.Type)
	if !ok {
		return nil, fmt.Errorf("page type %q not registered", p.Type)
	}
	payload, err := t.Store.Load(ctx, q, p.ID)
	if err != nil {
		return nil, fmt.Errorf("load %s payload for page %s: %w", p.Type, p.ID, err)
	}
	return payload, nil
}

func (r *postgresRepo) GetBase(ctx context.Context, siteID, id string) (*domain.Page, error) {
	q := `
SELECT ` + baseColumns + `
FROM pages
WHERE site_id = $1 AND id = $2
`
	p, err := scanPage(r.pool.QueryRow(ctx, q, siteID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("page repo: get site_id=%s id=%s error=%v", siteID, id, err)
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, siteID, id string) (*Entry, error) {
	p, err := r.GetBase(ctx, siteID, id)
	if err != nil {
		return nil, err
	}
	return r.WithPayload(ctx, p)
}

func (r *postgresRepo) WithPayload(ctx context.Context, p *domain.Page) (*Entry, error) {
	payload, err := r.loadPayload(ctx, r.pool, p)
	if err != nil {
		return nil, err
	}
	return &Entry{Page: *p, Payload: payload}, nil
}

func (r *postgresRepo) ActiveChildBySlug(ctx context.Context, siteID, parentID, slug string) (*domain.Page, error) {
	q := `
SELECT ` + baseColumns + `
FROM pages
WHERE site_id = $1 AND COALESCE(parent_id::text, '') = $2 AND slug = $3 AND active
`
	p, err := scanPage(r.pool.QueryRow(ctx, q, siteID, parentID, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("page repo: child site_id=%s parent=%q slug=%q error=%v", siteID, parentID, slug, err)
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) ListChildren(ctx context.Context, siteID, parentID string, f ChildFilter) ([]Entry, error) {
	q := `
SELECT ` + baseColumns + `
FROM pages
WHERE site_id = $1 AND COALESCE(parent_id::text, '') = $2`
	args := []any{siteID, parentID}
	if f.Type != "" {
		args = append(args, f.Type)
		q += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if f.OnlyActive {
		q += " AND active"
	}
	q += "\nORDER BY position ASC, created_at ASC, id ASC"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("page repo: list children site_id=%s parent=%q error=%v", siteID, parentID, err)
		return nil, err
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, Entry{Page: *p})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if f.WithPayloads {
		for i := range result {
			payload, err := r.loadPayload(ctx, r.pool, &result[i].Page)
			if err != nil {
				return nil, err
			}
			result[i].Payload = payload
		}
	}
	return result, nil
}

func (r *postgresRepo) ListBySite(ctx context.Context, siteID string) ([]domain.Page, error) {
	q := `
SELECT ` + baseColumns + `
FROM pages
WHERE site_id = $1
ORDER BY COALESCE(parent_id::text, '') ASC, position ASC, created_at ASC, id ASC
`
	rows, err := r.pool.Query(ctx, q, siteID)
	if err != nil {
		r.logger.Printf("page repo: list site_id=%s error=%v", siteID, err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) Create(ctx context.Context, p *domain.Page, payload pagetype.Payload) (*Entry, error) {
	t, ok := r.types.Get(p.Type)
	if !ok {
		return nil, fmt.Errorf("page type %q not registered", p.Type)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	out := *p
	err = tx.QueryRow(ctx, `
INSERT INTO pages (site_id, parent_id, type, slug, title, position, active)
VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5, $6, $7)
RETURNING id::text, created_at
`, p.SiteID, p.ParentID, p.Type, p.Slug, p.Title, p.Position, p.Active).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("page repo: create site_id=%s slug=%q error=%v", p.SiteID, p.Slug, err)
		return nil, err
	}

	if err := t.Store.Save(ctx, tx, out.ID, payload); err != nil {
		return nil, fmt.Errorf("save %s payload: %w", p.Type, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Printf("page repo: created site_id=%s id=%s type=%s slug=%q", out.SiteID, out.ID, out.Type, out.Slug)
	return &Entry{Page: out, Payload: payload}, nil
}

func (r *postgresRepo) Update(ctx context.Context, p *domain.Page, payload pagetype.Payload) (*Entry, error) {
	t, ok := r.types.Get(p.Type)
	if !ok {
		return nil, fmt.Errorf("page type %q not registered", p.Type)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
UPDATE pages
SET slug = $3, title = $4, position = $5, active = $6
WHERE site_id = $1 AND id = $2
`, p.SiteID, p.ID, p.Slug, p.Title, p.Position, p.Active)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("page repo: update site_id=%s id=%s error=%v", p.SiteID, p.ID, err)
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrNotFound
	}

	if err := t.Store.Save(ctx, tx, p.ID, payload); err != nil {
		return nil, fmt.Errorf("save %s payload: %w", p.Type, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &Entry{Page: *p, Payload: payload}, nil
}

func (r *postgresRepo) Move(ctx context.Context, siteID, id, newParentID string, position int) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE pages
SET parent_id = NULLIF($3, '')::uuid, position = $4
WHERE site_id = $1 AND id = $2
`, siteID, id, newParentID, position)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		r.logger.Printf("page repo: move site_id=%s id=%s parent=%q error=%v", siteID, id, newParentID, err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, siteID, id string) error {
	tag, err := r.pool.Exec(ctx, `
DELETE FROM pages
WHERE site_id = $1 AND id = $2
`, siteID, id)
	if err != nil {
		r.logger.Printf("page repo: delete site_id=%s id=%s error=%v", siteID, id, err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("page repo: deleted site_id=%s id=%s", siteID, id)
	return nil
}
