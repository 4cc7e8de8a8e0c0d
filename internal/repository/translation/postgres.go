package translation

import (
	"context"

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

func (r *postgresRepo) Get(ctx context.Context, pageID, lang string) (map[string]string, error) {
	const q = `
SELECT field, value
FROM page_translations
WHERE page_id = $1 AND lang = $2
`
	rows, err := r.pool.Query(ctx, q, pageID, lang)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return nil, err
		}
		result[field] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) ListByPage(ctx context.Context, pageID string) ([]domain.Translation, error) {
	const q = `
SELECT page_id::text, lang, field, value
FROM page_translations
WHERE page_id = $1
ORDER BY lang ASC, field ASC
`
	rows, err := r.pool.Query(ctx, q, pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Translation
	for rows.Next() {
		var t domain.Translation
		if err := rows.Scan(&t.PageID, &t.Lang, &t.Field, &t.Value); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) Set(ctx context.Context, pageID, lang string, values map[string]string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for field, value := range values {
		if value == "" {
			if _, err := tx.Exec(ctx, `
DELETE FROM page_translations
WHERE page_id = $1 AND lang = $2 AND field = $3
`, pageID, lang, field); err != nil {
				return err
			}
			continue
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO page_translations (page_id, lang, field, value)
VALUES ($1, $2, $3, $4)
ON CONFLICT (page_id, lang, field) DO UPDATE
SET value = EXCLUDED.value
`, pageID, lang, field, value); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
