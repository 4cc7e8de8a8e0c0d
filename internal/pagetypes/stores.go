package pagetypes

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"arbor/internal/pagetype"
)

// A missing extension row reads as an empty payload rather than an error, so
// base records created before a payload write stay servable.

type contentStore struct{}

func (contentStore) Load(ctx context.Context, q pagetype.Querier, pageID string) (pagetype.Payload, error) {
	const query = `
SELECT COALESCE(body, '')
FROM page_contents
WHERE page_id = $1
`
	var f ContentFields
	if err := q.QueryRow(ctx, query, pageID).Scan(&f.Body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &ContentFields{}, nil
		}
		return nil, err
	}
	return &f, nil
}

func (contentStore) Save(ctx context.Context, q pagetype.Querier, pageID string, p pagetype.Payload) error {
	f, ok := p.(*ContentFields)
	if !ok {
		return fmt.Errorf("unexpected payload %T for type %s", p, TypePage)
	}
	const query = `
INSERT INTO page_contents (page_id, body)
VALUES ($1, $2)
ON CONFLICT (page_id) DO UPDATE
SET body = EXCLUDED.body
`
	_, err := q.Exec(ctx, query, pageID, f.Body)
	return err
}

type categoryStore struct{}

func (categoryStore) Load(ctx context.Context, q pagetype.Querier, pageID string) (pagetype.Payload, error) {
	const query = `
SELECT COALESCE(intro, '')
FROM page_categories
WHERE page_id = $1
`
	var f CategoryFields
	if err := q.QueryRow(ctx, query, pageID).Scan(&f.Intro); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &CategoryFields{}, nil
		}
		return nil, err
	}
	return &f, nil
}

func (categoryStore) Save(ctx context.Context, q pagetype.Querier, pageID string, p pagetype.Payload) error {
	f, ok := p.(*CategoryFields)
	if !ok {
		return fmt.Errorf("unexpected payload %T for type %s", p, TypeCategory)
	}
	const query = `
INSERT INTO page_categories (page_id, intro)
VALUES ($1, $2)
ON CONFLICT (page_id) DO UPDATE
SET intro = EXCLUDED.intro
`
	_, err := q.Exec(ctx, query, pageID, f.Intro)
	return err
}

type postStore struct{}

func (postStore) Load(ctx context.Context, q pagetype.Querier, pageID string) (pagetype.Payload, error) {
	const query = `
SELECT COALESCE(body, ''), COALESCE(excerpt, ''), published_at
FROM page_posts
WHERE page_id = $1
`
	var f PostFields
	if err := q.QueryRow(ctx, query, pageID).Scan(&f.Body, &f.Excerpt, &f.PublishedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &PostFields{}, nil
		}
		return nil, err
	}
	return &f, nil
}

func (postStore) Save(ctx context.Context, q pagetype.Querier, pageID string, p pagetype.Payload) error {
	f, ok := p.(*PostFields)
	if !ok {
		return fmt.Errorf("unexpected payload %T for type %s", p, TypePost)
	}
	const query = `
INSERT INTO page_posts (page_id, body, excerpt, published_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (page_id) DO UPDATE
SET body = EXCLUDED.body,
    excerpt = EXCLUDED.excerpt,
    published_at = EXCLUDED.published_at
`
	_, err := q.Exec(ctx, query, pageID, f.Body, f.Excerpt, f.PublishedAt)
	return err
}
