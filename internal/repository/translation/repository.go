package translation

import (
	"context"

	"arbor/internal/domain"
)

type Repository interface {
	// Get returns field→value for one page and language.
	Get(ctx context.Context, pageID, lang string) (map[string]string, error)
	// ListByPage returns every stored translation of a page, ordered by
	// language then field.
	ListByPage(ctx context.Context, pageID string) ([]domain.Translation, error)
	// Set upserts the given field values for one language. An empty value
	// removes the stored row, falling the field back to the base value.
	Set(ctx context.Context, pageID, lang string, values map[string]string) error
}
