package books

import (
	"context"
	"database/sql"
	"errors"

	"github.com/openshelf/library-api/internal/store/shared"
)

// getOrCreateAuthor resolves an author name to an id, creating the author
// row (with a unique slug) on first sight. Lookup is case-insensitive so
// "j.k. rowling" and "J.K. Rowling" land on the same row.
func getOrCreateAuthor(ctx context.Context, tx *sql.Tx, name string) (authorID string, created bool, err error) {
	err = tx.QueryRowContext(ctx, `SELECT id FROM authors WHERE lower(name) = lower($1)`, name).Scan(&authorID)
	if err == nil {
		return authorID, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", false, err
	}

	slug, err := shared.EnsureUniqueSlug(ctx, tx, "authors", "slug", shared.Slugify(name), 20)
	if err != nil {
		return "", false, err
	}
	if err := tx.QueryRowContext(ctx,
		`INSERT INTO authors (name, slug) VALUES ($1, $2) RETURNING id`,
		name, slug,
	).Scan(&authorID); err != nil {
		return "", false, err
	}
	return authorID, true, nil
}
