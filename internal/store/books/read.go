package books

import (
	"context"
	"database/sql"
	"errors"

	"github.com/openshelf/library-api/internal/store/shared"
)

const bookColumns = `
	b.id::text, b.slug, b.title, a.name, b.author_id::text,
	b.publication_year, b.created_at, b.updated_at`

// FetchByKey loads a book by uuid or slug, including the author name.
func FetchByKey(ctx context.Context, db *sql.DB, key string) (Book, error) {
	cond, arg := shared.ResolveKeyCondArg(ctx, "b", key)
	q := `
	SELECT` + bookColumns + `
	FROM books b
	JOIN authors a ON a.id = b.author_id
	WHERE ` + cond

	var b Book
	if err := db.QueryRowContext(ctx, q, arg).Scan(
		&b.ID, &b.Slug, &b.Title, &b.Author, &b.AuthorID,
		&b.PublicationYear, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	b.URL = "/books/" + b.Slug
	return b, nil
}

// ExistsByKey is used by HEAD handlers.
func ExistsByKey(ctx context.Context, db *sql.DB, key string) (bool, error) {
	cond, arg := shared.ResolveKeyCondArg(ctx, "b", key)
	var exists bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM books b WHERE `+cond+`)`, arg).
		Scan(&exists)
	return exists, err
}
