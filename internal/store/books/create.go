package books

import (
	"context"
	"database/sql"
	"strings"

	"github.com/openshelf/library-api/internal/store/shared"
)

// Create inserts a book inside a transaction: resolve the author by name
// (get-or-create), build a unique slug from the title, insert, and return
// the persisted record. An existing book with the same title under the same
// author is ErrConflict.
func Create(ctx context.Context, db *sql.DB, dto CreateBookDTO) (Book, error) {
	if strings.TrimSpace(dto.Title) == "" || strings.TrimSpace(dto.Author) == "" || dto.PublicationYear <= 0 {
		return Book{}, ErrInvalid
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Book{}, err
	}
	defer tx.Rollback()

	aid, _, err := getOrCreateAuthor(ctx, tx, dto.Author)
	if err != nil {
		return Book{}, err
	}

	var dup bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM books WHERE author_id = $1 AND lower(title) = lower($2))`,
		aid, dto.Title,
	).Scan(&dup); err != nil {
		return Book{}, err
	}
	if dup {
		return Book{}, ErrConflict
	}

	slug, err := shared.EnsureUniqueSlug(ctx, tx, "books", "slug", shared.Slugify(dto.Title), 20)
	if err != nil {
		return Book{}, err
	}

	var id string
	if err := tx.QueryRowContext(ctx,
		`INSERT INTO books (title, slug, publication_year, author_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		dto.Title, slug, dto.PublicationYear, aid,
	).Scan(&id); err != nil {
		return Book{}, err
	}

	if err := tx.Commit(); err != nil {
		return Book{}, err
	}
	return FetchByKey(ctx, db, id)
}
