package books

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/openshelf/library-api/internal/store/shared"
)

// resolveID maps a uuid-or-slug key to the book id, or ErrNotFound.
func resolveID(ctx context.Context, tx *sql.Tx, key string) (string, error) {
	cond, arg := shared.ResolveKeyCondArg(ctx, "b", key)
	var id string
	err := tx.QueryRowContext(ctx, `SELECT b.id::text FROM books b WHERE `+cond, arg).Scan(&id)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return id, err
}

// Patch applies a partial update; nil fields are left untouched. A title
// change re-slugs the book.
func Patch(ctx context.Context, db *sql.DB, key string, dto UpdateBookDTO) (Book, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Book{}, err
	}
	defer tx.Rollback()

	id, err := resolveID(ctx, tx, key)
	if err != nil {
		return Book{}, err
	}

	set := []string{}
	args := []any{}
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, col+" = $"+strconv.Itoa(len(args)))
	}

	if dto.Title != nil {
		slug, err := shared.EnsureUniqueSlug(ctx, tx, "books", "slug", shared.Slugify(*dto.Title), 20)
		if err != nil {
			return Book{}, err
		}
		add("title", *dto.Title)
		add("slug", slug)
	}
	if dto.Author != nil {
		aid, _, err := getOrCreateAuthor(ctx, tx, *dto.Author)
		if err != nil {
			return Book{}, err
		}
		add("author_id", aid)
	}
	if dto.PublicationYear != nil {
		add("publication_year", *dto.PublicationYear)
	}

	if len(set) > 0 {
		args = append(args, id)
		q := `UPDATE books SET ` + strings.Join(set, ", ") + `, updated_at = now() WHERE id = $` + strconv.Itoa(len(args))
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return Book{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Book{}, err
	}
	return FetchByKey(ctx, db, id)
}

// Replace overwrites every mutable field (PUT semantics).
func Replace(ctx context.Context, db *sql.DB, key string, dto CreateBookDTO) (Book, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Book{}, err
	}
	defer tx.Rollback()

	id, err := resolveID(ctx, tx, key)
	if err != nil {
		return Book{}, err
	}

	aid, _, err := getOrCreateAuthor(ctx, tx, dto.Author)
	if err != nil {
		return Book{}, err
	}
	slug, err := shared.EnsureUniqueSlug(ctx, tx, "books", "slug", shared.Slugify(dto.Title), 20)
	if err != nil {
		return Book{}, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE books SET title=$1, slug=$2, publication_year=$3, author_id=$4, updated_at=now() WHERE id=$5`,
		dto.Title, slug, dto.PublicationYear, aid, id); err != nil {
		return Book{}, err
	}

	if err := tx.Commit(); err != nil {
		return Book{}, err
	}
	return FetchByKey(ctx, db, id)
}

// Delete removes a book (library memberships cascade via FK).
func Delete(ctx context.Context, db *sql.DB, key string) error {
	cond, arg := shared.ResolveKeyCondArg(ctx, "b", key)
	res, err := db.ExecContext(ctx, `DELETE FROM books b WHERE `+cond, arg)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
