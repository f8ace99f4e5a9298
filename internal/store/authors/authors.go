package authors

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/openshelf/library-api/internal/store/shared"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

type Author struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	BookCount int       `json:"book_count"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthorWithBooks nests the author's books, newest first.
type AuthorWithBooks struct {
	Author
	Books []BookSummary `json:"books"`
}

type BookSummary struct {
	ID              string `json:"id"`
	Slug            string `json:"slug"`
	Title           string `json:"title"`
	PublicationYear int    `json:"publication_year"`
}

// List returns authors with their book counts, optionally name-filtered.
func List(ctx context.Context, db *sql.DB, query string, limit, offset int) ([]Author, int, error) {
	cond := ""
	args := []any{}
	if q := strings.TrimSpace(query); q != "" {
		cond = ` WHERE a.name ILIKE '%' || $1 || '%'`
		args = append(args, q)
	}

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM authors a`+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limitPos := shared.Itoa(len(args) + 1)
	offsetPos := shared.Itoa(len(args) + 2)
	args = append(args, limit, offset)

	q := `
	SELECT a.id::text, a.name, a.slug, COUNT(b.id), a.created_at
	FROM authors a
	LEFT JOIN books b ON b.author_id = a.id` + cond + `
	GROUP BY a.id, a.name, a.slug, a.created_at
	ORDER BY a.name, a.id
	LIMIT $` + limitPos + ` OFFSET $` + offsetPos

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Author, 0, limit)
	for rows.Next() {
		var a Author
		if err := rows.Scan(&a.ID, &a.Name, &a.Slug, &a.BookCount, &a.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

// FetchByKey loads an author (uuid or slug) with nested books.
func FetchByKey(ctx context.Context, db *sql.DB, key string) (AuthorWithBooks, error) {
	cond, arg := shared.ResolveKeyCondArg(ctx, "a", key)

	var a AuthorWithBooks
	err := db.QueryRowContext(ctx, `
		SELECT a.id::text, a.name, a.slug, a.created_at
		FROM authors a WHERE `+cond, arg).
		Scan(&a.ID, &a.Name, &a.Slug, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return AuthorWithBooks{}, ErrNotFound
	}
	if err != nil {
		return AuthorWithBooks{}, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT b.id::text, b.slug, b.title, b.publication_year
		FROM books b
		WHERE b.author_id = $1
		ORDER BY b.created_at DESC, b.id`, a.ID)
	if err != nil {
		return AuthorWithBooks{}, err
	}
	defer rows.Close()

	a.Books = []BookSummary{}
	for rows.Next() {
		var b BookSummary
		if err := rows.Scan(&b.ID, &b.Slug, &b.Title, &b.PublicationYear); err != nil {
			return AuthorWithBooks{}, err
		}
		a.Books = append(a.Books, b)
	}
	a.BookCount = len(a.Books)
	return a, rows.Err()
}

// Create inserts an author with a unique slug. Duplicate names (case
// insensitive) are rejected as ErrConflict.
func Create(ctx context.Context, db *sql.DB, name string) (Author, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Author{}, err
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM authors WHERE lower(name) = lower($1))`, name).
		Scan(&exists); err != nil {
		return Author{}, err
	}
	if exists {
		return Author{}, ErrConflict
	}

	slug, err := shared.EnsureUniqueSlug(ctx, tx, "authors", "slug", shared.Slugify(name), 20)
	if err != nil {
		return Author{}, err
	}

	var a Author
	if err := tx.QueryRowContext(ctx,
		`INSERT INTO authors (name, slug) VALUES ($1, $2)
		 RETURNING id::text, name, slug, created_at`,
		name, slug,
	).Scan(&a.ID, &a.Name, &a.Slug, &a.CreatedAt); err != nil {
		return Author{}, err
	}

	if err := tx.Commit(); err != nil {
		return Author{}, err
	}
	return a, nil
}
