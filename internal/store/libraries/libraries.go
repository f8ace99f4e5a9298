package libraries

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/openshelf/library-api/internal/store/dbx"
	"github.com/openshelf/library-api/internal/store/shared"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("conflict")
	ErrBadRole   = errors.New("user is not a librarian")
	ErrNoSuchRef = errors.New("referenced record missing")
)

type Library struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	Librarian *Librarian `json:"librarian,omitempty"`
	BookCount int        `json:"book_count"`
	CreatedAt time.Time  `json:"created_at"`
}

type Librarian struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type BookRef struct {
	ID              string `json:"id"`
	Slug            string `json:"slug"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	PublicationYear int    `json:"publication_year"`
}

type LibraryWithBooks struct {
	Library
	Books []BookRef `json:"books"`
}

// List returns all libraries with book counts and librarian info.
func List(ctx context.Context, db *sql.DB, limit, offset int) ([]Library, int, error) {
	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM libraries`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT l.id::text, l.name, l.slug, u.id::text, u.username,
		       (SELECT COUNT(*) FROM library_books lb WHERE lb.library_id = l.id),
		       l.created_at
		FROM libraries l
		LEFT JOIN users u ON u.id = l.librarian_id
		ORDER BY l.name, l.id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Library, 0, limit)
	for rows.Next() {
		var l Library
		var lid, lname sql.NullString
		if err := rows.Scan(&l.ID, &l.Name, &l.Slug, &lid, &lname, &l.BookCount, &l.CreatedAt); err != nil {
			return nil, 0, err
		}
		if lid.Valid {
			l.Librarian = &Librarian{ID: lid.String, Username: lname.String}
		}
		out = append(out, l)
	}
	return out, total, rows.Err()
}

// FetchByKey loads a library (uuid or slug) with its books and librarian.
func FetchByKey(ctx context.Context, db *sql.DB, key string) (LibraryWithBooks, error) {
	cond, arg := shared.ResolveKeyCondArg(ctx, "l", key)

	var l LibraryWithBooks
	var lid, lname sql.NullString
	err := db.QueryRowContext(ctx, `
		SELECT l.id::text, l.name, l.slug, u.id::text, u.username, l.created_at
		FROM libraries l
		LEFT JOIN users u ON u.id = l.librarian_id
		WHERE `+cond, arg).
		Scan(&l.ID, &l.Name, &l.Slug, &lid, &lname, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return LibraryWithBooks{}, ErrNotFound
	}
	if err != nil {
		return LibraryWithBooks{}, err
	}
	if lid.Valid {
		l.Librarian = &Librarian{ID: lid.String, Username: lname.String}
	}

	rows, err := db.QueryContext(ctx, `
		SELECT b.id::text, b.slug, b.title, a.name, b.publication_year
		FROM library_books lb
		JOIN books b ON b.id = lb.book_id
		JOIN authors a ON a.id = b.author_id
		WHERE lb.library_id = $1
		ORDER BY b.title, b.id`, l.ID)
	if err != nil {
		return LibraryWithBooks{}, err
	}
	defer rows.Close()

	l.Books = []BookRef{}
	for rows.Next() {
		var b BookRef
		if err := rows.Scan(&b.ID, &b.Slug, &b.Title, &b.Author, &b.PublicationYear); err != nil {
			return LibraryWithBooks{}, err
		}
		l.Books = append(l.Books, b)
	}
	l.BookCount = len(l.Books)
	return l, rows.Err()
}

// Create inserts a library with a unique slug. An existing library with the
// same name (case-insensitive) is ErrConflict.
func Create(ctx context.Context, db *sql.DB, name string) (Library, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Library{}, err
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM libraries WHERE lower(name) = lower($1))`, name,
	).Scan(&exists); err != nil {
		return Library{}, err
	}
	if exists {
		return Library{}, ErrConflict
	}

	slug, err := shared.EnsureUniqueSlug(ctx, tx, "libraries", "slug", shared.Slugify(name), 20)
	if err != nil {
		return Library{}, err
	}

	var l Library
	if err := tx.QueryRowContext(ctx,
		`INSERT INTO libraries (name, slug) VALUES ($1, $2)
		 RETURNING id::text, name, slug, created_at`,
		name, slug,
	).Scan(&l.ID, &l.Name, &l.Slug, &l.CreatedAt); err != nil {
		return Library{}, err
	}

	if err := tx.Commit(); err != nil {
		return Library{}, err
	}
	return l, nil
}

// ReplaceBooks swaps the library's book set for the given book ids.
// Unknown book ids fail the whole transaction with ErrNoSuchRef.
func ReplaceBooks(ctx context.Context, db *sql.DB, key string, bookIDs []string) error {
	return dbx.WithinTx(ctx, db, func(tx *sql.Tx) error {
		cond, arg := shared.ResolveKeyCondArg(ctx, "l", key)
		var id string
		err := tx.QueryRowContext(ctx, `SELECT l.id::text FROM libraries l WHERE `+cond, arg).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM library_books WHERE library_id = $1`, id); err != nil {
			return err
		}
		// Dedupe: a repeated id would hit ON CONFLICT DO NOTHING and read as
		// a missing book.
		seen := make(map[string]struct{}, len(bookIDs))
		for _, bid := range bookIDs {
			if _, dup := seen[bid]; dup {
				continue
			}
			seen[bid] = struct{}{}
			res, err := tx.ExecContext(ctx, `
				INSERT INTO library_books (library_id, book_id)
				SELECT $1, b.id FROM books b WHERE b.id = $2
				ON CONFLICT DO NOTHING`, id, bid)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return ErrNoSuchRef
			}
		}
		return nil
	})
}

// AssignLibrarian sets the library's librarian. The user must exist, be
// active, and hold the librarian role.
func AssignLibrarian(ctx context.Context, db *sql.DB, key, userID string) error {
	return dbx.WithinTx(ctx, db, func(tx *sql.Tx) error {
		var role, status string
		err := tx.QueryRowContext(ctx,
			`SELECT role, status FROM users WHERE id = $1`, userID).Scan(&role, &status)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNoSuchRef
		}
		if err != nil {
			return err
		}
		if role != "librarian" || status != "active" {
			return ErrBadRole
		}

		cond, arg := shared.ResolveKeyCondArg(ctx, "l", key)
		res, err := tx.ExecContext(ctx,
			`UPDATE libraries l SET librarian_id = $2 WHERE `+cond, arg, userID)
		if err != nil {
			return err
		}
		return dbx.ExactlyOne(res, ErrNotFound)
	})
}
