package books

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
)

// List returns a page of books plus the unpaged total. Filters compose with
// AND; the free-text query matches title or author name.
func List(ctx context.Context, db *sql.DB, f ListFilter) ([]Book, int, error) {
	where := []string{}
	args := []any{}
	add := func(cond string, vals ...any) {
		for _, v := range vals {
			args = append(args, v)
		}
		where = append(where, cond)
	}

	if q := strings.TrimSpace(f.Query); q != "" {
		n := strconv.Itoa(len(args) + 1)
		add("(b.title ILIKE '%' || $"+n+" || '%' OR a.name ILIKE '%' || $"+n+" || '%')", q)
	}
	if f.Author != "" {
		add("lower(a.name) = lower($"+strconv.Itoa(len(args)+1)+")", f.Author)
	}
	if f.Year > 0 {
		add("b.publication_year = $"+strconv.Itoa(len(args)+1), f.Year)
	}

	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQ := `SELECT COUNT(*) FROM books b JOIN authors a ON a.id = b.author_id` + cond
	if err := db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sortCol := f.SortCol
	if sortCol == "" {
		sortCol = "b.created_at"
	}
	sortDir := f.SortDir
	if sortDir != "ASC" && sortDir != "DESC" {
		sortDir = "DESC"
	}

	limitPos := strconv.Itoa(len(args) + 1)
	offsetPos := strconv.Itoa(len(args) + 2)
	args = append(args, f.Limit, f.Offset)

	q := `
	SELECT` + bookColumns + `
	FROM books b
	JOIN authors a ON a.id = b.author_id` + cond + `
	ORDER BY ` + sortCol + ` ` + sortDir + `, b.id
	LIMIT $` + limitPos + ` OFFSET $` + offsetPos

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Book, 0, f.Limit)
	for rows.Next() {
		var b Book
		if err := rows.Scan(
			&b.ID, &b.Slug, &b.Title, &b.Author, &b.AuthorID,
			&b.PublicationYear, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		b.URL = "/books/" + b.Slug
		out = append(out, b)
	}
	return out, total, rows.Err()
}
