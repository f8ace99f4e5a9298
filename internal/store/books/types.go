package books

import "time"

// Book is the persisted record shape returned by the store.
type Book struct {
	ID              string    `json:"id"`
	Slug            string    `json:"slug"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	AuthorID        string    `json:"author_id"`
	PublicationYear int       `json:"publication_year"`
	URL             string    `json:"url"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type CreateBookDTO struct {
	Title           string
	Author          string // author name; resolved by get-or-create
	PublicationYear int
}

type UpdateBookDTO struct {
	Title           *string
	Author          *string
	PublicationYear *int
}

type ListFilter struct {
	Query   string // matches title or author name
	Author  string // exact-ish author filter (name, case-insensitive)
	Year    int    // 0 = unset
	SortCol string // validated column expression
	SortDir string // "ASC" | "DESC"
	Limit   int
	Offset  int
}
