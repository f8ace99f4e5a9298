package apperr

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Map well-known constraint names to fields (extend as constraints are added)
var constraintField = map[string]string{
	"books_slug_key":               "slug",
	"books_author_id_fkey":         "author_id",
	"books_publication_year_check": "publication_year",
	"authors_slug_key":             "slug",
	"libraries_slug_key":           "slug",
	"libraries_librarian_id_fkey":  "librarian_id",
	"library_books_library_id_fkey": "library_id",
	"library_books_book_id_fkey":   "book_id",
	"users_email_key":              "email",
}

// Guess a field from a column name present in PG error detail
func fieldFromDetail(detail string) string {
	// crude but useful
	for _, k := range []string{"slug", "title", "publication_year", "author_id", "librarian_id", "library_id", "book_id", "email", "id"} {
		if strings.Contains(detail, k) {
			return k
		}
	}
	return ""
}

func fieldFromConstraint(c string) string {
	if f, ok := constraintField[c]; ok {
		return f
	}
	return ""
}

// FromPG maps a pgconn.PgError to a Problem. Returns (Problem, true) if mapped.
func FromPG(err error) (Problem, bool) {
	var pg *pgconn.PgError
	if !errors.As(err, &pg) {
		return Problem{}, false
	}

	p := Problem{
		Title:  "Database error",
		Status: http.StatusInternalServerError,
		Detail: strings.TrimSpace(pg.Message),
	}

	field := fieldFromConstraint(pg.ConstraintName)
	if field == "" && pg.Detail != "" {
		field = fieldFromDetail(pg.Detail)
	}

	switch pg.Code {
	case "23505": // unique_violation
		p.Status = 409
		p.Title = "Conflict"
		if field == "" {
			field = "resource"
		}
		p.FieldErrors = []FieldError{{Field: field, Code: "unique", Message: "value already exists"}}
		p.Detail = ""
	case "23503": // foreign_key_violation
		p.Status = 409
		p.Title = "Conflict"
		if field == "" {
			field = "resource"
		}
		p.FieldErrors = []FieldError{{Field: field, Code: "fk", Message: "resource is referenced by other records"}}
		p.Detail = ""
	case "23502": // not_null_violation
		p.Status = 400
		p.Title = "Bad Request"
		if field == "" && pg.ColumnName != "" {
			field = pg.ColumnName
		}
		if field == "" {
			field = "field"
		}
		p.FieldErrors = []FieldError{{Field: field, Code: "not_null", Message: "required field is missing"}}
		p.Detail = ""
	case "23514": // check_violation
		p.Status = 422
		p.Title = "Unprocessable Entity"
		if field == "" {
			field = "field"
		}
		p.FieldErrors = []FieldError{{Field: field, Code: "check", Message: "constraint failed"}}
		p.Detail = ""
	case "22P02": // invalid_text_representation (e.g., bad UUID)
		p.Status = 400
		p.Title = "Bad Request"
		if field == "" {
			field = "id"
		}
		p.FieldErrors = []FieldError{{Field: field, Code: "invalid", Message: "invalid format"}}
		p.Detail = ""
	case "22001": // string_data_right_truncation
		p.Status = 400
		p.Title = "Bad Request"
		if field == "" {
			field = "field"
		}
		p.FieldErrors = []FieldError{{Field: field, Code: "too_long", Message: "value is too long"}}
		p.Detail = ""
	case "40001": // serialization_failure
		p.Status = 409
		p.Title = "Conflict"
		p.Detail = "transaction conflict, please retry"
		p.Retryable = true
	case "40P01": // deadlock_detected
		p.Status = 409
		p.Title = "Conflict"
		p.Detail = "deadlock detected, please retry"
		p.Retryable = true
	default:
		p.Title = "Database error"
		p.Detail = ""
	}

	return p, true
}

// HandleDBError maps err to a Problem and writes it. Returns true if handled.
func HandleDBError(w http.ResponseWriter, r *http.Request, err error, fallbackTitle string) bool {
	if err == nil {
		return false
	}
	if p, ok := FromPG(err); ok {
		Write(w, r, p)
		return true
	}
	Write(w, r, Problem{Status: http.StatusInternalServerError, Title: fallbackTitle})
	return true
}
