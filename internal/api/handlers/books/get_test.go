package books_test

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/openshelf/library-api/internal/api/handlers/books"
)

func TestGet_BySlug(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT[\s\S]+WHERE b\.slug = \$1`).
		WithArgs("1984").
		WillReturnRows(sqlmock.NewRows(bookCols).AddRow(
			bookID, "1984", "1984", "George Orwell", authorID, 1949, now, now))

	mux := http.NewServeMux()
	mux.Handle("GET /api/v1/books/{key}", books.Handler(db, nil))

	req := httptest.NewRequest("GET", "/api/v1/books/1984", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGet_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT[\s\S]+WHERE b\.slug = \$1`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(bookCols))

	mux := http.NewServeMux()
	mux.Handle("GET /api/v1/books/{key}", books.Handler(db, nil))

	req := httptest.NewRequest("GET", "/api/v1/books/ghost", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("want problem+json, got %q", ct)
	}
}

func TestDelete_NoContent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(
		`DELETE FROM books b WHERE b.slug = $1`)).
		WithArgs("1984").
		WillReturnResult(sqlmock.NewResult(0, 1))

	mux := http.NewServeMux()
	mux.Handle("DELETE /api/v1/books/{key}", books.Handler(db, nil))

	req := httptest.NewRequest("DELETE", "/api/v1/books/1984", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("want 204, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", rec.Body.String())
	}
}

func TestHead_Exists(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT EXISTS (SELECT 1 FROM books b WHERE b.slug = $1)`)).
		WithArgs("1984").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	mux := http.NewServeMux()
	mux.Handle("HEAD /api/v1/books/{key}", books.Handler(db, nil))

	req := httptest.NewRequest("HEAD", "/api/v1/books/1984", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
}
