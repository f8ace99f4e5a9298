package books_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/openshelf/library-api/internal/api/handlers/books"
)

const (
	bookID   = "11111111-2222-3333-4444-555555555555"
	authorID = "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"
)

var bookCols = []string{
	"id", "slug", "title", "name", "author_id",
	"publication_year", "created_at", "updated_at",
}

func TestCreate_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id FROM authors WHERE lower(name) = lower($1)`)).
		WithArgs("George Orwell").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(authorID))
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT EXISTS (SELECT 1 FROM books WHERE author_id = $1 AND lower(title) = lower($2))`)).
		WithArgs(authorID, "1984").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT EXISTS (SELECT 1 FROM books WHERE slug = $1)`)).
		WithArgs("1984").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO books`)).
		WithArgs("1984", "1984", 1949, authorID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(bookID))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT[\s\S]+WHERE b\.id = \$1`).
		WithArgs(bookID).
		WillReturnRows(sqlmock.NewRows(bookCols).AddRow(
			bookID, "1984", "1984", "George Orwell", authorID, 1949, now, now))

	mux := http.NewServeMux()
	mux.Handle("POST /api/v1/books/", books.Handler(db, nil))

	body := `{"title":"1984","author":"George Orwell","publication_year":1949}`
	req := httptest.NewRequest("POST", "/api/v1/books/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("want 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			ID              string `json:"id"`
			Slug            string `json:"slug"`
			Title           string `json:"title"`
			Author          string `json:"author"`
			PublicationYear int    `json:"publication_year"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "success" || resp.Data.ID != bookID || resp.Data.PublicationYear != 1949 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreate_FutureYearRejected(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mux := http.NewServeMux()
	mux.Handle("POST /api/v1/books/", books.Handler(db, nil))

	future := time.Now().UTC().Year() + 1
	body := `{"title":"Tomorrow","author":"Nobody","publication_year":` +
		timeYear(future) + `}`
	req := httptest.NewRequest("POST", "/api/v1/books/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "publication_year") {
		t.Fatalf("expected publication_year in error detail: %s", rec.Body.String())
	}
}

func TestCreate_UnknownFieldRejected(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mux := http.NewServeMux()
	mux.Handle("POST /api/v1/books/", books.Handler(db, nil))

	body := `{"title":"1984","author":"George Orwell","publication_year":1949,"isbn":"?"}`
	req := httptest.NewRequest("POST", "/api/v1/books/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400 for unknown field, got %d", rec.Code)
	}
}

func TestCreate_MissingTitleRejected(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mux := http.NewServeMux()
	mux.Handle("POST /api/v1/books/", books.Handler(db, nil))

	body := `{"author":"George Orwell","publication_year":1949}`
	req := httptest.NewRequest("POST", "/api/v1/books/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400 for missing title, got %d", rec.Code)
	}
}

func timeYear(y int) string {
	b, _ := json.Marshal(y)
	return string(b)
}
