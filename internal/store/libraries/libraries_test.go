package libraries

import (
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

const (
	libID  = "3f0a9c2e-8b1d-4e6f-9a2b-5c7d8e9f0a1b"
	bookID = "7c2d4e6f-1a3b-4c5d-8e9f-0a1b2c3d4e5f"
	userID = "9e8d7c6b-5a4f-4e3d-2c1b-0a9f8e7d6c5b"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestReplaceBooks_OK(t *testing.T) {
	db, mock := newDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT l.id::text FROM libraries l WHERE l.id = $1`)).
		WithArgs(libID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(libID))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM library_books WHERE library_id = $1`)).
		WithArgs(libID).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO library_books`).
		WithArgs(libID, bookID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := ReplaceBooks(t.Context(), db, libID, []string{bookID}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

// A repeated id must not be mistaken for a missing book: the second insert
// of the same pair hits ON CONFLICT DO NOTHING and reports zero rows.
func TestReplaceBooks_DuplicateIDs(t *testing.T) {
	db, mock := newDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT l.id::text FROM libraries l WHERE l.id = $1`)).
		WithArgs(libID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(libID))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM library_books`)).
		WithArgs(libID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	// only one insert despite the id appearing twice
	mock.ExpectExec(`INSERT INTO library_books`).
		WithArgs(libID, bookID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := ReplaceBooks(t.Context(), db, libID, []string{bookID, bookID}); err != nil {
		t.Fatalf("duplicate ids should be accepted, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestReplaceBooks_UnknownBook(t *testing.T) {
	db, mock := newDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT l.id::text FROM libraries l WHERE l.id = $1`)).
		WithArgs(libID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(libID))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM library_books`)).
		WithArgs(libID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO library_books`).
		WithArgs(libID, bookID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := ReplaceBooks(t.Context(), db, libID, []string{bookID})
	if !errors.Is(err, ErrNoSuchRef) {
		t.Fatalf("want ErrNoSuchRef, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestReplaceBooks_UnknownLibrary(t *testing.T) {
	db, mock := newDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT l.id::text FROM libraries l WHERE l.slug = $1`)).
		WithArgs("city-central").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := ReplaceBooks(t.Context(), db, "city-central", []string{bookID})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAssignLibrarian_OK(t *testing.T) {
	db, mock := newDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT role, status FROM users WHERE id = $1`)).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"role", "status"}).AddRow("librarian", "active"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE libraries l SET librarian_id = $2 WHERE l.id = $1`)).
		WithArgs(libID, userID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := AssignLibrarian(t.Context(), db, libID, userID); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAssignLibrarian_WrongRole(t *testing.T) {
	db, mock := newDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT role, status FROM users WHERE id = $1`)).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"role", "status"}).AddRow("member", "active"))
	mock.ExpectRollback()

	err := AssignLibrarian(t.Context(), db, libID, userID)
	if !errors.Is(err, ErrBadRole) {
		t.Fatalf("want ErrBadRole, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAssignLibrarian_BannedLibrarian(t *testing.T) {
	db, mock := newDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT role, status FROM users WHERE id = $1`)).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"role", "status"}).AddRow("librarian", "banned"))
	mock.ExpectRollback()

	if err := AssignLibrarian(t.Context(), db, libID, userID); !errors.Is(err, ErrBadRole) {
		t.Fatalf("want ErrBadRole, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAssignLibrarian_UnknownUser(t *testing.T) {
	db, mock := newDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT role, status FROM users WHERE id = $1`)).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"role", "status"}))
	mock.ExpectRollback()

	if err := AssignLibrarian(t.Context(), db, libID, userID); !errors.Is(err, ErrNoSuchRef) {
		t.Fatalf("want ErrNoSuchRef, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreate_DuplicateName(t *testing.T) {
	db, mock := newDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT EXISTS (SELECT 1 FROM libraries WHERE lower(name) = lower($1))`)).
		WithArgs("City Central").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	if _, err := Create(t.Context(), db, "City Central"); !errors.Is(err, ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
