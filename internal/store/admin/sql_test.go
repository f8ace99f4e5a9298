package adminstore_test

import (
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	admin "github.com/openshelf/library-api/internal/api/handlers/admin"
	adminstore "github.com/openshelf/library-api/internal/store/admin"
)

func TestCountCatalog(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	store := adminstore.New(db)

	mock.ExpectQuery(regexp.QuoteMeta(`(SELECT COUNT(*) FROM books)`)).
		WillReturnRows(sqlmock.NewRows([]string{"books", "authors", "libraries"}).AddRow(10, 4, 2))

	books, authors, libraries, err := store.CountCatalog(t.Context())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if books != 10 || authors != 4 || libraries != 2 {
		t.Fatalf("got books=%d authors=%d libraries=%d", books, authors, libraries)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSetUserRole_OK(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	store := adminstore.New(db)

	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE users SET role = $2, updated_at = now() WHERE id = $1`)).
		WithArgs("u-123", "librarian").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.SetUserRole(t.Context(), "u-123", "librarian"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSetUserRole_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	store := adminstore.New(db)

	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE users SET role = $2, updated_at = now() WHERE id = $1`)).
		WithArgs("nope", "member").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = store.SetUserRole(t.Context(), "nope", "member")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("want sql.ErrNoRows for 0 rows affected; got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestBumpTokenVersion(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	store := adminstore.New(db)

	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE users SET token_version = COALESCE(token_version, 1) + 1, updated_at = now() WHERE id = $1`)).
		WithArgs("u-123").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.BumpTokenVersion(t.Context(), "u-123"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestListUsers_RoleFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	store := adminstore.New(db)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT COUNT(*) FROM users WHERE 1=1 AND role = $1`)).
		WithArgs("admin").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	t1, _ := time.Parse(time.RFC3339, "2024-01-01T00:00:00Z")
	rows := sqlmock.NewRows([]string{
		"id", "email", "username", "role", "status", "date_of_birth", "created_at",
	}).AddRow("u1", "a@example.com", "alice", "admin", "active", nil, t1)

	mock.ExpectQuery(`SELECT id::text, email, username, role, status, date_of_birth, created_at\s+FROM users WHERE 1=1 AND role = \$1 ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`).
		WithArgs("admin", 20, 0).
		WillReturnRows(rows)

	out, total, err := store.ListUsers(t.Context(), admin.ListFilter{Role: "admin", Page: 1, Size: 20})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if total != 1 || len(out) != 1 || out[0].Username != "alice" {
		t.Fatalf("unexpected result: total=%d out=%+v", total, out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestInsertAudit_MarshalsDetail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	store := adminstore.New(db)

	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO audit_log (actor_id, action, target_type, target_id, detail)`)).
		WithArgs("admin-1", "user.role", "user", "u-2", []byte(`{"role":"librarian"}`)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = store.InsertAudit(t.Context(), "admin-1", "user.role", "user", "u-2",
		map[string]string{"role": "librarian"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
