package validate_test

import (
	"strings"
	"testing"
	"time"

	"github.com/openshelf/library-api/internal/validate"
)

func TestRequireBounded(t *testing.T) {
	got, err := validate.RequireBounded("title", "  1984  ", 1, 200)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got != "1984" {
		t.Fatalf("expected trimmed value, got %q", got)
	}

	if _, err := validate.RequireBounded("title", "   ", 1, 200); err == nil {
		t.Fatal("expected error for blank value")
	}
	if _, err := validate.RequireBounded("title", strings.Repeat("x", 201), 1, 200); err == nil {
		t.Fatal("expected error for overlong value")
	}
}

func TestPublicationYear(t *testing.T) {
	thisYear := time.Now().UTC().Year()

	if err := validate.PublicationYear(1949); err != nil {
		t.Fatalf("1949 should be valid: %v", err)
	}
	if err := validate.PublicationYear(thisYear); err != nil {
		t.Fatalf("current year should be valid: %v", err)
	}
	if err := validate.PublicationYear(thisYear + 1); err == nil {
		t.Fatal("future year must be rejected")
	}
	if err := validate.PublicationYear(0); err == nil {
		t.Fatal("zero must be rejected")
	}
	if err := validate.PublicationYear(-100); err == nil {
		t.Fatal("negative year must be rejected")
	}
}

func TestClampLimitOffset(t *testing.T) {
	limit, offset := validate.ClampLimitOffset("50", "10", 20, 100)
	if limit != 50 || offset != 10 {
		t.Fatalf("got limit=%d offset=%d", limit, offset)
	}

	// out of range falls back to defaults
	limit, offset = validate.ClampLimitOffset("9999", "-5", 20, 100)
	if limit != 20 || offset != 0 {
		t.Fatalf("got limit=%d offset=%d", limit, offset)
	}

	limit, offset = validate.ClampLimitOffset("", "", 20, 100)
	if limit != 20 || offset != 0 {
		t.Fatalf("got limit=%d offset=%d", limit, offset)
	}
}

func TestParseSort(t *testing.T) {
	allowed := map[string]string{
		"title":      "b.title",
		"created_at": "b.created_at",
	}

	col, dir := validate.ParseSort("title", "desc", "created_at", allowed)
	if col != "b.title" || dir != "DESC" {
		t.Fatalf("got col=%q dir=%q", col, dir)
	}

	// unknown key falls back; injection attempts never reach SQL
	col, dir = validate.ParseSort("title; DROP TABLE books", "up", "created_at", allowed)
	if col != "b.created_at" || dir != "ASC" {
		t.Fatalf("got col=%q dir=%q", col, dir)
	}
}

func TestParseYear(t *testing.T) {
	y, err := validate.ParseYear(" 1949 ")
	if err != nil || y != 1949 {
		t.Fatalf("got y=%d err=%v", y, err)
	}
	y, err = validate.ParseYear("")
	if err != nil || y != 0 {
		t.Fatalf("empty should be unset; got y=%d err=%v", y, err)
	}
	if _, err := validate.ParseYear("abc"); err == nil {
		t.Fatal("expected error for non-numeric year")
	}
	if _, err := validate.ParseYear("-3"); err == nil {
		t.Fatal("expected error for negative year")
	}
}
