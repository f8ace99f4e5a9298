package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/openshelf/library-api/internal/api/middlewares"
	"github.com/openshelf/library-api/internal/security/password"
)

// fakeStore backs handler tests without a database. Only the fields a
// given test reads need to be set.
type fakeStore struct {
	byEmail map[string]User
	byID    map[string]User
	bumped  []string
}

var errNotFound = errors.New("not found")

func (f *fakeStore) CreateUser(ctx context.Context, email, username, hash string, dob *time.Time) (User, error) {
	return User{}, errors.New("not implemented")
}

func (f *fakeStore) FindUserByEmail(ctx context.Context, email string) (User, error) {
	if u, ok := f.byEmail[strings.ToLower(email)]; ok {
		return u, nil
	}
	return User{}, errNotFound
}

func (f *fakeStore) FindUserByID(ctx context.Context, id string) (User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return User{}, errNotFound
}

func (f *fakeStore) UpdateUserPasswordHash(ctx context.Context, id, hash string) error { return nil }

func (f *fakeStore) TokenVersion(ctx context.Context, id string) (int, error) {
	if u, ok := f.byID[id]; ok {
		return u.TokenVersion, nil
	}
	return 0, errNotFound
}

func (f *fakeStore) BumpTokenVersion(ctx context.Context, id string) error {
	f.bumped = append(f.bumped, id)
	return nil
}

func (f *fakeStore) SetPasswordAndBump(ctx context.Context, id, hash string) error { return nil }

func postJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func errCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad error body: %v", err)
	}
	return body["error"]
}

func TestRegister_InvalidEmail(t *testing.T) {
	h := New(&fakeStore{}, nil)
	rec := postJSON(t, h.Register, `{"email":"not-an-email","username":"alice","password":"S3cure&Long"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := errCode(t, rec); got != "invalid_input" {
		t.Fatalf("error = %q", got)
	}
}

func TestRegister_ShortPassword(t *testing.T) {
	h := New(&fakeStore{}, nil)
	rec := postJSON(t, h.Register, `{"email":"a@example.com","username":"alice","password":"short"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRegister_FutureDateOfBirth(t *testing.T) {
	h := New(&fakeStore{}, nil)
	future := time.Now().AddDate(1, 0, 0).Format("2006-01-02")
	rec := postJSON(t, h.Register,
		`{"email":"a@example.com","username":"alice","password":"S3cure&Long","date_of_birth":"`+future+`"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	h := New(&fakeStore{byEmail: map[string]User{}}, nil)
	rec := postJSON(t, h.Login, `{"email":"ghost@example.com","password":"whatever123"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if got := errCode(t, rec); got != "invalid_credentials" {
		t.Fatalf("error = %q", got)
	}
}

func TestLogin_BannedAccount(t *testing.T) {
	hash, err := password.Hash("S3cure&Long")
	if err != nil {
		t.Fatal(err)
	}
	store := &fakeStore{byEmail: map[string]User{
		"banned@example.com": {ID: "u1", Status: "banned", PasswordHash: hash},
	}}
	h := New(store, nil)
	rec := postJSON(t, h.Login, `{"email":"banned@example.com","password":"S3cure&Long"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if got := errCode(t, rec); got != "account_banned" {
		t.Fatalf("error = %q", got)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	hash, err := password.Hash("CorrectHorse&Battery")
	if err != nil {
		t.Fatal(err)
	}
	store := &fakeStore{byEmail: map[string]User{
		"a@example.com": {ID: "u1", Status: "active", PasswordHash: hash},
	}}
	h := New(store, nil)
	rec := postJSON(t, h.Login, `{"email":"a@example.com","password":"WrongHorse&Battery"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestMe(t *testing.T) {
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	photo := "users/u1/photo-abc.jpg"
	store := &fakeStore{byID: map[string]User{
		"u1": {
			ID: "u1", Email: "a@example.com", Username: "alice",
			Role: "member", Status: "active", PhotoKey: &photo, CreatedAt: created,
		},
	}}
	h := New(store, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req = req.WithContext(middlewares.WithUserID(req.Context(), "u1"))
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got MeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Username != "alice" || got.Role != "member" || !got.HasPhoto {
		t.Fatalf("unexpected body: %+v", got)
	}
}

func TestMe_NoIdentity(t *testing.T) {
	h := New(&fakeStore{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	rec := httptest.NewRecorder()
	h.Me(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestLogoutAll_BumpsTokenVersion(t *testing.T) {
	store := &fakeStore{}
	h := New(store, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout-all", nil)
	req = req.WithContext(middlewares.WithUserID(req.Context(), "u1"))
	rec := httptest.NewRecorder()
	h.LogoutAll(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(store.bumped) != 1 || store.bumped[0] != "u1" {
		t.Fatalf("bumped = %v", store.bumped)
	}
}
