package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openshelf/library-api/internal/api/httpx"
	"github.com/openshelf/library-api/internal/api/middlewares"
	jwtutil "github.com/openshelf/library-api/internal/security/jwt"
	"github.com/openshelf/library-api/internal/security/password"
)

type Handler struct {
	Store UserStore
	RDB   *redis.Client
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type MeResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Username    string     `json:"username"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	HasPhoto    bool       `json:"has_photo"`
	CreatedAt   time.Time  `json:"created_at"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func New(store UserStore, rdb *redis.Client) *Handler {
	return &Handler{Store: store, RDB: rdb}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.ErrorCode(w, http.StatusBadRequest, "bad_request", "Invalid JSON")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || !strings.Contains(req.Email, "@") || req.Username == "" {
		httpx.ErrorCode(w, http.StatusBadRequest, "invalid_input", "Invalid email or username")
		return
	}

	pwd, pwWarn, err := password.Validate(req.Password, req.Email, req.Username)
	if err != nil {
		httpx.ErrorCode(w, http.StatusBadRequest, "invalid_input", "Password must be at least 8 characters")
		return
	}

	var dob *time.Time
	if req.DateOfBirth != "" {
		t, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil || t.After(time.Now()) {
			httpx.ErrorCode(w, http.StatusBadRequest, "invalid_input", "date_of_birth must be YYYY-MM-DD and in the past")
			return
		}
		dob = &t
	}

	hash, err := password.Hash(pwd)
	if err != nil {
		httpx.ErrorCode(w, http.StatusInternalServerError, "hash_error", "Failed to hash password")
		return
	}

	u, err := h.Store.CreateUser(r.Context(), req.Email, req.Username, hash, dob)
	if err != nil {
		httpx.ErrorCode(w, http.StatusConflict, "conflict", "Cannot create user")
		return
	}

	access, _, err := jwtutil.SignAccess(u.ID, u.TokenVersion, jwtutil.DefaultAccessTTL())
	if err != nil {
		httpx.ErrorCode(w, http.StatusInternalServerError, "jwt_error", "Failed to sign access token")
		return
	}
	refresh, err := h.issueRefresh(r.Context(), u.ID, u.TokenVersion)
	if err != nil {
		httpx.ErrorCode(w, http.StatusInternalServerError, "refresh_error", "Failed to issue refresh token")
		return
	}

	resp := map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
	}
	if pwWarn != nil {
		resp["password_warning"] = pwWarn
	}
	httpx.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.ErrorCode(w, http.StatusBadRequest, "bad_request", "Invalid JSON")
		return
	}
	u, err := h.Store.FindUserByEmail(r.Context(), req.Email)
	if err != nil || u.ID == "" {
		httpx.ErrorCode(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
		return
	}
	if u.Status != "active" {
		httpx.ErrorCode(w, http.StatusForbidden, "account_banned", "Account is banned")
		return
	}
	ok, needsRehash, err := password.Verify(req.Password, u.PasswordHash)
	if err != nil || !ok {
		httpx.ErrorCode(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
		return
	}
	if needsRehash {
		if newPHC, err := password.Hash(req.Password); err == nil {
			_ = h.Store.UpdateUserPasswordHash(r.Context(), u.ID, newPHC)
		}
	}

	access, _, err := jwtutil.SignAccess(u.ID, u.TokenVersion, jwtutil.DefaultAccessTTL())
	if err != nil {
		httpx.ErrorCode(w, http.StatusInternalServerError, "jwt_error", "Failed to sign access token")
		return
	}
	refresh, err := h.issueRefresh(r.Context(), u.ID, u.TokenVersion)
	if err != nil {
		httpx.ErrorCode(w, http.StatusInternalServerError, "refresh_error", "Failed to issue refresh token")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, TokenPair{AccessToken: access, RefreshToken: refresh})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		httpx.ErrorCode(w, http.StatusBadRequest, "bad_request", "Invalid JSON")
		return
	}
	key := "rt:" + req.RefreshToken

	ctx := r.Context()
	val, err := h.RDB.Get(ctx, key).Result()
	if err != nil {
		httpx.ErrorCode(w, http.StatusUnauthorized, "invalid_refresh", "Invalid refresh token")
		return
	}

	parts := strings.SplitN(val, "|", 2) // value: userID|tokenVersion
	if len(parts) != 2 {
		httpx.ErrorCode(w, http.StatusUnauthorized, "invalid_refresh", "Invalid refresh token")
		return
	}
	userID := parts[0]
	tv, _ := strconv.Atoi(parts[1])

	// confirm token_version is current
	dbVer, err := h.Store.TokenVersion(ctx, userID)
	if err != nil || dbVer != tv {
		httpx.ErrorCode(w, http.StatusUnauthorized, "token_revoked", "Token has been revoked")
		return
	}

	// rotate refresh
	_ = h.RDB.Del(ctx, key).Err()
	newRefresh, err := h.issueRefresh(ctx, userID, dbVer)
	if err != nil {
		httpx.ErrorCode(w, http.StatusInternalServerError, "refresh_error", "Failed to issue refresh token")
		return
	}

	access, _, err := jwtutil.SignAccess(userID, dbVer, jwtutil.DefaultAccessTTL())
	if err != nil {
		httpx.ErrorCode(w, http.StatusInternalServerError, "jwt_error", "Failed to sign access token")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, TokenPair{AccessToken: access, RefreshToken: newRefresh})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.RefreshToken == "" {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	_ = h.RDB.Del(r.Context(), "rt:"+req.RefreshToken).Err()
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.UserIDFrom(r.Context())
	if !ok {
		httpx.ErrorCode(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}
	if err := h.Store.BumpTokenVersion(r.Context(), userID); err != nil {
		httpx.ErrorCode(w, http.StatusInternalServerError, "update_failed", "Failed to update token version")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.UserIDFrom(r.Context())
	if !ok {
		httpx.ErrorCode(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}
	u, err := h.Store.FindUserByID(r.Context(), userID)
	if err != nil {
		httpx.ErrorCode(w, http.StatusNotFound, "not_found", "User not found")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, MeResponse{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		Role:        u.Role,
		Status:      u.Status,
		DateOfBirth: u.DateOfBirth,
		HasPhoto:    u.PhotoKey != nil,
		CreatedAt:   u.CreatedAt,
	})
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.UserIDFrom(r.Context())
	if !ok {
		httpx.ErrorCode(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.ErrorCode(w, http.StatusBadRequest, "invalid_input", "Invalid input")
		return
	}
	if req.OldPassword == "" {
		httpx.ErrorCode(w, http.StatusBadRequest, "invalid_input", "Invalid input")
		return
	}
	np, warn, err := password.Validate(req.NewPassword)
	if err != nil {
		httpx.ErrorCode(w, http.StatusBadRequest, "invalid_input", "Password must be at least 8 characters")
		return
	}

	u, err := h.Store.FindUserByID(r.Context(), userID)
	if err != nil {
		httpx.ErrorCode(w, http.StatusNotFound, "not_found", "User not found")
		return
	}

	okPass, _, err := password.Verify(req.OldPassword, u.PasswordHash)
	if err != nil || !okPass {
		httpx.ErrorCode(w, http.StatusForbidden, "forbidden", "Invalid old password")
		return
	}

	// Warn-only strength: set headers, keep the 200 JSON shape.
	if warn != nil {
		w.Header().Set("X-Password-Score", strconv.Itoa(warn.Score))
		if warn.Message != "" {
			w.Header().Set("X-Password-Warning", warn.Message)
		} else {
			w.Header().Set("X-Password-Warning", "Password could be stronger")
		}
	}

	newPHC, err := password.Hash(np)
	if err != nil {
		httpx.ErrorCode(w, http.StatusInternalServerError, "hash_error", "Failed to hash new password")
		return
	}

	// new hash + bump token_version in one statement
	if err := h.Store.SetPasswordAndBump(r.Context(), userID, newPHC); err != nil {
		httpx.ErrorCode(w, http.StatusInternalServerError, "update_failed", "Failed to update password")
		return
	}

	// issue fresh tokens (tv+1)
	access, _, err := jwtutil.SignAccess(userID, u.TokenVersion+1, jwtutil.DefaultAccessTTL())
	if err != nil {
		httpx.ErrorCode(w, http.StatusInternalServerError, "jwt_error", "Failed to sign access token")
		return
	}
	newRefresh, err := h.issueRefresh(r.Context(), userID, u.TokenVersion+1)
	if err != nil {
		httpx.ErrorCode(w, http.StatusInternalServerError, "refresh_error", "Failed to issue refresh token")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, TokenPair{AccessToken: access, RefreshToken: newRefresh})
}

// ---- refresh helpers (Redis allowlist) ----

func (h *Handler) issueRefresh(ctx context.Context, userID string, tokenVersion int) (string, error) {
	token, err := randToken()
	if err != nil {
		return "", err
	}
	if h.RDB == nil {
		return "", errors.New("redis not configured")
	}
	key := "rt:" + token
	val := userID + "|" + strconv.Itoa(tokenVersion)
	if err := h.RDB.Set(ctx, key, val, refreshTTL()).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func refreshTTL() time.Duration {
	if s := os.Getenv("AUTH_REFRESH_TTL"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			return d
		}
	}
	return 30 * 24 * time.Hour
}

func randToken() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}

