package middlewares

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	jwtutil "github.com/openshelf/library-api/internal/security/jwt"
)

// RequireAuth verifies Bearer JWT, checks token_version and status against
// the DB, then injects userID and role into context. Banned users are
// rejected even with an otherwise valid token.
func RequireAuth(db *sql.DB, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("Authorization")
		if raw == "" {
			http.Error(w, "missing Authorization header", http.StatusUnauthorized)
			return
		}
		tokenStr, err := bearer(raw)
		if err != nil {
			http.Error(w, "invalid Authorization header", http.StatusUnauthorized)
			return
		}
		claims, err := jwtutil.ParseAccess(tokenStr)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		var dbVer int
		var status, role string
		err = db.QueryRowContext(r.Context(),
			`SELECT COALESCE(token_version,1), status, role FROM users WHERE id = $1`,
			claims.Subject).Scan(&dbVer, &status, &role)
		if err != nil {
			http.Error(w, "user not found", http.StatusUnauthorized)
			return
		}
		if claims.TokenVersion != dbVer {
			http.Error(w, "token revoked", http.StatusUnauthorized)
			return
		}
		if status != "active" {
			http.Error(w, "account disabled", http.StatusForbidden)
			return
		}

		ctx := WithRole(WithUserID(r.Context(), claims.Subject), role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearer(h string) (string, error) {
	if !strings.HasPrefix(h, "Bearer ") && !strings.HasPrefix(h, "bearer ") {
		return "", errors.New("no bearer")
	}
	return strings.TrimSpace(h[len("Bearer "):]), nil
}
