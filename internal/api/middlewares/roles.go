package middlewares

import (
	"database/sql"
	"net/http"
)

// RequireAnyRole ensures the caller is authenticated and holds one of the
// given roles. Role comes from the context set by RequireAuth, so no extra
// query is needed here.
func RequireAnyRole(db *sql.DB, next http.Handler, roles ...string) http.Handler {
	return RequireAuth(db, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		have, ok := RoleFrom(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		for _, want := range roles {
			if have == want {
				next.ServeHTTP(w, r)
				return
			}
		}
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
}

// RequireRole is the single-role convenience used by the admin router.
func RequireRole(db *sql.DB, role string, next http.Handler) http.Handler {
	return RequireAnyRole(db, next, role)
}
