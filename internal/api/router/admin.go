package router

import (
	"database/sql"
	"net/http"

	"github.com/redis/go-redis/v9"

	admin "github.com/openshelf/library-api/internal/api/handlers/admin"
	"github.com/openshelf/library-api/internal/api/middlewares"
	adminstore "github.com/openshelf/library-api/internal/store/admin"
)

// MountAdmin wires all /api/v1/admin/* endpoints behind RequireRole(..., "admin").
func MountAdmin(mux *http.ServeMux, db *sql.DB, rdb *redis.Client) {
	gate := func(next http.Handler) http.Handler {
		return middlewares.RequireRole(db, "admin", next)
	}

	adminH := &admin.Handler{DB: db, RDB: rdb, Sto: adminstore.New(db)}

	// Users management
	mux.Handle("GET /api/v1/admin/users", gate(http.HandlerFunc(adminH.ListUsers)))
	mux.Handle("GET /api/v1/admin/users/{id}", gate(http.HandlerFunc(adminH.GetUser)))
	mux.Handle("POST /api/v1/admin/users/{id}/ban", gate(http.HandlerFunc(adminH.BanUser)))
	mux.Handle("POST /api/v1/admin/users/{id}/unban", gate(http.HandlerFunc(adminH.UnbanUser)))
	mux.Handle("PATCH /api/v1/admin/users/{id}/role", gate(http.HandlerFunc(adminH.SetRole)))
	mux.Handle("POST /api/v1/admin/users/{id}/logout-all", gate(http.HandlerFunc(adminH.ForceLogout)))

	// Stats & audit
	mux.Handle("GET /api/v1/admin/stats", gate(http.HandlerFunc(adminH.Stats)))
	mux.Handle("GET /api/v1/admin/audit", gate(http.HandlerFunc(adminH.ListAudit)))
}
