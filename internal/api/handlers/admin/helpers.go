package admin

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/openshelf/library-api/internal/api/apperr"
	"github.com/openshelf/library-api/internal/api/middlewares"
	"github.com/openshelf/library-api/internal/store/shared"
)

func parsePage(r *http.Request) (page, size int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	size, _ = strconv.Atoi(r.URL.Query().Get("size"))
	return shared.ClampPage(page, size, 20, 100)
}

func validateRole(role string) bool {
	switch role {
	case "member", "librarian", "admin":
		return true
	}
	return false
}

func validateStatus(status string) bool {
	return status == "active" || status == "banned"
}

// actorID pulls the authenticated admin's ID out of the request context.
func actorID(r *http.Request) string {
	id, _ := middlewares.UserIDFrom(r.Context())
	return id
}

// checkRateLimit enforces a small per-admin budget on mutating actions so a
// compromised admin token cannot mass-ban or mass-promote quickly.
func (h *Handler) checkRateLimit(w http.ResponseWriter, r *http.Request, action string, limit int, window time.Duration) bool {
	if h.RDB == nil {
		return true
	}
	key := fmt.Sprintf("adminrl:%s:%s", actorID(r), action)
	n, err := h.RDB.Incr(r.Context(), key).Result()
	if err != nil {
		return true // fail-open: Redis outage must not lock admins out
	}
	if n == 1 {
		h.RDB.Expire(r.Context(), key, window)
	}
	if n > int64(limit) {
		apperr.WriteStatus(w, r, http.StatusTooManyRequests, "Too Many Requests",
			"Rate limit exceeded for this admin action. Try again shortly.")
		return false
	}
	return true
}

func trimLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
