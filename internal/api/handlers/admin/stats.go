package admin

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/openshelf/library-api/internal/api/apperr"
	"github.com/openshelf/library-api/internal/api/httpx"
)

const statsCacheKey = "admin:stats"
const statsCacheTTL = 30 * time.Second

// Stats handles GET /api/v1/admin/stats. Counts are cached briefly in Redis
// since dashboards poll this endpoint.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.RDB != nil {
		if raw, err := h.RDB.Get(r.Context(), statsCacheKey).Bytes(); err == nil {
			var cached StatsResponse
			if json.Unmarshal(raw, &cached) == nil {
				httpx.OK(w, cached)
				return
			}
		}
	}

	var resp StatsResponse
	var err error

	resp.UsersTotal, err = h.Sto.CountUsers(r.Context())
	if err != nil {
		apperr.HandleDBError(w, r, err, "stats")
		return
	}
	resp.BooksTotal, resp.AuthorsTotal, resp.LibrariesTotal, err = h.Sto.CountCatalog(r.Context())
	if err != nil {
		apperr.HandleDBError(w, r, err, "stats")
		return
	}
	resp.SignupsLast24h, err = h.Sto.CountSignupsLast24h(r.Context())
	if err != nil {
		apperr.HandleDBError(w, r, err, "stats")
		return
	}

	if h.RDB != nil {
		if raw, err := json.Marshal(resp); err == nil {
			h.RDB.Set(r.Context(), statsCacheKey, raw, statsCacheTTL)
		}
	}
	httpx.OK(w, resp)
}
