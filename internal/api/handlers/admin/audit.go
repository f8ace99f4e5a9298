package admin

import (
	"net/http"
	"time"

	"github.com/openshelf/library-api/internal/api/apperr"
	"github.com/openshelf/library-api/internal/api/httpx"
)

// ListAudit handles GET /api/v1/admin/audit with optional actor_id, target_id,
// target_type, action, since, until filters (RFC 3339 timestamps).
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	page, size := parsePage(r)
	f := AuditFilter{
		ActorID:    r.URL.Query().Get("actor_id"),
		TargetID:   r.URL.Query().Get("target_id"),
		TargetType: trimLower(r.URL.Query().Get("target_type")),
		Action:     trimLower(r.URL.Query().Get("action")),
		Page:       page,
		Size:       size,
	}

	for qp, dst := range map[string]**time.Time{
		"since": &f.Since,
		"until": &f.Until,
	} {
		raw := r.URL.Query().Get(qp)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			apperr.WriteStatus(w, r, http.StatusBadRequest, "Invalid time filter",
				qp+" must be an RFC 3339 timestamp")
			return
		}
		*dst = &t
	}

	rows, total, err := h.Sto.ListAudit(r.Context(), f)
	if err != nil {
		apperr.HandleDBError(w, r, err, "list audit")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   rows,
		"meta":   map[string]int{"page": page, "size": size, "total": total},
	})
}
