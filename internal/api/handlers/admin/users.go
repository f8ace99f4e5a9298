package admin

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/openshelf/library-api/internal/api/apperr"
	"github.com/openshelf/library-api/internal/api/httpx"
)

// ListUsers handles GET /api/v1/admin/users with optional q, role, status filters.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, size := parsePage(r)
	f := ListFilter{
		Query:  r.URL.Query().Get("q"),
		Role:   trimLower(r.URL.Query().Get("role")),
		Status: trimLower(r.URL.Query().Get("status")),
		Page:   page,
		Size:   size,
	}
	if f.Role != "" && !validateRole(f.Role) {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Invalid role filter",
			"role must be one of: member, librarian, admin")
		return
	}
	if f.Status != "" && !validateStatus(f.Status) {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Invalid status filter",
			"status must be one of: active, banned")
		return
	}

	rows, total, err := h.Sto.ListUsers(r.Context(), f)
	if err != nil {
		apperr.HandleDBError(w, r, err, "list users")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   rows,
		"meta":   map[string]int{"page": page, "size": size, "total": total},
	})
}

// GetUser handles GET /api/v1/admin/users/{id}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.Sto.GetUser(r.Context(), r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		apperr.WriteStatus(w, r, http.StatusNotFound, "User not found", "No user with that ID.")
		return
	}
	if err != nil {
		apperr.HandleDBError(w, r, err, "get user")
		return
	}
	httpx.OK(w, u)
}

// BanUser handles POST /api/v1/admin/users/{id}/ban. Banning also bumps the
// token version so outstanding access tokens die at their next check.
func (h *Handler) BanUser(w http.ResponseWriter, r *http.Request) {
	if !h.checkRateLimit(w, r, "ban", 10, time.Minute) {
		return
	}
	id := r.PathValue("id")
	if id == actorID(r) {
		apperr.WriteStatus(w, r, http.StatusConflict, "Cannot ban self",
			"Admins cannot ban their own account.")
		return
	}
	if err := h.Sto.SetUserStatus(r.Context(), id, "banned"); err != nil {
		h.writeUserMutationError(w, r, err, "ban user")
		return
	}
	if err := h.Sto.BumpTokenVersion(r.Context(), id); err != nil {
		log.Printf("[Admin] bump token version after ban: %v", err)
	}
	h.audit(r, "user.ban", "user", id, nil)
	httpx.OKNoData(w, "User banned.")
}

// UnbanUser handles POST /api/v1/admin/users/{id}/unban.
func (h *Handler) UnbanUser(w http.ResponseWriter, r *http.Request) {
	if !h.checkRateLimit(w, r, "unban", 10, time.Minute) {
		return
	}
	id := r.PathValue("id")
	if err := h.Sto.SetUserStatus(r.Context(), id, "active"); err != nil {
		h.writeUserMutationError(w, r, err, "unban user")
		return
	}
	h.audit(r, "user.unban", "user", id, nil)
	httpx.OKNoData(w, "User unbanned.")
}

// SetRole handles PATCH /api/v1/admin/users/{id}/role.
func (h *Handler) SetRole(w http.ResponseWriter, r *http.Request) {
	if !h.checkRateLimit(w, r, "role", 10, time.Minute) {
		return
	}
	var req SetRoleRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Invalid JSON body", err.Error())
		return
	}
	req.Role = trimLower(req.Role)
	if !validateRole(req.Role) {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Invalid role",
			"role must be one of: member, librarian, admin")
		return
	}

	id := r.PathValue("id")

	// Refuse to demote the last remaining admin, locking everyone out.
	if req.Role != "admin" {
		current, err := h.Sto.GetUser(r.Context(), id)
		if errors.Is(err, sql.ErrNoRows) {
			apperr.WriteStatus(w, r, http.StatusNotFound, "User not found", "No user with that ID.")
			return
		}
		if err != nil {
			apperr.HandleDBError(w, r, err, "set role")
			return
		}
		if current.Role == "admin" {
			n, err := h.Sto.AdminCount(r.Context())
			if err != nil {
				apperr.HandleDBError(w, r, err, "set role")
				return
			}
			if n <= 1 {
				apperr.WriteStatus(w, r, http.StatusConflict, "Last admin",
					"Cannot demote the only remaining admin.")
				return
			}
		}
	}

	if err := h.Sto.SetUserRole(r.Context(), id, req.Role); err != nil {
		h.writeUserMutationError(w, r, err, "set role")
		return
	}
	// Role is embedded in freshly minted tokens only; kill the old ones.
	if err := h.Sto.BumpTokenVersion(r.Context(), id); err != nil {
		log.Printf("[Admin] bump token version after role change: %v", err)
	}
	h.audit(r, "user.role", "user", id, map[string]string{"role": req.Role})
	httpx.OKNoData(w, "Role updated.")
}

// ForceLogout handles POST /api/v1/admin/users/{id}/logout-all.
func (h *Handler) ForceLogout(w http.ResponseWriter, r *http.Request) {
	if !h.checkRateLimit(w, r, "logout", 20, time.Minute) {
		return
	}
	id := r.PathValue("id")
	if err := h.Sto.BumpTokenVersion(r.Context(), id); err != nil {
		h.writeUserMutationError(w, r, err, "force logout")
		return
	}
	h.audit(r, "user.logout_all", "user", id, nil)
	httpx.OKNoData(w, "All sessions for user invalidated.")
}

func (h *Handler) writeUserMutationError(w http.ResponseWriter, r *http.Request, err error, op string) {
	if errors.Is(err, sql.ErrNoRows) {
		apperr.WriteStatus(w, r, http.StatusNotFound, "User not found", "No user with that ID.")
		return
	}
	apperr.HandleDBError(w, r, err, op)
}

func (h *Handler) audit(r *http.Request, action, targetType, targetID string, detail any) {
	if err := h.Sto.InsertAudit(r.Context(), actorID(r), action, targetType, targetID, detail); err != nil {
		log.Printf("[Audit] insert %s: %v", action, err)
	}
}
