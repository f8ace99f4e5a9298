package libraries

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/openshelf/library-api/internal/api/apperr"
	"github.com/openshelf/library-api/internal/api/httpx"
	"github.com/openshelf/library-api/internal/api/middlewares"
	"github.com/openshelf/library-api/internal/audit"
	"github.com/openshelf/library-api/internal/store/catalog"
	"github.com/openshelf/library-api/internal/validate"
	storelibs "github.com/openshelf/library-api/internal/store/libraries"
)

func List(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		limit, offset := validate.ClampLimitOffset(
			r.URL.Query().Get("limit"), r.URL.Query().Get("offset"), 20, 100)

		list, total, err := storelibs.List(r.Context(), db, limit, offset)
		if err != nil {
			apperr.HandleDBError(w, r, err, "failed to list libraries")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data":   list,
			"total":  total,
			"limit":  limit,
			"offset": offset,
		})
	}
}

func Get(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		key := r.PathValue("key")
		l, err := storelibs.FetchByKey(r.Context(), db, key)
		if errors.Is(err, storelibs.ErrNotFound) || errors.Is(err, sql.ErrNoRows) {
			apperr.WriteStatus(w, r, http.StatusNotFound, "Not Found", "no library with that id or slug")
			return
		}
		if err != nil {
			apperr.HandleDBError(w, r, err, "failed to fetch library")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "success", "data": l})
	}
}

func Create(db *sql.DB, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		defer r.Body.Close()

		var body struct {
			Name string `json:"name"`
		}
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&body); err != nil {
			apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", "invalid JSON")
			return
		}
		name, err := validate.RequireBounded("name", body.Name, 1, 160)
		if err != nil {
			apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}

		l, err := storelibs.Create(r.Context(), db, name)
		if errors.Is(err, storelibs.ErrConflict) {
			apperr.WriteStatus(w, r, http.StatusConflict, "Conflict", "library already exists")
			return
		}
		if err != nil {
			apperr.HandleDBError(w, r, err, "failed to create library")
			return
		}

		recordMutation(r, rdb, "library.create", l.ID, map[string]string{"name": l.Name})

		httpx.Created(w, l)
	}
}

// ReplaceBooks handles PUT /api/v1/libraries/{key}/books: the body is the
// complete set of book IDs the library should hold.
func ReplaceBooks(db *sql.DB, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		defer r.Body.Close()

		key := r.PathValue("key")

		var body struct {
			BookIDs []string `json:"book_ids"`
		}
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&body); err != nil {
			apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", "invalid JSON")
			return
		}
		if len(body.BookIDs) > 500 {
			apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", "too many books (max 500)")
			return
		}

		err := storelibs.ReplaceBooks(r.Context(), db, key, body.BookIDs)
		switch {
		case errors.Is(err, storelibs.ErrNotFound):
			apperr.WriteStatus(w, r, http.StatusNotFound, "Not Found", "no library with that id or slug")
			return
		case errors.Is(err, storelibs.ErrNoSuchRef):
			apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", "one or more book_ids do not exist")
			return
		case err != nil:
			apperr.HandleDBError(w, r, err, "failed to set library books")
			return
		}

		recordMutation(r, rdb, "library.books", key, map[string]int{"count": len(body.BookIDs)})

		_ = json.NewEncoder(w).Encode(map[string]any{"status": "success"})
	}
}

// AssignLibrarian handles PUT /api/v1/libraries/{key}/librarian.
func AssignLibrarian(db *sql.DB, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		defer r.Body.Close()

		key := r.PathValue("key")

		var body struct {
			UserID string `json:"user_id"`
		}
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&body); err != nil || body.UserID == "" {
			apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", "invalid JSON")
			return
		}

		err := storelibs.AssignLibrarian(r.Context(), db, key, body.UserID)
		switch {
		case errors.Is(err, storelibs.ErrNotFound):
			apperr.WriteStatus(w, r, http.StatusNotFound, "Not Found", "no library with that id or slug")
			return
		case errors.Is(err, storelibs.ErrBadRole):
			apperr.WriteStatus(w, r, http.StatusConflict, "Conflict",
				"user must be an active librarian")
			return
		case err != nil:
			apperr.HandleDBError(w, r, err, "failed to assign librarian")
			return
		}

		recordMutation(r, rdb, "library.librarian", key, map[string]string{"user_id": body.UserID})

		_ = json.NewEncoder(w).Encode(map[string]any{"status": "success"})
	}
}

func recordMutation(r *http.Request, rdb *redis.Client, action, targetID string, detail any) {
	actor, _ := middlewares.UserIDFrom(r.Context())
	audit.Record(audit.Event{
		ActorID: actor, Action: action, TargetType: "library", TargetID: targetID, Detail: detail,
	})
	_ = catalog.BumpVersion(r.Context(), rdb)
}
