package authors

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/openshelf/library-api/internal/api/apperr"
	"github.com/openshelf/library-api/internal/api/httpx"
	"github.com/openshelf/library-api/internal/api/middlewares"
	"github.com/openshelf/library-api/internal/audit"
	"github.com/openshelf/library-api/internal/store/catalog"
	"github.com/openshelf/library-api/internal/validate"
	storeauthors "github.com/openshelf/library-api/internal/store/authors"
)

func List(db *sql.DB, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		q := strings.TrimSpace(r.URL.Query().Get("q"))
		limit, offset := validate.ClampLimitOffset(
			r.URL.Query().Get("limit"), r.URL.Query().Get("offset"), 20, 100)

		cc := catalog.New(rdb)
		cacheKey := "authors:" + r.URL.RawQuery
		var resp map[string]any
		if cc.Get(r.Context(), cacheKey, &resp) {
			_ = json.NewEncoder(w).Encode(resp)
			return
		}

		list, total, err := storeauthors.List(r.Context(), db, q, limit, offset)
		if err != nil {
			apperr.HandleDBError(w, r, err, "failed to list authors")
			return
		}

		resp = map[string]any{
			"status": "success",
			"data":   list,
			"total":  total,
			"limit":  limit,
			"offset": offset,
		}
		cc.Set(r.Context(), cacheKey, resp)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func Get(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		key := r.PathValue("key")
		a, err := storeauthors.FetchByKey(r.Context(), db, key)
		if errors.Is(err, storeauthors.ErrNotFound) || errors.Is(err, sql.ErrNoRows) {
			apperr.WriteStatus(w, r, http.StatusNotFound, "Not Found", "no author with that id or slug")
			return
		}
		if err != nil {
			apperr.HandleDBError(w, r, err, "failed to fetch author")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "success", "data": a})
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
		name, err := validate.RequireBounded("name", body.Name, 1, 120)
		if err != nil {
			apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}

		a, err := storeauthors.Create(r.Context(), db, name)
		if errors.Is(err, storeauthors.ErrConflict) {
			apperr.WriteStatus(w, r, http.StatusConflict, "Conflict", "author already exists")
			return
		}
		if err != nil {
			apperr.HandleDBError(w, r, err, "failed to create author")
			return
		}

		actor, _ := middlewares.UserIDFrom(r.Context())
		audit.Record(audit.Event{
			ActorID: actor, Action: "author.create", TargetType: "author", TargetID: a.ID,
			Detail: map[string]string{"name": a.Name},
		})
		_ = catalog.BumpVersion(r.Context(), rdb)

		httpx.Created(w, a)
	}
}
