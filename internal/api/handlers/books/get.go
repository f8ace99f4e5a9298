package books

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/openshelf/library-api/internal/api/apperr"
	"github.com/openshelf/library-api/internal/store/catalog"
	storebooks "github.com/openshelf/library-api/internal/store/books"
)

func handleGet(db *sql.DB, rdb *redis.Client, w http.ResponseWriter, r *http.Request, key string) {
	w.Header().Set("Content-Type", "application/json")

	cc := catalog.New(rdb)
	cacheKey := "book:" + key
	var cached storebooks.Book
	if cc.Get(r.Context(), cacheKey, &cached) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "success", "data": cached})
		return
	}

	b, err := storebooks.FetchByKey(r.Context(), db, key)
	if errors.Is(err, storebooks.ErrNotFound) || errors.Is(err, sql.ErrNoRows) {
		apperr.WriteStatus(w, r, http.StatusNotFound, "Not Found", "no book with that id or slug")
		return
	}
	if err != nil {
		apperr.HandleDBError(w, r, err, "failed to fetch book")
		return
	}

	cc.Set(r.Context(), cacheKey, b)
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "success", "data": b})
}
