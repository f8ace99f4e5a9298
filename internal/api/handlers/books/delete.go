package books

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/openshelf/library-api/internal/api/apperr"
	storebooks "github.com/openshelf/library-api/internal/store/books"
)

func handleDelete(db *sql.DB, rdb *redis.Client, w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", "missing key")
		return
	}

	err := storebooks.Delete(r.Context(), db, key)
	if errors.Is(err, storebooks.ErrNotFound) || errors.Is(err, sql.ErrNoRows) {
		apperr.WriteStatus(w, r, http.StatusNotFound, "Not Found", "no book with that id or slug")
		return
	}
	if err != nil {
		apperr.HandleDBError(w, r, err, "failed to delete book")
		return
	}

	recordMutation(r, rdb, "book.delete", "book", key, nil)

	// No response body on successful delete.
	w.WriteHeader(http.StatusNoContent)
}
