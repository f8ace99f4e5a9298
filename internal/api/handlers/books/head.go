package books

import (
	"database/sql"
	"net/http"
	"strings"

	storebooks "github.com/openshelf/library-api/internal/store/books"
)

// HEAD semantics:
// - /api/v1/books/      → 200 (collection exists)
// - /api/v1/books/{key} → 200 if exists, 404 if not (no body)
func handleHead(db *sql.DB, w http.ResponseWriter, r *http.Request) {
	keyPart := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/books/"), "/")
	if keyPart == "" {
		w.WriteHeader(http.StatusOK)
		return
	}

	exists, err := storebooks.ExistsByKey(r.Context(), db, keyPart)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if !exists {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}
