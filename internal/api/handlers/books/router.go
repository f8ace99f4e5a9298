package books

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"
)

const allowBooks = "GET, POST, PATCH, PUT, DELETE, OPTIONS, HEAD"

func Handler(db *sql.DB, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			keyPart := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/books/"), "/")
			if keyPart == "" {
				handleList(db, rdb, w, r)
				return
			}
			handleGet(db, rdb, w, r, keyPart)

		case http.MethodHead:
			handleHead(db, w, r)

		case http.MethodPost:
			handleCreate(db, rdb, w, r)

		case http.MethodPatch:
			handlePatch(db, rdb, w, r)

		case http.MethodPut:
			handlePut(db, rdb, w, r)

		case http.MethodDelete:
			handleDelete(db, rdb, w, r)

		default:
			w.Header().Set("Allow", allowBooks)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
