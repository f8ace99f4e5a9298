package books

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/openshelf/library-api/internal/api/apperr"
	"github.com/openshelf/library-api/internal/validate"
	storebooks "github.com/openshelf/library-api/internal/store/books"
)

type replaceReq struct {
	Title           string `json:"title"`
	Author          string `json:"author"`
	PublicationYear int    `json:"publication_year"`
}

func handlePut(db *sql.DB, rdb *redis.Client, w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	defer r.Body.Close()

	key := r.PathValue("key")
	if key == "" {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", "missing key")
		return
	}

	var req replaceReq
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", "invalid JSON")
		return
	}

	title, err := validate.RequireBounded("title", req.Title, 1, 200)
	if err != nil {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	authorName, err := validate.RequireBounded("author", req.Author, 1, 120)
	if err != nil {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if err := validate.PublicationYear(req.PublicationYear); err != nil {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	dto := storebooks.CreateBookDTO{
		Title:           title,
		Author:          authorName,
		PublicationYear: req.PublicationYear,
	}
	b, err := storebooks.Replace(r.Context(), db, key, dto)
	if errors.Is(err, storebooks.ErrNotFound) || errors.Is(err, sql.ErrNoRows) {
		apperr.WriteStatus(w, r, http.StatusNotFound, "Not Found", "no book with that id or slug")
		return
	}
	if err != nil {
		apperr.HandleDBError(w, r, err, "failed to replace book")
		return
	}

	recordMutation(r, rdb, "book.replace", "book", b.ID, nil)

	_ = json.NewEncoder(w).Encode(map[string]any{"status": "success", "data": b})
}
