package books

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/openshelf/library-api/internal/api/apperr"
	"github.com/openshelf/library-api/internal/api/httpx"
	"github.com/openshelf/library-api/internal/validate"
	storebooks "github.com/openshelf/library-api/internal/store/books"
)

func handleCreate(db *sql.DB, rdb *redis.Client, w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	defer r.Body.Close()

	var body struct {
		Title           string `json:"title"`
		Author          string `json:"author"`
		PublicationYear int    `json:"publication_year"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", "invalid JSON")
		return
	}

	title, err := validate.RequireBounded("title", body.Title, 1, 200)
	if err != nil {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	authorName, err := validate.RequireBounded("author", body.Author, 1, 120)
	if err != nil {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if err := validate.PublicationYear(body.PublicationYear); err != nil {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	dto := storebooks.CreateBookDTO{
		Title:           title,
		Author:          authorName,
		PublicationYear: body.PublicationYear,
	}
	b, err := storebooks.Create(r.Context(), db, dto)
	if err != nil {
		switch {
		case errors.Is(err, storebooks.ErrInvalid):
			apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", "invalid data")
		case errors.Is(err, storebooks.ErrConflict):
			apperr.WriteStatus(w, r, http.StatusConflict, "Conflict", "duplicate")
		default:
			apperr.HandleDBError(w, r, err, "create failed")
		}
		return
	}

	recordMutation(r, rdb, "book.create", "book", b.ID, map[string]string{"title": b.Title})

	httpx.Created(w, b)
}
