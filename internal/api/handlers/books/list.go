package books

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/openshelf/library-api/internal/api/apperr"
	"github.com/openshelf/library-api/internal/store/catalog"
	"github.com/openshelf/library-api/internal/validate"
	storebooks "github.com/openshelf/library-api/internal/store/books"
)

// sort keys the public listing accepts, mapped to ORDER BY expressions
var bookSortCols = map[string]string{
	"title":      "b.title",
	"year":       "b.publication_year",
	"author":     "a.name",
	"created_at": "b.created_at",
}

type listResponse struct {
	Status string            `json:"status"`
	Data   []storebooks.Book `json:"data"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

func handleList(db *sql.DB, rdb *redis.Client, w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	qp := r.URL.Query()
	year, err := validate.ParseYear(qp.Get("year"))
	if err != nil {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	limit, offset := validate.ClampLimitOffset(qp.Get("limit"), qp.Get("offset"), 20, 100)
	sortCol, sortDir := validate.ParseSort(qp.Get("sort"), qp.Get("order"), "created_at", bookSortCols)

	filter := storebooks.ListFilter{
		Query:   strings.TrimSpace(qp.Get("q")),
		Author:  strings.TrimSpace(qp.Get("author")),
		Year:    year,
		SortCol: sortCol,
		SortDir: sortDir,
		Limit:   limit,
		Offset:  offset,
	}

	// Listings are hot and public; serve from the versioned cache when we can.
	cc := catalog.New(rdb)
	cacheKey := "books:" + r.URL.RawQuery
	var resp listResponse
	if cc.Get(r.Context(), cacheKey, &resp) {
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	list, total, err := storebooks.List(r.Context(), db, filter)
	if err != nil {
		apperr.HandleDBError(w, r, err, "failed to list books")
		return
	}

	resp = listResponse{Status: "success", Data: list, Total: total, Limit: limit, Offset: offset}
	cc.Set(r.Context(), cacheKey, resp)
	_ = json.NewEncoder(w).Encode(resp)
}
