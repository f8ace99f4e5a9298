package handlers

import (
	"net/http"

	"github.com/openshelf/library-api/internal/api/httpx"
)

// RootHandler answers GET / with a small service descriptor, which doubles as
// a liveness probe target.
func RootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"service": "library-api",
		"status":  "ok",
	})
}
