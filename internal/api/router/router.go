package router

import (
	"database/sql"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/openshelf/library-api/internal/api/handlers"
	"github.com/openshelf/library-api/internal/api/handlers/authors"
	"github.com/openshelf/library-api/internal/api/handlers/books"
	"github.com/openshelf/library-api/internal/api/handlers/libraries"
	"github.com/openshelf/library-api/internal/api/handlers/users"
	"github.com/openshelf/library-api/internal/api/middlewares"
	"github.com/openshelf/library-api/internal/auth"
	s3store "github.com/openshelf/library-api/internal/storage/s3"
)

// Router builds the full mux. Reads on the catalog are public; creating
// requires any authenticated user; editing and deleting require a librarian
// or admin.
func Router(db *sql.DB, rdb *redis.Client, s3c *s3store.S3Client) http.Handler {
	mux := http.NewServeMux()

	requireAuth := func(h http.Handler) http.Handler {
		return middlewares.RequireAuth(db, h)
	}
	// RequireAnyRole authenticates on its own; wrapping RequireAuth around it
	// would parse the token and hit the users row twice.
	requireStaff := func(h http.Handler) http.Handler {
		return middlewares.RequireAnyRole(db, h, "librarian", "admin")
	}
	requireAdmin := func(h http.Handler) http.Handler {
		return middlewares.RequireRole(db, "admin", h)
	}

	// Root
	mux.HandleFunc("GET /", handlers.RootHandler)

	// Keep legacy /api/v1/books -> /api/v1/books/
	mux.HandleFunc("GET /api/v1/books", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/v1/books/", http.StatusMovedPermanently)
	})

	// Books (method-specific + 1.22 patterns)
	booksH := books.Handler(db, rdb)
	mux.Handle("GET /api/v1/books/", booksH)                            // list
	mux.Handle("GET /api/v1/books/{key}", booksH)                       // get
	mux.Handle("HEAD /api/v1/books/{key}", booksH)                      // head
	mux.Handle("POST /api/v1/books/", requireAuth(booksH))              // create
	mux.Handle("PATCH /api/v1/books/{key}", requireStaff(booksH))       // patch
	mux.Handle("PUT /api/v1/books/{key}", requireStaff(booksH))         // put
	mux.Handle("DELETE /api/v1/books/{key}", requireStaff(booksH))      // delete
	mux.Handle("OPTIONS /api/v1/books/", booksH)                        // preflight
	mux.Handle("OPTIONS /api/v1/books/{key}", booksH)                   // preflight

	// Authors
	mux.Handle("GET /api/v1/authors/", authors.List(db, rdb))
	mux.Handle("GET /api/v1/authors/{key}", authors.Get(db))
	mux.Handle("POST /api/v1/authors/", requireStaff(authors.Create(db, rdb)))

	// Libraries
	mux.Handle("GET /api/v1/libraries/", libraries.List(db))
	mux.Handle("GET /api/v1/libraries/{key}", libraries.Get(db))
	mux.Handle("POST /api/v1/libraries/", requireAdmin(libraries.Create(db, rdb)))
	mux.Handle("PUT /api/v1/libraries/{key}/books", requireStaff(libraries.ReplaceBooks(db, rdb)))
	mux.Handle("POST /api/v1/libraries/{key}/librarian", requireAdmin(libraries.AssignLibrarian(db, rdb)))

	// Auth
	authH := auth.New(auth.NewSQLStore(db), rdb)
	mux.Handle("POST /api/v1/auth/register", middlewares.LoginRateLimit(rdb, http.HandlerFunc(authH.Register)))
	mux.Handle("POST /api/v1/auth/login", middlewares.LoginRateLimit(rdb, http.HandlerFunc(authH.Login)))
	mux.Handle("POST /api/v1/auth/refresh", http.HandlerFunc(authH.Refresh))
	mux.Handle("POST /api/v1/auth/logout", http.HandlerFunc(authH.Logout))
	mux.Handle("POST /api/v1/auth/logout-all", requireAuth(http.HandlerFunc(authH.LogoutAll)))
	mux.Handle("GET /api/v1/auth/me", requireAuth(http.HandlerFunc(authH.Me)))
	mux.Handle("POST /api/v1/auth/change-password", requireAuth(http.HandlerFunc(authH.ChangePassword)))

	// Profile photos (presigned direct upload/download)
	usersH := users.NewHandler(db, s3c)
	mux.Handle("POST /api/v1/users/me/photo-upload-url", requireAuth(http.HandlerFunc(usersH.PhotoUploadURL)))
	mux.Handle("GET /api/v1/users/me/photo-url", requireAuth(http.HandlerFunc(usersH.PhotoURL)))
	mux.Handle("DELETE /api/v1/users/me/photo", requireAuth(http.HandlerFunc(usersH.DeletePhoto)))

	// Admin surface
	MountAdmin(mux, db, rdb)

	return mux
}
