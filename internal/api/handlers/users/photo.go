// Package users serves profile endpoints that go beyond auth, currently the
// profile photo flow. Uploads never pass through the API: the client gets a
// presigned PUT URL, uploads directly, and the object key is recorded here.
package users

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/openshelf/library-api/internal/api/apperr"
	"github.com/openshelf/library-api/internal/api/httpx"
	"github.com/openshelf/library-api/internal/api/middlewares"
	s3store "github.com/openshelf/library-api/internal/storage/s3"
)

type Handler struct {
	DB *sql.DB
	S3 *s3store.S3Client
}

func NewHandler(db *sql.DB, s3c *s3store.S3Client) *Handler {
	return &Handler{DB: db, S3: s3c}
}

var photoContentTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

type uploadURLRequest struct {
	ContentType string `json:"content_type"`
}

// PhotoUploadURL handles POST /api/v1/users/me/photo-upload-url. The returned
// key is stored immediately; a client that never uploads just leaves a
// dangling key that the next request overwrites.
func (h *Handler) PhotoUploadURL(w http.ResponseWriter, r *http.Request) {
	if h.S3 == nil {
		apperr.WriteStatus(w, r, http.StatusServiceUnavailable, "Storage unavailable",
			"Object storage is not configured.")
		return
	}
	userID, ok := middlewares.UserIDFrom(r.Context())
	if !ok {
		apperr.WriteStatus(w, r, http.StatusUnauthorized, "Unauthorized", "Authentication required.")
		return
	}

	var req uploadURLRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Invalid JSON body", err.Error())
		return
	}
	ext, ok := photoContentTypes[req.ContentType]
	if !ok {
		apperr.WriteStatus(w, r, http.StatusUnsupportedMediaType, "Unsupported content type",
			"content_type must be image/jpeg, image/png or image/webp")
		return
	}

	suffix, err := randHex(8)
	if err != nil {
		apperr.WriteStatus(w, r, http.StatusInternalServerError, "Internal error", "Could not generate object key.")
		return
	}
	key := fmt.Sprintf("users/%s/photo-%s.%s", userID, suffix, ext)

	url, err := h.S3.PresignUpload(r.Context(), key, req.ContentType)
	if err != nil {
		log.Printf("[Photo] presign upload: %v", err)
		apperr.WriteStatus(w, r, http.StatusBadGateway, "Storage error", "Could not presign upload URL.")
		return
	}

	var oldKey sql.NullString
	err = h.DB.QueryRowContext(r.Context(),
		`UPDATE users SET photo_key = $2, updated_at = now() WHERE id = $1
		 RETURNING (SELECT photo_key FROM users WHERE id = $1)`, userID, key).Scan(&oldKey)
	if err != nil {
		apperr.HandleDBError(w, r, err, "record photo key")
		return
	}
	if oldKey.Valid && oldKey.String != key {
		if err := h.S3.DeleteObject(r.Context(), oldKey.String); err != nil {
			log.Printf("[Photo] delete replaced object: %v", err)
		}
	}

	httpx.OK(w, map[string]string{"upload_url": url, "key": key})
}

// PhotoURL handles GET /api/v1/users/me/photo-url.
func (h *Handler) PhotoURL(w http.ResponseWriter, r *http.Request) {
	if h.S3 == nil {
		apperr.WriteStatus(w, r, http.StatusServiceUnavailable, "Storage unavailable",
			"Object storage is not configured.")
		return
	}
	userID, ok := middlewares.UserIDFrom(r.Context())
	if !ok {
		apperr.WriteStatus(w, r, http.StatusUnauthorized, "Unauthorized", "Authentication required.")
		return
	}

	var key sql.NullString
	err := h.DB.QueryRowContext(r.Context(),
		`SELECT photo_key FROM users WHERE id = $1`, userID).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !key.Valid) {
		apperr.WriteStatus(w, r, http.StatusNotFound, "No photo", "No profile photo on record.")
		return
	}
	if err != nil {
		apperr.HandleDBError(w, r, err, "load photo key")
		return
	}

	url, err := h.S3.PresignDownload(r.Context(), key.String)
	if err != nil {
		log.Printf("[Photo] presign download: %v", err)
		apperr.WriteStatus(w, r, http.StatusBadGateway, "Storage error", "Could not presign download URL.")
		return
	}
	httpx.OK(w, map[string]string{"url": url})
}

// DeletePhoto handles DELETE /api/v1/users/me/photo.
func (h *Handler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.UserIDFrom(r.Context())
	if !ok {
		apperr.WriteStatus(w, r, http.StatusUnauthorized, "Unauthorized", "Authentication required.")
		return
	}

	var key sql.NullString
	err := h.DB.QueryRowContext(r.Context(),
		`UPDATE users SET photo_key = NULL, updated_at = now() WHERE id = $1
		 RETURNING (SELECT photo_key FROM users WHERE id = $1)`, userID).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		apperr.WriteStatus(w, r, http.StatusNotFound, "User not found", "No user with that ID.")
		return
	}
	if err != nil {
		apperr.HandleDBError(w, r, err, "clear photo key")
		return
	}
	if key.Valid && h.S3 != nil {
		if err := h.S3.DeleteObject(r.Context(), key.String); err != nil {
			log.Printf("[Photo] delete object: %v", err)
		}
	}
	httpx.OKNoData(w, "Photo removed.")
}

func randHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
