// Package art stores user-uploaded images referenced by scheme items. Files
// live on disk; ownership records live in the database.
package art

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"

	"github.com/schemeflow/schemeflow/backend-go/internal/auth"
	"github.com/schemeflow/schemeflow/backend-go/internal/db"
	"github.com/schemeflow/schemeflow/backend-go/internal/typeid"
)

const maxUploadSize = 10 << 20 // 10MB

type UploadResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type Handler struct {
	dir   string
	store *db.Store
}

func NewHandler(dir string, store *db.Store) *Handler {
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("create art dir", "err", err, "dir", dir)
	}
	return &Handler{dir: dir, store: store}
}

// Upload accepts a multipart form with a "file" field, re-encodes the image
// as PNG and records it for the authenticated user.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "file too large (max 10MB)", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/png") && !strings.HasPrefix(contentType, "image/jpeg") {
		http.Error(w, "only PNG and JPEG images are supported", http.StatusBadRequest)
		return
	}

	img, _, err := image.Decode(file)
	if err != nil {
		http.Error(w, "invalid image: "+err.Error(), http.StatusBadRequest)
		return
	}
	bounds := img.Bounds()

	artID := typeid.NewArtID()
	filename := artID + ".png"
	filePath := filepath.Join(h.dir, filename)

	out, err := os.Create(filePath)
	if err != nil {
		slog.Error("create art file", "err", err)
		http.Error(w, "failed to save file", http.StatusInternalServerError)
		return
	}
	defer out.Close()

	if err := png.Encode(out, img); err != nil {
		slog.Error("encode png", "err", err)
		os.Remove(filePath)
		http.Error(w, "failed to encode image", http.StatusInternalServerError)
		return
	}

	url := fmt.Sprintf("/art/%s", filename)
	_, err = h.store.CreateArt(r.Context(), db.ArtRow{
		ID:      artID,
		OwnerID: userID,
		Name:    header.Filename,
		URL:     url,
	})
	if err != nil {
		slog.Error("record art", "err", err)
		os.Remove(filePath)
		http.Error(w, "failed to record upload", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, UploadResponse{
		ID:     artID,
		Name:   header.Filename,
		URL:    url,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	})
}

// List returns the authenticated user's uploads, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	rows, err := h.store.ListArtByOwner(r.Context(), userID)
	if err != nil {
		slog.Error("list art", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	out := make([]UploadResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, UploadResponse{ID: row.ID, Name: row.Name, URL: row.URL})
	}
	writeJSON(w, http.StatusOK, out)
}

// Delete removes the record and the file. Only the owner may delete.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	artID := mux.Vars(r)["artId"]

	row, err := h.store.GetArt(r.Context(), artID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		slog.Error("get art", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if row.OwnerID != userID {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
		return
	}

	if err := h.store.DeleteArt(r.Context(), artID); err != nil {
		slog.Error("delete art record", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	os.Remove(filepath.Join(h.dir, artID+".png"))

	w.WriteHeader(http.StatusNoContent)
}

// Serve serves stored art files. Ids are unique so files are immutable.
func (h *Handler) Serve() http.Handler {
	fs := http.FileServer(http.Dir(h.dir))
	return http.StripPrefix("/art/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	}))
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
