package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"backoffice/internal/features/categories/models"

	"github.com/go-chi/chi/v5"
)

// UploadsHandler serves stored category images from dir
func UploadsHandler(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "file")
		if !models.ValidFilename(name) || strings.HasPrefix(name, ".") {
			http.NotFound(w, r)
			return
		}

		fullPath := filepath.Join(dir, name)
		info, err := os.Stat(fullPath)
		if err != nil || !info.Mode().IsRegular() {
			http.NotFound(w, r)
			return
		}

		// Set proper MIME types based on file extension
		switch strings.ToLower(filepath.Ext(name)) {
		case ".png":
			w.Header().Set("Content-Type", "image/png")
		case ".jpg", ".jpeg":
			w.Header().Set("Content-Type", "image/jpeg")
		case ".gif":
			w.Header().Set("Content-Type", "image/gif")
		case ".webp":
			w.Header().Set("Content-Type", "image/webp")
		default:
			w.Header().Set("Content-Type", "application/octet-stream")
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")

		http.ServeFile(w, r, fullPath)
	}
}
