package web

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/erazemk/ewaste/internal/policy"
	"github.com/erazemk/ewaste/internal/store"
	"github.com/erazemk/ewaste/internal/uploads"
)

// Photo handles GET /uploads/{filename}. Only users who may view the pickup
// may fetch its photo.
func (s *Server) Photo(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	key := r.PathValue("filename")
	if !uploads.ValidKey(key) {
		http.NotFound(w, r)
		return
	}

	p, err := store.GetPickupByPhoto(r.Context(), s.DB, key)
	if err != nil {
		fail(w, r, err, "/")
		return
	}
	if p == nil || !policy.CanViewPhoto(user, p) {
		deny(w, r)
		return
	}

	f, err := s.Uploads.Open(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		slog.Error("failed to open photo", "photo", key, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		slog.Error("failed to stat photo", "photo", key, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeContent(w, r, key, info.ModTime(), f)
}
