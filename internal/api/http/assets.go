package http

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mind-engage/prepost/internal/assessment"
	"github.com/mind-engage/prepost/internal/storage"
)

const maxUpload = 64 << 20

var uploadTypes = map[assessment.MaterialType][]string{
	assessment.MaterialAudio: {".mp3", ".m4a", ".ogg", ".wav"},
	assessment.MaterialVideo: {".mp4", ".webm", ".ogv"},
}

// UploadMaterialHandler stores a media file and appends a material item
// pointing at it.
//
// POST /assets/materials  multipart: file, type (audio|video), title, description
func UploadMaterialHandler(bs storage.BlobStore, c *assessment.Content) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
		f, hdr, err := r.FormFile("file")
		if err != nil {
			respondError(w, r, fmt.Errorf("%w: file required", assessment.ErrInvalid))
			return
		}
		defer f.Close()

		typ, err := assessment.ParseMaterialType(r.FormValue("type"))
		if err != nil {
			respondError(w, r, err)
			return
		}
		ext := strings.ToLower(path.Ext(hdr.Filename))
		if !allowedExt(typ, ext) {
			respondError(w, r, fmt.Errorf("%w: %s upload must be one of %v", assessment.ErrInvalid, typ, uploadTypes[typ]))
			return
		}

		key, err := bs.Put("materials/"+uuid.NewString()+ext, f)
		if err != nil {
			respondError(w, r, err)
			return
		}
		m, err := c.AddMaterial(r.Context(), assessment.MaterialItem{
			Title:       r.FormValue("title"),
			Type:        typ,
			Content:     "/assets/" + key,
			Description: r.FormValue("description"),
		})
		if err != nil {
			if derr := bs.Delete(key); derr != nil {
				log.Printf("[WARN] orphaned upload %s: %v", key, derr)
			}
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, m)
	}
}

func allowedExt(typ assessment.MaterialType, ext string) bool {
	for _, e := range uploadTypes[typ] {
		if e == ext {
			return true
		}
	}
	return false
}

// ServeAssetHandler returns the blob at whatever follows /assets/.
//
// GET /assets/*
func ServeAssetHandler(bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		rc, err := bs.Get(key)
		if err != nil {
			if errors.Is(err, storage.ErrInvalidKey) {
				err = storage.ErrNotFound
			}
			respondError(w, r, err)
			return
		}
		defer rc.Close()

		ct := mime.TypeByExtension(path.Ext(key))
		if ct == "" {
			ct = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ct)
		// range requests need a seekable blob
		if rs, ok := rc.(io.ReadSeeker); ok {
			http.ServeContent(w, r, path.Base(key), time.Time{}, rs)
			return
		}
		_, _ = io.Copy(w, rc)
	}
}
