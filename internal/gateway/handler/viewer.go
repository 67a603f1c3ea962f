package handler

import (
	"fmt"
	"log"
	"mime"
	"net/http"
	"path"
	"path/filepath"

	"appforge/internal/prototype"
)

// handleViewer serves the device-frame page for a prototype and counts the
// view.
func (s *Service) handleViewer(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("uuid")
	m, ok := s.mappings.IncrementViews(id)
	if !ok {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(prototype.NotFoundPage))
		return
	}

	page, err := s.publicFS.SafeReadFile(filepath.Join(filepath.FromSlash(m.Path), "index.html"))
	if err != nil {
		log.Printf("viewer %s: %v", id, err)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(prototype.NotFoundPage))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

// handleBundleAsset serves one static file from a prototype's bundle
// directory. Reads go through the rooted filesystem, so a crafted asset
// path cannot escape the public directory; small assets are cached.
func (s *Service) handleBundleAsset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("uuid")
	asset := r.PathValue("asset")
	m, ok := s.mappings.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if asset == "" {
		asset = "index.html"
	}

	rel := filepath.Join(filepath.FromSlash(m.Path), "bundle", filepath.FromSlash(path.Clean("/"+asset)))
	info, err := s.publicFS.SafeStat(rel)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	// The cache key carries size and mtime, so a rebuilt bundle misses the
	// stale entry and the old one ages out of the LRU on its own.
	key := fmt.Sprintf("%s|%d|%d", rel, info.Size(), info.ModTime().UnixNano())
	content, cached := s.assetCache.Get(key)
	if !cached {
		content, err = s.publicFS.SafeReadFile(rel)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		s.assetCache.Add(key, content)
	}

	contentType := mime.TypeByExtension(filepath.Ext(rel))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(content)
}
