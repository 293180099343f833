package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/foundry/mavenrepo/internal/core/repository"
	"github.com/foundry/mavenrepo/internal/core/services"
	"github.com/foundry/mavenrepo/internal/maven"
)

// catalog resolves the repo query parameter, defaulting to releases.
func (h *Handler) catalog(r *http.Request) (*repository.Catalog, error) {
	repo, err := maven.ParseRepository(r.URL.Query().Get("repo"))
	if err != nil {
		return nil, err
	}
	return h.catalogs.For(repo)
}

// ListGroups handles GET /api/groups
func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	cat, err := h.catalog(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	groups, err := cat.ListGroups(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, groups)
}

// ListArtifacts handles GET /api/artifacts?group=G
func (h *Handler) ListArtifacts(w http.ResponseWriter, r *http.Request) {
	cat, err := h.catalog(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	entries, err := cat.ListArtifacts(r.Context(), r.URL.Query().Get("group"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, entries)
}

// ListVersions handles GET /api/versions?group=G&artifact=A
func (h *Handler) ListVersions(w http.ResponseWriter, r *http.Request) {
	cat, err := h.catalog(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	versions, err := cat.ListVersions(r.Context(), q.Get("group"), q.Get("artifact"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, versions)
}

// ListFiles handles GET /api/files?group=G&artifact=A&version=V
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	cat, err := h.catalog(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	files, err := cat.ListFiles(r.Context(), q.Get("group"), q.Get("artifact"), q.Get("version"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, files)
}

// Latest handles GET /api/latest?group=G&artifact=A
func (h *Handler) Latest(w http.ResponseWriter, r *http.Request) {
	cat, err := h.catalog(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	version, err := cat.Latest(r.Context(), q.Get("group"), q.Get("artifact"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, version)
}

// ServeFile handles GET and HEAD /releases/* and /snapshots/*
func (h *Handler) ServeFile(w http.ResponseWriter, r *http.Request) {
	root, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if key == "" || strings.HasSuffix(key, "/") {
		h.fail(w, r, fmt.Errorf("%s %w", r.URL.Path, services.ErrNotFound))
		return
	}
	cat, err := h.catalogs.For(maven.Repository(root))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	obj, err := cat.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, services.ErrInvalidRequest) {
			err = fmt.Errorf("%s %w", r.URL.Path, services.ErrNotFound)
		}
		h.fail(w, r, err)
		return
	}

	name := path.Base(key)
	contentType := obj.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = maven.ContentType(name)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(h.opts.CacheMaxAge.Seconds())))
	if obj.ETag != "" {
		w.Header().Set("ETag", quoteETag(obj.ETag))
	}
	http.ServeContent(w, r, name, obj.LastModified, bytes.NewReader(obj.Data))
}

func quoteETag(etag string) string {
	if strings.HasPrefix(etag, `"`) || strings.HasPrefix(etag, `W/"`) {
		return etag
	}
	return `"` + etag + `"`
}
