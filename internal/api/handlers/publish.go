package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/foundry/mavenrepo/internal/maven"
	"github.com/foundry/mavenrepo/internal/util/logging"
)

// UploadFile handles PUT /releases/* and /snapshots/*
func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	coord, err := maven.ParsePath(r.URL.Path)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	data, ok := h.readBody(w, r)
	if !ok {
		return
	}

	if err := h.publisher.Upload(r.Context(), coord, data); err != nil {
		h.fail(w, r, err)
		return
	}
	writeText(w, http.StatusOK, "stored "+coord.StoreKey())
}

// PublishRelease handles POST /api/publish/release
func (h *Handler) PublishRelease(w http.ResponseWriter, r *http.Request) {
	a := artifactFromQuery(r)
	data, ok := h.readBody(w, r)
	if !ok {
		return
	}
	res, err := h.publisher.PublishRelease(r.Context(), a, data)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, res)
}

// PublishSnapshot handles POST /api/publish/snapshot
func (h *Handler) PublishSnapshot(w http.ResponseWriter, r *http.Request) {
	a := artifactFromQuery(r)
	data, ok := h.readBody(w, r)
	if !ok {
		return
	}
	res, err := h.publisher.PublishSnapshot(r.Context(), a, data)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, res)
}

// Purge handles DELETE /api/purge?prefix=group.artifact
func (h *Handler) Purge(w http.ResponseWriter, r *http.Request) {
	res, err := h.purger.Purge(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if !res.Success {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, res)
}

func artifactFromQuery(r *http.Request) maven.Artifact {
	q := r.URL.Query()
	return maven.Artifact{
		GroupID:    q.Get("group"),
		ArtifactID: q.Get("artifact"),
		Version:    q.Get("version"),
		Classifier: q.Get("classifier"),
		Extension:  q.Get("extension"),
	}
}

// readBody reads the request body within the configured upload limit and
// writes the error response itself when it fails.
func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body := io.Reader(r.Body)
	if h.opts.MaxUploadBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	}
	data, err := io.ReadAll(body)
	if err == nil {
		return data, true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		msg := fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit)
		if isAPIPath(r.URL.Path) {
			writeAPIError(w, http.StatusRequestEntityTooLarge, msg)
		} else {
			writeText(w, http.StatusRequestEntityTooLarge, msg)
		}
		return nil, false
	}

	h.logger.Warn().
		Err(err).
		Str("request_id", logging.RequestID(r.Context())).
		Msg("reading request body")
	msg := "failed to read request body"
	if isAPIPath(r.URL.Path) {
		writeAPIError(w, http.StatusBadRequest, msg)
	} else {
		writeText(w, http.StatusBadRequest, msg)
	}
	return nil, false
}
