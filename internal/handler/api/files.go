// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/olegiv/community-portal/internal/query"
	"github.com/olegiv/community-portal/internal/service"
)

// multipartOverhead is allowed on top of the file size cap for form framing.
const multipartOverhead = 64 << 10

// UploadFile handles POST /api/files (multipart field "file").
func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	maxBytes := h.svc.Files.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeErr(w, r, service.ErrFileTooLarge)
			return
		}
		WriteBadRequest(w, "A file is required", map[string]string{"file": "is required"})
		return
	}
	defer func() { _ = file.Close() }()

	// One byte past the cap is enough for the service to reject it.
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		WriteBadRequest(w, "Failed to read upload", nil)
		return
	}

	f, err := h.svc.Files.Upload(r.Context(), u, header.Filename, data)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteCreated(w, f)
}

// ListFiles handles GET /api/files. Callers see their own uploads; admins
// may pass ownerId to see another user's.
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	p, err := query.ParsePagination(r.URL.Query())
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	ownerID := u.ID
	if raw := r.URL.Query().Get("ownerId"); raw != "" && u.IsAdmin() {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			WriteBadRequest(w, "Invalid ownerId", map[string]string{"ownerId": "must be a positive integer"})
			return
		}
		ownerID = id
	}
	page, err := h.svc.Files.List(r.Context(), ownerID, p)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WritePage(w, page)
}

// GetFile handles GET /api/files/{id}.
func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	f, err := h.svc.Files.Get(r.Context(), id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteSuccess(w, f, nil)
}

// DownloadFile handles GET /api/files/{id}/download. ?variant=thumbnail
// serves the thumbnail of an image.
func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	thumb := r.URL.Query().Get("variant") == "thumbnail"
	f, meta, err := h.svc.Files.Open(r.Context(), id, thumb)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	if !thumb {
		w.Header().Set("Content-Type", meta.MimeType)
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": meta.OriginalName}))
	}
	w.Header().Set("Cache-Control", "private, max-age=86400")
	http.ServeContent(w, r, meta.StoredName, info.ModTime(), f)
}

// DeleteFile handles DELETE /api/files/{id}.
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Files.Delete(r.Context(), u, id); err != nil {
		h.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
