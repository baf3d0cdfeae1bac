// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/olegiv/community-portal/internal/apperr"
	"github.com/olegiv/community-portal/internal/imaging"
	"github.com/olegiv/community-portal/internal/metrics"
	"github.com/olegiv/community-portal/internal/model"
	"github.com/olegiv/community-portal/internal/query"
	"github.com/olegiv/community-portal/internal/store"
)

// File errors.
var (
	ErrEmptyFile       = apperr.BadRequest("File is empty")
	ErrFileTooLarge    = apperr.BadRequest("File exceeds the upload size limit")
	ErrUnsupportedType = apperr.BadRequest("File type is not allowed")
)

// Upload outcomes for metrics.
const (
	uploadStored   = "stored"
	uploadRejected = "rejected"
	uploadFailed   = "failed"
)

var mimeExtensions = map[string]string{
	model.MimeTypeJPEG: ".jpg",
	model.MimeTypePNG:  ".png",
	model.MimeTypeGIF:  ".gif",
	model.MimeTypeWebP: ".webp",
	model.MimeTypePDF:  ".pdf",
	model.MimeTypeText: ".txt",
}

// FileService stores uploads on local disk and their metadata in the
// database.
type FileService struct {
	queries   *store.Queries
	processor *imaging.Processor
	maxBytes  int64
	logger    *slog.Logger
}

// NewFileService creates a FileService writing below uploadDir.
func NewFileService(db *sql.DB, uploadDir string, maxBytes int64, logger *slog.Logger) *FileService {
	return &FileService{
		queries:   store.New(db),
		processor: imaging.NewProcessor(uploadDir),
		maxBytes:  maxBytes,
		logger:    logger,
	}
}

// MaxBytes returns the upload size cap.
func (s *FileService) MaxBytes() int64 {
	return s.maxBytes
}

// Upload validates and stores a file owned by actor. The type is sniffed
// from the content, never taken from the client. Images are normalized and
// get a thumbnail.
func (s *FileService) Upload(ctx context.Context, actor model.User, originalName string, data []byte) (model.File, error) {
	switch {
	case len(data) == 0:
		metrics.UploadsTotal.WithLabelValues(uploadRejected).Inc()
		return model.File{}, ErrEmptyFile
	case int64(len(data)) > s.maxBytes:
		metrics.UploadsTotal.WithLabelValues(uploadRejected).Inc()
		return model.File{}, ErrFileTooLarge
	}

	mimeType := s.processor.DetectMimeType(data)
	if !s.processor.IsSupportedType(mimeType) {
		metrics.UploadsTotal.WithLabelValues(uploadRejected).Inc()
		return model.File{}, ErrUnsupportedType
	}

	storedName := uuid.NewString() + mimeExtensions[mimeType]
	params := store.CreateFileParams{
		OriginalName: cleanOriginalName(originalName),
		StoredName:   storedName,
		MimeType:     mimeType,
		Size:         int64(len(data)),
		OwnerID:      nullInt64(actor.ID),
		CreatedAt:    now(),
	}

	if s.processor.IsImage(mimeType) {
		res, err := s.processor.ProcessImage(data, storedName)
		if err != nil {
			metrics.UploadsTotal.WithLabelValues(uploadRejected).Inc()
			s.logger.Warn("rejecting undecodable image", "name", params.OriginalName, "error", err)
			return model.File{}, ErrUnsupportedType
		}
		params.Path = res.FilePath
		params.Size = res.Size
		params.Width = sql.NullInt64{Int64: int64(res.Width), Valid: true}
		params.Height = sql.NullInt64{Int64: int64(res.Height), Valid: true}

		thumb, err := s.processor.CreateThumbnail(res.FilePath, storedName, imaging.DefaultThumbnail)
		if err != nil {
			s.logger.Warn("thumbnail generation failed", "stored_name", storedName, "error", err)
		}
		params.ThumbnailPath = thumb
	} else {
		path, err := s.processor.SaveFile(imaging.OriginalsDir, storedName, data)
		if err != nil {
			metrics.UploadsTotal.WithLabelValues(uploadFailed).Inc()
			return model.File{}, fmt.Errorf("saving upload: %w", err)
		}
		params.Path = path
	}

	row, err := s.queries.CreateFile(ctx, params)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues(uploadFailed).Inc()
		if rmErr := s.processor.DeleteFiles(storedName); rmErr != nil {
			s.logger.Warn("removing orphaned upload", "stored_name", storedName, "error", rmErr)
		}
		return model.File{}, fmt.Errorf("recording upload: %w", err)
	}

	metrics.UploadsTotal.WithLabelValues(uploadStored).Inc()
	s.logger.Info("file uploaded", "file_id", row.ID, "mime_type", mimeType, "user_id", actor.ID)
	return model.NewFile(row), nil
}

// cleanOriginalName keeps only the base name of a client-supplied filename.
func cleanOriginalName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	if len(name) > 255 {
		name = name[:255]
	}
	return name
}

// Get returns file metadata.
func (s *FileService) Get(ctx context.Context, id int64) (model.File, error) {
	row, err := s.queries.GetFileByID(ctx, id)
	if err != nil {
		return model.File{}, notFound(err, apperr.ErrFileNotFound)
	}
	return model.NewFile(row), nil
}

// List returns a page of the files owned by ownerID, newest first.
func (s *FileService) List(ctx context.Context, ownerID int64, p query.Pagination) (model.Page[model.File], error) {
	rows, err := s.queries.ListFilesByOwner(ctx, ownerID, int64(p.Limit), p.Offset())
	if err != nil {
		return model.Page[model.File]{}, fmt.Errorf("listing files: %w", err)
	}
	total, err := s.queries.CountFilesByOwner(ctx, ownerID)
	if err != nil {
		return model.Page[model.File]{}, fmt.Errorf("counting files: %w", err)
	}
	items := make([]model.File, len(rows))
	for i, r := range rows {
		items[i] = model.NewFile(r)
	}
	return model.NewPage(items, total, p.Page, p.Limit), nil
}

// Open returns the stored original, or its thumbnail when thumbnail is set
// and one exists. The caller closes the file.
func (s *FileService) Open(ctx context.Context, id int64, thumbnail bool) (*os.File, model.File, error) {
	row, err := s.queries.GetFileByID(ctx, id)
	if err != nil {
		return nil, model.File{}, notFound(err, apperr.ErrFileNotFound)
	}
	dir := imaging.OriginalsDir
	if thumbnail && row.ThumbnailPath != "" {
		dir = imaging.ThumbnailsDir
	}
	f, err := s.processor.Open(dir, row.StoredName)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("file missing on disk", "file_id", id, "stored_name", row.StoredName)
			return nil, model.File{}, apperr.ErrFileNotFound
		}
		return nil, model.File{}, fmt.Errorf("opening file: %w", err)
	}
	return f, model.NewFile(row), nil
}

// Delete removes a file's record and its disk copies. The owner or an admin
// may delete.
func (s *FileService) Delete(ctx context.Context, actor model.User, id int64) error {
	row, err := s.queries.GetFileByID(ctx, id)
	if err != nil {
		return notFound(err, apperr.ErrFileNotFound)
	}
	// Files whose owner was deleted can only be removed by an admin.
	if !canModify(actor, row.OwnerID.Int64) {
		return apperr.ErrNotOwner
	}
	n, err := s.queries.DeleteFile(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	if n == 0 {
		return apperr.ErrFileNotFound
	}
	if err := s.processor.DeleteFiles(row.StoredName); err != nil {
		s.logger.Warn("removing file from disk", "file_id", id, "error", err)
	}
	return nil
}
