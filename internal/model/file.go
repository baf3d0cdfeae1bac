// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"strconv"
	"time"

	"github.com/olegiv/community-portal/internal/store"
)

// File is an uploaded asset.
type File struct {
	ID           int64     `json:"id"`
	OriginalName string    `json:"originalName"`
	StoredName   string    `json:"storedName"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	Width        int64     `json:"width,omitempty"`
	Height       int64     `json:"height,omitempty"`
	OwnerID      *int64    `json:"ownerId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsImage reports whether the file can be thumbnailed.
func (f *File) IsImage() bool {
	return IsImageMimeType(f.MimeType)
}

func NewFile(f store.File) File {
	out := File{
		ID:           f.ID,
		OriginalName: f.OriginalName,
		StoredName:   f.StoredName,
		MimeType:     f.MimeType,
		Size:         f.Size,
		URL:          "/api/files/" + strconv.FormatInt(f.ID, 10) + "/download",
		Width:        f.Width.Int64,
		Height:       f.Height.Int64,
		CreatedAt:    f.CreatedAt,
	}
	if f.ThumbnailPath != "" {
		out.ThumbnailURL = out.URL + "?variant=thumbnail"
	}
	if f.OwnerID.Valid {
		id := f.OwnerID.Int64
		out.OwnerID = &id
	}
	return out
}

// Upload MIME types.
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeGIF  = "image/gif"
	MimeTypeWebP = "image/webp"
	MimeTypePDF  = "application/pdf"
	MimeTypeText = "text/plain"
	MimeTypeMP4  = "video/mp4"
)

// AllowedMimeTypes is the upload allow-list.
var AllowedMimeTypes = map[string]bool{
	MimeTypeJPEG: true,
	MimeTypePNG:  true,
	MimeTypeGIF:  true,
	MimeTypeWebP: true,
	MimeTypePDF:  true,
	MimeTypeText: true,
}

// IsImageMimeType reports whether a MIME type can be thumbnailed.
func IsImageMimeType(mimeType string) bool {
	switch mimeType {
	case MimeTypeJPEG, MimeTypePNG, MimeTypeGIF, MimeTypeWebP:
		return true
	}
	return false
}
