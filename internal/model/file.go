package model

import (
	"io"
	"time"
)

// File is a stored file record.
type File struct {
	ID           string    `json:"$id"`
	BucketID     string    `json:"bucketId"`
	Name         string    `json:"name"`
	MimeType     string    `json:"mimeType"`
	SizeOriginal int64     `json:"sizeOriginal"`
	CreatedAt    time.Time `json:"$createdAt"`
}

// Upload is a local file handed to storage. Body is read exactly once.
type Upload struct {
	Name     string
	MimeType string
	Size     int64
	Body     io.Reader
}

// FileKind selects how a stored file is addressed.
type FileKind string

const (
	FileKindImage FileKind = "image"
	FileKindVideo FileKind = "video"
)

// Preview geometry used for thumbnails.
const (
	PreviewWidth   = 2000
	PreviewHeight  = 2000
	PreviewGravity = "top"
	PreviewQuality = 100
)

// PreviewOptions are the parameters of a file preview URL.
type PreviewOptions struct {
	Width   int
	Height  int
	Gravity string
	Quality int
}

// ThumbnailPreview is the preview used for post thumbnails.
func ThumbnailPreview() PreviewOptions {
	return PreviewOptions{
		Width:   PreviewWidth,
		Height:  PreviewHeight,
		Gravity: PreviewGravity,
		Quality: PreviewQuality,
	}
}

// Supported image content types
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"
	ContentTypeWebP = "image/webp"
)

var allowedImageTypes = map[string]struct{}{
	ContentTypeJPEG: {},
	ContentTypePNG:  {},
	ContentTypeGIF:  {},
	ContentTypeWebP: {},
}

// IsAllowedImageType reports if the provided content type is supported
func IsAllowedImageType(contentType string) bool {
	_, ok := allowedImageTypes[contentType]
	return ok
}
