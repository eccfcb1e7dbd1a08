package devserver

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"aorify/internal/httputil"
	"aorify/internal/model"
)

const msgFileNotFound = "The requested file could not be found."

type fileResponse struct {
	ID             string `json:"$id"`
	BucketID       string `json:"bucketId"`
	CreatedAt      string `json:"$createdAt"`
	UpdatedAt      string `json:"$updatedAt"`
	Name           string `json:"name"`
	MimeType       string `json:"mimeType"`
	SizeOriginal   int64  `json:"sizeOriginal"`
	ChunksTotal    int    `json:"chunksTotal"`
	ChunksUploaded int    `json:"chunksUploaded"`
}

func (s *Server) createFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		httputil.WriteBadRequest(w, "Invalid multipart body: "+err.Error())
		return
	}

	fileID := r.FormValue("fileId")
	if fileID == "" {
		httputil.WriteBadRequest(w, "Param \"fileId\" is not optional.")
		return
	}
	if fileID == "unique()" {
		fileID = uuid.NewString()
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteBadRequest(w, "Param \"file\" is not optional.")
		return
	}
	defer part.Close()

	content, err := io.ReadAll(part)
	if err != nil {
		httputil.WriteBadRequest(w, "Failed to read file: "+err.Error())
		return
	}
	if len(content) == 0 {
		httputil.WriteError(w, http.StatusBadRequest, model.TypeFileEmpty, "Empty file passed to the endpoint.")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(content)
	}

	row := &fileRow{
		BucketID: chi.URLParam(r, "bucketId"),
		ID:       fileID,
		Name:     header.Filename,
		MimeType: mimeType,
		Size:     int64(len(content)),
		Content:  content,
	}
	err = s.store.CreateFile(r.Context(), row)
	if errors.Is(err, errExists) {
		httputil.WriteConflict(w, typeFileAlreadyExists, "A storage file with the requested ID already exists.")
		return
	}
	if err != nil {
		log.WithError(err).Error("create file")
		httputil.WriteInternalError(w)
		return
	}

	log.WithField("file", row.ID).WithField("bytes", row.Size).Debug("file stored")
	httputil.WriteJSON(w, http.StatusCreated, fileResponse{
		ID:             row.ID,
		BucketID:       row.BucketID,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.CreatedAt,
		Name:           row.Name,
		MimeType:       row.MimeType,
		SizeOriginal:   row.Size,
		ChunksTotal:    1,
		ChunksUploaded: 1,
	})
}

func (s *Server) deleteFile(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteFile(r.Context(), chi.URLParam(r, "bucketId"), chi.URLParam(r, "fileId"))
	if errors.Is(err, errNotFound) {
		httputil.WriteNotFound(w, model.TypeFileNotFound, msgFileNotFound)
		return
	}
	if err != nil {
		log.WithError(err).Error("delete file")
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) loadFile(w http.ResponseWriter, r *http.Request) (*fileRow, bool) {
	row, err := s.store.GetFile(r.Context(), chi.URLParam(r, "bucketId"), chi.URLParam(r, "fileId"))
	if errors.Is(err, errNotFound) {
		httputil.WriteNotFound(w, model.TypeFileNotFound, msgFileNotFound)
		return nil, false
	}
	if err != nil {
		log.WithError(err).Error("get file")
		httputil.WriteInternalError(w)
		return nil, false
	}
	return row, true
}

func (s *Server) viewFile(w http.ResponseWriter, r *http.Request) {
	row, ok := s.loadFile(w, r)
	if !ok {
		return
	}
	writeBytes(w, row.MimeType, row.Content)
}

// previewFile crops and scales an image file. Files that are not images are
// served unchanged.
func (s *Server) previewFile(w http.ResponseWriter, r *http.Request) {
	row, ok := s.loadFile(w, r)
	if !ok {
		return
	}

	opts, err := parsePreviewOptions(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	if !strings.HasPrefix(row.MimeType, "image/") {
		writeBytes(w, row.MimeType, row.Content)
		return
	}

	out, err := renderPreview(row.Content, opts)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, typeFileTypeUnsupported, "The given file type is not supported for previews.")
		return
	}
	writeBytes(w, model.ContentTypeJPEG, out)
}

var gravities = map[string]imaging.Anchor{
	"center":       imaging.Center,
	"top-left":     imaging.TopLeft,
	"top":          imaging.Top,
	"top-right":    imaging.TopRight,
	"left":         imaging.Left,
	"right":        imaging.Right,
	"bottom-left":  imaging.BottomLeft,
	"bottom":       imaging.Bottom,
	"bottom-right": imaging.BottomRight,
}

type previewOptions struct {
	width, height int
	anchor        imaging.Anchor
	quality       int
}

func parsePreviewOptions(r *http.Request) (previewOptions, error) {
	q := r.URL.Query()
	opts := previewOptions{anchor: imaging.Center, quality: 90}

	intParam := func(name string, max int, dst *int) error {
		v := q.Get(name)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > max {
			return errors.New("Invalid `" + name + "` param: Value must be a valid range between 0 and " + strconv.Itoa(max))
		}
		*dst = n
		return nil
	}
	if err := intParam("width", 4000, &opts.width); err != nil {
		return opts, err
	}
	if err := intParam("height", 4000, &opts.height); err != nil {
		return opts, err
	}
	if err := intParam("quality", 100, &opts.quality); err != nil {
		return opts, err
	}
	if g := q.Get("gravity"); g != "" {
		anchor, ok := gravities[g]
		if !ok {
			return opts, errors.New("Invalid `gravity` param: Value must be one of (center, top-left, top, top-right, left, right, bottom-left, bottom, bottom-right)")
		}
		opts.anchor = anchor
	}
	if opts.quality == 0 {
		opts.quality = 90
	}
	return opts, nil
}

func renderPreview(content []byte, opts previewOptions) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(content), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}

	switch {
	case opts.width > 0 && opts.height > 0:
		img = imaging.Fill(img, opts.width, opts.height, opts.anchor, imaging.Lanczos)
	case opts.width > 0 || opts.height > 0:
		img = imaging.Resize(img, opts.width, opts.height, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(opts.quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeBytes(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
