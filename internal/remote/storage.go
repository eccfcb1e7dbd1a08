package remote

import (
	"context"
	"mime"
	"net/url"
	"path/filepath"
	"strconv"
	"time"

	"aorify/internal/model"
)

// CreateFile uploads the file body to a bucket under fileID.
func (c *Client) CreateFile(ctx context.Context, bucketID, fileID string, upload *model.Upload) (*model.File, error) {
	started := time.Now()
	var file model.File

	contentType := upload.MimeType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(upload.Name))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	resp, err := c.request(ctx).
		SetPathParam("bucketId", bucketID).
		SetMultipartFormData(map[string]string{"fileId": fileID}).
		SetMultipartField("file", upload.Name, contentType, upload.Body).
		SetResult(&file).
		Post("/storage/buckets/{bucketId}/files")
	if err := check("create file", resp, err, started); err != nil {
		return nil, err
	}
	log.WithField("file", file.ID).Debug("file uploaded")
	return &file, nil
}

// DeleteFile removes a file from a bucket.
func (c *Client) DeleteFile(ctx context.Context, bucketID, fileID string) error {
	started := time.Now()

	resp, err := c.request(ctx).
		SetPathParams(map[string]string{"bucketId": bucketID, "fileId": fileID}).
		Delete("/storage/buckets/{bucketId}/files/{fileId}")
	return check("delete file", resp, err, started)
}

// FileViewURL addresses the file's original bytes.
func (c *Client) FileViewURL(bucketID, fileID string) string {
	return c.fileURL(bucketID, fileID, "view", url.Values{})
}

// FilePreviewURL addresses a resized, cropped rendition of an image file.
func (c *Client) FilePreviewURL(bucketID, fileID string, opts model.PreviewOptions) string {
	params := url.Values{}
	if opts.Width > 0 {
		params.Set("width", strconv.Itoa(opts.Width))
	}
	if opts.Height > 0 {
		params.Set("height", strconv.Itoa(opts.Height))
	}
	if opts.Gravity != "" {
		params.Set("gravity", opts.Gravity)
	}
	if opts.Quality > 0 {
		params.Set("quality", strconv.Itoa(opts.Quality))
	}
	return c.fileURL(bucketID, fileID, "preview", params)
}

func (c *Client) fileURL(bucketID, fileID, action string, params url.Values) string {
	params.Set("project", c.opts.ProjectID)
	return c.opts.Endpoint +
		"/storage/buckets/" + url.PathEscape(bucketID) +
		"/files/" + url.PathEscape(fileID) +
		"/" + action + "?" + params.Encode()
}

// InitialsURL addresses an avatar image rendered from the name's initials.
func (c *Client) InitialsURL(name string) string {
	params := url.Values{}
	params.Set("name", name)
	params.Set("project", c.opts.ProjectID)
	return c.opts.Endpoint + "/avatars/initials?" + params.Encode()
}
