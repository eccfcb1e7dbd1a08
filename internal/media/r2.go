// Package media stores post files in a Cloudflare R2 bucket instead of the
// platform's storage service. It serves the same storage operations as the
// remote client so the post service can use either.
package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"aorify/internal/config"
	"aorify/internal/logging"
	"aorify/internal/model"
)

var log = logging.For("media")

const (
	keyPrefix    = "files"
	cacheControl = "public, max-age=31536000, immutable"

	// MaxUploadBytes caps a single upload held in memory.
	MaxUploadBytes int64 = 200 << 20
)

// objectAPI is the subset of the S3 client the driver uses.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// R2Storage keeps files as objects under files/<id> in one bucket and
// serves them from the bucket's public URL.
type R2Storage struct {
	objects   objectAPI
	bucket    string
	publicURL string
	now       func() time.Time
}

// NewR2Storage constructs an S3-compatible client for Cloudflare R2.
func NewR2Storage(ctx context.Context, cfg *config.Config) (*R2Storage, error) {
	if cfg.R2AccountID == "" || cfg.R2AccessKeyID == "" || cfg.R2SecretAccessKey == "" || cfg.R2BucketName == "" || cfg.R2PublicURL == "" {
		return nil, fmt.Errorf("missing Cloudflare R2 configuration")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for R2: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return newR2Storage(client, cfg.R2BucketName, cfg.R2PublicURL), nil
}

func newR2Storage(objects objectAPI, bucket, publicURL string) *R2Storage {
	return &R2Storage{
		objects:   objects,
		bucket:    bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		now:       time.Now,
	}
}

// CreateFile uploads the body as files/<fileID>. Images are normalized to the
// thumbnail preview geometry first, since R2 cannot render previews. The
// bucketID argument is ignored; everything lands in the configured bucket.
func (s *R2Storage) CreateFile(ctx context.Context, bucketID, fileID string, upload *model.Upload) (*model.File, error) {
	if upload == nil || upload.Body == nil {
		return nil, model.NewValidationError("file", "no file provided")
	}

	data, err := readLimited(upload.Body, MaxUploadBytes)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, model.NewValidationError("file", "file is empty")
	}

	contentType := detectContentType(upload, data)
	if model.IsAllowedImageType(contentType) {
		preview := model.ThumbnailPreview()
		data, err = resizeToJPEG(data, preview.Width, preview.Height, preview.Quality)
		if err != nil {
			return nil, err
		}
		contentType = model.ContentTypeJPEG
	}

	key := objectKey(fileID)
	if err := s.putObject(ctx, key, data, contentType); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{"key": key, "bytes": len(data)}).Debug("object stored")
	return &model.File{
		ID:           fileID,
		BucketID:     s.bucket,
		Name:         upload.Name,
		MimeType:     contentType,
		SizeOriginal: int64(len(data)),
		CreatedAt:    s.now().UTC(),
	}, nil
}

// DeleteFile removes the object backing fileID.
func (s *R2Storage) DeleteFile(ctx context.Context, bucketID, fileID string) error {
	if fileID == "" {
		return nil
	}
	_, err := s.objects.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(fileID)),
	})
	if err != nil {
		return remoteFailure("delete file", fmt.Errorf("failed to delete from r2: %w", err))
	}
	return nil
}

func (s *R2Storage) FileViewURL(bucketID, fileID string) string {
	return s.publicURL + "/" + objectKey(fileID)
}

// FilePreviewURL returns the view URL: images were already cropped to the
// preview geometry on upload.
func (s *R2Storage) FilePreviewURL(bucketID, fileID string, opts model.PreviewOptions) string {
	return s.FileViewURL(bucketID, fileID)
}

func objectKey(fileID string) string {
	return keyPrefix + "/" + fileID
}

func (s *R2Storage) putObject(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.objects.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(cacheControl),
	})
	if err != nil {
		return remoteFailure("create file", fmt.Errorf("failed to upload to r2: %w", err))
	}
	return nil
}

func remoteFailure(op string, err error) error {
	return &model.RemoteError{Op: op, Type: model.TypeGeneralUnknown, Message: err.Error(), Err: err}
}

func readLimited(r io.Reader, maxSize int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, model.NewValidationError("file", fmt.Sprintf("file exceeds %d bytes", maxSize))
	}
	return data, nil
}

// detectContentType prefers the declared type, then the extension, then sniffing.
func detectContentType(upload *model.Upload, data []byte) string {
	contentType := upload.MimeType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(upload.Name))
	}
	if contentType == "" {
		contentType = http.DetectContentType(data[:min(len(data), 512)])
	}
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	return contentType
}

// resizeToJPEG crops to the target size keeping the top edge and encodes as JPEG.
func resizeToJPEG(data []byte, width, height, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, model.NewValidationError("file", fmt.Sprintf("failed to decode image: %v", err))
	}

	resized := imaging.Fill(img, width, height, imaging.Top, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
