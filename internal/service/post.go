package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"aorify/internal/model"
	"aorify/internal/remote"
)

type PostService struct {
	db      remote.DatabaseAPI
	storage remote.StorageAPI
	ids     Collections
	newID   IDGenerator
}

func NewPostService(db remote.DatabaseAPI, storage remote.StorageAPI, ids Collections, newID IDGenerator) *PostService {
	return &PostService{
		db:      db,
		storage: storage,
		ids:     ids,
		newID:   orDefault(newID),
	}
}

// GetAllPosts lists every post, newest first.
func (s *PostService) GetAllPosts(ctx context.Context) ([]model.Post, error) {
	return s.list(ctx, "get all posts", remote.OrderDesc(model.AttrCreatedAt))
}

// GetLatestPosts lists the model.LatestPostsLimit most recent posts.
func (s *PostService) GetLatestPosts(ctx context.Context) ([]model.Post, error) {
	list, err := s.db.ListDocuments(ctx, s.ids.Videos, []string{
		remote.OrderDesc(model.AttrCreatedAt),
		remote.Limit(model.LatestPostsLimit),
	})
	if err != nil {
		return nil, fmt.Errorf("get latest posts: %w", err)
	}
	return remote.DecodeList[model.Post](list)
}

// SearchPosts lists posts whose title matches the query.
func (s *PostService) SearchPosts(ctx context.Context, query string) ([]model.Post, error) {
	return s.list(ctx, "search posts", remote.Search(model.AttrTitle, query))
}

// GetUserPosts lists the posts created by userID, newest first.
func (s *PostService) GetUserPosts(ctx context.Context, userID string) ([]model.Post, error) {
	return s.list(ctx, "get user posts",
		remote.Equal(model.AttrCreator, userID),
		remote.OrderDesc(model.AttrCreatedAt),
	)
}

// list reads every page of a post listing.
func (s *PostService) list(ctx context.Context, op string, queries ...string) ([]model.Post, error) {
	list, err := listAll(ctx, s.db, s.ids.Videos, queries)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return remote.DecodeList[model.Post](list)
}

// FilePreview returns the URL a stored file is displayed from: the original
// bytes for videos, a cropped preview for images.
func (s *PostService) FilePreview(fileID string, kind model.FileKind) (string, error) {
	switch kind {
	case model.FileKindVideo:
		return s.storage.FileViewURL(s.ids.Bucket, fileID), nil
	case model.FileKindImage:
		return s.storage.FilePreviewURL(s.ids.Bucket, fileID, model.ThumbnailPreview()), nil
	default:
		return "", model.NewValidationError("type", "invalid file type")
	}
}

// UploadFile stores the upload under a new id and returns its display URL.
// A nil upload is a no-op returning "".
func (s *PostService) UploadFile(ctx context.Context, upload *model.Upload, kind model.FileKind) (string, error) {
	url, _, err := s.uploadFile(ctx, upload, kind)
	return url, err
}

func (s *PostService) uploadFile(ctx context.Context, upload *model.Upload, kind model.FileKind) (string, string, error) {
	if upload == nil {
		return "", "", nil
	}
	if kind != model.FileKindImage && kind != model.FileKindVideo {
		return "", "", model.NewValidationError("type", "invalid file type")
	}

	file, err := s.storage.CreateFile(ctx, s.ids.Bucket, s.newID(), upload)
	if err != nil {
		return "", "", fmt.Errorf("upload %s: %w", kind, err)
	}

	url, err := s.FilePreview(file.ID, kind)
	if err != nil {
		return "", file.ID, err
	}
	return url, file.ID, nil
}

// CreateVideo uploads the thumbnail and the video concurrently, then stores
// the post referencing both. Files uploaded before a failure are left in
// storage and logged.
func (s *PostService) CreateVideo(ctx context.Context, form model.VideoForm) (*model.Post, error) {
	if strings.TrimSpace(form.Title) == "" || strings.TrimSpace(form.Prompt) == "" || form.Thumbnail == nil || form.Video == nil {
		return nil, model.ErrMissingFields
	}

	var (
		thumbnailURL, thumbnailID string
		videoURL, videoID         string
		g                         errgroup.Group
	)
	g.Go(func() error {
		var err error
		thumbnailURL, thumbnailID, err = s.uploadFile(ctx, form.Thumbnail, model.FileKindImage)
		return err
	})
	g.Go(func() error {
		var err error
		videoURL, videoID, err = s.uploadFile(ctx, form.Video, model.FileKindVideo)
		return err
	})
	if err := g.Wait(); err != nil {
		logOrphans(err, thumbnailID, videoID)
		return nil, fmt.Errorf("create video: %w", err)
	}

	raw, err := s.db.CreateDocument(ctx, s.ids.Videos, s.newID(), model.PostFields{
		Title:     form.Title,
		Thumbnail: thumbnailURL,
		Video:     videoURL,
		Prompt:    form.Prompt,
		Creator:   form.UserID,
	})
	if err != nil {
		logOrphans(err, thumbnailID, videoID)
		return nil, fmt.Errorf("create video: %w", err)
	}

	post, err := remote.Decode[model.Post](raw)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"post": post.ID, "user": form.UserID}).Info("video created")
	return post, nil
}

func logOrphans(cause error, fileIDs ...string) {
	for _, id := range fileIDs {
		if id == "" {
			continue
		}
		log.WithField("file", id).WithError(cause).Warn("uploaded file left without a post")
	}
}

// DeleteVideo removes the post's thumbnail file, its video file, then the
// post itself. A file whose URL carries no file id is skipped.
func (s *PostService) DeleteVideo(ctx context.Context, postID string) error {
	raw, err := s.db.GetDocument(ctx, s.ids.Videos, postID)
	if err != nil {
		return fmt.Errorf("delete video %s: %w", postID, err)
	}
	post, err := remote.Decode[model.Post](raw)
	if err != nil {
		return err
	}

	for _, u := range []string{post.Thumbnail, post.Video} {
		if u == "" {
			continue
		}
		fileID := fileIDFromURL(u)
		if fileID == "" {
			log.WithFields(logrus.Fields{"post": postID, "url": u}).Debug("no file id in url, skipping file delete")
			continue
		}
		if err := s.storage.DeleteFile(ctx, s.ids.Bucket, fileID); err != nil {
			return fmt.Errorf("delete video %s file %s: %w", postID, fileID, err)
		}
	}

	if err := s.db.DeleteDocument(ctx, s.ids.Videos, postID); err != nil {
		return fmt.Errorf("delete video %s: %w", postID, err)
	}
	log.WithField("post", postID).Info("video deleted")
	return nil
}
