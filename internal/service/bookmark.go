package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"aorify/internal/model"
	"aorify/internal/remote"
)

// BookmarkService manages SavedPost join records.
type BookmarkService struct {
	db    remote.DatabaseAPI
	ids   Collections
	newID IDGenerator
}

func NewBookmarkService(db remote.DatabaseAPI, ids Collections, newID IDGenerator) *BookmarkService {
	return &BookmarkService{db: db, ids: ids, newID: orDefault(newID)}
}

// SavePost bookmarks postID for userID. Saving twice creates two records;
// uniqueness is left to the platform.
func (s *BookmarkService) SavePost(ctx context.Context, postID, userID string) (*model.SavedPost, error) {
	raw, err := s.db.CreateDocument(ctx, s.ids.SavedPosts, s.newID(), model.SavedPostFields{
		PostID: postID,
		UserID: userID,
	})
	if err != nil {
		return nil, fmt.Errorf("save post %s: %w", postID, err)
	}
	return remote.Decode[model.SavedPost](raw)
}

// UnsavePost deletes the first bookmark matching (postID, userID). It returns
// model.ErrNotFound when there is none.
func (s *BookmarkService) UnsavePost(ctx context.Context, postID, userID string) error {
	list, err := s.db.ListDocuments(ctx, s.ids.SavedPosts, []string{
		remote.Equal(model.AttrPostID, postID),
		remote.Equal(model.AttrUserID, userID),
	})
	if err != nil {
		return fmt.Errorf("unsave post %s: %w", postID, err)
	}

	saved, err := remote.DecodeList[model.SavedPost](list)
	if err != nil {
		return err
	}
	if len(saved) == 0 {
		return fmt.Errorf("unsave post %s: %w", postID, model.ErrNotFound)
	}
	if len(saved) > 1 {
		log.WithField("post", postID).WithField("user", userID).Warnf("%d bookmarks for one post, removing the first", len(saved))
	}

	if err := s.db.DeleteDocument(ctx, s.ids.SavedPosts, saved[0].ID); err != nil {
		return fmt.Errorf("unsave post %s: %w", postID, err)
	}
	return nil
}

// SavedPostIDs lists the post ids userID has bookmarked, in bookmark order.
func (s *BookmarkService) SavedPostIDs(ctx context.Context, userID string) ([]string, error) {
	saved, err := s.savedPosts(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(saved))
	for _, sp := range saved {
		ids = append(ids, sp.PostID)
	}
	return ids, nil
}

// GetSavedPosts fetches every post userID has bookmarked, concurrently,
// preserving bookmark order.
func (s *BookmarkService) GetSavedPosts(ctx context.Context, userID string) ([]model.Post, error) {
	saved, err := s.savedPosts(ctx, userID)
	if err != nil {
		return nil, err
	}

	posts := make([]model.Post, len(saved))
	g, gctx := errgroup.WithContext(ctx)
	for i, sp := range saved {
		g.Go(func() error {
			raw, err := s.db.GetDocument(gctx, s.ids.Videos, sp.PostID)
			if err != nil {
				return fmt.Errorf("get saved post %s: %w", sp.PostID, err)
			}
			post, err := remote.Decode[model.Post](raw)
			if err != nil {
				return err
			}
			posts[i] = *post
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *BookmarkService) savedPosts(ctx context.Context, userID string) ([]model.SavedPost, error) {
	list, err := listAll(ctx, s.db, s.ids.SavedPosts, []string{
		remote.Equal(model.AttrUserID, userID),
	})
	if err != nil {
		return nil, fmt.Errorf("list saved posts: %w", err)
	}
	return remote.DecodeList[model.SavedPost](list)
}
