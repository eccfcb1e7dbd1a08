package session

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"aorify/internal/model"
)

// Authenticator is the account side of the data-access layer.
type Authenticator interface {
	CreateUser(ctx context.Context, email, password, username string) (*model.User, error)
	SignIn(ctx context.Context, email, password string) (*model.Session, error)
	GetCurrentUser(ctx context.Context) (*model.User, error)
	SignOut(ctx context.Context) error
}

type Bookmarks interface {
	SavePost(ctx context.Context, postID, userID string) (*model.SavedPost, error)
	UnsavePost(ctx context.Context, postID, userID string) error
	SavedPostIDs(ctx context.Context, userID string) ([]string, error)
}

type VideoDeleter interface {
	DeleteVideo(ctx context.Context, postID string) error
}

// Actions are the user-triggered operations that write through to the
// platform and then update State.
type Actions struct {
	state     *State
	auth      Authenticator
	bookmarks Bookmarks
	videos    VideoDeleter
}

func NewActions(state *State, auth Authenticator, bookmarks Bookmarks, videos VideoDeleter) *Actions {
	return &Actions{state: state, auth: auth, bookmarks: bookmarks, videos: videos}
}

func (a *Actions) State() *State {
	return a.state
}

// Bootstrap runs the startup session check and bookmark fetch concurrently.
// Both treat a failed lookup as signed out; loading is cleared once the
// session check settles.
func (a *Actions) Bootstrap(ctx context.Context) Snapshot {
	var g errgroup.Group

	g.Go(func() error {
		defer a.state.SetLoading(false)

		user, err := a.currentUser(ctx)
		if err != nil {
			a.state.Clear()
			return nil
		}
		a.state.SetUser(user)
		return nil
	})

	g.Go(func() error {
		user, err := a.currentUser(ctx)
		if err != nil {
			return nil
		}
		ids, err := a.bookmarks.SavedPostIDs(ctx, user.ID)
		if err != nil {
			log.WithField("user", user.ID).WithError(err).Warn("could not load bookmarks")
			return nil
		}
		a.state.SetBookmarks(ids)
		return nil
	})

	_ = g.Wait()
	return a.state.Snapshot()
}

// currentUser logs lookup failures; absence is not logged.
func (a *Actions) currentUser(ctx context.Context) (*model.User, error) {
	user, err := a.auth.GetCurrentUser(ctx)
	if err != nil && !errors.Is(err, model.ErrNoSession) {
		log.WithError(err).Warn("current user lookup failed, treating as signed out")
	}
	return user, err
}

// SignIn opens a session and loads the user and their bookmarks.
func (a *Actions) SignIn(ctx context.Context, email, password string) (*model.User, error) {
	if _, err := a.auth.SignIn(ctx, email, password); err != nil {
		return nil, err
	}

	user, err := a.auth.GetCurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("load signed-in user: %w", err)
	}
	a.state.SetUser(user)

	ids, err := a.bookmarks.SavedPostIDs(ctx, user.ID)
	if err != nil {
		log.WithField("user", user.ID).WithError(err).Warn("could not load bookmarks")
		ids = nil
	}
	a.state.SetBookmarks(ids)
	return user, nil
}

// SignUp creates the account and user; the new user starts with no bookmarks.
func (a *Actions) SignUp(ctx context.Context, email, password, username string) (*model.User, error) {
	user, err := a.auth.CreateUser(ctx, email, password, username)
	if err != nil {
		return nil, err
	}
	a.state.SetUser(user)
	a.state.SetBookmarks(nil)
	return user, nil
}

// SignOut ends the session and clears the state.
func (a *Actions) SignOut(ctx context.Context) error {
	if err := a.auth.SignOut(ctx); err != nil {
		return err
	}
	a.state.Clear()
	return nil
}

// Save bookmarks postID for the signed-in user.
func (a *Actions) Save(ctx context.Context, postID string) error {
	user := a.state.User()
	if user == nil {
		return model.ErrNoSession
	}
	if _, err := a.bookmarks.SavePost(ctx, postID, user.ID); err != nil {
		return err
	}
	a.state.AddBookmark(postID)
	return nil
}

// Unsave removes the signed-in user's bookmark of postID.
func (a *Actions) Unsave(ctx context.Context, postID string) error {
	user := a.state.User()
	if user == nil {
		return model.ErrNoSession
	}
	if err := a.bookmarks.UnsavePost(ctx, postID, user.ID); err != nil {
		return err
	}
	a.state.RemoveBookmark(postID)
	return nil
}

// DeleteVideo deletes a post with its files. A bookmark of it is dropped
// from the state; the bookmark record itself is left on the platform.
func (a *Actions) DeleteVideo(ctx context.Context, postID string) error {
	if err := a.videos.DeleteVideo(ctx, postID); err != nil {
		return err
	}
	if a.state.IsSaved(postID) {
		a.state.RemoveBookmark(postID)
	}
	return nil
}

func (a *Actions) IsSaved(postID string) bool {
	return a.state.IsSaved(postID)
}
