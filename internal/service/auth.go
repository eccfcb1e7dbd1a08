package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"aorify/internal/model"
	"aorify/internal/remote"
)

type AuthService struct {
	account remote.AccountAPI
	db      remote.DatabaseAPI
	avatars remote.AvatarAPI
	ids     Collections
	newID   IDGenerator
}

func NewAuthService(account remote.AccountAPI, db remote.DatabaseAPI, avatars remote.AvatarAPI, ids Collections, newID IDGenerator) *AuthService {
	return &AuthService{
		account: account,
		db:      db,
		avatars: avatars,
		ids:     ids,
		newID:   orDefault(newID),
	}
}

// CreateUser registers an account, signs in, then stores the user document.
// The three calls are not rolled back: a failure on the last step leaves an
// account without a user document.
func (s *AuthService) CreateUser(ctx context.Context, email, password, username string) (*model.User, error) {
	if strings.TrimSpace(email) == "" || password == "" || strings.TrimSpace(username) == "" {
		return nil, model.ErrMissingFields
	}

	account, err := s.account.CreateAccount(ctx, s.newID(), email, password, username)
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	avatarURL := s.avatars.InitialsURL(username)

	if _, err := s.SignIn(ctx, email, password); err != nil {
		log.WithField("account", account.ID).Warn("account created but sign in failed, no user document written")
		return nil, err
	}

	raw, err := s.db.CreateDocument(ctx, s.ids.Users, s.newID(), model.UserFields{
		AccountID: account.ID,
		Email:     email,
		Username:  username,
		Avatar:    avatarURL,
	})
	if err != nil {
		log.WithField("account", account.ID).WithError(err).Warn("account has no user document")
		return nil, fmt.Errorf("create user document: %w", err)
	}

	user, err := remote.Decode[model.User](raw)
	if err != nil {
		return nil, err
	}
	log.WithField("user", user.ID).Info("user created")
	return user, nil
}

// SignIn opens an email/password session.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, model.ErrMissingFields
	}

	session, err := s.account.CreateEmailPasswordSession(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	return session, nil
}

// GetCurrentUser returns the signed-in user's document. It returns
// model.ErrNoSession when no session is active or the account has no user
// document; any other error is a failed lookup.
func (s *AuthService) GetCurrentUser(ctx context.Context) (*model.User, error) {
	account, err := s.account.GetAccount(ctx)
	if err != nil {
		if errors.Is(err, model.ErrAuth) {
			return nil, model.ErrNoSession
		}
		return nil, fmt.Errorf("get current account: %w", err)
	}

	list, err := s.db.ListDocuments(ctx, s.ids.Users, []string{
		remote.Equal(model.AttrAccountID, account.ID),
	})
	if err != nil {
		return nil, fmt.Errorf("get current user: %w", err)
	}

	users, err := remote.DecodeList[model.User](list)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("account %s has no user document: %w", account.ID, model.ErrNoSession)
	}
	return &users[0], nil
}

// SignOut ends the current session.
func (s *AuthService) SignOut(ctx context.Context) error {
	if err := s.account.DeleteSession(ctx, model.CurrentSessionID); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}
