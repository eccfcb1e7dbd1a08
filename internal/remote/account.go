package remote

import (
	"context"
	"errors"
	"time"

	"aorify/internal/model"
	"aorify/internal/sessionstore"
)

// CreateAccount registers a new email/password account.
func (c *Client) CreateAccount(ctx context.Context, userID, email, password, name string) (*model.Account, error) {
	started := time.Now()
	var account model.Account

	resp, err := c.request(ctx).
		SetBody(map[string]string{
			"userId":   userID,
			"email":    email,
			"password": password,
			"name":     name,
		}).
		SetResult(&account).
		Post("/account")
	if err := check("create account", resp, err, started); err != nil {
		return nil, err
	}
	return &account, nil
}

// CreateEmailPasswordSession signs in and persists the returned credential.
func (c *Client) CreateEmailPasswordSession(ctx context.Context, email, password string) (*model.Session, error) {
	started := time.Now()
	var session model.Session

	resp, err := c.request(ctx).
		SetBody(map[string]string{
			"email":    email,
			"password": password,
		}).
		SetResult(&session).
		Post("/account/sessions/email")
	if err := check("create session", resp, err, started); err != nil {
		return nil, err
	}

	if session.Secret != "" {
		cred := sessionstore.Credential{SessionID: session.ID, Secret: session.Secret, Expire: session.Expire}
		if err := c.sessions.Save(ctx, cred); err != nil {
			return nil, &model.RemoteError{Op: "create session", Type: model.TypeGeneralUnknown, Message: err.Error(), Err: err}
		}
	}
	log.WithField("session", session.ID).Debug("session created")
	return &session, nil
}

// GetAccount returns the account the current session belongs to.
func (c *Client) GetAccount(ctx context.Context) (*model.Account, error) {
	started := time.Now()
	var account model.Account

	resp, err := c.request(ctx).SetResult(&account).Get("/account")
	if err := check("get account", resp, err, started); err != nil {
		return nil, err
	}
	return &account, nil
}

// DeleteSession ends a session; model.CurrentSessionID ends the one in use.
// The stored credential is dropped once the platform no longer accepts it.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	started := time.Now()

	resp, err := c.request(ctx).
		SetPathParam("sessionId", sessionID).
		Delete("/account/sessions/{sessionId}")
	checkErr := check("delete session", resp, err, started)
	if checkErr != nil && !errors.Is(checkErr, model.ErrAuth) {
		return checkErr
	}

	if c.isCurrentSession(ctx, sessionID) {
		if err := c.sessions.Clear(ctx); err != nil {
			log.WithError(err).Warn("could not clear stored session credential")
		}
	}
	return checkErr
}

func (c *Client) isCurrentSession(ctx context.Context, sessionID string) bool {
	if sessionID == model.CurrentSessionID {
		return true
	}
	cred, err := c.sessions.Load(ctx)
	return err == nil && cred != nil && cred.SessionID == sessionID
}
