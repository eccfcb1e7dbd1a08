package model

import "time"

// User is the profile document linked to a platform account.
type User struct {
	ID        string    `json:"$id"`
	AccountID string    `json:"accountId"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"$createdAt"`
	UpdatedAt time.Time `json:"$updatedAt"`
}

// UserFields is the stored shape of a user document.
type UserFields struct {
	AccountID string `json:"accountId"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Avatar    string `json:"avatar"`
}

// Account is the platform's auth record.
type Account struct {
	ID        string    `json:"$id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"$createdAt"`
}

// Session ties an account to authenticated requests. Secret is only present
// in the response to session creation.
type Session struct {
	ID        string    `json:"$id"`
	UserID    string    `json:"userId"`
	Secret    string    `json:"secret,omitempty"`
	Provider  string    `json:"provider"`
	Current   bool      `json:"current"`
	Expire    time.Time `json:"expire"`
	CreatedAt time.Time `json:"$createdAt"`
}

// CurrentSessionID addresses the session the request is authenticated with.
const CurrentSessionID = "current"
