package model

import "time"

// SavedPost is a bookmark: a join record between a user and a post.
type SavedPost struct {
	ID        string    `json:"$id"`
	PostID    string    `json:"postId"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"$createdAt"`
}

// SavedPostFields is the stored shape of a saved post document.
type SavedPostFields struct {
	PostID string `json:"postId"`
	UserID string `json:"userId"`
}
