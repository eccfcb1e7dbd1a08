package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Post is a video post document.
type Post struct {
	ID        string    `json:"$id"`
	Title     string    `json:"title"`
	Thumbnail string    `json:"thumbnail"`
	Video     string    `json:"video"`
	Prompt    string    `json:"prompt"`
	Creator   Creator   `json:"creator"`
	CreatedAt time.Time `json:"$createdAt"`
}

// PostFields is the stored shape of a post document. Creator holds the user
// document id.
type PostFields struct {
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	Video     string `json:"video"`
	Prompt    string `json:"prompt"`
	Creator   string `json:"creator"`
}

// Creator references the user who made a post. The platform returns either
// the bare user id or the expanded user document.
type Creator struct {
	ID   string
	User *User
}

func (c *Creator) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = Creator{}
		return nil
	}

	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return fmt.Errorf("decode creator id: %w", err)
		}
		*c = Creator{ID: id}
		return nil
	}

	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return fmt.Errorf("decode creator document: %w", err)
	}
	*c = Creator{ID: u.ID, User: &u}
	return nil
}

func (c Creator) MarshalJSON() ([]byte, error) {
	if c.User != nil {
		return json.Marshal(c.User)
	}
	if c.ID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(c.ID)
}

// VideoForm is the input to video creation.
type VideoForm struct {
	Title     string
	Prompt    string
	Thumbnail *Upload
	Video     *Upload
	UserID    string
}

// Post listing constants
const (
	LatestPostsLimit = 7
	AttrCreatedAt    = "$createdAt"
	AttrTitle        = "title"
	AttrCreator      = "creator"
	AttrAccountID    = "accountId"
	AttrPostID       = "postId"
	AttrUserID       = "userId"
)
