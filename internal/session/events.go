package session

import "time"

// Event types published on state changes
const (
	EventLoadingChanged    = "loading_changed"
	EventSignedIn          = "signed_in"
	EventSignedOut         = "signed_out"
	EventBookmarkAdded     = "bookmark_added"
	EventBookmarkRemoved   = "bookmark_removed"
	EventBookmarksReplaced = "bookmarks_replaced"
)

// Event describes one state mutation. Snapshot is the state right after it.
type Event struct {
	Type      string
	Timestamp int64

	UserID string
	PostID string

	Snapshot Snapshot
}

func newEvent(eventType string, snap Snapshot) Event {
	e := Event{Type: eventType, Timestamp: time.Now().Unix(), Snapshot: snap}
	if snap.User != nil {
		e.UserID = snap.User.ID
	}
	return e
}
