// Package session holds the signed-in user's client-side state and the
// actions that change it.
package session

import (
	"slices"
	"sync"

	"github.com/sirupsen/logrus"

	"aorify/internal/logging"
	"aorify/internal/model"
)

var log = logging.For("session")

// Snapshot is a copy of the state at one point in time.
type Snapshot struct {
	Loading   bool
	LoggedIn  bool
	User      *model.User
	Bookmarks []string
}

// State is the single owner of session state. Mutations are last writer
// wins; overlapping actions are not serialized beyond each single mutation.
type State struct {
	mu        sync.Mutex
	loading   bool
	user      *model.User
	bookmarks []string

	subs   map[int]chan Event
	nextID int
}

// NewState returns a state in the loading phase with nobody signed in.
func NewState() *State {
	return &State{loading: true, subs: make(map[int]chan Event)}
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *State) snapshotLocked() Snapshot {
	snap := Snapshot{
		Loading:   s.loading,
		LoggedIn:  s.user != nil,
		Bookmarks: slices.Clone(s.bookmarks),
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

// User returns the signed-in user, or nil.
func (s *State) User() *model.User {
	return s.Snapshot().User
}

func (s *State) IsSaved(postID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.bookmarks, postID)
}

func (s *State) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading == loading {
		return
	}
	s.loading = loading
	s.publishLocked(newEvent(EventLoadingChanged, s.snapshotLocked()))
}

// SetUser marks user as signed in. A nil user is the same as Clear.
func (s *State) SetUser(user *model.User) {
	if user == nil {
		s.Clear()
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := *user
	s.user = &u
	s.publishLocked(newEvent(EventSignedIn, s.snapshotLocked()))
}

// Clear signs the user out and forgets their bookmarks.
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.bookmarks = nil
	s.publishLocked(newEvent(EventSignedOut, s.snapshotLocked()))
}

func (s *State) SetBookmarks(postIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookmarks = slices.Clone(postIDs)
	s.publishLocked(newEvent(EventBookmarksReplaced, s.snapshotLocked()))
}

// AddBookmark appends postID. Duplicates are kept, matching the records.
func (s *State) AddBookmark(postID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookmarks = append(s.bookmarks, postID)
	e := newEvent(EventBookmarkAdded, s.snapshotLocked())
	e.PostID = postID
	s.publishLocked(e)
}

// RemoveBookmark drops every occurrence of postID.
func (s *State) RemoveBookmark(postID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookmarks = slices.DeleteFunc(s.bookmarks, func(id string) bool { return id == postID })
	e := newEvent(EventBookmarkRemoved, s.snapshotLocked())
	e.PostID = postID
	s.publishLocked(e)
}

// Subscribe returns a channel receiving every later event and a cancel func
// that closes it. Events are dropped, not queued, when the buffer is full.
func (s *State) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *State) publishLocked(e Event) {
	for id, ch := range s.subs {
		select {
		case ch <- e:
		default:
			log.WithFields(logrus.Fields{"subscriber": id, "event": e.Type}).Warn("subscriber buffer full, event dropped")
		}
	}
}
