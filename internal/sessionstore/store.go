// Package sessionstore persists the platform session credential between
// requests and, for the file and redis stores, between process runs. Only
// the credential is stored; user and bookmark state is always re-fetched.
package sessionstore

import (
	"context"
	"sync"
	"time"
)

// Credential is the session secret sent with every authenticated request.
type Credential struct {
	SessionID string    `json:"session_id"`
	Secret    string    `json:"secret"`
	Expire    time.Time `json:"expire"`
}

// Expired reports whether the credential has a known expiry in the past.
func (c *Credential) Expired(now time.Time) bool {
	return !c.Expire.IsZero() && now.After(c.Expire)
}

// Store defines credential persistence. Load returns nil, nil when nothing
// is stored or the stored credential has expired.
type Store interface {
	Load(ctx context.Context) (*Credential, error)
	Save(ctx context.Context, cred Credential) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps the credential for the lifetime of the process.
type MemoryStore struct {
	mu   sync.RWMutex
	cred *Credential
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cred == nil || s.cred.Expired(time.Now()) {
		return nil, nil
	}
	c := *s.cred
	return &c, nil
}

func (s *MemoryStore) Save(ctx context.Context, cred Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = &cred
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = nil
	return nil
}
