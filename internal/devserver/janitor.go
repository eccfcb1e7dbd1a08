package devserver

import (
	"context"
	"sync"
	"time"
)

// DefaultSweepInterval is how often expired sessions are purged.
const DefaultSweepInterval = 10 * time.Minute

// Janitor periodically purges expired sessions from the store and idle
// entries from the rate limiter.
type Janitor struct {
	store    *Store
	limiter  *clientLimiter
	interval time.Duration
	now      func() time.Time

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewJanitor(store *Store, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Janitor{store: store, interval: interval, now: time.Now}
}

// Janitor returns a janitor sweeping this server's store and rate limiter.
func (s *Server) Janitor(interval time.Duration) *Janitor {
	j := NewJanitor(s.store, interval)
	j.limiter = s.limiter
	return j
}

// Start runs a sweep immediately and then once per interval until Stop.
func (j *Janitor) Start(ctx context.Context) {
	ctx, j.cancel = context.WithCancel(ctx)

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()

		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			j.Sweep(ctx)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	log.WithField("interval", j.interval).Info("session janitor started")
}

// Stop blocks until the sweep loop has exited.
func (j *Janitor) Stop() {
	if j.cancel == nil {
		return
	}
	j.cancel()
	j.wg.Wait()
	log.Info("session janitor stopped")
}

// Sweep deletes the sessions that have expired and returns how many were
// removed.
func (j *Janitor) Sweep(ctx context.Context) int64 {
	if j.limiter != nil {
		if n := j.limiter.prune(); n > 0 {
			log.WithField("count", n).Debug("idle rate limiters removed")
		}
	}

	n, err := j.store.DeleteExpiredSessions(ctx, j.now())
	if err != nil {
		if ctx.Err() == nil {
			log.WithError(err).Error("sweep expired sessions")
		}
		return 0
	}
	if n > 0 {
		log.WithField("count", n).Info("expired sessions removed")
	}
	return n
}
