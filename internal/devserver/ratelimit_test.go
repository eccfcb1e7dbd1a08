package devserver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aorify/internal/database"
)

func TestClientLimiter_Allow(t *testing.T) {
	l := newClientLimiter(2)
	now := time.Now()
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.2"))
}

func TestClientLimiter_Disabled(t *testing.T) {
	l := newClientLimiter(0)
	for i := 0; i < 100; i++ {
		assert.True(t, l.allow("10.0.0.1"))
	}
	assert.Equal(t, 0, l.size())
}

func TestClientLimiter_PruneDropsIdleClients(t *testing.T) {
	l := newClientLimiter(2)
	now := time.Now()
	l.now = func() time.Time { return now }

	l.allow("10.0.0.1")
	l.allow("10.0.0.2")
	require.Equal(t, 2, l.size())

	now = now.Add(30 * time.Second)
	l.allow("10.0.0.2")
	assert.Equal(t, 0, l.prune())

	now = now.Add(45 * time.Second)
	assert.Equal(t, 1, l.prune())
	assert.Equal(t, 1, l.size())

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, l.prune())
	assert.Equal(t, 0, l.size())
}

func TestJanitor_SweepPrunesLimiter(t *testing.T) {
	db, err := database.Connect(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(context.Background(), db))
	t.Cleanup(func() { db.Close() })

	srv := New(db, Options{SessionRateLimit: 5})
	now := time.Now()
	srv.limiter.now = func() time.Time { return now }
	srv.limiter.allow("10.0.0.1")
	require.Equal(t, 1, srv.limiter.size())

	j := srv.Janitor(time.Minute)
	now = now.Add(2 * limiterIdle)
	j.Sweep(context.Background())
	assert.Equal(t, 0, srv.limiter.size())
}
