package store

import (
	"context"
	"testing"
	"time"

	"github.com/publicsquare/intake/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable Clock for expiry tests.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

// sessionStore abstracts the two backends so both run the same tests.
type sessionStore interface {
	Get(ctx context.Context, sender string) (*domain.Session, error)
	Put(ctx context.Context, sess *domain.Session) error
	Clear(ctx context.Context, sender string) error
}

func runSessionStoreTests(t *testing.T, name string, open func(t *testing.T, clock *fakeClock) sessionStore) {
	ctx := context.Background()

	t.Run(name+"/unknown sender gets fresh greeting session", func(t *testing.T) {
		ss := open(t, newFakeClock())
		sess, err := ss.Get(ctx, "2348000000001")
		require.NoError(t, err)
		assert.Equal(t, domain.StateGreeting, sess.State)
		assert.Equal(t, domain.Draft{}, sess.Draft)
	})

	t.Run(name+"/put then get round-trips", func(t *testing.T) {
		ss := open(t, newFakeClock())
		sess := &domain.Session{
			Sender: "2348000000002",
			State:  domain.StateWaitingLocation,
			Draft:  domain.Draft{Description: "pothole on bridge"},
		}
		require.NoError(t, ss.Put(ctx, sess))

		got, err := ss.Get(ctx, "2348000000002")
		require.NoError(t, err)
		assert.Equal(t, domain.StateWaitingLocation, got.State)
		assert.Equal(t, "pothole on bridge", got.Draft.Description)
	})

	t.Run(name+"/expired session restarts at greeting", func(t *testing.T) {
		clock := newFakeClock()
		ss := open(t, clock)
		sess := &domain.Session{
			Sender: "2348000000003",
			State:  domain.StateWaitingCategory,
			Draft:  domain.Draft{Description: "no light", Location: "Jabi"},
		}
		require.NoError(t, ss.Put(ctx, sess))

		clock.Advance(2 * time.Hour)

		got, err := ss.Get(ctx, "2348000000003")
		require.NoError(t, err)
		assert.Equal(t, domain.StateGreeting, got.State)
		assert.Equal(t, domain.Draft{}, got.Draft)
	})

	t.Run(name+"/write renews the TTL", func(t *testing.T) {
		clock := newFakeClock()
		ss := open(t, clock)
		sess := &domain.Session{Sender: "2348000000004", State: domain.StateWaitingIssue}
		require.NoError(t, ss.Put(ctx, sess))

		// Touch just before expiry, then check well past the original window.
		clock.Advance(50 * time.Minute)
		require.NoError(t, ss.Put(ctx, sess))
		clock.Advance(50 * time.Minute)

		got, err := ss.Get(ctx, "2348000000004")
		require.NoError(t, err)
		assert.Equal(t, domain.StateWaitingIssue, got.State)
	})

	t.Run(name+"/clear removes the session", func(t *testing.T) {
		ss := open(t, newFakeClock())
		sess := &domain.Session{Sender: "2348000000005", State: domain.StateConfirmation}
		require.NoError(t, ss.Put(ctx, sess))
		require.NoError(t, ss.Clear(ctx, "2348000000005"))

		got, err := ss.Get(ctx, "2348000000005")
		require.NoError(t, err)
		assert.Equal(t, domain.StateGreeting, got.State)
	})
}

func TestSQLiteSessionStore(t *testing.T) {
	runSessionStoreTests(t, "sqlite", func(t *testing.T, clock *fakeClock) sessionStore {
		return NewSQLiteSessionStore(testDB(t), time.Hour, clock.Now)
	})
}

func TestMemorySessionStore(t *testing.T) {
	runSessionStoreTests(t, "memory", func(t *testing.T, clock *fakeClock) sessionStore {
		return NewMemorySessionStore(time.Hour, clock.Now)
	})
}
