package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/publicsquare/intake/internal/domain"
)

// Clock returns the current time. Injected so session expiry is testable
// without sleeping.
type Clock func() time.Time

// SQLiteSessionStore persists one conversation session per sender. Expiry
// is a pure time comparison evaluated lazily on Get; there is no sweeper.
type SQLiteSessionStore struct {
	db  *DB
	ttl time.Duration
	now Clock
}

// NewSQLiteSessionStore creates a session store using the given database.
// A nil clock defaults to time.Now.
func NewSQLiteSessionStore(db *DB, ttl time.Duration, now Clock) *SQLiteSessionStore {
	if now == nil {
		now = time.Now
	}
	return &SQLiteSessionStore{db: db, ttl: ttl, now: now}
}

// Get returns the sender's session, or a fresh greeting session when none
// exists or the stored one has expired. An expired row is removed so the
// restart is observable in the table.
func (s *SQLiteSessionStore) Get(ctx context.Context, sender string) (*domain.Session, error) {
	var sess domain.Session
	var updatedAt string

	err := s.db.sql.QueryRowContext(ctx,
		`SELECT sender, state, description, location, category, updated_at
		 FROM sessions WHERE sender = ?`, sender,
	).Scan(&sess.Sender, &sess.State, &sess.Draft.Description,
		&sess.Draft.Location, &sess.Draft.Category, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewSession(sender), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session for %s: %w", sender, err)
	}

	sess.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)
	if sess.Expired(s.now().UTC(), s.ttl) {
		if err := s.Clear(ctx, sender); err != nil {
			return nil, err
		}
		return domain.NewSession(sender), nil
	}
	return &sess, nil
}

// Put upserts the session, stamping UpdatedAt with the store clock so the
// TTL is renewed on every write.
func (s *SQLiteSessionStore) Put(ctx context.Context, sess *domain.Session) error {
	sess.UpdatedAt = s.now().UTC()
	_, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO sessions (sender, state, description, location, category, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(sender) DO UPDATE SET
		   state = excluded.state,
		   description = excluded.description,
		   location = excluded.location,
		   category = excluded.category,
		   updated_at = excluded.updated_at`,
		sess.Sender, string(sess.State), sess.Draft.Description,
		sess.Draft.Location, sess.Draft.Category,
		sess.UpdatedAt.Format(time.DateTime),
	)
	if err != nil {
		return fmt.Errorf("saving session for %s: %w", sess.Sender, err)
	}
	return nil
}

// Clear removes the sender's session.
func (s *SQLiteSessionStore) Clear(ctx context.Context, sender string) error {
	_, err := s.db.sql.ExecContext(ctx, `DELETE FROM sessions WHERE sender = ?`, sender)
	if err != nil {
		return fmt.Errorf("clearing session for %s: %w", sender, err)
	}
	return nil
}
