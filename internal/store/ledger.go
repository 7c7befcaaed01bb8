package store

import (
	"context"
	"fmt"
	"time"

	"github.com/publicsquare/intake/internal/domain"
)

// Ledger records every inbound delivery by its provider-assigned ID so that
// redelivered webhooks are absorbed exactly once. The insert is the dedup
// check: under concurrent delivery of the same ID, SQLite's primary key
// guarantees exactly one caller observes isNew=true.
type Ledger struct {
	db *DB
}

// NewLedger creates a ledger using the given database.
func NewLedger(db *DB) *Ledger {
	return &Ledger{db: db}
}

// LedgerEntry is one recorded delivery.
type LedgerEntry struct {
	ProviderID string
	Sender     string
	Kind       domain.MessageKind
	Content    string
	Outcome    domain.Outcome
	Error      string
	ReceivedAt time.Time
}

// Record inserts the message if its provider ID has not been seen before.
// Returns isNew=false for a redelivery; that is the dedup signal, not an
// error. The check-and-insert is a single atomic statement, never a
// read-then-write.
func (l *Ledger) Record(ctx context.Context, msg domain.InboundMessage) (bool, error) {
	receivedAt := msg.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	res, err := l.db.sql.ExecContext(ctx,
		`INSERT INTO inbound_messages (provider_id, sender, kind, content, outcome, received_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(provider_id) DO NOTHING`,
		msg.ProviderID, msg.Sender, string(msg.Kind), msg.Text,
		string(domain.OutcomePending), receivedAt.UTC().Format(time.DateTime),
	)
	if err != nil {
		return false, fmt.Errorf("recording message %s: %w", msg.ProviderID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("recording message %s: %w", msg.ProviderID, err)
	}
	return n == 1, nil
}

// MarkOutcome updates the processing outcome (and optional error detail)
// for a recorded delivery.
func (l *Ledger) MarkOutcome(ctx context.Context, providerID string, outcome domain.Outcome, detail string) error {
	_, err := l.db.sql.ExecContext(ctx,
		`UPDATE inbound_messages SET outcome = ?, error = ? WHERE provider_id = ?`,
		string(outcome), detail, providerID,
	)
	if err != nil {
		return fmt.Errorf("marking message %s %s: %w", providerID, outcome, err)
	}
	return nil
}

// Get returns the recorded entry for a provider ID.
func (l *Ledger) Get(ctx context.Context, providerID string) (*LedgerEntry, error) {
	var e LedgerEntry
	var kind, outcome, receivedAt string

	err := l.db.sql.QueryRowContext(ctx,
		`SELECT provider_id, sender, kind, content, outcome, error, received_at
		 FROM inbound_messages WHERE provider_id = ?`, providerID,
	).Scan(&e.ProviderID, &e.Sender, &kind, &e.Content, &outcome, &e.Error, &receivedAt)
	if err != nil {
		return nil, ErrNotFound
	}

	e.Kind = domain.MessageKind(kind)
	e.Outcome = domain.Outcome(outcome)
	e.ReceivedAt, _ = time.Parse(time.DateTime, receivedAt)
	return &e, nil
}
