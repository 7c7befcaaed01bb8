package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/publicsquare/intake/internal/domain"
)

// IssueStore persists issues and the records touched by issue creation:
// agencies, reporter metrics, trending topics and notifications.
type IssueStore struct {
	db *DB
}

// NewIssueStore creates an issue store using the given database.
func NewIssueStore(db *DB) *IssueStore {
	return &IssueStore{db: db}
}

// Notification is a pending alert for an agency about a new issue.
type Notification struct {
	AgencySlug string
	IssueID    string
	Title      string
	Message    string
}

// IssueWrite is the full set of rows committed when an issue is created.
// Everything is applied in one transaction: either the issue and all its
// side-effect rows land, or none do.
type IssueWrite struct {
	Issue         *domain.Issue
	ProviderID    string
	Trends        []string // hashtag tags, already lowercased
	Notifications []Notification
}

// ActiveAgencyFor returns the first active agency handling the category,
// in seeding order, or ErrNotFound.
func (s *IssueStore) ActiveAgencyFor(ctx context.Context, category string) (*domain.Agency, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT slug, name, categories FROM agencies WHERE active = 1 ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("listing agencies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a domain.Agency
		var cats string
		if err := rows.Scan(&a.Slug, &a.Name, &cats); err != nil {
			return nil, fmt.Errorf("scanning agency: %w", err)
		}
		a.Active = true
		a.Categories = strings.Split(cats, ",")
		for _, c := range a.Categories {
			if strings.TrimSpace(c) == category {
				return &a, nil
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing agencies: %w", err)
	}
	return nil, ErrNotFound
}

// CommitIssue atomically inserts the issue, bumps the reporter's metric,
// updates trending topic counts and writes agency notifications.
func (s *IssueStore) CommitIssue(ctx context.Context, w IssueWrite) error {
	tx, err := s.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin issue commit: %w", err)
	}
	defer tx.Rollback()

	issue := w.Issue
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO issues (id, reference, title, description, location, category_slug,
		                     agency_slug, status, source, reporter_phone, provider_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		issue.ID, issue.Reference, issue.Title, issue.Description, issue.Location,
		issue.CategorySlug, issue.AgencySlug, string(issue.Status), issue.Source,
		issue.ReporterPhone, w.ProviderID, issue.CreatedAt.UTC().Format(time.DateTime),
	); err != nil {
		return fmt.Errorf("inserting issue %s: %w", issue.ID, err)
	}

	now := issue.CreatedAt.UTC().Format(time.DateTime)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO reporters (phone, issues_reported, last_seen_at)
		 VALUES (?, 1, ?)
		 ON CONFLICT(phone) DO UPDATE SET
		   issues_reported = issues_reported + 1,
		   last_seen_at = excluded.last_seen_at`,
		issue.ReporterPhone, now,
	); err != nil {
		return fmt.Errorf("updating reporter %s: %w", issue.ReporterPhone, err)
	}

	for _, tag := range w.Trends {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO trending_topics (tag, location, count, last_updated)
			 VALUES (?, ?, 1, ?)
			 ON CONFLICT(tag, location) DO UPDATE SET
			   count = count + 1,
			   last_updated = excluded.last_updated`,
			tag, issue.Location, now,
		); err != nil {
			return fmt.Errorf("updating trend %s: %w", tag, err)
		}
	}

	for _, n := range w.Notifications {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO notifications (agency_slug, issue_id, title, message, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			n.AgencySlug, n.IssueID, n.Title, n.Message, now,
		); err != nil {
			return fmt.Errorf("inserting notification for %s: %w", n.AgencySlug, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit issue %s: %w", issue.ID, err)
	}
	return nil
}

// GetIssue returns an issue by ID.
func (s *IssueStore) GetIssue(ctx context.Context, id string) (*domain.Issue, error) {
	var issue domain.Issue
	var status, createdAt string

	err := s.db.sql.QueryRowContext(ctx,
		`SELECT id, reference, title, description, location, category_slug,
		        agency_slug, status, source, reporter_phone, created_at
		 FROM issues WHERE id = ?`, id,
	).Scan(&issue.ID, &issue.Reference, &issue.Title, &issue.Description,
		&issue.Location, &issue.CategorySlug, &issue.AgencySlug, &status,
		&issue.Source, &issue.ReporterPhone, &createdAt)
	if err != nil {
		return nil, ErrNotFound
	}

	issue.Status = domain.IssueStatus(status)
	issue.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
	return &issue, nil
}

// CountIssues returns the number of stored issues. Used by health reporting
// and tests.
func (s *IssueStore) CountIssues(ctx context.Context) (int, error) {
	var n int
	if err := s.db.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM issues`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting issues: %w", err)
	}
	return n, nil
}

// ReporterIssueCount returns the issues_reported metric for a phone number,
// or 0 when the reporter is unknown.
func (s *IssueStore) ReporterIssueCount(ctx context.Context, phone string) (int, error) {
	var n int
	err := s.db.sql.QueryRowContext(ctx,
		`SELECT issues_reported FROM reporters WHERE phone = ?`, phone).Scan(&n)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// TrendCount returns the count for a (tag, location) trending topic.
func (s *IssueStore) TrendCount(ctx context.Context, tag, location string) (int, error) {
	var n int
	err := s.db.sql.QueryRowContext(ctx,
		`SELECT count FROM trending_topics WHERE tag = ? AND location = ?`, tag, location).Scan(&n)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// UnreadNotifications returns pending notifications for an agency.
func (s *IssueStore) UnreadNotifications(ctx context.Context, agencySlug string) ([]Notification, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT agency_slug, issue_id, title, message
		 FROM notifications WHERE agency_slug = ? AND is_read = 0 ORDER BY id`, agencySlug)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.AgencySlug, &n.IssueID, &n.Title, &n.Message); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
