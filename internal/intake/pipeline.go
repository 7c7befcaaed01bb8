// Package intake creates durable issue records from completed conversation
// drafts and performs the side effects of creation: agency auto-assignment,
// reporter metrics, trend extraction and notification fan-out.
package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/publicsquare/intake/internal/config"
	"github.com/publicsquare/intake/internal/domain"
	"github.com/publicsquare/intake/internal/logging"
	"github.com/publicsquare/intake/internal/store"
)

// maxTitleRunes caps the derived issue title length.
const maxTitleRunes = 100

// IssueStorage is the persistence surface the pipeline needs.
type IssueStorage interface {
	ActiveAgencyFor(ctx context.Context, category string) (*domain.Agency, error)
	CommitIssue(ctx context.Context, w store.IssueWrite) error
}

// Service is the issue intake pipeline. CreateIssue is the single atomic
// commit point of a submission.
type Service struct {
	issues     IssueStorage
	categories []config.CategoryRule
	now        store.Clock
	log        *logging.Logger
}

// New creates the intake pipeline. A nil clock defaults to time.Now.
func New(issues IssueStorage, categories []config.CategoryRule, now store.Clock, log *logging.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		issues:     issues,
		categories: categories,
		now:        now,
		log:        log.Sub("intake"),
	}
}

// CreateIssue persists the draft as an issue and runs all creation side
// effects in one transaction. An absent or unrecognized category is not an
// error: the issue lands uncategorized for later manual triage.
func (s *Service) CreateIssue(ctx context.Context, draft domain.IssueDraft) (*domain.Issue, error) {
	if strings.TrimSpace(draft.Description) == "" {
		return nil, errors.New("draft has no description")
	}
	if draft.Sender == "" {
		return nil, errors.New("draft has no sender")
	}

	now := s.now().UTC()
	id := uuid.New().String()

	issue := &domain.Issue{
		ID:            id,
		Reference:     reference(id, now),
		Title:         deriveTitle(draft.Description),
		Description:   draft.Description,
		Location:      draft.Location,
		CategorySlug:  s.resolveCategory(draft.Category),
		Status:        domain.StatusSubmitted,
		Source:        domain.SourceWhatsApp,
		ReporterPhone: draft.Sender,
		CreatedAt:     now,
	}

	write := store.IssueWrite{
		Issue:      issue,
		ProviderID: draft.ProviderID,
		Trends:     extractHashtags(draft.Description),
	}

	if issue.CategorySlug != "" {
		agency, err := s.issues.ActiveAgencyFor(ctx, issue.CategorySlug)
		switch {
		case err == nil:
			issue.AgencySlug = agency.Slug
			issue.AgencyName = agency.Name
			issue.Status = domain.StatusAcknowledged
			write.Notifications = append(write.Notifications, store.Notification{
				AgencySlug: agency.Slug,
				IssueID:    issue.ID,
				Title:      "New Issue Assigned",
				Message:    fmt.Sprintf("New issue %q has been assigned to your agency", issue.Title),
			})
		case errors.Is(err, store.ErrNotFound):
			// No agency handles this category; the issue stays submitted.
		default:
			return nil, fmt.Errorf("resolving agency for %s: %w", issue.CategorySlug, err)
		}
	}

	if err := s.issues.CommitIssue(ctx, write); err != nil {
		return nil, fmt.Errorf("creating issue: %w", err)
	}

	s.log.Info().
		Str("issueId", issue.ID).
		Str("reference", issue.Reference).
		Str("category", issue.CategorySlug).
		Str("agency", issue.AgencySlug).
		Msg("issue created")

	return issue, nil
}

// ListCategories returns the active reporting categories in menu order.
func (s *Service) ListCategories(_ context.Context) []domain.Category {
	out := make([]domain.Category, 0, len(s.categories))
	for _, rule := range s.categories {
		out = append(out, domain.Category{
			Slug:        rule.Slug,
			Name:        rule.Name,
			Description: rule.Description,
			Section:     rule.Section,
			Active:      true,
		})
	}
	return out
}

// resolveCategory maps a selector value onto a configured category slug.
// Unknown values resolve to "" (uncategorized).
func (s *Service) resolveCategory(slug string) string {
	for _, rule := range s.categories {
		if rule.Slug == slug {
			return slug
		}
	}
	return ""
}

// reference builds the human-readable tracking number: the creation year
// followed by the first segment of the issue ID, uppercased.
func reference(id string, createdAt time.Time) string {
	seg, _, _ := strings.Cut(id, "-")
	return fmt.Sprintf("%d%s", createdAt.Year(), strings.ToUpper(seg))
}

// deriveTitle truncates the description to a display title.
func deriveTitle(description string) string {
	runes := []rune(strings.TrimSpace(description))
	if len(runes) <= maxTitleRunes {
		return string(runes)
	}
	return string(runes[:maxTitleRunes]) + "..."
}
