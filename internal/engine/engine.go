// Package engine drives the per-sender conversation state machine. It
// consumes inbound messages exactly once, advances sessions through the
// guided reporting flow, and hands completed drafts to the intake pipeline.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/publicsquare/intake/internal/classify"
	"github.com/publicsquare/intake/internal/config"
	"github.com/publicsquare/intake/internal/domain"
	"github.com/publicsquare/intake/internal/logging"
)

// Ledger records inbound deliveries for dedup.
type Ledger interface {
	Record(ctx context.Context, msg domain.InboundMessage) (bool, error)
	MarkOutcome(ctx context.Context, providerID string, outcome domain.Outcome, detail string) error
}

// SessionStore holds per-sender conversation state.
type SessionStore interface {
	Get(ctx context.Context, sender string) (*domain.Session, error)
	Put(ctx context.Context, sess *domain.Session) error
	Clear(ctx context.Context, sender string) error
}

// Gateway delivers outbound messages. Delivery failures never roll back a
// state transition; the transition is driven by the inbound message.
type Gateway interface {
	SendText(ctx context.Context, to, body string) error
	SendButtons(ctx context.Context, to, body string, buttons []domain.Button) error
	SendList(ctx context.Context, to, body, buttonLabel string, sections []domain.ListSection) error
}

// IssueCreator is the intake pipeline boundary. CreateIssue is the single
// commit point of a submission and is never called speculatively.
type IssueCreator interface {
	CreateIssue(ctx context.Context, draft domain.IssueDraft) (*domain.Issue, error)
}

// Deps bundles the engine's collaborators and settings.
type Deps struct {
	Ledger     Ledger
	Sessions   SessionStore
	Gateway    Gateway
	Intake     IssueCreator
	Classifier *classify.Classifier

	Categories      []config.CategoryRule
	DefaultLocation string
	FrontendURL     string
}

// Engine is the conversation state machine.
type Engine struct {
	ledger     Ledger
	sessions   SessionStore
	gateway    Gateway
	intake     IssueCreator
	classifier *classify.Classifier

	categories      []config.CategoryRule
	slugs           []string
	defaultLocation string
	frontendURL     string

	locks *senderLocks
	log   *logging.Logger
}

// New builds an engine from its dependencies.
func New(deps Deps, log *logging.Logger) *Engine {
	slugs := make([]string, 0, len(deps.Categories))
	for _, rule := range deps.Categories {
		slugs = append(slugs, rule.Slug)
	}
	return &Engine{
		ledger:          deps.Ledger,
		sessions:        deps.Sessions,
		gateway:         deps.Gateway,
		intake:          deps.Intake,
		classifier:      deps.Classifier,
		categories:      deps.Categories,
		slugs:           slugs,
		defaultLocation: deps.DefaultLocation,
		frontendURL:     deps.FrontendURL,
		locks:           newSenderLocks(),
		log:             log.Sub("engine"),
	}
}

// notifiedError marks a failure the sender has already been told about, so
// Process does not send a second generic error message.
type notifiedError struct {
	cause error
}

func (e *notifiedError) Error() string { return e.cause.Error() }
func (e *notifiedError) Unwrap() error { return e.cause }

// Process handles one inbound message to completion. Duplicate deliveries
// are absorbed silently; all other failures produce a reply telling the
// sender what to do next.
func (e *Engine) Process(ctx context.Context, msg domain.InboundMessage) domain.ProcessResult {
	res := domain.ProcessResult{ProviderID: msg.ProviderID, Sender: msg.Sender}

	if msg.ProviderID == "" || msg.Sender == "" {
		res.Outcome = domain.OutcomeError
		res.Error = "message missing provider id or sender"
		return res
	}

	isNew, err := e.ledger.Record(ctx, msg)
	if err != nil {
		e.log.Error().Err(err).Str("providerId", msg.ProviderID).Msg("ledger record failed")
		res.Outcome = domain.OutcomeError
		res.Error = err.Error()
		return res
	}
	if !isNew {
		e.log.Debug().Str("providerId", msg.ProviderID).Msg("duplicate delivery absorbed")
		res.Outcome = domain.OutcomeDuplicate
		return res
	}

	unlock := e.locks.lock(msg.Sender)
	defer unlock()

	next, issue, err := e.dispatch(ctx, msg)
	if err != nil {
		e.log.Error().Err(err).
			Str("providerId", msg.ProviderID).
			Str("sender", msg.Sender).
			Msg("message processing failed")
		var notified *notifiedError
		if !errors.As(err, &notified) {
			e.send(ctx, msg.Sender, processingFailedPrompt)
		}
		if markErr := e.ledger.MarkOutcome(ctx, msg.ProviderID, domain.OutcomeError, err.Error()); markErr != nil {
			e.log.Warn().Err(markErr).Str("providerId", msg.ProviderID).Msg("mark outcome failed")
		}
		res.Outcome = domain.OutcomeError
		res.NextState = next
		res.Error = err.Error()
		return res
	}

	if markErr := e.ledger.MarkOutcome(ctx, msg.ProviderID, domain.OutcomeProcessed, ""); markErr != nil {
		e.log.Warn().Err(markErr).Str("providerId", msg.ProviderID).Msg("mark outcome failed")
	}

	res.Outcome = domain.OutcomeProcessed
	res.NextState = next
	if issue != nil {
		res.IssueID = issue.ID
		res.IssueRef = issue.Reference
	}
	return res
}

// dispatch routes one new message by classification and session state.
func (e *Engine) dispatch(ctx context.Context, msg domain.InboundMessage) (domain.State, *domain.Issue, error) {
	sess, err := e.sessions.Get(ctx, msg.Sender)
	if err != nil {
		return "", nil, fmt.Errorf("loading session: %w", err)
	}

	if msg.Kind != domain.KindUnsupported && e.classifier.IsGreeting(msg.Text) {
		next, err := e.startFlow(ctx, sess)
		return next, nil, err
	}

	switch sess.State {
	case domain.StateWaitingIssue:
		next, err := e.handleIssueDescription(ctx, sess, msg.Text)
		return next, nil, err
	case domain.StateWaitingLocation:
		next, err := e.handleLocation(ctx, sess, msg.Text)
		return next, nil, err
	case domain.StateWaitingCategory:
		next, err := e.handleCategorySelection(ctx, sess, msg.Text)
		return next, nil, err
	case domain.StateConfirmation:
		return e.handleConfirmation(ctx, sess, msg)
	default:
		// No active flow. A complete report in one message skips the
		// guided steps entirely; anything else starts from the greeting.
		if msg.Kind == domain.KindText && e.classifier.IsIssueReport(msg.Text) {
			return e.directReport(ctx, msg)
		}
		next, err := e.startFlow(ctx, sess)
		return next, nil, err
	}
}

// startFlow moves the sender to waiting_issue and sends the welcome menu.
func (e *Engine) startFlow(ctx context.Context, sess *domain.Session) (domain.State, error) {
	sess.State = domain.StateWaitingIssue
	if err := e.sessions.Put(ctx, sess); err != nil {
		return "", fmt.Errorf("saving session: %w", err)
	}
	if err := e.gateway.SendButtons(ctx, sess.Sender, welcomeBody, welcomeButtons()); err != nil {
		e.log.Warn().Err(err).Str("sender", sess.Sender).Msg("welcome delivery failed")
	}
	return sess.State, nil
}

func (e *Engine) handleIssueDescription(ctx context.Context, sess *domain.Session, text string) (domain.State, error) {
	if !e.classifier.IsIssueReport(text) {
		if err := e.sessions.Put(ctx, sess); err != nil {
			return "", fmt.Errorf("saving session: %w", err)
		}
		e.send(ctx, sess.Sender, needMoreDetailPrompt)
		return sess.State, nil
	}

	sess.Draft.Description = text
	sess.State = domain.StateWaitingLocation
	if err := e.sessions.Put(ctx, sess); err != nil {
		return "", fmt.Errorf("saving session: %w", err)
	}
	e.send(ctx, sess.Sender, locationPrompt)
	return sess.State, nil
}

func (e *Engine) handleLocation(ctx context.Context, sess *domain.Session, text string) (domain.State, error) {
	sess.Draft.Location = text
	sess.State = domain.StateWaitingCategory
	if err := e.sessions.Put(ctx, sess); err != nil {
		return "", fmt.Errorf("saving session: %w", err)
	}
	if err := e.gateway.SendList(ctx, sess.Sender, categoryPromptBody, categoryButtonLabel, categorySections(e.categories)); err != nil {
		e.log.Warn().Err(err).Str("sender", sess.Sender).Msg("category menu delivery failed")
	}
	return sess.State, nil
}

func (e *Engine) handleCategorySelection(ctx context.Context, sess *domain.Session, text string) (domain.State, error) {
	sel := domain.DecodeSelector(text, e.slugs)
	if sel.Kind != domain.SelectorCategory {
		if err := e.sessions.Put(ctx, sess); err != nil {
			return "", fmt.Errorf("saving session: %w", err)
		}
		if err := e.gateway.SendList(ctx, sess.Sender, categoryPromptBody, categoryButtonLabel, categorySections(e.categories)); err != nil {
			e.log.Warn().Err(err).Str("sender", sess.Sender).Msg("category menu delivery failed")
		}
		return sess.State, nil
	}

	sess.Draft.Category = sel.Category
	sess.State = domain.StateConfirmation
	if err := e.sessions.Put(ctx, sess); err != nil {
		return "", fmt.Errorf("saving session: %w", err)
	}
	summary := confirmationSummary(sess.Draft, e.categoryName(sess.Draft.Category))
	if err := e.gateway.SendButtons(ctx, sess.Sender, summary, confirmButtons()); err != nil {
		e.log.Warn().Err(err).Str("sender", sess.Sender).Msg("confirmation delivery failed")
	}
	return sess.State, nil
}

func (e *Engine) handleConfirmation(ctx context.Context, sess *domain.Session, msg domain.InboundMessage) (domain.State, *domain.Issue, error) {
	sel := domain.DecodeSelector(msg.Text, nil)
	switch sel.Kind {
	case domain.SelectorAffirm:
		return e.submit(ctx, sess, msg.ProviderID)

	case domain.SelectorDeny:
		sess.ResetDraft()
		next, err := e.startFlow(ctx, sess)
		return next, nil, err

	default:
		if err := e.sessions.Put(ctx, sess); err != nil {
			return "", nil, fmt.Errorf("saving session: %w", err)
		}
		e.send(ctx, sess.Sender, invalidConfirmationPrompt)
		return sess.State, nil, nil
	}
}

// submit is the commit point of the guided flow. Failure keeps the session
// at confirmation so the sender can retry without re-entering fields.
func (e *Engine) submit(ctx context.Context, sess *domain.Session, providerID string) (domain.State, *domain.Issue, error) {
	draft := domain.IssueDraft{
		Description: sess.Draft.Description,
		Location:    sess.Draft.Location,
		Category:    sess.Draft.Category,
		Sender:      sess.Sender,
		ProviderID:  providerID,
	}

	issue, err := e.intake.CreateIssue(ctx, draft)
	if err != nil {
		e.send(ctx, sess.Sender, creationFailedPrompt)
		return sess.State, nil, &notifiedError{cause: fmt.Errorf("creating issue: %w", err)}
	}

	e.send(ctx, sess.Sender, successMessage(issue, e.categoryName(issue.CategorySlug), issue.AgencyName, e.frontendURL))

	if err := e.sessions.Clear(ctx, sess.Sender); err != nil {
		e.log.Warn().Err(err).Str("sender", sess.Sender).Msg("session clear failed")
	}
	return domain.StateComplete, issue, nil
}

// directReport creates an issue straight from a single unsolicited report,
// with location extracted or defaulted and category inferred.
func (e *Engine) directReport(ctx context.Context, msg domain.InboundMessage) (domain.State, *domain.Issue, error) {
	location := e.classifier.ExtractLocation(msg.Text)
	if location == "" {
		location = e.defaultLocation
	}

	draft := domain.IssueDraft{
		Description: msg.Text,
		Location:    location,
		Category:    e.classifier.InferCategory(msg.Text),
		Sender:      msg.Sender,
		ProviderID:  msg.ProviderID,
	}

	issue, err := e.intake.CreateIssue(ctx, draft)
	if err != nil {
		e.send(ctx, msg.Sender, processingFailedPrompt)
		return "", nil, &notifiedError{cause: fmt.Errorf("creating issue: %w", err)}
	}

	e.log.Info().
		Str("sender", msg.Sender).
		Str("issueId", issue.ID).
		Msg("direct report accepted")

	e.send(ctx, msg.Sender, successMessage(issue, e.categoryName(issue.CategorySlug), issue.AgencyName, e.frontendURL))
	return domain.StateComplete, issue, nil
}

// send delivers plain text, logging failure instead of propagating it.
func (e *Engine) send(ctx context.Context, to, body string) {
	if err := e.gateway.SendText(ctx, to, body); err != nil {
		e.log.Warn().Err(err).Str("sender", to).Msg("outbound delivery failed")
	}
}

func (e *Engine) categoryName(slug string) string {
	if slug == "" {
		return "General"
	}
	for _, rule := range e.categories {
		if rule.Slug == slug {
			return rule.Name
		}
	}
	return slug
}
