package engine

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/publicsquare/intake/internal/classify"
	"github.com/publicsquare/intake/internal/config"
	"github.com/publicsquare/intake/internal/domain"
	"github.com/publicsquare/intake/internal/logging"
	"github.com/publicsquare/intake/internal/store"
)

type fakeLedger struct {
	mu       sync.Mutex
	seen     map[string]bool
	outcomes map[string]domain.Outcome
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{seen: make(map[string]bool), outcomes: make(map[string]domain.Outcome)}
}

func (l *fakeLedger) Record(_ context.Context, msg domain.InboundMessage) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen[msg.ProviderID] {
		return false, nil
	}
	l.seen[msg.ProviderID] = true
	return true, nil
}

func (l *fakeLedger) MarkOutcome(_ context.Context, providerID string, outcome domain.Outcome, _ string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outcomes[providerID] = outcome
	return nil
}

type sentButtons struct {
	body    string
	buttons []domain.Button
}

type fakeGateway struct {
	mu      sync.Mutex
	texts   []string
	buttons []sentButtons
	lists   []string
}

func (g *fakeGateway) SendText(_ context.Context, _, body string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.texts = append(g.texts, body)
	return nil
}

func (g *fakeGateway) SendButtons(_ context.Context, _, body string, buttons []domain.Button) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.buttons = append(g.buttons, sentButtons{body: body, buttons: buttons})
	return nil
}

func (g *fakeGateway) SendList(_ context.Context, _, body, _ string, _ []domain.ListSection) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lists = append(g.lists, body)
	return nil
}

func (g *fakeGateway) lastText() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.texts) == 0 {
		return ""
	}
	return g.texts[len(g.texts)-1]
}

type fakeIntake struct {
	mu     sync.Mutex
	calls  int
	drafts []domain.IssueDraft
	err    error
}

func (f *fakeIntake) CreateIssue(_ context.Context, draft domain.IssueDraft) (*domain.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.drafts = append(f.drafts, draft)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Issue{
		ID:           "11111111-2222-3333-4444-555555555555",
		Reference:    "2026ABC123",
		Description:  draft.Description,
		Location:     draft.Location,
		CategorySlug: draft.Category,
		Status:       domain.StatusSubmitted,
	}, nil
}

type testHarness struct {
	engine   *Engine
	ledger   *fakeLedger
	sessions *store.MemorySessionStore
	gateway  *fakeGateway
	intake   *fakeIntake
	now      time.Time
	nowMu    sync.Mutex
}

func (h *testHarness) advance(d time.Duration) {
	h.nowMu.Lock()
	h.now = h.now.Add(d)
	h.nowMu.Unlock()
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	cfg := config.Defaults()

	h := &testHarness{
		ledger:  newFakeLedger(),
		gateway: &fakeGateway{},
		intake:  &fakeIntake{},
		now:     time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time {
		h.nowMu.Lock()
		defer h.nowMu.Unlock()
		return h.now
	}
	h.sessions = store.NewMemorySessionStore(time.Duration(cfg.Session.TTLMinutes)*time.Minute, clock)

	h.engine = New(Deps{
		Ledger:          h.ledger,
		Sessions:        h.sessions,
		Gateway:         h.gateway,
		Intake:          h.intake,
		Classifier:      classify.New(cfg.Classifier),
		Categories:      cfg.Classifier.Categories,
		DefaultLocation: cfg.Intake.DefaultLocation,
		FrontendURL:     "https://publicsquare.example",
	}, logging.New(io.Discard, "silent"))
	return h
}

func (h *testHarness) text(id, sender, body string) domain.InboundMessage {
	return domain.InboundMessage{ProviderID: id, Sender: sender, Kind: domain.KindText, Text: body}
}

func (h *testHarness) tap(id, sender, selector string) domain.InboundMessage {
	return domain.InboundMessage{ProviderID: id, Sender: sender, Kind: domain.KindInteractive, Text: selector}
}

func (h *testHarness) state(t *testing.T, sender string) domain.State {
	t.Helper()
	sess, err := h.sessions.Get(context.Background(), sender)
	require.NoError(t, err)
	return sess.State
}

const sender = "2348012345678"

func TestFullHappyPath(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res := h.engine.Process(ctx, h.text("m1", sender, "hello"))
	assert.Equal(t, domain.OutcomeProcessed, res.Outcome)
	assert.Equal(t, domain.StateWaitingIssue, res.NextState)
	require.Len(t, h.gateway.buttons, 1)
	assert.Equal(t, "report_new", h.gateway.buttons[0].buttons[0].ID)

	res = h.engine.Process(ctx, h.text("m2", sender, "Road has a huge pothole near Wuse market"))
	assert.Equal(t, domain.StateWaitingLocation, res.NextState)

	res = h.engine.Process(ctx, h.text("m3", sender, "Wuse District, near the market entrance"))
	assert.Equal(t, domain.StateWaitingCategory, res.NextState)
	require.Len(t, h.gateway.lists, 1)

	res = h.engine.Process(ctx, h.tap("m4", sender, "roads"))
	assert.Equal(t, domain.StateConfirmation, res.NextState)
	require.Len(t, h.gateway.buttons, 2)
	summary := h.gateway.buttons[1]
	assert.Contains(t, summary.body, "Road has a huge pothole")
	assert.Contains(t, summary.body, "Roads & Transport")
	assert.Equal(t, domain.ReplyConfirmYes, summary.buttons[0].ID)

	sess, err := h.sessions.Get(ctx, sender)
	require.NoError(t, err)
	assert.Equal(t, domain.Draft{
		Description: "Road has a huge pothole near Wuse market",
		Location:    "Wuse District, near the market entrance",
		Category:    "roads",
	}, sess.Draft)

	res = h.engine.Process(ctx, h.tap("m5", sender, domain.ReplyConfirmYes))
	assert.Equal(t, domain.OutcomeProcessed, res.Outcome)
	assert.Equal(t, domain.StateComplete, res.NextState)
	assert.Equal(t, "2026ABC123", res.IssueRef)

	require.Equal(t, 1, h.intake.calls)
	draft := h.intake.drafts[0]
	assert.Equal(t, "Road has a huge pothole near Wuse market", draft.Description)
	assert.Equal(t, "Wuse District, near the market entrance", draft.Location)
	assert.Equal(t, "roads", draft.Category)
	assert.Equal(t, sender, draft.Sender)
	assert.Equal(t, "m5", draft.ProviderID)

	assert.Contains(t, h.gateway.lastText(), "#2026ABC123")

	// session cleared, next message restarts from greeting
	assert.Equal(t, domain.StateGreeting, h.state(t, sender))
}

func TestDuplicateDeliveryAbsorbed(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first := h.engine.Process(ctx, h.text("m1", sender, "hello"))
	assert.Equal(t, domain.OutcomeProcessed, first.Outcome)

	second := h.engine.Process(ctx, h.text("m1", sender, "hello"))
	assert.Equal(t, domain.OutcomeDuplicate, second.Outcome)

	// only the first delivery produced a reply
	assert.Len(t, h.gateway.buttons, 1)
}

func TestDuplicateConfirmCreatesOneIssue(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.engine.Process(ctx, h.text("m1", sender, "hello"))
	h.engine.Process(ctx, h.text("m2", sender, "Water pipe burst flooding the whole street"))
	h.engine.Process(ctx, h.text("m3", sender, "Kubwa Phase 2"))
	h.engine.Process(ctx, h.tap("m4", sender, "water"))

	h.engine.Process(ctx, h.tap("m5", sender, domain.ReplyConfirmYes))
	res := h.engine.Process(ctx, h.tap("m5", sender, domain.ReplyConfirmYes))

	assert.Equal(t, domain.OutcomeDuplicate, res.Outcome)
	assert.Equal(t, 1, h.intake.calls)
}

func TestCreateFailureKeepsConfirmation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.engine.Process(ctx, h.text("m1", sender, "hello"))
	h.engine.Process(ctx, h.text("m2", sender, "Water pipe burst flooding the whole street"))
	h.engine.Process(ctx, h.text("m3", sender, "Kubwa Phase 2"))
	h.engine.Process(ctx, h.tap("m4", sender, "water"))

	h.intake.err = errors.New("database unavailable")
	res := h.engine.Process(ctx, h.tap("m5", sender, domain.ReplyConfirmYes))

	assert.Equal(t, domain.OutcomeError, res.Outcome)
	assert.Equal(t, 1, h.intake.calls)
	assert.Equal(t, domain.StateConfirmation, h.state(t, sender))
	assert.Contains(t, h.gateway.lastText(), "Error creating your issue report")

	// the sender can retry without re-entering fields
	h.intake.err = nil
	res = h.engine.Process(ctx, h.tap("m6", sender, domain.ReplyConfirmYes))
	assert.Equal(t, domain.OutcomeProcessed, res.Outcome)
	assert.Equal(t, 2, h.intake.calls)
	assert.Equal(t, "Water pipe burst flooding the whole street", h.intake.drafts[1].Description)
}

func TestDirectReportFallback(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res := h.engine.Process(ctx, h.text("m1", sender, "Transformer exploded on Airport Road, no light for 3 days"))

	assert.Equal(t, domain.OutcomeProcessed, res.Outcome)
	assert.Equal(t, domain.StateComplete, res.NextState)
	require.Equal(t, 1, h.intake.calls)

	draft := h.intake.drafts[0]
	assert.Equal(t, "electricity", draft.Category)
	assert.Equal(t, "Airport Road", draft.Location)

	// the guided flow was never entered
	assert.Empty(t, h.gateway.lists)
	assert.Equal(t, domain.StateGreeting, h.state(t, sender))
}

func TestDirectReportDefaultsLocation(t *testing.T) {
	h := newHarness(t)

	res := h.engine.Process(context.Background(), h.text("m1", sender, "Power outage in my street since yesterday evening"))

	assert.Equal(t, domain.OutcomeProcessed, res.Outcome)
	require.Equal(t, 1, h.intake.calls)
	assert.Equal(t, "FCT", h.intake.drafts[0].Location)
}

func TestExpiredSessionRestarts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.engine.Process(ctx, h.text("m1", sender, "hello"))
	h.engine.Process(ctx, h.text("m2", sender, "Water pipe burst flooding the whole street"))
	require.Equal(t, domain.StateWaitingLocation, h.state(t, sender))

	h.advance(2 * time.Hour)

	// the expired session plays no part: a complete report goes direct
	res := h.engine.Process(ctx, h.text("m3", sender, "Broken streetlight on Ahmadu Bello Way"))
	assert.Equal(t, domain.OutcomeProcessed, res.Outcome)
	assert.Equal(t, domain.StateComplete, res.NextState)
	assert.Equal(t, 1, h.intake.calls)
}

func TestInvalidIssueReprompts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.engine.Process(ctx, h.text("m1", sender, "hello"))
	res := h.engine.Process(ctx, h.text("m2", sender, "ok"))

	assert.Equal(t, domain.OutcomeProcessed, res.Outcome)
	assert.Equal(t, domain.StateWaitingIssue, res.NextState)
	assert.Contains(t, h.gateway.lastText(), "need more details")
	assert.Equal(t, 0, h.intake.calls)
}

func TestUnrecognizedCategoryKeepsState(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.engine.Process(ctx, h.text("m1", sender, "hello"))
	h.engine.Process(ctx, h.text("m2", sender, "Water pipe burst flooding the whole street"))
	h.engine.Process(ctx, h.text("m3", sender, "Kubwa Phase 2"))

	res := h.engine.Process(ctx, h.tap("m4", sender, "jetpacks"))
	assert.Equal(t, domain.StateWaitingCategory, res.NextState)

	sess, err := h.sessions.Get(ctx, sender)
	require.NoError(t, err)
	assert.Empty(t, sess.Draft.Category)
	// menu was re-sent
	assert.Len(t, h.gateway.lists, 2)
}

func TestConfirmNoStartsOver(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.engine.Process(ctx, h.text("m1", sender, "hello"))
	h.engine.Process(ctx, h.text("m2", sender, "Water pipe burst flooding the whole street"))
	h.engine.Process(ctx, h.text("m3", sender, "Kubwa Phase 2"))
	h.engine.Process(ctx, h.tap("m4", sender, "water"))

	res := h.engine.Process(ctx, h.tap("m5", sender, domain.ReplyConfirmNo))
	assert.Equal(t, domain.StateWaitingIssue, res.NextState)
	assert.Equal(t, 0, h.intake.calls)

	sess, err := h.sessions.Get(ctx, sender)
	require.NoError(t, err)
	assert.Equal(t, domain.Draft{}, sess.Draft)
}

func TestUnrecognizedConfirmationReprompts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.engine.Process(ctx, h.text("m1", sender, "hello"))
	h.engine.Process(ctx, h.text("m2", sender, "Water pipe burst flooding the whole street"))
	h.engine.Process(ctx, h.text("m3", sender, "Kubwa Phase 2"))
	h.engine.Process(ctx, h.tap("m4", sender, "water"))

	res := h.engine.Process(ctx, h.text("m5", sender, "maybe"))
	assert.Equal(t, domain.StateConfirmation, res.NextState)
	assert.Contains(t, h.gateway.lastText(), "select one of the options")
	assert.Equal(t, 0, h.intake.calls)
}

func TestUnsupportedKindGetsGreeting(t *testing.T) {
	h := newHarness(t)

	msg := domain.InboundMessage{
		ProviderID: "m1", Sender: sender,
		Kind: domain.KindUnsupported, Text: "[image_message]",
	}
	res := h.engine.Process(context.Background(), msg)

	assert.Equal(t, domain.OutcomeProcessed, res.Outcome)
	assert.Equal(t, domain.StateWaitingIssue, res.NextState)
	assert.Len(t, h.gateway.buttons, 1)
	assert.Equal(t, 0, h.intake.calls)
}

func TestMissingIdentifiersRejected(t *testing.T) {
	h := newHarness(t)

	res := h.engine.Process(context.Background(), domain.InboundMessage{Sender: sender, Kind: domain.KindText, Text: "hi"})
	assert.Equal(t, domain.OutcomeError, res.Outcome)

	res = h.engine.Process(context.Background(), domain.InboundMessage{ProviderID: "m1", Kind: domain.KindText, Text: "hi"})
	assert.Equal(t, domain.OutcomeError, res.Outcome)
}

func TestLedgerOutcomeRecorded(t *testing.T) {
	h := newHarness(t)

	h.engine.Process(context.Background(), h.text("m1", sender, "hello"))
	assert.Equal(t, domain.OutcomeProcessed, h.ledger.outcomes["m1"])
}
