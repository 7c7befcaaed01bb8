package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ttl := time.Hour

	fresh := &Session{Sender: "123", State: StateWaitingIssue, UpdatedAt: now.Add(-30 * time.Minute)}
	assert.False(t, fresh.Expired(now, ttl))

	stale := &Session{Sender: "123", State: StateWaitingCategory, UpdatedAt: now.Add(-2 * time.Hour)}
	assert.True(t, stale.Expired(now, ttl))

	// Zero UpdatedAt means the session was never persisted; treat as live.
	unsaved := NewSession("123")
	assert.False(t, unsaved.Expired(now, ttl))
}

func TestResetDraft(t *testing.T) {
	s := &Session{
		Sender: "123",
		State:  StateConfirmation,
		Draft:  Draft{Description: "pothole", Location: "Wuse", Category: "roads"},
	}
	s.ResetDraft()
	assert.Equal(t, Draft{}, s.Draft)
	assert.Equal(t, StateConfirmation, s.State, "ResetDraft must not touch state")
}

func TestDecodeSelector(t *testing.T) {
	categories := []string{"water", "roads", "electricity"}

	tests := []struct {
		raw  string
		want Selector
	}{
		{"confirm_yes", Selector{Kind: SelectorAffirm, Raw: "confirm_yes"}},
		{"confirm_no", Selector{Kind: SelectorDeny, Raw: "confirm_no"}},
		{"roads", Selector{Kind: SelectorCategory, Category: "roads", Raw: "roads"}},
		{" water ", Selector{Kind: SelectorCategory, Category: "water", Raw: " water "}},
		{"plumbing", Selector{Kind: SelectorUnrecognized, Raw: "plumbing"}},
		{"", Selector{Kind: SelectorUnrecognized, Raw: ""}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DecodeSelector(tt.raw, categories), "raw %q", tt.raw)
	}
}
