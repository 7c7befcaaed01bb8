package domain

import "time"

// State is the position of a sender in the guided reporting flow.
type State string

const (
	StateGreeting        State = "greeting"
	StateWaitingIssue    State = "waiting_issue"
	StateWaitingLocation State = "waiting_location"
	StateWaitingCategory State = "waiting_category"
	StateConfirmation    State = "confirmation"
	StateComplete        State = "complete"
)

// Draft holds the issue fields accumulated across a conversation. All fields
// stay blank until the corresponding step fills them.
type Draft struct {
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	Category    string `json:"category,omitempty"`
}

// Session is the conversation state for one sender. At most one session
// exists per sender; a session idle beyond the store TTL is treated as
// expired and the conversation restarts from greeting.
type Session struct {
	Sender    string    `json:"sender"`
	State     State     `json:"state"`
	Draft     Draft     `json:"draft"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewSession returns a fresh greeting-state session for a sender.
func NewSession(sender string) *Session {
	return &Session{Sender: sender, State: StateGreeting}
}

// Expired reports whether the session has been idle longer than ttl at
// the given instant.
func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	if s.UpdatedAt.IsZero() {
		return false
	}
	return now.Sub(s.UpdatedAt) > ttl
}

// ResetDraft clears all accumulated draft fields.
func (s *Session) ResetDraft() {
	s.Draft = Draft{}
}
