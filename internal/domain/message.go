// Package domain defines the core types shared across the intake engine.
package domain

import "time"

// MessageKind classifies an inbound delivery by its provider type.
type MessageKind string

const (
	KindText        MessageKind = "text"
	KindInteractive MessageKind = "interactive"
	KindUnsupported MessageKind = "unsupported"
)

// Outcome records what happened when a delivery was processed.
type Outcome string

const (
	OutcomePending   Outcome = "pending"
	OutcomeProcessed Outcome = "processed"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeError     Outcome = "error"
)

// InboundMessage is one delivery from the messaging provider. The provider
// message ID is the dedup key: a second delivery carrying the same ID is
// classified duplicate and produces no side effects.
type InboundMessage struct {
	ProviderID string      `json:"providerId"`
	Sender     string      `json:"sender"`
	SenderName string      `json:"senderName,omitempty"`
	Kind       MessageKind `json:"kind"`
	Text       string      `json:"text"`
	ReceivedAt time.Time   `json:"receivedAt"`
}

// ProcessResult reports the outcome of handling one inbound message.
type ProcessResult struct {
	ProviderID string  `json:"providerId"`
	Sender     string  `json:"sender,omitempty"`
	Outcome    Outcome `json:"outcome"`
	NextState  State   `json:"nextState,omitempty"`
	IssueID    string  `json:"issueId,omitempty"`
	IssueRef   string  `json:"issueRef,omitempty"`
	Error      string  `json:"error,omitempty"`
}
