package domain

import "time"

// SourceWhatsApp tags issues that arrived through the chat channel.
const SourceWhatsApp = "whatsapp"

// IssueStatus is the lifecycle position of an issue at creation time.
// The intake engine only ever produces these two; everything after is
// owned by the downstream platform.
type IssueStatus string

const (
	StatusSubmitted    IssueStatus = "submitted"
	StatusAcknowledged IssueStatus = "acknowledged"
)

// IssueDraft is the payload handed to the intake pipeline. It is assembled
// from a completed session (or a single direct report) and never persisted
// as-is.
type IssueDraft struct {
	Description string
	Location    string
	Category    string // slug; may be empty when no category matched
	Sender      string // phone number, kept as the external correlation ref
	ProviderID  string // provider ID of the message that triggered creation
}

// Issue is the durable record created from a draft. The engine only needs
// the ID and Reference for confirmation messages.
type Issue struct {
	ID            string      `json:"id"`
	Reference     string      `json:"reference"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Location      string      `json:"location"`
	CategorySlug  string      `json:"categorySlug,omitempty"`
	AgencySlug    string      `json:"agencySlug,omitempty"`
	AgencyName    string      `json:"agencyName,omitempty"`
	Status        IssueStatus `json:"status"`
	Source        string      `json:"source"`
	ReporterPhone string      `json:"reporterPhone"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// Category is a reporting category offered in the selection menu.
type Category struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Section     string `json:"section,omitempty"`
	Active      bool   `json:"active"`
}

// Agency is a government agency that handles one or more categories.
type Agency struct {
	Slug       string   `json:"slug"`
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
	Active     bool     `json:"active"`
}
