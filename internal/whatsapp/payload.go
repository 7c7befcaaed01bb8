package whatsapp

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/publicsquare/intake/internal/domain"
)

// WebhookPayload mirrors the Graph API webhook envelope. A single POST can
// carry multiple entries, each with multiple changes, each with multiple
// messages.
type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry is one account-level event batch.
type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// Change carries the actual message value for a field change.
type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

// Value holds the messages and sender contacts of a change.
type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Messages         []Message `json:"messages"`
	Contacts         []Contact `json:"contacts"`
}

// Message is one raw inbound message as delivered by the provider.
type Message struct {
	ID          string       `json:"id"`
	From        string       `json:"from"`
	Timestamp   string       `json:"timestamp"`
	Type        string       `json:"type"`
	Text        *TextBody    `json:"text,omitempty"`
	Interactive *Interactive `json:"interactive,omitempty"`
}

// TextBody is the body of a plain text message.
type TextBody struct {
	Body string `json:"body"`
}

// Interactive wraps a button or list reply. Exactly one of the reply
// fields is set depending on Type.
type Interactive struct {
	Type        string `json:"type"`
	ButtonReply *Reply `json:"button_reply,omitempty"`
	ListReply   *Reply `json:"list_reply,omitempty"`
}

// Reply is the selected option of an interactive message.
type Reply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Contact maps a WhatsApp ID to a profile name.
type Contact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

// DecodeFailure records a message that could not be turned into an inbound
// message, without aborting the rest of the batch.
type DecodeFailure struct {
	EntryID string `json:"entryId"`
	Reason  string `json:"reason"`
}

// DecodeInbound flattens a webhook payload into inbound messages. Malformed
// messages are reported as failures; well-formed siblings in the same batch
// are still returned.
func DecodeInbound(p WebhookPayload) ([]domain.InboundMessage, []DecodeFailure) {
	var (
		msgs     []domain.InboundMessage
		failures []DecodeFailure
	)
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			names := contactNames(change.Value.Contacts)
			for _, raw := range change.Value.Messages {
				msg, err := decodeMessage(raw, names)
				if err != nil {
					failures = append(failures, DecodeFailure{EntryID: entry.ID, Reason: err.Error()})
					continue
				}
				msgs = append(msgs, msg)
			}
		}
	}
	return msgs, failures
}

func decodeMessage(raw Message, names map[string]string) (domain.InboundMessage, error) {
	if raw.ID == "" {
		return domain.InboundMessage{}, fmt.Errorf("message missing id")
	}
	if raw.From == "" {
		return domain.InboundMessage{}, fmt.Errorf("message %s missing sender", raw.ID)
	}

	msg := domain.InboundMessage{
		ProviderID: raw.ID,
		Sender:     raw.From,
		SenderName: names[raw.From],
		ReceivedAt: parseTimestamp(raw.Timestamp),
	}

	switch raw.Type {
	case "text":
		if raw.Text == nil {
			return domain.InboundMessage{}, fmt.Errorf("text message %s has no body", raw.ID)
		}
		msg.Kind = domain.KindText
		msg.Text = strings.TrimSpace(raw.Text.Body)
	case "interactive":
		msg.Kind = domain.KindInteractive
		msg.Text = interactiveContent(raw.Interactive)
	default:
		msg.Kind = domain.KindUnsupported
		msg.Text = fmt.Sprintf("[%s_message]", raw.Type)
	}
	return msg, nil
}

func interactiveContent(in *Interactive) string {
	if in != nil {
		if in.ButtonReply != nil {
			return in.ButtonReply.ID
		}
		if in.ListReply != nil {
			return in.ListReply.ID
		}
	}
	return "[interactive_message]"
}

func contactNames(contacts []Contact) map[string]string {
	if len(contacts) == 0 {
		return nil
	}
	names := make(map[string]string, len(contacts))
	for _, c := range contacts {
		if c.WaID != "" && c.Profile.Name != "" {
			names[c.WaID] = c.Profile.Name
		}
	}
	return names
}

func parseTimestamp(s string) time.Time {
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil || secs <= 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}

// VerifyChallenge implements the webhook subscription handshake. It returns
// the challenge string to echo back and whether the request is valid.
func VerifyChallenge(mode, token, challenge, expected string) (string, bool) {
	if mode != "subscribe" || expected == "" || token != expected {
		return "", false
	}
	return challenge, true
}
