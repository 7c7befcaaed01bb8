package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/publicsquare/intake/internal/config"
	"github.com/publicsquare/intake/internal/domain"
	"github.com/publicsquare/intake/internal/logging"
)

const maxButtons = 3

// Client sends outbound messages through the Graph API messages endpoint.
// Transient failures are retried once; interactive sends that still fail
// fall back to a single plain-text attempt.
type Client struct {
	http    *retryablehttp.Client
	baseURL string
	phoneID string
	token   string
	log     *logging.Logger
}

// NewClient builds a client from the WhatsApp section of the config.
func NewClient(cfg config.WhatsAppConfig, log *logging.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 1
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = nil
	// Hand the final response back instead of discarding it so the caller
	// sees the provider's error body when retries are exhausted.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.HTTPClient.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second

	return &Client{
		http:    rc,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		phoneID: cfg.PhoneNumberID,
		token:   cfg.AccessToken,
		log:     log.Sub("whatsapp"),
	}
}

// SendText sends a plain text message.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]any{"body": body},
	}
	return c.post(ctx, payload)
}

// SendButtons sends an interactive message with up to three reply buttons.
// If the interactive send fails after retry, the body is sent once as plain
// text with the options rendered inline.
func (c *Client) SendButtons(ctx context.Context, to, body string, buttons []domain.Button) error {
	if len(buttons) == 0 || len(buttons) > maxButtons {
		return fmt.Errorf("button count %d out of range 1..%d", len(buttons), maxButtons)
	}

	actions := make([]map[string]any, 0, len(buttons))
	for _, b := range buttons {
		actions = append(actions, map[string]any{
			"type":  "reply",
			"reply": map[string]any{"id": b.ID, "title": b.Title},
		})
	}
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "interactive",
		"interactive": map[string]any{
			"type":   "button",
			"body":   map[string]any{"text": body},
			"action": map[string]any{"buttons": actions},
		},
	}
	if err := c.post(ctx, payload); err != nil {
		c.log.Warn().Err(err).Str("to", to).Msg("interactive button send failed, falling back to text")
		return c.SendText(ctx, to, renderButtonsFallback(body, buttons))
	}
	return nil
}

// SendList sends an interactive list message.
// Falls back to plain text the same way SendButtons does.
func (c *Client) SendList(ctx context.Context, to, body, buttonLabel string, sections []domain.ListSection) error {
	if len(sections) == 0 {
		return fmt.Errorf("list message needs at least one section")
	}

	jsonSections := make([]map[string]any, 0, len(sections))
	for _, s := range sections {
		rows := make([]map[string]any, 0, len(s.Rows))
		for _, r := range s.Rows {
			row := map[string]any{"id": r.ID, "title": r.Title}
			if r.Description != "" {
				row["description"] = r.Description
			}
			rows = append(rows, row)
		}
		jsonSections = append(jsonSections, map[string]any{"title": s.Title, "rows": rows})
	}
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "interactive",
		"interactive": map[string]any{
			"type":   "list",
			"body":   map[string]any{"text": body},
			"action": map[string]any{"button": buttonLabel, "sections": jsonSections},
		},
	}
	if err := c.post(ctx, payload); err != nil {
		c.log.Warn().Err(err).Str("to", to).Msg("interactive list send failed, falling back to text")
		return c.SendText(ctx, to, renderListFallback(body, sections))
	}
	return nil
}

func (c *Client) post(ctx context.Context, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneID)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("graph api status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	c.log.Debug().Int("status", resp.StatusCode).Msg("message delivered")
	return nil
}

func renderButtonsFallback(body string, buttons []domain.Button) string {
	var sb strings.Builder
	sb.WriteString(body)
	sb.WriteString("\n\nReply with one of:")
	for _, b := range buttons {
		sb.WriteString("\n- ")
		sb.WriteString(b.Title)
	}
	return sb.String()
}

func renderListFallback(body string, sections []domain.ListSection) string {
	var sb strings.Builder
	sb.WriteString(body)
	for _, s := range sections {
		if s.Title != "" {
			sb.WriteString("\n\n")
			sb.WriteString(s.Title)
			sb.WriteString(":")
		}
		for _, r := range s.Rows {
			sb.WriteString("\n- ")
			sb.WriteString(r.Title)
		}
	}
	return sb.String()
}
