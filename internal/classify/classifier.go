// Package classify implements the heuristic content classifier for inbound
// chat messages. All methods are pure, deterministic string inspection; the
// vocabularies come from configuration.
package classify

import (
	"strings"

	"github.com/publicsquare/intake/internal/config"
)

// Classifier inspects free text and answers the questions the conversation
// engine needs: is this a greeting, is it a plausible issue report, where is
// it, and what category does it belong to.
type Classifier struct {
	greetings     map[string]bool
	issueKeywords []string
	minLength     int
	gazetteer     []string
	categories    []config.CategoryRule
}

// New builds a Classifier from the configured vocabularies.
func New(cfg config.ClassifierConfig) *Classifier {
	greetings := make(map[string]bool, len(cfg.Greetings))
	for _, g := range cfg.Greetings {
		greetings[strings.ToLower(g)] = true
	}

	keywords := make([]string, len(cfg.IssueKeywords))
	for i, k := range cfg.IssueKeywords {
		keywords[i] = strings.ToLower(k)
	}

	return &Classifier{
		greetings:     greetings,
		issueKeywords: keywords,
		minLength:     cfg.MinReportLength,
		gazetteer:     cfg.Gazetteer,
		categories:    cfg.Categories,
	}
}

// IsGreeting reports whether the text is an exact (case-insensitive,
// trimmed) match against the greeting vocabulary.
func (c *Classifier) IsGreeting(text string) bool {
	return c.greetings[strings.ToLower(strings.TrimSpace(text))]
}

// IsIssueReport reports whether the text looks like an issue report:
// the trimmed text must reach the minimum length AND contain at least one
// domain keyword. Short or keyword-free text is rejected.
func (c *Classifier) IsIssueReport(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < c.minLength {
		return false
	}
	lower := strings.ToLower(trimmed)
	for _, kw := range c.issueKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ExtractLocation returns the first gazetteer place name found as a
// case-insensitive substring, or "" when none matches. First match wins.
func (c *Classifier) ExtractLocation(text string) string {
	lower := strings.ToLower(text)
	for _, place := range c.gazetteer {
		if strings.Contains(lower, strings.ToLower(place)) {
			return place
		}
	}
	return ""
}

// InferCategory returns the slug of the first configured category with a
// keyword appearing in the text, or "" when nothing matches. Rule order is
// stable so repeated calls always agree.
func (c *Classifier) InferCategory(text string) string {
	lower := strings.ToLower(text)
	for _, rule := range c.categories {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				return rule.Slug
			}
		}
	}
	return ""
}
