package domain

import "strings"

// SelectorKind discriminates decoded interactive reply identifiers.
type SelectorKind int

const (
	SelectorUnrecognized SelectorKind = iota
	SelectorAffirm
	SelectorDeny
	SelectorCategory
)

// Interactive reply identifiers sent by the provider when a user taps a
// button or picks a list row. These travel verbatim as the next inbound
// message content.
const (
	ReplyConfirmYes = "confirm_yes"
	ReplyConfirmNo  = "confirm_no"
)

// Selector is the decoded form of an interactive reply. It is produced once
// at the boundary so the state machine can switch over a closed set instead
// of raw strings.
type Selector struct {
	Kind     SelectorKind
	Category string // set only for SelectorCategory
	Raw      string
}

// DecodeSelector maps raw reply content onto a Selector. knownCategories is
// the set of valid category slugs; anything else decodes as unrecognized.
func DecodeSelector(raw string, knownCategories []string) Selector {
	trimmed := strings.TrimSpace(raw)
	switch trimmed {
	case ReplyConfirmYes:
		return Selector{Kind: SelectorAffirm, Raw: raw}
	case ReplyConfirmNo:
		return Selector{Kind: SelectorDeny, Raw: raw}
	}
	for _, slug := range knownCategories {
		if trimmed == slug {
			return Selector{Kind: SelectorCategory, Category: slug, Raw: raw}
		}
	}
	return Selector{Kind: SelectorUnrecognized, Raw: raw}
}
