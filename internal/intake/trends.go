package intake

import (
	"regexp"
	"strings"
)

var hashtagPattern = regexp.MustCompile(`#\w+`)

// extractHashtags returns the lowercased hashtags found in the content,
// deduplicated in first-seen order.
func extractHashtags(content string) []string {
	matches := hashtagPattern.FindAllString(strings.ToLower(content), -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	tags := matches[:0]
	for _, m := range matches {
		if seen[m] {
			continue
		}
		seen[m] = true
		tags = append(tags, m)
	}
	return tags
}
