package llm

import (
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// StripTags drops HTML-like tags from a text fragment. Some providers wrap
// output in markup; generated field values are plain text, so tags are
// removed chunk by chunk rather than parsed.
func StripTags(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	return tagPattern.ReplaceAllString(s, "")
}
