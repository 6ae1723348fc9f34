package submissions

import (
	"strings"
	"unicode"
)

// ParseHashtags splits free-text hashtag input on commas and whitespace,
// trims each token, and prefixes it with '#' when missing. Duplicates are
// kept as entered.
func ParseHashtags(input string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	var tags []string
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if !strings.HasPrefix(f, "#") {
			f = "#" + f
		}
		tags = append(tags, f)
	}
	return tags
}
