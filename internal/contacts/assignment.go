package contacts

import "strings"

// TagAssignment is the set of tag names the tagging service attributed to one
// contact, keyed by the contact's external identifier.
type TagAssignment struct {
	TrueID string   `json:"true_id"`
	Tags   []string `json:"tags"`
}

// CleanTags trims each tag name, drops blanks and removes repeats while
// keeping first-seen order. Case and inner whitespace are preserved.
func CleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
