package tagger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rolodex-dev/rolodex/internal/contacts"
)

var (
	// ErrEmptyResponse is returned when the service answered with no text.
	ErrEmptyResponse = errors.New("empty response")

	// ErrMalformedResponse is returned when the response is not a JSON object.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrMissingContacts is returned when the response has no contacts list.
	ErrMissingContacts = errors.New("response has no contacts list")
)

// ParseResponse extracts per-contact tag assignments from a response body.
//
// The body must hold a JSON object with a "contacts" list; anything else is an
// error and the whole batch is discarded. Within the list, entries that are not
// objects or carry no true_id are skipped, and a "tags" value that is not a
// list counts as no tags. When allowed is non-nil, assignments for identifiers
// outside it are dropped. Repeated entries for one identifier are merged.
func ParseResponse(body string, allowed map[string]struct{}) ([]contacts.TagAssignment, error) {
	text := extractJSON(body)
	if text == "" {
		return nil, ErrEmptyResponse
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	rawList, ok := envelope["contacts"]
	if !ok {
		return nil, ErrMissingContacts
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(rawList, &entries); err != nil || entries == nil {
		return nil, ErrMissingContacts
	}

	var out []contacts.TagAssignment
	position := make(map[string]int)
	for _, raw := range entries {
		var entry map[string]json.RawMessage
		if err := json.Unmarshal(raw, &entry); err != nil || entry == nil {
			continue
		}

		trueID := decodeID(entry["true_id"])
		if strings.TrimSpace(trueID) == "" {
			continue
		}
		if allowed != nil {
			if _, ok := allowed[trueID]; !ok {
				continue
			}
		}

		tags := decodeTags(entry["tags"])
		if i, seen := position[trueID]; seen {
			out[i].Tags = contacts.CleanTags(append(out[i].Tags, tags...))
			continue
		}
		position[trueID] = len(out)
		out = append(out, contacts.TagAssignment{TrueID: trueID, Tags: contacts.CleanTags(tags)})
	}

	return out, nil
}

// extractJSON strips Markdown code fences and any prose surrounding the
// outermost JSON object.
func extractJSON(body string) string {
	text := strings.TrimSpace(body)
	if strings.HasPrefix(text, "```") {
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			text = text[nl+1:]
		} else {
			text = strings.TrimPrefix(text, "```")
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	if json.Valid([]byte(text)) {
		return text
	}
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

// decodeID accepts a JSON string, kept verbatim, or a bare number rendered as
// its literal text.
func decodeID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err == nil {
		return n.String()
	}
	return ""
}

// decodeTags returns the string elements of a JSON list. Anything that is not
// a list yields no tags; non-string elements are dropped.
func decodeTags(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	tags := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			continue
		}
		tags = append(tags, s)
	}
	return tags
}
