package tagger

import (
	"encoding/json"
	"fmt"

	"github.com/rolodex-dev/rolodex/internal/contacts"
)

// SystemPrompt is the fixed instruction sent with every batch.
const SystemPrompt = `You label address-book contacts with short descriptive tags.

You receive JSON: {"contacts":[{"true_id","name","company","jobTitle"}],"existing_tags":[...]}.

Rules:
- Prefer an entry from existing_tags over a new tag with the same meaning. Never create near-duplicates of an existing tag (different case, plural, abbreviation).
- Derive tags mainly from the name field: people often store affiliations in the display name (for example "Jane Smith Intel" or "Bob - Stanford"). Use company and jobTitle as secondary signals.
- Never put personal identifiers (phone numbers, email addresses, street addresses) into tags.
- If nothing meaningful can be derived, return an empty tags list. Do not invent tags.

Respond with JSON only, no prose and no code fences, in exactly this shape:
{"contacts":[{"true_id":"<id from input>","tags":["Tag", "..."]}]}
Include every input contact exactly once.`

// requestContact is the per-contact payload sent to the service.
type requestContact struct {
	TrueID   string `json:"true_id"`
	Name     string `json:"name"`
	Company  string `json:"company"`
	JobTitle string `json:"jobTitle"`
}

// Request is the user payload of one batch.
type Request struct {
	Contacts     []requestContact `json:"contacts"`
	ExistingTags []string         `json:"existing_tags"`
}

// BuildRequest assembles the payload for one batch against a vocabulary snapshot.
// The image flag is not sent: it carries no tagging signal.
func BuildRequest(batch []contacts.Contact, vocab Vocabulary) Request {
	req := Request{
		Contacts:     make([]requestContact, 0, len(batch)),
		ExistingTags: vocab.Names(),
	}
	for _, c := range batch {
		req.Contacts = append(req.Contacts, requestContact{
			TrueID:   c.TrueID,
			Name:     c.Name,
			Company:  c.Company,
			JobTitle: c.JobTitle,
		})
	}
	return req
}

// Payload encodes the request as the user message text.
func (r Request) Payload() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}
	return string(data), nil
}
