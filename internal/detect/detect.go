// Package detect classifies incoming contact snapshots against the stored rows.
package detect

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/rolodex-dev/rolodex/internal/contacts"
	"github.com/rolodex-dev/rolodex/internal/store"
)

// Kind is the classification of one snapshot.
type Kind int

const (
	// Unchanged means every tracked field matches the stored row.
	Unchanged Kind = iota
	// New means no stored row has the snapshot's external identifier.
	New
	// Edited means a stored row exists but at least one tracked field differs.
	Edited
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case Unchanged:
		return "unchanged"
	case New:
		return "new"
	case Edited:
		return "edited"
	default:
		return "unknown"
	}
}

// Classify compares one snapshot with its stored row (nil when absent).
// Text fields are compared after trimming; the image flag by equality.
func Classify(snapshot contacts.Contact, stored *store.ContactRow) Kind {
	if stored == nil {
		return New
	}
	if snapshot.SameFields(stored.Contact) {
		return Unchanged
	}
	return Edited
}

// Lookup resolves a stored contact by external identifier.
// Implementations return (nil, nil) when no row matches.
type Lookup interface {
	LookupContact(ctx context.Context, trueID string) (*store.ContactRow, error)
}

// Change is a snapshot classified as new or edited.
type Change struct {
	Kind    Kind
	Contact contacts.Contact
}

// Summary counts classifications for one detection pass.
type Summary struct {
	Scanned    int `json:"scanned"`
	New        int `json:"new"`
	Edited     int `json:"edited"`
	Unchanged  int `json:"unchanged"`
	Duplicates int `json:"duplicates"`
	Invalid    int `json:"invalid"`
}

// Changed returns the number of snapshots that need tagging and writing.
func (s Summary) Changed() int {
	return s.New + s.Edited
}

// Detector runs change detection against a Lookup.
type Detector struct {
	lookup Lookup
	logger *log.Logger
}

// NewDetector creates a Detector. If logger is nil, a default logger writing to
// stderr is used.
func NewDetector(lookup Lookup, logger *log.Logger) *Detector {
	if logger == nil {
		logger = log.New(os.Stderr, "[detect] ", log.LstdFlags)
	}
	return &Detector{lookup: lookup, logger: logger}
}

// Detect returns the new and edited snapshots in source order, trimmed.
//
// Each candidate costs one read-only lookup. Snapshots without an identifier
// are skipped; when an identifier repeats, the first occurrence wins.
func (d *Detector) Detect(ctx context.Context, snapshots []contacts.Contact) ([]Change, Summary, error) {
	var summary Summary
	changes := []Change{}
	seen := make(map[string]struct{}, len(snapshots))

	for _, snapshot := range snapshots {
		summary.Scanned++
		c := snapshot.Normalized()

		if err := c.Validate(); err != nil {
			d.logger.Printf("WARNING: skipping contact: %v", err)
			summary.Invalid++
			continue
		}
		if _, dup := seen[c.TrueID]; dup {
			d.logger.Printf("WARNING: duplicate contact %s in snapshot (keeping first)", c.TrueID)
			summary.Duplicates++
			continue
		}
		seen[c.TrueID] = struct{}{}

		stored, err := d.lookup.LookupContact(ctx, c.TrueID)
		if err != nil {
			return nil, summary, fmt.Errorf("failed to look up contact %s: %w", c.TrueID, err)
		}

		kind := Classify(c, stored)
		switch kind {
		case New:
			summary.New++
		case Edited:
			summary.Edited++
		default:
			summary.Unchanged++
			continue
		}
		changes = append(changes, Change{Kind: kind, Contact: c})
	}

	return changes, summary, nil
}

// Contacts extracts the snapshots from a list of changes.
func Contacts(changes []Change) []contacts.Contact {
	out := make([]contacts.Contact, len(changes))
	for i, ch := range changes {
		out[i] = ch.Contact
	}
	return out
}
