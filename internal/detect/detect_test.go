package detect

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/rolodex-dev/rolodex/internal/contacts"
	"github.com/rolodex-dev/rolodex/internal/store"
)

// mapLookup is an in-memory Lookup keyed by true_id.
type mapLookup struct {
	rows  map[string]*store.ContactRow
	calls int
	err   error
}

func (m *mapLookup) LookupContact(_ context.Context, trueID string) (*store.ContactRow, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.rows[trueID], nil
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestClassify(t *testing.T) {
	stored := &store.ContactRow{ID: 1, Contact: contacts.Contact{
		TrueID: "A1", Name: "Jane", Company: "Intel", JobTitle: "Engineer",
	}}

	tests := []struct {
		name     string
		snapshot contacts.Contact
		stored   *store.ContactRow
		want     Kind
	}{
		{name: "no stored row", snapshot: contacts.Contact{TrueID: "A1"}, stored: nil, want: New},
		{name: "identical", snapshot: stored.Contact, stored: stored, want: Unchanged},
		{name: "padding only", snapshot: contacts.Contact{TrueID: "A1", Name: " Jane", Company: "Intel ", JobTitle: "Engineer"}, stored: stored, want: Unchanged},
		{name: "name edited", snapshot: contacts.Contact{TrueID: "A1", Name: "Jane Doe", Company: "Intel", JobTitle: "Engineer"}, stored: stored, want: Edited},
		{name: "company cleared", snapshot: contacts.Contact{TrueID: "A1", Name: "Jane", JobTitle: "Engineer"}, stored: stored, want: Edited},
		{name: "photo added", snapshot: contacts.Contact{TrueID: "A1", Name: "Jane", Company: "Intel", JobTitle: "Engineer", ImageAvailable: true}, stored: stored, want: Edited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.snapshot, tt.stored); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetect_SourceOrderAndSummary(t *testing.T) {
	lookup := &mapLookup{rows: map[string]*store.ContactRow{
		"B": {ID: 2, Contact: contacts.Contact{TrueID: "B", Name: "Bob"}},
		"C": {ID: 3, Contact: contacts.Contact{TrueID: "C", Name: "Carol"}},
	}}
	d := NewDetector(lookup, quietLogger())

	snapshots := []contacts.Contact{
		{TrueID: "D", Name: "Dan"},      // new
		{TrueID: "B", Name: "Bob"},      // unchanged
		{TrueID: "C", Name: "Carol  K"}, // edited
		{TrueID: "A", Name: " Alice "},  // new
	}

	changes, summary, err := d.Detect(context.Background(), snapshots)
	if err != nil {
		t.Fatalf("Detect() failed: %v", err)
	}

	wantIDs := []string{"D", "C", "A"}
	if len(changes) != len(wantIDs) {
		t.Fatalf("got %d changes, want %d", len(changes), len(wantIDs))
	}
	for i, id := range wantIDs {
		if changes[i].Contact.TrueID != id {
			t.Errorf("change %d = %s, want %s", i, changes[i].Contact.TrueID, id)
		}
	}
	if changes[1].Kind != Edited || changes[0].Kind != New {
		t.Errorf("kinds = %v, %v", changes[0].Kind, changes[1].Kind)
	}
	if changes[2].Contact.Name != "Alice" {
		t.Errorf("change not trimmed: %q", changes[2].Contact.Name)
	}

	want := Summary{Scanned: 4, New: 2, Edited: 1, Unchanged: 1}
	if summary != want {
		t.Errorf("summary = %+v, want %+v", summary, want)
	}
	if summary.Changed() != 3 {
		t.Errorf("Changed() = %d, want 3", summary.Changed())
	}
	if lookup.calls != 4 {
		t.Errorf("lookup calls = %d, want 4", lookup.calls)
	}
}

func TestDetect_DuplicatesAndInvalid(t *testing.T) {
	lookup := &mapLookup{rows: map[string]*store.ContactRow{}}
	d := NewDetector(lookup, quietLogger())

	snapshots := []contacts.Contact{
		{TrueID: "A", Name: "First"},
		{TrueID: ""},
		{TrueID: "A", Name: "Second"},
	}

	changes, summary, err := d.Detect(context.Background(), snapshots)
	if err != nil {
		t.Fatalf("Detect() failed: %v", err)
	}
	if len(changes) != 1 || changes[0].Contact.Name != "First" {
		t.Errorf("changes = %+v, want only the first A", changes)
	}
	if summary.Duplicates != 1 || summary.Invalid != 1 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestDetect_IDsAreOpaque(t *testing.T) {
	lookup := &mapLookup{rows: map[string]*store.ContactRow{
		"A1": {ID: 1, Contact: contacts.Contact{TrueID: "A1", Name: "Jane"}},
	}}
	d := NewDetector(lookup, quietLogger())

	snapshots := []contacts.Contact{
		{TrueID: "A1", Name: "Jane"},
		{TrueID: "A1 ", Name: "Jane"},
		{TrueID: " A1", Name: "Jane"},
		{TrueID: " \t "},
	}

	changes, summary, err := d.Detect(context.Background(), snapshots)
	if err != nil {
		t.Fatalf("Detect() failed: %v", err)
	}

	wantIDs := []string{"A1 ", " A1"}
	if len(changes) != len(wantIDs) {
		t.Fatalf("got %d changes, want %d: %+v", len(changes), len(wantIDs), changes)
	}
	for i, id := range wantIDs {
		if changes[i].Contact.TrueID != id || changes[i].Kind != New {
			t.Errorf("change %d = %q (%v), want new %q", i, changes[i].Contact.TrueID, changes[i].Kind, id)
		}
	}
	want := Summary{Scanned: 4, New: 2, Unchanged: 1, Invalid: 1}
	if summary != want {
		t.Errorf("summary = %+v, want %+v", summary, want)
	}
}

func TestDetect_LookupError(t *testing.T) {
	lookup := &mapLookup{err: errors.New("disk on fire")}
	d := NewDetector(lookup, quietLogger())

	_, _, err := d.Detect(context.Background(), []contacts.Contact{{TrueID: "A"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, lookup.err) {
		t.Errorf("error %v does not wrap lookup error", err)
	}
}

// TestDetect_AgainstStore runs detection against a real migrated store.
func TestDetect_AgainstStore(t *testing.T) {
	ctx := context.Background()
	db, err := store.Open(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}

	if _, err := db.ApplyChanges(ctx, []contacts.Contact{{TrueID: "A1", Name: "Jane", Company: "Intel"}}, nil); err != nil {
		t.Fatalf("ApplyChanges() failed: %v", err)
	}

	d := NewDetector(db, quietLogger())
	changes, summary, err := d.Detect(ctx, []contacts.Contact{
		{TrueID: "A1", Name: "Jane", Company: "Intel"},
		{TrueID: "B2", Name: "Bob"},
	})
	if err != nil {
		t.Fatalf("Detect() failed: %v", err)
	}
	if len(changes) != 1 || changes[0].Contact.TrueID != "B2" || changes[0].Kind != New {
		t.Errorf("changes = %+v", changes)
	}
	if summary.Unchanged != 1 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestKind_String(t *testing.T) {
	if New.String() != "new" || Edited.String() != "edited" || Unchanged.String() != "unchanged" {
		t.Error("unexpected Kind strings")
	}
	if Kind(99).String() != "unknown" {
		t.Error("expected unknown for out-of-range kind")
	}
}
