package main

import (
	"errors"
	"testing"
	"time"

	rsync "github.com/rolodex-dev/rolodex/internal/sync"
	"github.com/rolodex-dev/rolodex/internal/tagger"
)

func TestParseSince(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)

	got, err := parseSince("2026-01-31", now)
	if err != nil {
		t.Fatalf("parseSince(date) error: %v", err)
	}
	if want := time.Date(2026, 1, 31, 0, 0, 0, 0, time.Local); !got.Equal(want) {
		t.Errorf("parseSince(date) = %v, want %v", got, want)
	}

	got, err = parseSince("2026-02-01T08:00:00Z", now)
	if err != nil || !got.Equal(time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("parseSince(rfc3339) = %v, %v", got, err)
	}

	got, err = parseSince("3 days ago", now)
	if err != nil {
		t.Fatalf("parseSince(natural) error: %v", err)
	}
	if !got.Before(now) || got.Before(now.AddDate(0, 0, -4)) {
		t.Errorf("parseSince(3 days ago) = %v", got)
	}

	if _, err := parseSince("purple elephant", now); err == nil {
		t.Error("expected error for unparseable text")
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"20", int64(20)},
		{"1", int64(1)},
		{"true", true},
		{"false", false},
		{" /tmp/contacts.json ", "/tmp/contacts.json"},
		{"claude-sonnet-4-5", "claude-sonnet-4-5"},
	}
	for _, tt := range tests {
		if got := parseValue(tt.in); got != tt.want {
			t.Errorf("parseValue(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

type countingObserver struct {
	batches, runs int
}

func (c *countingObserver) OnBatch(tagger.BatchResult)  { c.batches++ }
func (c *countingObserver) OnRunComplete(*rsync.Result) { c.runs++ }

func TestObservers_FanOut(t *testing.T) {
	a, b := &countingObserver{}, &countingObserver{}
	obs := observers{a, b, progressObserver{}}

	obs.OnBatch(tagger.BatchResult{Index: 0})
	obs.OnBatch(tagger.BatchResult{Index: 1, ContactIDs: []string{"A1"}, Err: errors.New("boom")})
	obs.OnRunComplete(&rsync.Result{})

	for _, c := range []*countingObserver{a, b} {
		if c.batches != 2 || c.runs != 1 {
			t.Errorf("observer saw %d batches and %d runs, want 2 and 1", c.batches, c.runs)
		}
	}
}
