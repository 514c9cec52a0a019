// Package tagger asks a language-model service to tag changed contacts,
// batch by batch, while growing a shared tag vocabulary.
package tagger

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/rolodex-dev/rolodex/internal/contacts"
)

// DefaultBatchSize is the number of contacts sent per service request.
const DefaultBatchSize = 35

// Service completes one prompt. Implementations must be safe to call
// repeatedly; the synthesizer never retries a failed call.
type Service interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// BatchResult is the outcome of one batch.
type BatchResult struct {
	Index       int                      `json:"index"`
	ContactIDs  []string                 `json:"contact_ids"`
	Assignments []contacts.TagAssignment `json:"assignments,omitempty"`
	NewTags     []string                 `json:"new_tags,omitempty"`
	Err         error                    `json:"-"`
}

// Failed reports whether the batch produced no usable result.
func (r BatchResult) Failed() bool {
	return r.Err != nil
}

// Outcome aggregates all batches of one synthesis pass.
type Outcome struct {
	Assignments []contacts.TagAssignment
	Vocabulary  Vocabulary
	NewTags     []string
	Batches     []BatchResult
}

// FailedBatches counts batches whose results were discarded.
func (o Outcome) FailedBatches() int {
	n := 0
	for _, b := range o.Batches {
		if b.Failed() {
			n++
		}
	}
	return n
}

// BatchHook is invoked after each batch finishes, in batch order.
type BatchHook func(BatchResult)

// Config configures a Synthesizer.
type Config struct {
	BatchSize int
	Logger    *log.Logger
}

// Synthesizer drives the batch loop against a Service.
type Synthesizer struct {
	service   Service
	batchSize int
	logger    *log.Logger
}

// New creates a Synthesizer. A non-positive batch size means DefaultBatchSize;
// a nil logger writes to stderr.
func New(service Service, cfg Config) *Synthesizer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "[tagger] ", log.LstdFlags)
	}
	return &Synthesizer{service: service, batchSize: cfg.BatchSize, logger: cfg.Logger}
}

// BatchSize returns the configured batch size.
func (s *Synthesizer) BatchSize() int {
	return s.batchSize
}

// Partition splits list into consecutive chunks of at most size elements,
// preserving order.
func Partition(list []contacts.Contact, size int) [][]contacts.Contact {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var batches [][]contacts.Contact
	for start := 0; start < len(list); start += size {
		end := start + size
		if end > len(list) {
			end = len(list)
		}
		batches = append(batches, list[start:end])
	}
	return batches
}

// TagBatch sends one batch and returns its result together with the
// vocabulary extended by any tags the batch introduced. On failure the
// vocabulary is returned unchanged.
func (s *Synthesizer) TagBatch(ctx context.Context, index int, batch []contacts.Contact, vocab Vocabulary) (BatchResult, Vocabulary) {
	result := BatchResult{Index: index, ContactIDs: make([]string, len(batch))}
	allowed := make(map[string]struct{}, len(batch))
	for i, c := range batch {
		result.ContactIDs[i] = c.TrueID
		allowed[c.TrueID] = struct{}{}
	}

	payload, err := BuildRequest(batch, vocab).Payload()
	if err != nil {
		result.Err = err
		return result, vocab
	}

	body, err := s.service.Complete(ctx, SystemPrompt, payload)
	if err != nil {
		result.Err = fmt.Errorf("tagging request failed: %w", err)
		return result, vocab
	}

	assignments, err := ParseResponse(body, allowed)
	if err != nil {
		result.Err = fmt.Errorf("failed to parse tagging response: %w", err)
		return result, vocab
	}

	for _, a := range assignments {
		var added []string
		vocab, added = vocab.Add(a.Tags...)
		result.NewTags = append(result.NewTags, added...)
	}
	result.Assignments = assignments
	return result, vocab
}

// Synthesize tags changed contacts in batches, strictly in order.
//
// Each batch sees the vocabulary as extended by every earlier successful
// batch. A failed batch is logged and skipped; later batches still run. An
// empty list makes no service calls. hook may be nil.
func (s *Synthesizer) Synthesize(ctx context.Context, changed []contacts.Contact, vocab Vocabulary, hook BatchHook) Outcome {
	outcome := Outcome{Vocabulary: vocab}

	for i, batch := range Partition(changed, s.batchSize) {
		result, next := s.TagBatch(ctx, i, batch, outcome.Vocabulary)
		if result.Failed() {
			s.logger.Printf("WARNING: batch %d (%d contacts) discarded: %v", i, len(batch), result.Err)
		} else {
			outcome.Vocabulary = next
			outcome.NewTags = append(outcome.NewTags, result.NewTags...)
			outcome.Assignments = append(outcome.Assignments, result.Assignments...)
		}
		outcome.Batches = append(outcome.Batches, result)
		if hook != nil {
			hook(result)
		}
	}

	return outcome
}
