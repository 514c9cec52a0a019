package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	stdsync "sync"
	"time"

	"github.com/rolodex-dev/rolodex/internal/contacts"
	"github.com/rolodex-dev/rolodex/internal/detect"
	"github.com/rolodex-dev/rolodex/internal/source"
	"github.com/rolodex-dev/rolodex/internal/store"
	"github.com/rolodex-dev/rolodex/internal/tagger"
)

// ErrPermissionDenied is returned when the contact source refuses access.
var ErrPermissionDenied = errors.New("contact access denied")

// Store is the subset of the local store a run needs.
type Store interface {
	detect.Lookup
	Vocabulary(ctx context.Context) ([]string, error)
	ApplyChanges(ctx context.Context, changed []contacts.Contact, assignments []contacts.TagAssignment) (store.WriteStats, error)
	RecordRun(ctx context.Context, run *store.Run) (int64, error)
	Display(ctx context.Context, filter store.DisplayFilter) ([]store.DisplayRow, error)
}

// Observer receives progress notifications. Calls happen on the run's
// goroutine and must not block for long. OnRunComplete fires for every run
// that passed the permission check, skipped runs included.
type Observer interface {
	OnBatch(result tagger.BatchResult)
	OnRunComplete(result *Result)
}

// Result summarises one run.
type Result struct {
	StartedAt     time.Time          `json:"started_at"`
	Duration      time.Duration      `json:"duration"`
	Skipped       bool               `json:"skipped"`
	Detect        detect.Summary     `json:"detect"`
	Batches       int                `json:"batches"`
	BatchesFailed int                `json:"batches_failed"`
	NewTags       []string           `json:"new_tags,omitempty"`
	Write         store.WriteStats   `json:"write"`
	Display       []store.DisplayRow `json:"-"`
	RunID         int64              `json:"run_id,omitempty"`
}

// Config configures a Runner.
type Config struct {
	Source      source.Source
	Store       Store
	Synthesizer *tagger.Synthesizer

	// PageSize is the source page size (default source.DefaultPageSize).
	PageSize int

	// Observer is optional.
	Observer Observer

	// SkipDisplay leaves Result.Display empty.
	SkipDisplay bool

	Logger *log.Logger
}

// Runner executes the import workflow.
type Runner struct {
	cfg      Config
	detector *detect.Detector
	logger   *log.Logger

	mu stdsync.Mutex
}

// NewRunner creates a Runner. If the logger is nil, a default logger writing
// to stderr is used.
func NewRunner(cfg Config) *Runner {
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = source.DefaultPageSize
	}
	return &Runner{
		cfg:      cfg,
		detector: detect.NewDetector(cfg.Store, cfg.Logger),
		logger:   cfg.Logger,
	}
}

// Run performs one import. It returns ErrPermissionDenied when the source
// refuses access, and an error for store failures; tagging failures are
// reported in the result instead.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	result := &Result{StartedAt: start}

	if err := r.ensurePermission(ctx); err != nil {
		return nil, err
	}

	snapshots, err := source.ReadAll(ctx, r.cfg.Source, r.cfg.PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read contacts: %w", err)
	}
	if len(snapshots) == 0 {
		result.Skipped = true
		result.Duration = time.Since(start)
		if r.cfg.Observer != nil {
			r.cfg.Observer.OnRunComplete(result)
		}
		return result, nil
	}

	changes, summary, err := r.detector.Detect(ctx, snapshots)
	if err != nil {
		return nil, fmt.Errorf("change detection failed: %w", err)
	}
	result.Detect = summary
	r.logger.Printf("Scanned %d contacts: %d new, %d edited, %d unchanged",
		summary.Scanned, summary.New, summary.Edited, summary.Unchanged)

	if len(changes) > 0 {
		if err := r.tagAndWrite(ctx, detect.Contacts(changes), result); err != nil {
			return nil, err
		}
	}

	result.Duration = time.Since(start)
	r.recordRun(ctx, result)

	if !r.cfg.SkipDisplay {
		rows, err := r.cfg.Store.Display(ctx, store.DisplayFilter{})
		if err != nil {
			return nil, fmt.Errorf("failed to load display rows: %w", err)
		}
		result.Display = rows
	}

	if r.cfg.Observer != nil {
		r.cfg.Observer.OnRunComplete(result)
	}
	return result, nil
}

func (r *Runner) ensurePermission(ctx context.Context) error {
	perm, err := r.cfg.Source.Permission(ctx)
	if err != nil {
		return fmt.Errorf("failed to check contact permission: %w", err)
	}
	if perm == source.Undetermined {
		perm, err = r.cfg.Source.RequestPermission(ctx)
		if err != nil {
			return fmt.Errorf("failed to request contact permission: %w", err)
		}
	}
	if perm != source.Granted {
		r.logger.Printf("Contact permission %s; nothing imported", perm)
		return ErrPermissionDenied
	}
	return nil
}

func (r *Runner) tagAndWrite(ctx context.Context, changed []contacts.Contact, result *Result) error {
	names, err := r.cfg.Store.Vocabulary(ctx)
	if err != nil {
		return fmt.Errorf("failed to load tag vocabulary: %w", err)
	}

	var hook tagger.BatchHook
	if r.cfg.Observer != nil {
		hook = r.cfg.Observer.OnBatch
	}
	outcome := r.cfg.Synthesizer.Synthesize(ctx, changed, tagger.NewVocabulary(names), hook)
	result.Batches = len(outcome.Batches)
	result.BatchesFailed = outcome.FailedBatches()
	result.NewTags = outcome.NewTags
	if result.BatchesFailed > 0 {
		r.logger.Printf("WARNING: %d of %d batches failed; their contacts are stored untagged",
			result.BatchesFailed, result.Batches)
	}

	stats, err := r.cfg.Store.ApplyChanges(ctx, changed, outcome.Assignments)
	if err != nil {
		return fmt.Errorf("failed to write changes: %w", err)
	}
	result.Write = stats
	r.logger.Printf("Stored %d new and %d updated contacts, %d new tags, %d new links",
		stats.ContactsInserted, stats.ContactsUpdated, stats.TagsCreated, stats.LinksCreated)
	return nil
}

// recordRun appends the run to the history. Failure is logged only.
func (r *Runner) recordRun(ctx context.Context, result *Result) {
	run := &store.Run{
		StartedAt:      result.StartedAt,
		FinishedAt:     result.StartedAt.Add(result.Duration),
		Scanned:        result.Detect.Scanned,
		NewContacts:    result.Detect.New,
		EditedContacts: result.Detect.Edited,
		Batches:        result.Batches,
		BatchesFailed:  result.BatchesFailed,
		TagsCreated:    result.Write.TagsCreated,
		LinksCreated:   result.Write.LinksCreated,
	}
	id, err := r.cfg.Store.RecordRun(ctx, run)
	if err != nil {
		r.logger.Printf("WARNING: failed to record run history: %v", err)
		return
	}
	result.RunID = id
}
