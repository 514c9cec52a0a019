// Package daemon re-runs the import workflow whenever the contact export file
// changes.
//
// The daemon:
// 1. Runs one import at startup
// 2. Watches the export file for create/write/rename events
// 3. Debounces bursts of events into a single run
// 4. Handles graceful shutdown
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	rsync "github.com/rolodex-dev/rolodex/internal/sync"
)

// Runner executes one import.
type Runner interface {
	Run(ctx context.Context) (*rsync.Result, error)
}

// Config holds configuration for the daemon.
type Config struct {
	// DebounceInterval is how long the file must stay quiet before a run.
	DebounceInterval time.Duration

	// SkipInitialRun disables the run at startup.
	SkipInitialRun bool

	// OnResult, when set, receives every completed run.
	OnResult func(*rsync.Result, error)

	// Logger for daemon activity
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DebounceInterval: 500 * time.Millisecond,
		Logger:           log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon orchestrates file watching and import runs.
type Daemon struct {
	runner Runner
	path   string
	config *Config

	watcher *FileWatcher

	pendingMu sync.Mutex
	pending   time.Time // zero when nothing is queued

	runs int

	wg sync.WaitGroup
}

// New creates a daemon that watches path and drives runner.
func New(runner Runner, path string, config *Config) (*Daemon, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner cannot be nil")
	}
	if path == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.DebounceInterval <= 0 {
		config.DebounceInterval = DefaultConfig().DebounceInterval
	}
	if config.Logger == nil {
		config.Logger = DefaultConfig().Logger
	}

	watcher, err := NewFileWatcher()
	if err != nil {
		return nil, err
	}

	return &Daemon{
		runner:  runner,
		path:    path,
		config:  config,
		watcher: watcher,
	}, nil
}

// Start runs the daemon until ctx is cancelled.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting daemon")

	if err := d.watcher.Start(d.path); err != nil {
		_ = d.watcher.Stop()
		return err
	}
	d.config.Logger.Printf("Watching: %s", d.watcher.Target())

	if !d.config.SkipInitialRun {
		d.runOnce(ctx)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.wg.Add(2)
	go d.watchFileEvents(loopCtx)
	go d.processQueue(loopCtx)

	<-ctx.Done()
	d.config.Logger.Println("Shutdown signal received")
	cancel()
	return d.stop()
}

func (d *Daemon) stop() error {
	d.config.Logger.Println("Stopping daemon")

	err := d.watcher.Stop()
	d.wg.Wait()

	d.config.Logger.Println("Daemon stopped")
	return err
}

// Runs returns the number of runs started so far.
func (d *Daemon) Runs() int {
	d.pendingMu.Lock()
	defer d.pendingMu.Unlock()
	return d.runs
}

func (d *Daemon) watchFileEvents(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-d.watcher.Events():
			if !ok {
				return
			}
			d.config.Logger.Printf("File event: %s %s", event.Op, event.Path)
			if event.Op == OpDelete {
				continue
			}
			d.queueChange()
		case err, ok := <-d.watcher.Errors():
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// queueChange (re)starts the debounce window.
func (d *Daemon) queueChange() {
	d.pendingMu.Lock()
	defer d.pendingMu.Unlock()
	d.pending = time.Now()
}

// processQueue runs an import once the debounce window has passed. Runs
// happen on this goroutine only, so they never overlap.
func (d *Daemon) processQueue(ctx context.Context) {
	defer d.wg.Done()

	tick := d.config.DebounceInterval / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if d.takeDue() {
				d.runOnce(ctx)
			}
		}
	}
}

func (d *Daemon) takeDue() bool {
	d.pendingMu.Lock()
	defer d.pendingMu.Unlock()
	if d.pending.IsZero() || time.Since(d.pending) < d.config.DebounceInterval {
		return false
	}
	d.pending = time.Time{}
	return true
}

func (d *Daemon) runOnce(ctx context.Context) {
	d.pendingMu.Lock()
	d.runs++
	d.pendingMu.Unlock()

	result, err := d.runner.Run(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		return
	case errors.Is(err, rsync.ErrPermissionDenied):
		d.config.Logger.Printf("Run skipped: %v", err)
	case err != nil:
		d.config.Logger.Printf("Run failed: %v", err)
	case result.Skipped:
		d.config.Logger.Println("Run skipped: no contacts in export")
	default:
		d.config.Logger.Printf("Run complete: %d new, %d edited, %d batches (%d failed) in %s",
			result.Detect.New, result.Detect.Edited, result.Batches, result.BatchesFailed,
			result.Duration.Round(time.Millisecond))
	}

	if d.config.OnResult != nil {
		d.config.OnResult(result, err)
	}
}
