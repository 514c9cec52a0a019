// Package sync runs the contact import workflow end to end.
//
// Overview
//
// One run reads every contact from the source, works out which ones are new
// or edited since the last run, asks the tagging service to tag only those,
// and writes contacts, tags and links to the local store in one transaction:
//
//	Contact source (export file)
//	     │  permission check, paged read
//	     ▼
//	Detector ── read-only lookups ──► Local store
//	     │  new + edited contacts
//	     ▼
//	Synthesizer ── batches of 35 ──► Tagging service
//	     │  assignments + grown vocabulary
//	     ▼
//	ApplyChanges (single transaction) ──► Local store
//	     │
//	     ▼
//	Display rows
//
// Usage
//
//	runner := sync.NewRunner(sync.Config{
//	    Source:      src,
//	    Store:       database,
//	    Synthesizer: tagger.New(service, tagger.Config{}),
//	})
//	result, err := runner.Run(ctx)
//	if errors.Is(err, sync.ErrPermissionDenied) {
//	    // nothing was written
//	}
//
// Error Handling
//
// Failures degrade a run rather than abort it:
//
//   - Permission denied aborts the run before anything is read or written
//   - An empty source ends the run silently with Result.Skipped set
//   - A failed batch is logged and its contacts stay untagged
//   - Assignments for identifiers missing from the store are skipped
//   - Only store errors (lookup, write transaction) are returned
//
// Concurrency
//
// Run serialises on the Runner: a second call waits for the first to finish.
// Batches inside a run are sequential because each one sees the vocabulary
// grown by the ones before it.
package sync
