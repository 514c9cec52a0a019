package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rolodex-dev/rolodex/internal/config"
	"github.com/rolodex-dev/rolodex/internal/source"
	rsync "github.com/rolodex-dev/rolodex/internal/sync"
	"github.com/rolodex-dev/rolodex/internal/tagger"
	"github.com/rolodex-dev/rolodex/internal/ui"
)

var importCmd = &cobra.Command{
	Use:     "import",
	GroupID: "workflow",
	Short:   "Import new and changed contacts and tag them",
	Long: `Run the import workflow once:
  1. Check (and if needed ask for) access to the contact export
  2. Read every contact and keep those that are new or changed
  3. Send them in batches to the tagging service
  4. Store contacts, tags and links in one transaction
  5. Print every stored contact with its tags

A failed tagging batch is skipped; its contacts are still stored, untagged.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		e := mustOpenEnv(ctx)
		defer e.Close()

		if path, _ := cmd.Flags().GetString("source"); path != "" {
			e.cfg.Source.Path = path
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		runner, err := buildRunner(e, &progressObserver{})
		if err != nil {
			fatalf("%v", err)
		}

		result, err := runner.Run(ctx)
		if errors.Is(err, rsync.ErrPermissionDenied) {
			fmt.Fprintln(os.Stderr, ui.RenderWarn("Contact access denied; nothing imported."))
			return
		}
		if err != nil {
			fatalf("import failed: %v", err)
		}

		if asJSON {
			printJSON(result)
			return
		}
		printResult(result)
	},
}

func init() {
	importCmd.Flags().String("source", "", "contact export to read (overrides source.path)")
	importCmd.Flags().Bool("json", false, "print the run summary as JSON")
	rootCmd.AddCommand(importCmd)
}

// buildRunner wires source, tagging service and store into a Runner.
func buildRunner(e *env, observer rsync.Observer) (*rsync.Runner, error) {
	key, keySource, err := config.ResolveAPIKey(e.cfg.Tagging.EnvFile)
	if err != nil {
		return nil, err
	}
	e.sink.Logger("config").Printf("Using tagging API key from %s", keySource)

	service, err := tagger.NewAnthropicService(tagger.AnthropicConfig{
		BaseURL:   e.cfg.Tagging.BaseURL,
		APIKey:    key,
		Model:     e.cfg.Tagging.Model,
		MaxTokens: e.cfg.Tagging.MaxTokens,
		Timeout:   e.cfg.Tagging.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tagging client: %w", err)
	}

	cfgFile := e.cfg.File
	src := source.NewFileSource(source.FileOptions{
		Path:     e.cfg.Source.Path,
		Consent:  e.cfg.Source.Consent,
		Prompter: source.PrompterFunc(consentPrompt),
		OnConsent: func() error {
			return config.SaveConsent(cfgFile)
		},
		Logger: e.sink.Logger("source"),
	})

	return rsync.NewRunner(rsync.Config{
		Source: src,
		Store:  e.db,
		Synthesizer: tagger.New(service, tagger.Config{
			BatchSize: e.cfg.Tagging.BatchSize,
			Logger:    e.sink.Logger("tagger"),
		}),
		PageSize: e.cfg.Source.PageSize,
		Observer: observer,
		Logger:   e.sink.Logger("sync"),
	}), nil
}

// consentPrompt asks on the terminal. Without a terminal the answer is no.
func consentPrompt(ctx context.Context, question string) (bool, error) {
	ok, err := ui.Confirm(ctx, question)
	if errors.Is(err, ui.ErrNotInteractive) {
		return false, nil
	}
	return ok, err
}

// progressObserver reports failed batches as they happen.
type progressObserver struct{}

func (progressObserver) OnBatch(result tagger.BatchResult) {
	if result.Failed() {
		fmt.Fprintf(os.Stderr, "%s batch %d (%d contacts) skipped: %v\n",
			ui.RenderWarn("!"), result.Index+1, len(result.ContactIDs), result.Err)
	}
}

func (progressObserver) OnRunComplete(*rsync.Result) {}

// observers fans notifications out to several observers.
type observers []rsync.Observer

func (o observers) OnBatch(result tagger.BatchResult) {
	for _, obs := range o {
		obs.OnBatch(result)
	}
}

func (o observers) OnRunComplete(result *rsync.Result) {
	for _, obs := range o {
		obs.OnRunComplete(result)
	}
}

func printResult(result *rsync.Result) {
	if result.Skipped {
		fmt.Println(ui.RenderMuted("No contacts in the export; nothing to do."))
		return
	}

	printDisplay(result.Display)

	d := result.Detect
	fmt.Printf("\n%s scanned %d, new %d, edited %d, unchanged %d\n",
		ui.RenderAccent("Contacts:"), d.Scanned, d.New, d.Edited, d.Unchanged)
	if d.Changed() > 0 {
		fmt.Printf("%s %d batches, %d failed, %d new tags, %d links created\n",
			ui.RenderAccent("Tagging:"), result.Batches, result.BatchesFailed,
			result.Write.TagsCreated, result.Write.LinksCreated)
	}
	status := ui.RenderPass("✓ Import complete")
	if result.BatchesFailed > 0 {
		status = ui.RenderWarn("⚠ Import complete with skipped batches")
	}
	fmt.Printf("%s in %s\n", status, result.Duration.Round(time.Millisecond))
}
