package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/rolodex-dev/rolodex/internal/store"
	"github.com/rolodex-dev/rolodex/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "inspect",
	Short:   "Show store location, row counts and the last run",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		e := mustOpenEnv(ctx)
		defer e.Close()

		counts, err := e.db.Counts(ctx)
		if err != nil {
			fatalf("%v", err)
		}
		version, err := e.db.SchemaVersion(ctx)
		if err != nil {
			fatalf("%v", err)
		}
		last, err := e.db.LastRun(ctx)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			fatalf("%v", err)
		}

		size := "unknown"
		if info, err := os.Stat(e.db.Path()); err == nil {
			size = fmt.Sprintf("%.1f KiB", float64(info.Size())/1024)
		}

		fmt.Printf("%s %s (%s, schema v%d)\n", ui.RenderAccent("Store:"), e.db.Path(), size, version)
		fmt.Printf("%s %s\n", ui.RenderAccent("Config:"), e.cfg.File)
		fmt.Printf("%s %s (consent: %t)\n", ui.RenderAccent("Source:"), e.cfg.Source.Path, e.cfg.Source.Consent)
		fmt.Printf("%s %d contacts, %d tags, %d links\n", ui.RenderAccent("Rows:"), counts.Contacts, counts.Tags, counts.Links)
		if last == nil {
			fmt.Printf("%s %s\n", ui.RenderAccent("Last run:"), ui.RenderMuted("never"))
			return
		}
		fmt.Printf("%s %s (%d new, %d edited, %d of %d batches failed)\n",
			ui.RenderAccent("Last run:"), last.StartedAt.Local().Format(time.DateTime),
			last.NewContacts, last.EditedContacts, last.BatchesFailed, last.Batches)
	},
}

var historyCmd = &cobra.Command{
	Use:     "history",
	GroupID: "inspect",
	Short:   "List recorded import runs",
	Long: `List recorded import runs, newest first.

--since accepts a timestamp or natural language:
  rolo history --since "last week"
  rolo history --since "3 days ago"
  rolo history --since 2026-01-31`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		e := mustOpenEnv(ctx)
		defer e.Close()

		sinceText, _ := cmd.Flags().GetString("since")
		limit, _ := cmd.Flags().GetInt("limit")

		var since time.Time
		if sinceText != "" {
			t, err := parseSince(sinceText, time.Now())
			if err != nil {
				fatalf("%v", err)
			}
			since = t
		}

		runs, err := e.db.ListRuns(ctx, since, limit)
		if err != nil {
			fatalf("%v", err)
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			if runs == nil {
				runs = []*store.Run{}
			}
			printJSON(runs)
			return
		}
		if len(runs) == 0 {
			fmt.Println(ui.RenderMuted("No runs recorded."))
			return
		}

		rows := make([][]string, 0, len(runs))
		for _, r := range runs {
			failed := strconv.Itoa(r.BatchesFailed)
			if r.BatchesFailed > 0 {
				failed = ui.RenderWarn(failed)
			}
			rows = append(rows, []string{
				strconv.FormatInt(r.ID, 10),
				r.StartedAt.Local().Format(time.DateTime),
				strconv.Itoa(r.Scanned),
				strconv.Itoa(r.NewContacts),
				strconv.Itoa(r.EditedContacts),
				strconv.Itoa(r.Batches),
				failed,
				strconv.Itoa(r.TagsCreated),
				strconv.Itoa(r.LinksCreated),
			})
		}
		fmt.Println(ui.Table(
			[]string{"#", "Started", "Scanned", "New", "Edited", "Batches", "Failed", "Tags", "Links"},
			rows,
		))
	},
}

func init() {
	historyCmd.Flags().String("since", "", "only runs started after this time")
	historyCmd.Flags().Int("limit", 20, "maximum number of runs (0 = all)")
	historyCmd.Flags().Bool("json", false, "output JSON")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
}

// parseSince accepts RFC 3339, a plain date, or a natural-language phrase
// relative to now.
func parseSince(text string, now time.Time) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, time.DateTime, time.DateOnly} {
		if t, err := time.ParseInLocation(layout, text, time.Local); err == nil {
			return t, nil
		}
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	r, err := w.Parse(text, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse --since %q: %w", text, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("could not understand --since %q", text)
	}
	return r.Time, nil
}
