package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rolodex-dev/rolodex/internal/ui"
)

var resetCmd = &cobra.Command{
	Use:     "reset",
	GroupID: "setup",
	Short:   "Delete every stored contact, tag and link",
	Long: `Delete every stored contact, tag and link. Run history is kept.

The next import then treats every contact in the export as new and tags it
again. Without --yes the command asks for confirmation.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		e := mustOpenEnv(ctx)
		defer e.Close()

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			counts, err := e.db.Counts(ctx)
			if err != nil {
				fatalf("%v", err)
			}
			ok, err := ui.Confirm(ctx, fmt.Sprintf("Delete %d contacts, %d tags and %d links?",
				counts.Contacts, counts.Tags, counts.Links))
			if errors.Is(err, ui.ErrNotInteractive) {
				fatalf("refusing to reset without a terminal; pass --yes")
			}
			if err != nil {
				fatalf("%v", err)
			}
			if !ok {
				fmt.Println(ui.RenderMuted("Cancelled."))
				return
			}
		}

		if err := e.db.Reset(ctx); err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("%s Store cleared\n", ui.RenderPass("✓"))
	},
}

func init() {
	resetCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}
