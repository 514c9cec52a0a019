package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rolodex-dev/rolodex/internal/daemon"
	"github.com/rolodex-dev/rolodex/internal/dashboard"
	rsync "github.com/rolodex-dev/rolodex/internal/sync"
	"github.com/rolodex-dev/rolodex/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	GroupID: "workflow",
	Short:   "Re-run the import whenever the contact export changes",
	Long: `Watch the contact export and run the import after every change.

Changes are debounced (watch.debounce) so an exporter that writes in several
steps triggers a single run. Runs never overlap. Deleting the export does not
trigger a run.

With --dashboard, the dashboard server runs alongside and pushes run_complete,
batch_failed and stats messages to WebSocket clients.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		e := mustOpenEnv(ctx)
		defer e.Close()

		if path, _ := cmd.Flags().GetString("source"); path != "" {
			e.cfg.Source.Path = path
		}
		withDashboard, _ := cmd.Flags().GetBool("dashboard")

		obs := observers{&progressObserver{}}
		var server *dashboard.Server
		if withDashboard {
			port := e.cfg.Dashboard.Port
			if cmd.Flags().Changed("port") {
				port, _ = cmd.Flags().GetInt("port")
			}
			server = dashboard.NewServer(&dashboard.Config{
				Port:   port,
				Store:  e.db,
				Logger: e.sink.Logger("dashboard"),
			})
			if err := server.Start(); err != nil {
				fatalf("failed to start dashboard: %v", err)
			}
			fmt.Printf("Dashboard on http://%s (WebSocket: /ws)\n", server.GetAddr())
			obs = append(obs, dashboard.NewHandler(server, e.sink.Logger("dashboard")))
		}

		runner, err := buildRunner(e, obs)
		if err != nil {
			fatalf("%v", err)
		}

		d, err := daemon.New(runner, e.cfg.Source.Path, &daemon.Config{
			DebounceInterval: e.cfg.Watch.Debounce,
			OnResult:         reportWatchResult,
			Logger:           e.sink.Logger("daemon"),
		})
		if err != nil {
			fatalf("%v", err)
		}

		fmt.Printf("Watching %s (Ctrl+C to stop)\n", e.cfg.Source.Path)
		runErr := d.Start(ctx)

		if server != nil {
			if err := server.Stop(); err != nil {
				fmt.Fprintf(os.Stderr, "Error during dashboard shutdown: %v\n", err)
			}
		}
		if runErr != nil {
			fatalf("watch failed: %v", runErr)
		}
	},
}

func init() {
	watchCmd.Flags().String("source", "", "contact export to watch (overrides source.path)")
	watchCmd.Flags().Bool("dashboard", false, "serve the dashboard while watching")
	watchCmd.Flags().Int("port", 0, "dashboard port (overrides dashboard.port)")
	rootCmd.AddCommand(watchCmd)
}

func reportWatchResult(result *rsync.Result, err error) {
	switch {
	case errors.Is(err, rsync.ErrPermissionDenied):
		fmt.Fprintln(os.Stderr, ui.RenderWarn("Contact access denied; waiting for the next change."))
	case err != nil:
		fmt.Fprintln(os.Stderr, ui.RenderFail("Run failed: "+err.Error()))
	case result.Skipped:
		fmt.Println(ui.RenderMuted("Export is empty; nothing to do."))
	case result.Detect.Changed() == 0:
		fmt.Printf("%s %d contacts, no changes\n", ui.RenderPass("✓"), result.Detect.Scanned)
	default:
		fmt.Printf("%s %d new, %d edited, %d links created, %d of %d batches failed\n",
			ui.RenderPass("✓"), result.Detect.New, result.Detect.Edited,
			result.Write.LinksCreated, result.BatchesFailed, result.Batches)
	}
}
