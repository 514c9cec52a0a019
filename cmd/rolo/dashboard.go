package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rolodex-dev/rolodex/internal/dashboard"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	GroupID: "inspect",
	Short:   "Serve a read-only HTTP view of the store",
	Long: `Start the dashboard server over the local store.

Endpoints:
- GET /contacts   display rows as JSON (?tag=, ?q=, ?limit=)
- GET /tags       tags with contact counts
- GET /runs       recent import runs
- GET /health     liveness plus row counts
- GET /ws         WebSocket; sends a stats message on connect

This command only serves what is stored. Use 'rolo watch --dashboard' to also
receive run_complete and batch_failed messages as imports happen.

Example usage:
  rolo dashboard                   # port from dashboard.port (default 8080)
  rolo dashboard --port 9000`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		e := mustOpenEnv(ctx)
		defer e.Close()

		port := e.cfg.Dashboard.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}

		server := dashboard.NewServer(&dashboard.Config{
			Port:   port,
			Store:  e.db,
			Logger: e.sink.Logger("dashboard"),
		})
		if err := server.Start(); err != nil {
			fatalf("failed to start dashboard: %v", err)
		}

		addr := server.GetAddr()
		fmt.Printf("Dashboard server started on http://%s\n", addr)
		fmt.Printf("WebSocket endpoint: ws://%s/ws\n", addr)
		fmt.Println("\nPress Ctrl+C to stop...")

		<-ctx.Done()

		fmt.Println("\nShutting down dashboard server...")
		if err := server.Stop(); err != nil {
			fatalf("during shutdown: %v", err)
		}
		fmt.Println("Dashboard server stopped")
	},
}

func init() {
	dashboardCmd.Flags().IntP("port", "p", 8080, "port to listen on (overrides dashboard.port)")
	rootCmd.AddCommand(dashboardCmd)
}
