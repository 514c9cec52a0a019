package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rolodex-dev/rolodex/internal/config"
	"github.com/rolodex-dev/rolodex/internal/logging"
	"github.com/rolodex-dev/rolodex/internal/store"
)

var (
	configFile string
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "rolo",
	Short: "Import device contacts and tag them with a language model",
	Long: `rolo reads a contact export, finds contacts that are new or changed since
the last import, asks a tagging service for short descriptive tags and keeps
contacts, tags and links in a local SQLite store.

Settings come from rolodex.toml (./ or ~/.rolodex/) and ROLO_* environment
variables. The tagging API key is resolved at start from ROLO_TAGGING_API_KEY,
a .env file, or the OS keyring (see 'rolo auth login').`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: ./rolodex.toml or ~/.rolodex/rolodex.toml)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress log output on the console")

	rootCmd.AddGroup(
		&cobra.Group{ID: "workflow", Title: "Import:"},
		&cobra.Group{ID: "inspect", Title: "Inspect:"},
		&cobra.Group{ID: "setup", Title: "Setup:"},
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// env bundles what most commands need: settings, the log sink and the store.
type env struct {
	cfg  *config.Config
	sink *logging.Sink
	db   *store.DB
}

func (e *env) Close() {
	if e.db != nil {
		_ = e.db.Close()
	}
	_ = e.sink.Close()
}

// mustLoadConfig loads settings or exits.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load(configFile)
	if err != nil {
		fatalf("failed to load config: %v", err)
	}
	return cfg
}

func openSink(cfg *config.Config) *logging.Sink {
	return logging.Open(logging.Options{
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Quiet:      quiet,
	})
}

// mustOpenEnv loads config, opens the log sink and opens and migrates the
// store. Any failure exits the process.
func mustOpenEnv(ctx context.Context) *env {
	cfg := mustLoadConfig()
	sink := openSink(cfg)

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		_ = sink.Close()
		fatalf("failed to open store: %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		_ = sink.Close()
		fatalf("failed to migrate store: %v", err)
	}
	return &env{cfg: cfg, sink: sink, db: db}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
