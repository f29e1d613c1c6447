// Package cmd implements the releng command-line interface.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/relenghq/releng/internal/attach"
	"github.com/relenghq/releng/internal/config"
	"github.com/relenghq/releng/internal/fields"
	"github.com/relenghq/releng/internal/infrastructure/sqlite"
	"github.com/relenghq/releng/internal/log"
	"github.com/relenghq/releng/internal/release"
	"github.com/relenghq/releng/internal/search"
	"github.com/relenghq/releng/internal/telemetry"
	"github.com/relenghq/releng/internal/tracker/domain"
)

var (
	cfgFile      string
	storePath    string
	userName     string
	outputFormat string

	cfg             config.Config
	shutdownTracing telemetry.Shutdown
)

var rootCmd = &cobra.Command{
	Use:   "releng",
	Short: "Release version lifecycle and issue query tooling",
	Long: `releng manages release versions in the tracker store and runs
custom-field-aware issue queries: create and rename versions, delete a
version while migrating its issue and custom-field references to a
replacement, and search issues by project, fix version, type, resolution
and custom-field values.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
		if shutdownTracing != nil {
			return shutdownTracing(cmd.Context())
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.releng/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "tracker store database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&userName, "user", "", "acting user (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format: text or yaml")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}
	if storePath != "" {
		cfg.StorePath = storePath
	}
	if userName != "" {
		cfg.DefaultUser = userName
	}
	if outputFormat != "text" && outputFormat != "yaml" {
		return fmt.Errorf("output format %q is not supported (want text or yaml)", outputFormat)
	}

	log.Init(os.Stderr, logLevel(cfg.LogLevel))

	shutdownTracing, err = telemetry.Init(cmd.Context(), cfg.Telemetry)
	if err != nil {
		return err
	}
	return nil
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func actingUser() domain.User {
	return domain.User{Name: cfg.DefaultUser}
}

// app bundles the store and the services over it for one command run.
type app struct {
	db       *sqlite.DB
	store    *sqlite.Store
	resolver *fields.Resolver
	releases *release.Service
	searcher *search.Searcher
	attacher *attach.Service
}

func openApp() (*app, error) {
	db, err := sqlite.NewDB(cfg.StorePath)
	if err != nil {
		return nil, err
	}
	store := db.Store()
	resolver := fields.NewResolver(store)
	return &app{
		db:       db,
		store:    store,
		resolver: resolver,
		releases: release.NewService(store, store, store, resolver),
		searcher: search.NewSearcher(store, resolver),
		attacher: attach.NewService(store, store),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
