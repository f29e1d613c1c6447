package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/relenghq/releng/internal/log"
)

var watchCmd = &cobra.Command{
	Use:   "watch <project> <version> [version...]",
	Short: "Re-run the released-issues search whenever the store changes",
	Long: `Watch the tracker store file and re-run the released-issues search
for the given project and versions after each change, debounced per the
watch_debounce config setting. Stops on interrupt.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	project, err := a.releases.Project(args[0])
	if err != nil {
		return err
	}
	versions, err := resolveVersions(a, *project, args[1:])
	if err != nil {
		return err
	}

	run := func() error {
		issues, err := a.searcher.FindReleasedIssuesIn(cmd.Context(), actingUser(), *project, versions)
		if err != nil {
			return err
		}
		fmt.Printf("--- %s\n", time.Now().Format(time.TimeOnly))
		return printIssues(issues)
	}
	if err := run(); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting store watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory: SQLite writes through WAL side files and
	// renames, so watching the db file alone misses changes.
	storeDir := filepath.Dir(cfg.StorePath)
	if err := watcher.Add(storeDir); err != nil {
		return fmt.Errorf("watching %s: %w", storeDir, err)
	}
	log.Info(log.CatCLI, "watching store", "dir", storeDir, "debounce", cfg.WatchDebounce)

	var debounce *time.Timer
	rerun := make(chan struct{}, 1)
	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Dir(event.Name) != storeDir {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(cfg.WatchDebounce, func() {
				select {
				case rerun <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.ErrorErr(log.CatCLI, "store watcher error", err)
		case <-rerun:
			if err := run(); err != nil {
				return err
			}
		}
	}
}
