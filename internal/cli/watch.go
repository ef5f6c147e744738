package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/mwpark/buildsync/internal/engine"
)

var (
	watchManifest string
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the sync whenever the build manifest changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := runSyncOnce(eng); err != nil {
			PrintError(err.Error())
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		defer watcher.Close()

		// Watch the directory: editors replace files on save, which drops
		// a watch registered on the file itself.
		dir := filepath.Dir(watchManifest)
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}

		manifestAbs, err := filepath.Abs(watchManifest)
		if err != nil {
			return fmt.Errorf("failed to resolve manifest path: %w", err)
		}

		PrintSuccess(fmt.Sprintf("watching %s", manifestAbs))

		return watchLoop(watcher.Events, watcher.Errors, manifestAbs, watchDebounce, func() {
			if err := runSyncOnce(eng); err != nil {
				PrintError(err.Error())
			}
		})
	},
}

// watchLoop drains filesystem events and runs the sync after a quiet
// period. The debounce timer fires into the same select that handles
// events, so runs never overlap: a save landing during a long sync stays
// queued and schedules exactly one follow-up run.
func watchLoop(events <-chan fsnotify.Event, errs <-chan error, manifest string, debounce time.Duration, run func()) error {
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || abs != manifest {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)

		case <-timer.C:
			run()

		case err, ok := <-errs:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			PrintError(fmt.Sprintf("watch error: %v", err))
		}
	}
}

func runSyncOnce(eng *engine.Engine) error {
	root, err := loadModel(watchManifest)
	if err != nil {
		return err
	}
	result, err := eng.Sync(context.Background(), &engine.SyncRequest{Root: root})
	if result != nil {
		printSummary(result)
	}
	return err
}

func init() {
	watchCmd.Flags().StringVarP(&watchManifest, "manifest", "m", "buildsync.yaml", "path of the build manifest")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "delay before re-syncing after a change")
}
