package cli

import (
	"fmt"

	"github.com/mwpark/buildsync/internal/clock"
	"github.com/mwpark/buildsync/internal/config"
	"github.com/mwpark/buildsync/internal/engine"
	"github.com/mwpark/buildsync/internal/fsops"
	"github.com/mwpark/buildsync/internal/javax"
	"github.com/mwpark/buildsync/internal/model"
	"github.com/mwpark/buildsync/internal/settings"
	"github.com/mwpark/buildsync/internal/workspace"
)

// newEngine creates an engine wired with the disk-backed implementations of
// all capabilities. The returned cleanup must run when the command is done.
func newEngine() (*engine.Engine, func(), error) {
	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get config paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	fs := fsops.NewRealFS()
	settingsStore, err := settings.OpenSQLiteStore(paths.SettingsDB)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open settings store: %w", err)
	}

	ws := workspace.NewDiskStore(fs, paths.Registry)
	java := javax.NewDiskService(fs, paths.Java)
	clk := &clock.RealClock{}

	eng := engine.New(ws, settingsStore, java, fs, clk)
	cleanup := func() { _ = settingsStore.Close() }
	return eng, cleanup, nil
}

// loadModel reads the desired tree from a build manifest.
func loadModel(manifestPath string) (*model.Project, error) {
	root, err := model.LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	return root, nil
}

// printSummary renders the partial-success summary of a sync run.
func printSummary(result *engine.SyncResult) {
	if decoupled := result.Decoupled(); len(decoupled) > 0 {
		PrintSection("Decoupled")
		for _, o := range decoupled {
			PrintSuccess(o.Name)
		}
	}
	if converged := result.Converged(); len(converged) > 0 {
		PrintSection("Converged")
		for _, o := range converged {
			PrintSuccess(fmt.Sprintf("%s (%s)", o.Name, o.Location))
		}
	}
	if skipped := result.Skipped(); len(skipped) > 0 {
		PrintSection("Skipped")
		for _, o := range skipped {
			PrintWarning(fmt.Sprintf("%s: %s", o.Name, o.Reason))
		}
	}
	if failed := result.Failed(); len(failed) > 0 {
		PrintSection("Failed")
		for _, o := range failed {
			PrintError(fmt.Sprintf("%s: %v", o.Name, o.Err))
		}
	}
}
