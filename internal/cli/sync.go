package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwpark/buildsync/internal/engine"
)

var syncManifest string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the workspace with a build manifest",
	Long: `Load the build manifest, classify every project (stale, matched, missing)
and converge the workspace: stale projects are decoupled, matched projects
are updated in place, missing projects are created or imported.

A second sync over unchanged inputs is a no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := loadModel(syncManifest)
		if err != nil {
			return err
		}

		eng, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		req := &engine.SyncRequest{
			Root: root,
			Progress: func(done, total int, name string) {
				fmt.Printf("  [%d/%d] %s\n", done, total, name)
			},
		}

		result, err := eng.Sync(context.Background(), req)
		if result != nil {
			printSummary(result)
		}
		if err != nil {
			return err
		}
		if result.HasFailures() {
			return fmt.Errorf("%d project(s) failed to sync", len(result.Failed()))
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().StringVarP(&syncManifest, "manifest", "m", "buildsync.yaml", "path of the build manifest")
}
