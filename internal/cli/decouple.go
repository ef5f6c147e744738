package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var decoupleCmd = &cobra.Command{
	Use:   "decouple <root-location>",
	Short: "Remove all sync marks from the managed projects of a build root",
	Long: `Remove the managed nature, folder marks and sync records from every
project owned by the given build root. The projects themselves stay in the
workspace and on disk.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootLocation, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve root location: %w", err)
		}

		eng, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := eng.Decouple(context.Background(), rootLocation)
		if result != nil {
			printSummary(result)
		}
		if err != nil {
			return err
		}
		if len(result.Outcomes) == 0 {
			PrintWarning("no managed projects found for this root")
		}
		return nil
	},
}
