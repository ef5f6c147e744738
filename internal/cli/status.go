package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statusManifest string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what a sync would do, without mutating anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := loadModel(statusManifest)
		if err != nil {
			return err
		}

		eng, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		plan, err := eng.Plan(context.Background(), root)
		if err != nil {
			return err
		}

		PrintSection("Plan")
		PrintLabelValue("Root", root.Location)
		PrintLabelValue("Decouple", fmt.Sprintf("%d", len(plan.Decouple)))
		PrintLabelValue("Update", fmt.Sprintf("%d", len(plan.Update)))
		PrintLabelValue("Materialize", fmt.Sprintf("%d", len(plan.Materialize)))

		if len(plan.Decouple) > 0 {
			PrintSection("Stale projects")
			var names []string
			for _, p := range plan.Decouple {
				names = append(names, p.Name)
			}
			PrintList(names)
		}
		if len(plan.Materialize) > 0 {
			PrintSection("Projects to create or import")
			var names []string
			for _, p := range plan.Materialize {
				names = append(names, fmt.Sprintf("%s (%s)", p.Name, p.Location))
			}
			PrintList(names)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVarP(&statusManifest, "manifest", "m", "buildsync.yaml", "path of the build manifest")
}
