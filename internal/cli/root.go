package cli

import (
	"github.com/spf13/cobra"
)

// rootCmd is the root command for buildsync.
var rootCmd = &cobra.Command{
	Use:     "buildsync",
	Version: "dev",
	Short:   "Reconcile build models with the workspace",
	Long: `buildsync keeps a workspace of managed projects in step with an externally
computed build model.

Given a build manifest it decides, per project, whether to decouple, create,
import or update, and applies only the minimal mutations needed to converge.
It never touches projects it does not own.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// SetVersion overrides the version reported by the root command.
func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(decoupleCmd)
	rootCmd.AddCommand(watchCmd)
}
