package commands

import (
	"github.com/spf13/cobra"

	enginesync "github.com/jander99/overture-sub000/internal/sync"
)

var diffScope string

func init() {
	diffCmd.Flags().StringVar(&diffScope, "scope", "user",
		"which config file to compare against: user, project")
	rootCmd.AddCommand(diffCmd)
}

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show what a sync would change, without writing",
	Long: `Compute the same per-client change set a sync would apply and print
it. Nothing is written, locked, or backed up.`,
	RunE: runDiff,
}

func runDiff(cmd *cobra.Command, _ []string) error {
	merged, root, err := loadMerged()
	if err != nil {
		return err
	}
	reg, err := buildRegistry()
	if err != nil {
		return err
	}

	engine := enginesync.NewEngine(reg, newBackupManager(), currentPlatform(), root)
	report, err := engine.Sync(cmd.Context(), merged, enginesync.Options{
		DryRun: true,
		Scope:  diffScope,
	})
	if err != nil {
		return err
	}

	printSyncReport(cmd, report)
	return report.Err()
}
