package commands

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jander99/overture-sub000/internal/diff"
	"github.com/jander99/overture-sub000/internal/errors"
	"github.com/jander99/overture-sub000/internal/plugin"
	"github.com/jander99/overture-sub000/internal/runner"
	enginesync "github.com/jander99/overture-sub000/internal/sync"
)

var (
	syncDryRun  bool
	syncClients []string
	syncTimeout time.Duration
	syncScope   string
	syncPlugins bool
)

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false,
		"show what would change without writing")
	syncCmd.Flags().StringSliceVar(&syncClients, "client", nil,
		"restrict to specific clients (claude-code, cursor, codex)")
	syncCmd.Flags().DurationVar(&syncTimeout, "timeout", enginesync.DefaultLockTimeout,
		"how long to wait for a contended lock")
	syncCmd.Flags().StringVar(&syncScope, "scope", "user",
		"which config file to write: user, project")
	syncCmd.Flags().BoolVar(&syncPlugins, "plugins", false,
		"also install declared plugins after syncing")
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile declared servers into every tool's native config",
	Long: `Merge the user and project configs, then for each client: filter the
applicable servers, translate them to the client's native schema, diff
against what is on disk, and rewrite the file only when something
changed. Existing files are backed up first; servers overture does not
manage are left untouched.

One client's failure never blocks the others: the run reports per-client
results and exits non-zero only if at least one client failed.`,
	Example: `  # Reconcile everything
  overture sync

  # Preview only
  overture sync --dry-run

  # Just Cursor, writing the project-scoped file
  overture sync --client cursor --scope project`,
	RunE: runSync,
}

func runSync(cmd *cobra.Command, _ []string) error {
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
		DryRun:  syncDryRun,
		Clients: syncClients,
		Timeout: syncTimeout,
		Scope:   syncScope,
	})
	if err != nil {
		return err
	}

	printSyncReport(cmd, report)

	if err := report.Err(); err != nil {
		return errors.NewExitError(err, errors.ExitSystem)
	}

	if syncPlugins && len(merged.Plugins) > 0 && !syncDryRun {
		installer := plugin.NewInstaller(runner.NewExecRunner(), nil)
		if _, err := installer.InstallAll(cmd.Context(), merged.Plugins); err != nil {
			return errors.NewExitError(err, errors.ExitSystem)
		}
	}
	return nil
}

// printSyncReport renders per-client outcomes.
func printSyncReport(cmd *cobra.Command, report *enginesync.Report) {
	out := cmd.OutOrStdout()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	for _, res := range report.Results {
		switch {
		case res.Err != nil:
			fmt.Fprintf(out, "%s %s: %v\n", red("✗"), res.Client, res.Err)
		case res.Diff == nil || !res.Diff.HasChanges():
			fmt.Fprintf(out, "%s %s: up to date\n", green("✓"), res.Client)
		case report.DryRun:
			fmt.Fprintf(out, "%s %s: would change (%s)\n", yellow("~"), res.Client, res.Diff)
			printDiffDetail(cmd, res.Diff)
		default:
			fmt.Fprintf(out, "%s %s: written (%s)\n", green("✓"), res.Client, res.Diff)
		}
	}
}

// printDiffDetail renders a change set one server per line.
func printDiffDetail(cmd *cobra.Command, d *diff.Result) {
	out := cmd.OutOrStdout()
	for _, name := range d.Added {
		fmt.Fprintf(out, "    + %s\n", name)
	}
	for _, name := range d.Removed {
		fmt.Fprintf(out, "    - %s\n", name)
	}
	for _, mod := range d.Modified {
		fmt.Fprintf(out, "    ~ %s\n", mod.Name)
		for _, f := range mod.Fields {
			fmt.Fprintf(out, "        %s: %s -> %s\n", f.Field, f.Old, f.New)
		}
	}
}
