package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jander99/overture-sub000/internal/cleanup"
	"github.com/jander99/overture-sub000/internal/config"
	"github.com/jander99/overture-sub000/internal/paths"
)

var cleanupDryRun bool

func init() {
	cleanupCmd.Flags().BoolVar(&cleanupDryRun, "dry-run", false,
		"report what would be removed without writing")
	rootCmd.AddCommand(cleanupCmd)
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove directory-scoped entries that overture now manages",
	Long: `Find directory-scoped override sections whose entries duplicate
servers declared by that directory's own overture.yaml, and remove the
duplicates from the native store. Entries overture does not manage stay
untouched, and the affected file is backed up first.`,
	RunE: runCleanup,
}

func runCleanup(cmd *cobra.Command, _ []string) error {
	reg, err := buildRegistry()
	if err != nil {
		return err
	}

	global, err := config.LoadOptional(paths.UserConfigPath())
	if err != nil {
		return err
	}

	engine := cleanup.NewEngine(reg, newBackupManager(), currentPlatform(), nil)
	targets, err := engine.FindTargets(global)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(targets) == 0 {
		fmt.Fprintln(out, "nothing to clean up")
		return nil
	}

	for _, target := range targets {
		fmt.Fprintf(out, "%s %s:\n", target.Client, target.Directory)
		for _, name := range target.McpsToRemove {
			fmt.Fprintf(out, "    - %s\n", name)
		}
		for _, name := range target.McpsToPreserve {
			fmt.Fprintf(out, "    keep %s\n", name)
		}
	}

	result, err := engine.Execute(cmd.Context(), targets, cleanupDryRun)
	if err != nil {
		return err
	}

	verb := "cleaned"
	if cleanupDryRun {
		verb = "would clean"
	}
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(out, "%s %s %d directories: %d removed, %d preserved\n",
		green("✓"), verb, result.DirectoriesCleaned, result.McpsRemoved, result.McpsPreserved)
	return nil
}
