package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jander99/overture-sub000/internal/config"
	"github.com/jander99/overture-sub000/internal/discovery"
	"github.com/jander99/overture-sub000/internal/errors"
	"github.com/jander99/overture-sub000/internal/paths"
)

var (
	importYes   bool
	importScope string
)

func init() {
	importCmd.Flags().BoolVarP(&importYes, "yes", "y", false,
		"import everything importable without prompting")
	importCmd.Flags().StringVar(&importScope, "scope", "user",
		"where to declare imported servers: user, project")
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Fold existing native MCP configuration into overture.yaml",
	Long: `Scan every client's native files (including directory-scoped override
sections), subtract servers overture already manages, and append the
rest to the declarative config.

Names found with conflicting definitions across tools are reported and
skipped; resolve them by hand. Env values that look like credentials are
rewritten to ${VAR} placeholders so no secret lands in the YAML — the
variables you still need to export are listed at the end.`,
	Example: `  # Interactive multi-select
  overture import

  # Take everything, e.g. in scripts
  overture import --yes

  # Declare into the project's overture.yaml
  overture import --scope project`,
	RunE: runImport,
}

func runImport(cmd *cobra.Command, _ []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	reg, err := buildRegistry()
	if err != nil {
		return err
	}

	declared := map[string]struct{}{}
	if merged, _, err := loadMerged(); err == nil {
		declared = managedNames(merged)
	}

	scanner := discovery.NewScanner(reg, currentPlatform(), root)
	report, err := scanner.Scan(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	yellow := color.New(color.FgYellow).SprintFunc()

	for _, conflict := range report.Conflicts {
		fmt.Fprintf(out, "%s %s has conflicting definitions and was skipped:\n",
			yellow("!"), conflict.Name)
		for _, entry := range conflict.Entries {
			fmt.Fprintf(out, "    %s: %s\n", entry.Source.Location, entry.Command)
		}
	}

	importable := discovery.Importable(report, declared)
	if len(importable) == 0 {
		fmt.Fprintln(out, "nothing to import")
		return nil
	}

	selection, err := selectMcps(importable)
	if err != nil {
		return err
	}
	if len(selection) == 0 {
		fmt.Fprintln(out, "nothing selected")
		return nil
	}

	targetPath := importTargetPath(root)
	cfg, err := config.LoadOptional(targetPath)
	if err != nil {
		return err
	}
	if cfg == nil {
		cfg = &config.DeclaredConfig{Version: "1"}
	}

	if err := discovery.Import(cfg, selection); err != nil {
		return err
	}
	if err := config.Save(targetPath, cfg); err != nil {
		return err
	}

	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(out, "%s imported %d server(s) into %s\n", green("✓"), len(selection), targetPath)

	var envVars []string
	for _, d := range selection {
		envVars = append(envVars, d.EnvVarsToSet...)
	}
	if len(envVars) > 0 {
		fmt.Fprintln(out, "\nSet these environment variables before the servers can run:")
		for _, name := range envVars {
			fmt.Fprintf(out, "  export %s=...\n", name)
		}
	}
	return nil
}

// selectMcps picks which discoveries to import: everything with --yes,
// interactive multi-select on a terminal, and an error otherwise.
func selectMcps(importable []discovery.DiscoveredMcp) ([]discovery.DiscoveredMcp, error) {
	if importYes {
		return importable, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.NewUserError(
			errors.New("interactive selection needs a terminal"),
			"use --yes to import everything")
	}

	indexes, err := fuzzyfinder.FindMulti(
		importable,
		func(i int) string {
			d := importable[i]
			return fmt.Sprintf("%s  (%s, %s)", d.Name, d.Command, d.Source.Location)
		},
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "selecting servers")
	}

	selection := make([]discovery.DiscoveredMcp, 0, len(indexes))
	for _, i := range indexes {
		selection = append(selection, importable[i])
	}
	return selection, nil
}

// importTargetPath resolves where imported declarations land.
func importTargetPath(root string) string {
	if importScope == "project" {
		return paths.ProjectConfigPath(root)
	}
	return paths.UserConfigPath()
}
