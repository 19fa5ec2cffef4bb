package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jander99/overture-sub000/internal/config"
	"github.com/jander99/overture-sub000/internal/errors"
	"github.com/jander99/overture-sub000/internal/paths"
	"github.com/jander99/overture-sub000/pkg/fileutil"
)

func init() {
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the canonical configuration files",
	Long: `Load and validate the user and project overture.yaml files against
the schema, reporting every issue with its exact path and a fix
suggestion. Deprecated syntax is reported first.`,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, _ []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	userPath := paths.UserConfigPath()

	out := cmd.OutOrStdout()
	green := color.New(color.FgGreen).SprintFunc()

	checked := 0
	for _, path := range []string{userPath, paths.ProjectConfigPath(root)} {
		if !fileutil.FileExists(path) {
			continue
		}
		checked++
		if _, err := config.Load(path); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s\n", green("✓"), path)
	}

	if checked == 0 {
		return errors.NewUserError(errors.ErrNoConfig,
			"create "+userPath+" or a project overture.yaml first")
	}
	return nil
}
