// Package commands implements the CLI commands for overture.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jander99/overture-sub000/internal/config"
	"github.com/jander99/overture-sub000/internal/errors"
	"github.com/jander99/overture-sub000/internal/logging"
	"github.com/jander99/overture-sub000/internal/paths"
)

// projectFlag holds the value of the --project flag.
var projectFlag string

// platformFlag overrides platform detection.
var platformFlag string

// verbosity holds the count of -v flags.
var verbosity int

// quiet holds the value of the -q/--quiet flag.
var quiet bool

// logFormat holds the value of the --log-format flag.
var logFormat string

func init() {
	rootCmd.PersistentFlags().StringVar(&projectFlag, "project", "",
		"project root to resolve project-scoped config (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&platformFlag, "platform", "",
		"override platform detection: darwin, linux, windows, wsl")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase verbosity level (e.g., -v, -vv)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"log format: text, json")

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

var rootCmd = &cobra.Command{
	Use:   "overture",
	Short: "Declarative MCP server configuration for your editor and CLI tools",
	Long: `overture keeps one declarative description of your MCP servers and
reconciles it against the native configuration files of Claude Code,
Cursor, and Codex.

Declare servers once in overture.yaml (user-wide or per project), then
sync: overture merges both scopes, decides per tool which servers apply,
translates each into the tool's native schema, and rewrites only what
changed — never touching configuration it does not manage.

Existing hand-written configuration can be pulled back in with
'overture import', which also converts embedded secrets into ${VAR}
placeholders so credentials never land in version-controlled YAML.`,
	Example: `  # Preview what a sync would change
  overture diff

  # Reconcile all tools
  overture sync

  # Fold existing native config into overture.yaml
  overture import

  # Inspect what is on disk
  overture detect`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := setupLogging(cmd); err != nil {
			return err
		}
		return validateFlags()
	},
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// setupLogging configures the default logger from the global flags.
func setupLogging(cmd *cobra.Command) error {
	if quiet && verbosity > 0 {
		return errors.NewUserError(
			errors.New("--quiet and --verbose are mutually exclusive"),
			"pass at most one of -q and -v")
	}

	v := verbosity
	if v == 0 {
		if val, ok := os.LookupEnv("OVERTURE_DEBUG"); ok && (val == "1" || val == "true") {
			v = 2
		}
	}
	slog.SetDefault(logging.FromFlags(v, quiet, logging.Format(logFormat), cmd.ErrOrStderr()))
	return nil
}

// validateFlags checks the global flag values.
func validateFlags() error {
	if platformFlag != "" && !paths.ValidPlatform(platformFlag) {
		err := errors.Newf("invalid platform %q", platformFlag)
		return errors.NewUserError(err, "valid platforms: darwin, linux, windows, wsl")
	}
	return nil
}

// Execute runs the root command and renders failures, returning the
// process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return errors.ExitSuccess
	}

	red := color.New(color.FgRed, color.Bold)
	fmt.Fprintf(os.Stderr, "%s %v\n", red.Sprint("error:"), err)

	var exitErr *errors.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Suggestion != "" {
			fmt.Fprintf(os.Stderr, "  %s\n", exitErr.Suggestion)
		}
		return exitErr.Code
	}

	var valErr *config.ValidationError
	if errors.As(err, &valErr) {
		for _, issue := range valErr.Issues {
			fmt.Fprintf(os.Stderr, "  %s\n", issue.Error())
		}
		return errors.ExitUser
	}

	return errors.ExitSystem
}
