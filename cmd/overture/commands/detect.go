package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jander99/overture-sub000/internal/detect"
	"github.com/jander99/overture-sub000/internal/logging"
)

var detectJSON bool

func init() {
	detectCmd.Flags().BoolVar(&detectJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(detectCmd)
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Scan installed tools and their MCP configuration",
	Long: `Read-only scan of every known client: whether the tool is installed,
which native config files exist, and how their server entries relate to
the declared configuration (managed, unmanaged, conflicting). Nothing is
modified.`,
	RunE: runDetect,
}

func runDetect(cmd *cobra.Command, _ []string) error {
	merged, root, err := loadMerged()
	declared := map[string]struct{}{}
	if err == nil {
		declared = managedNames(merged)
	} else {
		// A scan is useful even without a declared config.
		root, err = projectRoot()
		if err != nil {
			return err
		}
	}

	reg, err := buildRegistry()
	if err != nil {
		return err
	}

	scanner := detect.NewScanner(reg, logging.NewDiscard())
	report, err := scanner.Scan(cmd.Context(), currentPlatform(), root, declared)
	if err != nil {
		return err
	}

	if detectJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CLIENT\tINSTALLED\tPATH\tSERVERS")
	for _, c := range report.Clients {
		for i, p := range c.Paths {
			name := ""
			installed := ""
			if i == 0 {
				name = c.Client
				installed = fmt.Sprintf("%t", c.Installed)
			}
			detail := fmt.Sprintf("%d", len(p.Servers))
			if p.ParseError != "" {
				detail = "parse error"
			} else if !p.Exists {
				detail = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, installed, p.Path, detail)
		}
	}
	w.Flush()

	s := report.Summary
	fmt.Fprintf(cmd.OutOrStdout(),
		"\n%d clients scanned, %d distinct servers (%d managed, %d unmanaged, %d conflicting), %d parse errors\n",
		s.ClientsScanned, s.DistinctServers, s.Managed, s.Unmanaged, s.Conflicting, s.ParseErrors)
	return nil
}
