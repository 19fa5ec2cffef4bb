package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jander99/overture-sub000/internal/backup"
	"github.com/jander99/overture-sub000/internal/errors"
)

func init() {
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupRestoreCmd)
	rootCmd.AddCommand(backupCmd)
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage the backups taken before every write",
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list <client>",
	Short: "List backups for a client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manifests, err := newBackupManager().List(args[0])
		if err != nil {
			if errors.Is(err, backup.ErrNoBackups) {
				fmt.Fprintln(cmd.OutOrStdout(), "no backups")
				return nil
			}
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCREATED\tFILES")
		for _, m := range manifests {
			fmt.Fprintf(w, "%s\t%s\t%d\n", m.ID, m.CreatedAt.Format("2006-01-02 15:04:05"), len(m.Files))
		}
		return w.Flush()
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <client> <id>",
	Short: "Restore a client's files from a backup",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newBackupManager().Restore(args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "restored %s from %s\n", args[0], args[1])
		return nil
	},
}
