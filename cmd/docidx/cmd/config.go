package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docidx/docidx/internal/config"
	"github.com/docidx/docidx/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and manage the user-level configuration file",
	}

	cmd.AddCommand(newConfigBackupCmd())
	cmd.AddCommand(newConfigListBackupsCmd())
	cmd.AddCommand(newConfigRestoreCmd())

	return cmd
}

func newConfigBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Back up the user config file, pruning beyond the most recent backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.BackupUserConfig()
			if err != nil {
				return fmt.Errorf("backing up config: %w", err)
			}

			out := output.New(cmd.OutOrStdout())
			if path == "" {
				out.Statusf("", "no user config file to back up")
				return nil
			}
			out.Statusf("", "backed up config to %s", path)
			return nil
		},
	}
}

func newConfigListBackupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-backups",
		Short: "List the user config file's backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backups, err := config.ListUserConfigBackups()
			if err != nil {
				return fmt.Errorf("listing config backups: %w", err)
			}

			out := output.New(cmd.OutOrStdout())
			if len(backups) == 0 {
				out.Statusf("", "no config backups found")
				return nil
			}
			for _, path := range backups {
				out.Statusf("", "%s", path)
			}
			return nil
		},
	}
}

func newConfigRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backup-path>",
		Short: "Restore the user config file from a backup, backing up the current file first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.RestoreUserConfig(args[0]); err != nil {
				return fmt.Errorf("restoring config: %w", err)
			}

			out := output.New(cmd.OutOrStdout())
			out.Statusf("", "restored config from %s", args[0])
			return nil
		},
	}
}
