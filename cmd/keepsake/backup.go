package main

import (
	"fmt"

	"keepsake/internal/app"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage backup snapshots",
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Snapshot all data into the backup history",
	RunE: func(cmd *cobra.Command, args []string) error {
		note, _ := cmd.Flags().GetString("note")
		return withApp("CreateBackup", func(a *app.App) error {
			a.MarkMutating(note)
			rec, err := a.Manager().CreateBackup(note)
			if err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}
			fmt.Printf("Backup %s created (%s)\n", rec.ID, humanize.IBytes(uint64(rec.Size)))
			return nil
		})
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "View backup history, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp("ListBackups", func(a *app.App) error {
			history := a.Manager().History()
			if len(history) == 0 {
				fmt.Println("No backups recorded.")
				return nil
			}
			for _, b := range history {
				printBackup(b)
			}
			return nil
		})
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore ID",
	Short: "Replace current data with a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := confirm(cmd, "Replace current data with backup "+args[0]+"?"); err != nil {
			return err
		}
		return withApp("RestoreBackup", func(a *app.App) error {
			a.MarkMutating(args[0])
			res, err := a.Manager().RestoreBackup(args[0])
			if err != nil {
				return err
			}
			printImportResult(res)
			fmt.Printf("Restored backup %s\n", args[0])
			return nil
		})
	},
}

// clear command
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all data (a backup is taken first)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := confirm(cmd, "Delete all data?"); err != nil {
			return err
		}
		return withApp("ClearAll", func(a *app.App) error {
			a.MarkMutating("")
			id, err := a.Manager().ClearAll()
			if err != nil {
				return err
			}
			fmt.Printf("All data cleared. Undo with: keepsake backup restore %s\n", id)
			return nil
		})
	},
}

// usage command
var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show stored bytes per key and check the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp("StorageUsage", func(a *app.App) error {
			u := a.Manager().StorageUsage()
			for _, k := range u.Keys {
				fmt.Printf("  %-28s %10s\n", k.Key, k.Human)
			}
			fmt.Printf("  %-28s %10s\n", bold("total"), bold(u.TotalHuman))
			fmt.Printf("Schema version %s\n", a.Manager().Migrator().Current().Version)

			if err := a.Manager().TestStorage(); err != nil {
				warnf("persistent storage check failed: %v", err)
				return nil
			}
			fmt.Println(green("Persistent storage OK"))
			return nil
		})
	},
}

func init() {
	backupCreateCmd.Flags().StringP("note", "m", "", "Note stored with the backup")
	addYesFlag(backupRestoreCmd)
	addYesFlag(clearCmd)

	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupRestoreCmd)

	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(usageCmd)
}
