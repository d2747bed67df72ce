package main

import (
	"fmt"
	"slices"
	"strings"

	"keepsake/internal/app"
	"keepsake/internal/keepsake"

	"github.com/spf13/cobra"
)

// export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export data to a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		kindNames, _ := cmd.Flags().GetStringSlice("kind")
		output, _ := cmd.Flags().GetString("output")
		encrypt, _ := cmd.Flags().GetBool("encrypt")

		return withApp("Export", func(a *app.App) error {
			opts, err := a.ExportOptions()
			if err != nil {
				return err
			}
			for _, name := range kindNames {
				k, err := keepsake.ParseKind(name)
				if err != nil {
					return err
				}
				opts.Kinds = append(opts.Kinds, k)
			}
			if cmd.Flags().Changed("format") {
				format, _ := cmd.Flags().GetString("format")
				if opts.Format, err = keepsake.ParseExportFormat(format); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("no-photos") {
				opts.OmitPhotos, _ = cmd.Flags().GetBool("no-photos")
			}
			if cmd.Flags().Changed("pretty") {
				opts.Indent, _ = cmd.Flags().GetBool("pretty")
			}

			path, res, err := a.ExportToFile(output, opts, encrypt)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(res.Kinds))
			for _, k := range res.Kinds {
				names = append(names, k.String())
			}
			fmt.Printf("Exported %s to %s\n", strings.Join(names, ", "), path)
			return nil
		})
	},
}

// import command
var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import an export file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts keepsake.ImportOptions
		opts.Merge, _ = cmd.Flags().GetBool("merge")
		opts.Overwrite, _ = cmd.Flags().GetBool("overwrite")
		opts.SkipBackup, _ = cmd.Flags().GetBool("no-backup")

		if opts.Mode() == keepsake.ImportOverwrite {
			if err := confirm(cmd, "Replace local data with the contents of "+args[0]+"?"); err != nil {
				return err
			}
		}

		return withApp("Import", func(a *app.App) error {
			passphrase := func() (string, error) { return readPassphrase("Passphrase: ") }
			res, err := a.ImportFromFile(args[0], opts, passphrase)
			if err != nil {
				return err
			}
			printImportResult(res)
			return nil
		})
	},
}

func printImportResult(res *keepsake.ImportResult) {
	names := make([]string, 0, len(res.Results))
	for name := range res.Results {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		r := res.Results[name]
		switch r.Action {
		case keepsake.ActionMerge:
			fmt.Printf("  %-22s %s  %d local + %d new = %d\n", name, cyan("merge"), r.ExistingCount, r.NewCount, r.FinalCount)
		case keepsake.ActionOverwrite:
			fmt.Printf("  %-22s %s  %d record(s)\n", name, yellow("overwrite"), r.Count)
		default:
			fmt.Printf("  %-22s %s  %s\n", name, faint("skip"), r.Reason)
		}
	}
	for _, w := range res.Warnings {
		warnf("%s", w)
	}
	if res.BackupID != "" {
		fmt.Printf("Previous data saved as backup %s\n", res.BackupID)
	}
}

func init() {
	exportCmd.Flags().StringSlice("kind", nil, "Kinds to export (default: all)")
	exportCmd.Flags().String("format", "json", "Export format: json or text")
	exportCmd.Flags().Bool("no-photos", false, "Replace embedded photos with a placeholder")
	exportCmd.Flags().Bool("pretty", false, "Indent JSON output")
	exportCmd.Flags().Bool("encrypt", false, "Encrypt the file with the configured public key")
	exportCmd.Flags().StringP("output", "o", "", "Output file or directory (default: generated name in the current directory)")

	importCmd.Flags().Bool("merge", false, "Add imported records, keeping local ones on conflict")
	importCmd.Flags().Bool("overwrite", false, "Replace local data with the imported data")
	importCmd.Flags().Bool("no-backup", false, "Do not snapshot local data before importing")
	addYesFlag(importCmd)

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
