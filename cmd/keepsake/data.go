package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"keepsake/internal/app"
	"keepsake/internal/keepsake"

	"github.com/spf13/cobra"
)

// readInput returns the contents of file, or stdin when file is "" or "-".
func readInput(file string) ([]byte, error) {
	if file == "" || file == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(file)
}

// decodeDocuments accepts a single JSON object or an array of objects.
func decodeDocuments(raw []byte) ([]keepsake.Document, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var docs []keepsake.Document
		if err := json.Unmarshal(raw, &docs); err != nil {
			return nil, false, fmt.Errorf("decoding records: %w", err)
		}
		return docs, true, nil
	}
	var doc keepsake.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false, fmt.Errorf("decoding record: %w", err)
	}
	return []keepsake.Document{doc}, false, nil
}

// save command
var saveCmd = &cobra.Command{
	Use:   "save KIND",
	Short: "Save a record (or an array of records) read as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		kind, err := keepsake.ParseKind(args[0])
		if err != nil {
			return err
		}
		raw, err := readInput(file)
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		docs, batch, err := decodeDocuments(raw)
		if err != nil {
			return err
		}

		return withApp("Save", func(a *app.App) error {
			a.MarkMutating(kind.String())
			if batch {
				results, err := a.Manager().SaveBatch(kind, docs)
				if err != nil {
					return err
				}
				printBatch("Saved", results)
				return nil
			}
			id, err := a.Manager().Save(kind, docs[0])
			if err != nil {
				return err
			}
			fmt.Println(id)
			return nil
		})
	},
}

// get command
var getCmd = &cobra.Command{
	Use:   "get KIND [ID]",
	Short: "Print all records of a kind, or one record",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := keepsake.ParseKind(args[0])
		if err != nil {
			return err
		}
		return withApp("Get", func(a *app.App) error {
			if len(args) == 2 {
				doc, err := a.Manager().Get(kind, args[1])
				if err != nil {
					return err
				}
				return printJSON(doc)
			}
			docs, err := a.Manager().List(kind)
			if err != nil {
				return err
			}
			return printJSON(docs)
		})
	},
}

// update command
var updateCmd = &cobra.Command{
	Use:   "update KIND ID",
	Short: "Merge JSON fields into a record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		kind, err := keepsake.ParseKind(args[0])
		if err != nil {
			return err
		}
		raw, err := readInput(file)
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		var fields keepsake.Fields
		if err := json.Unmarshal(raw, &fields); err != nil {
			return fmt.Errorf("decoding fields: %w", err)
		}

		return withApp("Update", func(a *app.App) error {
			a.MarkMutating(kind.String() + " " + args[1])
			if err := a.Manager().Update(kind, args[1], fields); err != nil {
				return err
			}
			fmt.Printf("Updated %s %s\n", kind, args[1])
			return nil
		})
	},
}

// delete command
var deleteCmd = &cobra.Command{
	Use:   "delete KIND ID...",
	Short: "Delete records by id",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := keepsake.ParseKind(args[0])
		if err != nil {
			return err
		}
		ids := args[1:]
		return withApp("Delete", func(a *app.App) error {
			a.MarkMutating(kind.String() + " " + strings.Join(ids, " "))
			results, err := a.Manager().DeleteBatch(kind, ids)
			if err != nil {
				return err
			}
			printBatch("Deleted", results)
			return nil
		})
	},
}

// search command
var searchCmd = &cobra.Command{
	Use:   "search KIND QUERY",
	Short: "Find records whose fields contain QUERY (case-insensitive)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, _ := cmd.Flags().GetStringSlice("field")
		kind, err := keepsake.ParseKind(args[0])
		if err != nil {
			return err
		}
		return withApp("Search", func(a *app.App) error {
			docs, err := a.Manager().Search(kind, args[1], fields...)
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				fmt.Println("No matching records.")
				return nil
			}
			return printJSON(docs)
		})
	},
}

// stats command
var statsCmd = &cobra.Command{
	Use:   "stats [KIND]",
	Short: "Show collection statistics",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp("Statistics", func(a *app.App) error {
			if len(args) == 0 {
				return printJSON(a.Manager().AllStatistics())
			}
			kind, err := keepsake.ParseKind(args[0])
			if err != nil {
				return err
			}
			st, err := a.Manager().Statistics(kind)
			if err != nil {
				return err
			}
			return printJSON(st)
		})
	},
}

func init() {
	saveCmd.Flags().StringP("file", "f", "", "Read JSON from file instead of stdin")
	updateCmd.Flags().StringP("file", "f", "", "Read JSON fields from file instead of stdin")
	searchCmd.Flags().StringSlice("field", nil, "Restrict the search to these fields (dot paths allowed)")

	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(statsCmd)
}
