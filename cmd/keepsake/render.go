package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"keepsake/internal/keepsake"

	humanize "github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

var (
	bold    = color.New(color.Bold).SprintFunc()
	green   = color.New(color.FgGreen).SprintFunc()
	yellow  = color.New(color.FgYellow).SprintFunc()
	cyan    = color.New(color.FgCyan).SprintFunc()
	faint   = color.New(color.Faint).SprintFunc()
	warnOut = color.New(color.FgYellow)
)

func warnf(format string, args ...any) {
	warnOut.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	fmt.Println(string(b))
	return nil
}

// progressBar renders pct (0-100) as a fixed-width bar.
func progressBar(pct int) string {
	const width = 20
	pct = max(0, min(pct, 100))
	filled := pct * width / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case pct >= 80:
		return green(bar)
	case pct >= 40:
		return yellow(bar)
	}
	return faint(bar)
}

func printBatch(verb string, results []keepsake.BatchResult) {
	ok := 0
	for _, r := range results {
		if r.Err != nil {
			warnf("%s %s: %v", verb, r.ID, r.Err)
			continue
		}
		ok++
	}
	fmt.Printf("%s %d of %d record(s)\n", verb, ok, len(results))
}

func printBackup(b keepsake.BackupRecord) {
	note := b.Note
	if b.RestoredBackupID != "" {
		note = fmt.Sprintf("%s (%s)", note, b.RestoredBackupID)
	}
	size := faint("-")
	if b.Snapshot() {
		size = humanize.IBytes(uint64(b.Size))
	}
	fmt.Printf("%s  %-10s  %s  %8s  %s\n",
		cyan(b.ID),
		b.Type,
		b.Timestamp.Local().Format("2006-01-02 15:04:05"),
		size,
		note,
	)
}
