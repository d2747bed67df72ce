package keepsake

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// ImportMode is how imported data combines with local data.
type ImportMode int

const (
	// ImportSkip leaves every collection untouched.
	ImportSkip ImportMode = iota
	// ImportMerge unions by id; local records win on conflict.
	ImportMerge
	// ImportOverwrite replaces each imported collection wholesale.
	ImportOverwrite
)

func (m ImportMode) String() string {
	switch m {
	case ImportMerge:
		return "merge"
	case ImportOverwrite:
		return "overwrite"
	}
	return "skip"
}

// ImportOptions controls Import. With neither Merge nor Overwrite set the
// import is a no-op that reports every kind as skipped. Overwrite wins when
// both are set.
type ImportOptions struct {
	Merge     bool
	Overwrite bool
	// SkipBackup disables the snapshot taken before anything is written.
	SkipBackup bool
}

// Mode resolves the flags to a single ImportMode.
func (o ImportOptions) Mode() ImportMode {
	switch {
	case o.Overwrite:
		return ImportOverwrite
	case o.Merge:
		return ImportMerge
	}
	return ImportSkip
}

// ImportAction is what happened to one kind during an import.
type ImportAction string

const (
	ActionOverwrite ImportAction = "overwrite"
	ActionMerge     ImportAction = "merge"
	ActionSkip      ImportAction = "skip"
)

// KindImportResult reports the outcome for one kind.
type KindImportResult struct {
	Action        ImportAction `json:"action"`
	Count         int          `json:"count,omitempty"`
	ExistingCount int          `json:"existingCount,omitempty"`
	ImportedCount int          `json:"importedCount,omitempty"`
	NewCount      int          `json:"newCount,omitempty"`
	FinalCount    int          `json:"finalCount,omitempty"`
	Reason        string       `json:"reason,omitempty"`
}

// ImportResult reports the outcome of an import.
type ImportResult struct {
	Results map[string]KindImportResult `json:"results"`
	// Imported is the number of records read per kind.
	Imported map[string]int `json:"imported"`
	// Warnings lists kinds that were present but not importable.
	Warnings []string `json:"warnings,omitempty"`
	// BackupID is the snapshot taken before the import, if any.
	BackupID string `json:"backupId,omitempty"`
}

// stagedImport is one kind's parsed import data, ready to be written.
type stagedImport interface {
	apply(mode ImportMode) (KindImportResult, error)
	count() int
}

func (ci *collectionImport[T, P]) count() int { return len(ci.items) }

func (si *singletonImport[T, P]) count() int { return 1 }

// errEmptyImport marks a singleton entry whose value is null or empty.
var errEmptyImport = errors.New("no value")

type stagedKind struct {
	kind   Kind
	staged stagedImport
}

// ImportBytes parses raw as an export document and imports it.
func (m *Manager) ImportBytes(raw []byte, opts ImportOptions) (*ImportResult, error) {
	doc, err := ParseDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing import: %w", err)
	}
	return m.Import(doc, opts)
}

// Import applies an export document. Every kind is parsed before anything is
// written, so a malformed entry fails the import with no changes. Unknown
// kinds, the backup history and list kinds whose data is not an array are
// skipped with a warning. Unless opts.SkipBackup is set, a snapshot is taken
// before writing; an audit entry is added to the backup history afterwards.
func (m *Manager) Import(doc *ExportDocument, opts ImportOptions) (*ImportResult, error) {
	res, err := m.importDocument(doc, opts, "")
	if err != nil {
		return nil, err
	}
	if opts.Mode() == ImportSkip {
		return res, nil
	}

	now := m.clock.Now().UTC()
	size := 0
	if b, err := json.Marshal(doc); err == nil {
		size = len(b)
	}
	audit := BackupRecord{
		Record:        Record{ID: m.idgen.New(), CreatedAt: now, UpdatedAt: now},
		Type:          BackupImport,
		Timestamp:     now,
		Size:          int64(size),
		Note:          "import of export from " + doc.Metadata.ExportDate.UTC().Format("2006-01-02T15:04:05Z"),
		ItemCount:     res.Imported,
		SourceVersion: doc.Metadata.Version,
	}
	if err := m.addBackupRecord(audit); err != nil {
		return res, fmt.Errorf("recording import: %w", err)
	}
	return res, nil
}

// importDocument stages and applies doc. snapshotNote overrides the note of
// the pre-import snapshot.
func (m *Manager) importDocument(doc *ExportDocument, opts ImportOptions, snapshotNote string) (*ImportResult, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}

	res := &ImportResult{Results: map[string]KindImportResult{}, Imported: map[string]int{}}
	staged, err := m.stage(doc, res)
	if err != nil {
		return nil, err
	}
	for _, sk := range staged {
		res.Imported[sk.kind.String()] = sk.staged.count()
	}

	mode := opts.Mode()
	if mode == ImportSkip {
		for _, sk := range staged {
			res.Results[sk.kind.String()] = KindImportResult{
				Action: ActionSkip,
				Reason: "neither merge nor overwrite requested",
			}
		}
		m.logger.Info("import skipped, no mode requested", "kinds", len(staged))
		return res, nil
	}

	if !opts.SkipBackup {
		note := snapshotNote
		if note == "" {
			note = "before import"
		}
		snap, err := m.snapshot(BackupPreImport, note)
		if err != nil {
			return nil, fmt.Errorf("snapshot before import: %w", err)
		}
		res.BackupID = snap.ID
	}

	m.busy++
	defer func() { m.busy-- }()
	for _, sk := range staged {
		r, err := sk.staged.apply(mode)
		if err != nil {
			return res, fmt.Errorf("importing %s: %w", sk.kind, err)
		}
		res.Results[sk.kind.String()] = r
		m.logger.Debug("imported kind", "kind", sk.kind.String(), "action", string(r.Action))
	}
	m.logger.Info("import applied", "kinds", len(staged), "mode", mode.String())
	return res, nil
}

// stage parses every importable entry of doc in a fixed kind order.
func (m *Manager) stage(doc *ExportDocument, res *ImportResult) ([]stagedKind, error) {
	names := make([]string, 0, len(doc.Data))
	for name := range doc.Data {
		names = append(names, name)
	}
	slices.Sort(names)

	var staged []stagedKind
	for _, name := range names {
		k, err := ParseKind(name)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: unknown kind, skipped", name))
			continue
		}
		if k == KindBackupHistory {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: backup history is never imported", name))
			continue
		}
		st, err := m.stores[k].stageImport(doc.Data[name])
		switch {
		case errors.Is(err, errNotArray):
			m.logger.Warn("import data is not an array, skipping", "kind", k.String())
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: not an array, skipped", name))
			continue
		case errors.Is(err, errEmptyImport):
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: empty, skipped", name))
			continue
		case err != nil:
			return nil, fmt.Errorf("parsing import: %w", err)
		}
		staged = append(staged, stagedKind{kind: k, staged: st})
	}
	slices.SortStableFunc(staged, func(a, b stagedKind) int { return int(a.kind) - int(b.kind) })
	return staged, nil
}
