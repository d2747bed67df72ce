package keepsake

import (
	"fmt"
	"slices"
)

// History returns the backup history, newest first.
func (m *Manager) History() []BackupRecord {
	return m.backups.List()
}

// Backup returns one history entry.
func (m *Manager) Backup(id string) (BackupRecord, bool) {
	return m.backups.Get(id)
}

// CreateBackup snapshots every exported kind into the backup history and
// reschedules the next automatic backup.
func (m *Manager) CreateBackup(note string) (*BackupRecord, error) {
	if note == "" {
		note = "manual backup"
	}
	return m.snapshot(BackupManual, note)
}

// snapshot exports all data into a new history entry of the given type,
// prunes the history and advances the backup schedule in the settings.
func (m *Manager) snapshot(typ BackupType, note string) (*BackupRecord, error) {
	m.busy++
	defer func() { m.busy-- }()

	exp, err := m.Export(ExportOptions{})
	if err != nil {
		return nil, fmt.Errorf("exporting for backup: %w", err)
	}

	now := m.clock.Now().UTC()
	rec := BackupRecord{
		Record:    Record{ID: m.idgen.New(), CreatedAt: now, UpdatedAt: now},
		Type:      typ,
		Timestamp: now,
		Data:      string(exp.Content),
		Format:    exp.Format,
		Size:      exp.Size,
		Note:      note,
		ItemCount: m.itemCounts(),
	}
	if err := m.addBackupRecord(rec); err != nil {
		return nil, err
	}

	next := now.Add(m.backup.Interval)
	if err := m.settings.Update(Fields{"lastBackup": now, "nextBackup": next}); err != nil {
		m.logger.Warn("updating backup schedule failed", "error", err)
	}
	m.logger.Info("backup created", "id", rec.ID, "type", string(typ), "size", rec.Size)
	return &rec, nil
}

// addBackupRecord puts rec at the front of the history, keeps it sorted
// newest first and prunes it to the configured maximum.
func (m *Manager) addBackupRecord(rec BackupRecord) error {
	history := append([]BackupRecord{rec}, m.backups.List()...)
	slices.SortStableFunc(history, func(a, b BackupRecord) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if limit := m.backup.MaxBackups; limit > 0 && len(history) > limit {
		m.logger.Debug("pruning backup history", "removed", len(history)-limit)
		pin := slices.IndexFunc(history, func(b BackupRecord) bool { return m.pinned != "" && b.ID == m.pinned })
		if pin >= limit {
			// The pinned entry takes the slot of the oldest survivor.
			history[limit-1] = history[pin]
		}
		history = history[:limit]
	}
	if err := m.backups.replace(history); err != nil {
		return fmt.Errorf("writing backup history: %w", err)
	}
	return nil
}

// RestoreBackup replaces current data with the contents of a snapshot. The
// current state is snapshotted first and a restore entry is added to the
// history. The restored entry survives the pruning those two writes cause
// when the history is full. Returns ErrNotFound for an unknown id and ErrParse when the entry
// has no valid payload; in both cases nothing is changed.
func (m *Manager) RestoreBackup(id string) (*ImportResult, error) {
	rec, ok := m.backups.Get(id)
	if !ok {
		return nil, fmt.Errorf("restoring backup %s: %w", id, ErrNotFound)
	}
	if !rec.Snapshot() {
		return nil, fmt.Errorf("restoring backup %s: %w: entry has no payload", id, ErrParse)
	}
	doc, err := ParseDocument([]byte(rec.Data))
	if err != nil {
		return nil, fmt.Errorf("restoring backup %s: %w", id, err)
	}

	m.pinned = id
	defer func() { m.pinned = "" }()

	res, err := m.importDocument(doc, ImportOptions{Overwrite: true}, "before restore of "+id)
	if err != nil {
		return nil, fmt.Errorf("restoring backup %s: %w", id, err)
	}

	now := m.clock.Now().UTC()
	audit := BackupRecord{
		Record:           Record{ID: m.idgen.New(), CreatedAt: now, UpdatedAt: now},
		Type:             BackupRestore,
		Timestamp:        now,
		Note:             "restored from backup " + id,
		RestoredBackupID: id,
	}
	if err := m.addBackupRecord(audit); err != nil {
		return res, fmt.Errorf("recording restore: %w", err)
	}
	m.logger.Info("backup restored", "id", id)
	return res, nil
}

// CheckAutoBackup creates an automatic backup when the settings enable it
// and the scheduled time has passed or was never set. It reports whether a
// backup was made.
func (m *Manager) CheckAutoBackup() (bool, error) {
	s := m.settings.Get()
	if !s.AutoBackup {
		return false, nil
	}
	now := m.clock.Now()
	if s.NextBackup != nil && now.Before(*s.NextBackup) {
		return false, nil
	}
	if _, err := m.snapshot(BackupAuto, "automatic backup"); err != nil {
		return false, err
	}
	return true, nil
}
