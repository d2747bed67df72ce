package keepsake

import (
	"fmt"
	"time"
)

// NoVersion is the version reported when no version record exists.
const NoVersion = "0.0.0"

// VersionInfo is the schema version record stored under VersionInfoKey.
type VersionInfo struct {
	Version         string    `json:"version"`
	LastMigration   time.Time `json:"lastMigration,omitzero"`
	PreviousVersion string    `json:"previousVersion,omitempty"`
}

// Migration is one schema step. Apply relocates storage keys and must
// tolerate having already been partially applied.
type Migration struct {
	Version string
	Apply   func(ks *KeyStore, logger Logger) error
}

// Migrator brings stored data up to the version of the last registered step.
type Migrator struct {
	ks     *KeyStore
	steps  []Migration
	clock  Clock
	logger Logger
}

// NewMigrator creates a Migrator. steps must be in ascending version order.
func NewMigrator(ks *KeyStore, steps []Migration, clock Clock, logger Logger) *Migrator {
	return &Migrator{ks: ks, steps: steps, clock: clock, logger: logger}
}

// Target returns the code version, the version of the last step.
func (m *Migrator) Target() string {
	if len(m.steps) == 0 {
		return NoVersion
	}
	return m.steps[len(m.steps)-1].Version
}

// Current returns the stored version record; a missing or unreadable record
// reports NoVersion.
func (m *Migrator) Current() VersionInfo {
	var info VersionInfo
	if !m.ks.Get(VersionInfoKey, &info) || info.Version == "" {
		return VersionInfo{Version: NoVersion}
	}
	return info
}

// Pending returns the steps that Run would apply, in order.
func (m *Migrator) Pending() []Migration {
	current := m.Current().Version
	if current == m.Target() {
		return nil
	}
	start := 0
	for i, s := range m.steps {
		if s.Version == current {
			start = i + 1
			break
		}
	}
	return m.steps[start:]
}

// Run applies pending steps and records the target version. If a step fails
// the stored version is left unchanged and the error wraps ErrMigration, so
// the next Run retries from the same point. It returns the versions applied.
func (m *Migrator) Run() ([]string, error) {
	from := m.Current().Version
	pending := m.Pending()
	if len(pending) == 0 {
		return nil, nil
	}

	m.logger.Info("migrating stored data", "from", from, "to", m.Target())
	var applied []string
	for _, step := range pending {
		if err := step.Apply(m.ks, m.logger); err != nil {
			return applied, fmt.Errorf("%w: step %s: %v", ErrMigration, step.Version, err)
		}
		applied = append(applied, step.Version)
		m.logger.Debug("migration step applied", "version", step.Version)
	}

	info := VersionInfo{
		Version:         m.Target(),
		LastMigration:   m.clock.Now().UTC(),
		PreviousVersion: from,
	}
	if err := m.ks.Set(VersionInfoKey, info); err != nil {
		return applied, fmt.Errorf("%w: recording version: %v", ErrMigration, err)
	}
	m.logger.Info("migration complete", "version", info.Version)
	return applied, nil
}

// relocateKey moves the value stored under from to to. A missing source is a
// no-op. An occupied target or an unreadable source is logged and skipped,
// leaving the source in place.
func relocateKey(ks *KeyStore, logger Logger, from, to string) error {
	raw, ok := ks.GetRaw(from)
	if !ok {
		return nil
	}
	if ks.Has(to) {
		logger.Warn("relocation target already populated, keeping legacy key", "from", from, "to", to)
		return nil
	}
	var probe any
	if err := decodeInto(raw, &probe); err != nil {
		logger.Error("legacy value is unreadable, skipping", "key", from, "error", err)
		return nil
	}
	if err := ks.SetRaw(to, raw); err != nil {
		logger.Error("relocating key failed", "from", from, "to", to, "error", err)
		return nil
	}
	if err := ks.Remove(from); err != nil {
		return fmt.Errorf("removing %s: %w", from, err)
	}
	logger.Info("relocated legacy key", "from", from, "to", to)
	return nil
}

// legacyKeys maps the unversioned keys of early releases to their kinds.
var legacyKeys = []struct {
	key  string
	kind Kind
}{
	{"photoAnalyses", KindPhotoAnalyses},
	{"characterExplorations", KindCharacterExplorations},
	{"skillHeritages", KindSkillHeritages},
	{"userProfile", KindUserProfile},
	{"settings", KindSettings},
}

// LegacyProgressKey is where exercise progress lived before it joined the
// versioned schema.
const LegacyProgressKey = "humanEmpowermentProgress"

// DefaultMigrations returns the built-in schema steps.
func DefaultMigrations() []Migration {
	return []Migration{
		{
			Version: "1.0.0",
			Apply: func(ks *KeyStore, logger Logger) error {
				for _, lk := range legacyKeys {
					if err := relocateKey(ks, logger, lk.key, lk.kind.StorageKey()); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			Version: "1.1.0",
			Apply: func(ks *KeyStore, logger Logger) error {
				return relocateKey(ks, logger, LegacyProgressKey, KindProgress.StorageKey())
			},
		},
	}
}
