package keepsake

import (
	"encoding/json"
	"fmt"
	"time"
)

// Limits are the per-kind capacity caps. Kinds without a dedicated field use
// Default; a cap of 0 disables eviction.
type Limits struct {
	PhotoAnalyses         int
	CharacterExplorations int
	SkillHeritages        int
	Default               int
}

// DefaultLimits returns the stock capacity caps.
func DefaultLimits() Limits {
	return Limits{
		PhotoAnalyses:         100,
		CharacterExplorations: 200,
		SkillHeritages:        150,
		Default:               1000,
	}
}

// For returns the cap for k.
func (l Limits) For(k Kind) int {
	switch k {
	case KindPhotoAnalyses:
		return l.PhotoAnalyses
	case KindCharacterExplorations:
		return l.CharacterExplorations
	case KindSkillHeritages:
		return l.SkillHeritages
	}
	return l.Default
}

// BackupPolicy controls snapshot retention and the automatic backup schedule.
type BackupPolicy struct {
	AutoBackup bool
	MaxBackups int
	Interval   time.Duration
}

// DefaultBackupPolicy keeps ten snapshots and backs up weekly.
func DefaultBackupPolicy() BackupPolicy {
	return BackupPolicy{
		AutoBackup: true,
		MaxBackups: 10,
		Interval:   7 * 24 * time.Hour,
	}
}

// ManagerConfig carries the tunables of a Manager. Zero fields take defaults.
type ManagerConfig struct {
	Limits     Limits
	Backup     BackupPolicy
	Migrations []Migration
	// Platform is recorded in export metadata.
	Platform string
}

// DefaultPlatform is the export metadata platform name.
const DefaultPlatform = "keepsake"

// Typed collection handles.
type (
	PhotoStore       = Collection[PhotoAnalysis, *PhotoAnalysis]
	CharacterStore   = Collection[CharacterExploration, *CharacterExploration]
	SkillStore       = Collection[SkillHeritage, *SkillHeritage]
	AchievementStore = Collection[Achievement, *Achievement]
	BackupStore      = Collection[BackupRecord, *BackupRecord]
	ProfileStore     = Singleton[UserProfile, *UserProfile]
	SettingsStore    = Singleton[Settings, *Settings]
	ProgressStore    = Singleton[Progress, *Progress]
)

// store is the type-erased view of a collection or singleton used by the
// kind-keyed operations.
type store interface {
	Kind() Kind
	Count() int
	Statistics(recent int) Statistics
	documents() []Document
	exportValue() any
	document(id string) (Document, bool)
	saveDocument(doc Document) (string, error)
	update(id string, fields Fields) error
	remove(id string) error
	search(query string, fields []string) []Document
	clear() error
	stageImport(raw json.RawMessage) (stagedImport, error)
}

var (
	_ store = (*PhotoStore)(nil)
	_ store = (*CharacterStore)(nil)
	_ store = (*SkillStore)(nil)
	_ store = (*AchievementStore)(nil)
	_ store = (*BackupStore)(nil)
	_ store = (*ProfileStore)(nil)
	_ store = (*SettingsStore)(nil)
	_ store = (*ProgressStore)(nil)
)

// Manager is the single entry point to every collection plus the cross-kind
// operations: export, import, backup and restore.
type Manager struct {
	ks       *KeyStore
	env      *env
	limits   Limits
	backup   BackupPolicy
	platform string
	migrator *Migrator
	clock    Clock
	idgen    IDGenerator
	logger   Logger

	photos       *PhotoStore
	characters   *CharacterStore
	skills       *SkillStore
	achievements *AchievementStore
	backups      *BackupStore
	profile      *ProfileStore
	settings     *SettingsStore
	progress     *ProgressStore

	stores [numKinds]store

	// busy is non-zero while a backup, import or clear is writing, which
	// suppresses the automatic backup hook.
	busy int

	// pinned names a backup that pruning must keep, set while it is
	// being restored.
	pinned string
}

// NewManager creates a Manager over ks. Call Init before use.
func NewManager(ks *KeyStore, cfg ManagerConfig, clock Clock, idgen IDGenerator, logger Logger) *Manager {
	if cfg.Limits == (Limits{}) {
		cfg.Limits = DefaultLimits()
	}
	if cfg.Backup == (BackupPolicy{}) {
		cfg.Backup = DefaultBackupPolicy()
	}
	if cfg.Backup.Interval <= 0 {
		cfg.Backup.Interval = DefaultBackupPolicy().Interval
	}
	if cfg.Migrations == nil {
		cfg.Migrations = DefaultMigrations()
	}
	if cfg.Platform == "" {
		cfg.Platform = DefaultPlatform
	}

	m := &Manager{
		ks:       ks,
		limits:   cfg.Limits,
		backup:   cfg.Backup,
		platform: cfg.Platform,
		migrator: NewMigrator(ks, cfg.Migrations, clock, logger),
		clock:    clock,
		idgen:    idgen,
		logger:   logger,
	}
	m.env = &env{ks: ks, clock: clock, idgen: idgen, logger: logger, onWrite: m.afterWrite}

	m.photos = newCollection[PhotoAnalysis, *PhotoAnalysis](KindPhotoAnalyses, cfg.Limits.For(KindPhotoAnalyses), m.env)
	m.characters = newCollection[CharacterExploration, *CharacterExploration](KindCharacterExplorations, cfg.Limits.For(KindCharacterExplorations), m.env)
	m.skills = newCollection[SkillHeritage, *SkillHeritage](KindSkillHeritages, cfg.Limits.For(KindSkillHeritages), m.env)
	m.achievements = newCollection[Achievement, *Achievement](KindAchievements, cfg.Limits.For(KindAchievements), m.env)
	// Backup history is ordered and pruned by the backup engine, not by FIFO eviction.
	m.backups = newCollection[BackupRecord, *BackupRecord](KindBackupHistory, 0, m.env)
	m.profile = newSingleton[UserProfile, *UserProfile](KindUserProfile, m.env, DefaultUserProfile)
	m.settings = newSingleton[Settings, *Settings](KindSettings, m.env, m.defaultSettings)
	m.progress = newSingleton[Progress, *Progress](KindProgress, m.env, DefaultProgress)

	m.stores = [numKinds]store{
		KindPhotoAnalyses:         m.photos,
		KindCharacterExplorations: m.characters,
		KindSkillHeritages:        m.skills,
		KindUserProfile:           m.profile,
		KindAchievements:          m.achievements,
		KindSettings:              m.settings,
		KindBackupHistory:         m.backups,
		KindProgress:              m.progress,
	}
	return m
}

// DefaultUserProfile is the profile created on first read.
func DefaultUserProfile() UserProfile {
	return UserProfile{
		Name:   "Explorer",
		Avatar: "👤",
		Bio:    "Exploring family stories and heritage",
		Goal:   "casual",
		Level:  1,
		Preferences: &Preferences{
			Theme:         "light",
			Language:      "en",
			Notifications: true,
		},
	}
}

// DefaultProgress is the progress record created on first read.
func DefaultProgress() Progress {
	return Progress{
		CompletedExercises: []string{},
		AbilitiesProgress:  map[string]int{},
		Badges:             []string{"sprout"},
		Reflections:        []Reflection{},
	}
}

func (m *Manager) defaultSettings() Settings {
	next := m.clock.Now().UTC().Add(m.backup.Interval)
	return Settings{
		AutoSave:          true,
		AutoBackup:        m.backup.AutoBackup,
		BackupReminder:    true,
		Theme:             "light",
		ExportFormat:      string(FormatJSON),
		CompressData:      true,
		DataRetentionDays: 365,
		NextBackup:        &next,
	}
}

// Init migrates stored data to the current schema, seeds every missing key
// and records an initial backup entry on first run.
func (m *Manager) Init() error {
	if _, err := m.migrator.Run(); err != nil {
		return err
	}
	m.seed()

	if m.backups.Count() == 0 {
		now := m.clock.Now().UTC()
		rec := BackupRecord{
			Record:    Record{ID: m.idgen.New(), CreatedAt: now, UpdatedAt: now},
			Type:      BackupInitial,
			Timestamp: now,
			Note:      "initial state",
			ItemCount: m.itemCounts(),
		}
		if err := m.addBackupRecord(rec); err != nil {
			return fmt.Errorf("seeding backup history: %w", err)
		}
	}
	m.logger.Debug("persistence initialized", "version", m.migrator.Target())
	return nil
}

// seed writes an empty list or a default object for every absent key.
func (m *Manager) seed() {
	for _, k := range AllKinds() {
		if m.ks.Has(k.StorageKey()) {
			continue
		}
		if k.Singleton() {
			switch k {
			case KindUserProfile:
				m.profile.Get()
			case KindSettings:
				m.settings.Get()
			case KindProgress:
				m.progress.Get()
			}
			continue
		}
		if err := m.ks.Set(k.StorageKey(), []Document{}); err != nil {
			m.logger.Warn("seeding collection failed", "kind", k.String(), "error", err)
		}
	}
}

// Migrator returns the schema migrator.
func (m *Manager) Migrator() *Migrator { return m.migrator }

// Version returns the schema version the code writes.
func (m *Manager) Version() string { return m.migrator.Target() }

// Limits returns the configured capacity caps.
func (m *Manager) Limits() Limits { return m.limits }

func (m *Manager) Photos() *PhotoStore             { return m.photos }
func (m *Manager) Characters() *CharacterStore     { return m.characters }
func (m *Manager) Skills() *SkillStore             { return m.skills }
func (m *Manager) Achievements() *AchievementStore { return m.achievements }
func (m *Manager) Profile() *ProfileStore          { return m.profile }
func (m *Manager) Settings() *SettingsStore        { return m.settings }
func (m *Manager) Progress() *ProgressStore        { return m.progress }

func (m *Manager) store(k Kind) (store, error) {
	if k < 0 || k >= numKinds {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, k)
	}
	return m.stores[k], nil
}

// List returns every record of kind k as documents.
func (m *Manager) List(k Kind) ([]Document, error) {
	s, err := m.store(k)
	if err != nil {
		return nil, err
	}
	return s.documents(), nil
}

// Get returns one record of kind k. For singletons id may be empty.
func (m *Manager) Get(k Kind, id string) (Document, error) {
	s, err := m.store(k)
	if err != nil {
		return nil, err
	}
	doc, ok := s.document(id)
	if !ok {
		return nil, fmt.Errorf("getting %s %s: %w", k, id, ErrNotFound)
	}
	return doc, nil
}

// Save creates or merges a record of kind k and returns its id.
func (m *Manager) Save(k Kind, doc Document) (string, error) {
	s, err := m.store(k)
	if err != nil {
		return "", err
	}
	return s.saveDocument(doc)
}

// SaveBatch saves each document in order and reports a result per document.
func (m *Manager) SaveBatch(k Kind, docs []Document) ([]BatchResult, error) {
	s, err := m.store(k)
	if err != nil {
		return nil, err
	}
	results := make([]BatchResult, 0, len(docs))
	for _, d := range docs {
		id, err := s.saveDocument(d)
		results = append(results, BatchResult{ID: id, Err: err})
	}
	return results, nil
}

// Update merges fields into the record of kind k with the given id.
func (m *Manager) Update(k Kind, id string, fields Fields) error {
	s, err := m.store(k)
	if err != nil {
		return err
	}
	return s.update(id, fields)
}

// Delete removes the record of kind k with the given id.
func (m *Manager) Delete(k Kind, id string) error {
	s, err := m.store(k)
	if err != nil {
		return err
	}
	return s.remove(id)
}

// DeleteBatch deletes each id in order and reports a result per id.
func (m *Manager) DeleteBatch(k Kind, ids []string) ([]BatchResult, error) {
	s, err := m.store(k)
	if err != nil {
		return nil, err
	}
	results := make([]BatchResult, 0, len(ids))
	for _, id := range ids {
		results = append(results, BatchResult{ID: id, Err: s.remove(id)})
	}
	return results, nil
}

// Search returns records of kind k containing query; see Collection.Search.
func (m *Manager) Search(k Kind, query string, fields ...string) ([]Document, error) {
	s, err := m.store(k)
	if err != nil {
		return nil, err
	}
	return s.search(query, fields), nil
}

// Statistics summarizes kind k.
func (m *Manager) Statistics(k Kind) (Statistics, error) {
	s, err := m.store(k)
	if err != nil {
		return Statistics{}, err
	}
	return s.Statistics(DefaultRecent), nil
}

// BackupSummary is the backup-history part of an Overview.
type BackupSummary struct {
	Total int `json:"total"`
	// LastBackup is the newest history entry without its payload.
	LastBackup *BackupRecord `json:"lastBackup"`
}

// Overview is the cross-kind statistics report.
type Overview struct {
	Collections map[string]Statistics `json:"collections"`
	Backups     BackupSummary         `json:"backupHistory"`
}

// AllStatistics summarizes the exercise collections and the backup history.
func (m *Manager) AllStatistics() Overview {
	ov := Overview{Collections: map[string]Statistics{}}
	for _, k := range []Kind{KindPhotoAnalyses, KindCharacterExplorations, KindSkillHeritages, KindAchievements} {
		ov.Collections[k.String()] = m.stores[k].Statistics(DefaultRecent)
	}
	history := m.History()
	ov.Backups.Total = len(history)
	if len(history) > 0 {
		last := history[0]
		last.Data = ""
		ov.Backups.LastBackup = &last
	}
	return ov
}

// UnlockAchievement records id as unlocked. It reports whether anything
// changed; unlocking an already unlocked achievement is a no-op.
func (m *Manager) UnlockAchievement(id string) (bool, error) {
	now := m.clock.Now().UTC()
	existing, ok := m.achievements.Get(id)
	if !ok {
		a := Achievement{Record: Record{ID: id}, UnlockedAt: now, Unlocked: true}
		if _, err := m.achievements.Save(a); err != nil {
			return false, fmt.Errorf("unlocking %s: %w", id, err)
		}
		m.logger.Info("achievement unlocked", "achievement", id)
		return true, nil
	}
	if existing.Unlocked {
		return false, nil
	}
	if err := m.achievements.Update(id, Fields{"unlocked": true, "unlockedAt": now}); err != nil {
		return false, fmt.Errorf("unlocking %s: %w", id, err)
	}
	m.logger.Info("achievement unlocked", "achievement", id)
	return true, nil
}

// UpdateProfile merges fields into the profile, creating it if needed.
func (m *Manager) UpdateProfile(fields Fields) error { return m.profile.Update(fields) }

// UpdateSettings merges fields into the settings, creating them if needed.
func (m *Manager) UpdateSettings(fields Fields) error { return m.settings.Update(fields) }

// TestStorage checks that the persistent store accepts a write and returns
// it unchanged.
func (m *Manager) TestStorage() error { return m.ks.Probe() }

// ClearAll snapshots the current data, then empties every kind except the
// backup history and re-seeds defaults. The snapshot id is returned so the
// caller can offer a restore.
func (m *Manager) ClearAll() (string, error) {
	snap, err := m.snapshot(BackupPreClear, "before clearing all data")
	if err != nil {
		return "", fmt.Errorf("snapshot before clear: %w", err)
	}

	m.busy++
	defer func() { m.busy-- }()
	for _, k := range AllKinds() {
		if k == KindBackupHistory {
			continue
		}
		if err := m.stores[k].clear(); err != nil {
			return snap.ID, fmt.Errorf("clearing %s: %w", k, err)
		}
	}
	m.seed()
	m.logger.Info("all data cleared", "snapshot", snap.ID)
	return snap.ID, nil
}

// itemCounts reports the record count of each list kind that is exported.
func (m *Manager) itemCounts() map[string]int {
	counts := map[string]int{}
	for _, k := range ExportedKinds() {
		if !k.Singleton() {
			counts[k.String()] = m.stores[k].Count()
		}
	}
	return counts
}

// afterWrite runs the automatic backup check after user edits to an
// exercise collection.
func (m *Manager) afterWrite(k Kind) {
	if m.busy > 0 || !m.backup.AutoBackup {
		return
	}
	switch k {
	case KindPhotoAnalyses, KindCharacterExplorations, KindSkillHeritages:
	default:
		return
	}
	if _, err := m.CheckAutoBackup(); err != nil {
		m.logger.Warn("automatic backup failed", "error", err)
	}
}
