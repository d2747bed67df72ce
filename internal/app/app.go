package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"keepsake/internal/config"
	"keepsake/internal/encryption"
	"keepsake/internal/keepsake"
	"keepsake/internal/kvstore"
	"keepsake/internal/progress"
)

// App is the application layer between the CLI and the persistence layer.
// It constructs all dependencies from config, initializes the Manager and
// releases the backends on Close.
type App struct {
	cfg       *config.Config
	primary   keepsake.Backend
	fallback  keepsake.Backend
	manager   *keepsake.Manager
	tracker   *progress.Tracker
	encryptor encryption.Encryptor
	logger    keepsake.Logger
	clock     keepsake.Clock
	op        *Operation
	logFile   *os.File
}

// deps are the collaborators NewApp fills with real implementations.
type deps struct {
	clock  keepsake.Clock
	ids    keepsake.IDGenerator
	stderr io.Writer
	loc    *time.Location
}

// NewApp creates a fully wired App from the given config.
// operation identifies the CLI command being run (e.g. "Export", "RestoreBackup").
// The caller must call Close when done.
func NewApp(cfg *config.Config, operation string) (*App, error) {
	return newApp(cfg, operation, deps{
		clock:  keepsake.RealClock{},
		ids:    keepsake.UUIDGenerator{},
		stderr: os.Stderr,
		loc:    time.Local,
	})
}

func newApp(cfg *config.Config, operation string, d deps) (*App, error) {
	op := NewOperation(operation, "", d.clock.Now())
	logger, logFile, err := newLogger(cfg.LogDir, op.ID, d.stderr)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	log := &slogAdapter{l: logger}

	primary, err := kvstore.NewBackendFromConfig(cfg.Store)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating store: %w", err)
	}

	var fallback keepsake.Backend
	if cfg.Fallback.Type != "" {
		fallback, err = kvstore.NewBackendFromConfig(cfg.Fallback)
		if err != nil {
			closeBackend(primary)
			logFile.Close()
			return nil, fmt.Errorf("creating fallback store: %w", err)
		}
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		closeBackend(primary)
		closeBackend(fallback)
		logFile.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	ks := keepsake.NewKeyStore(primary, fallback, log, d.clock)
	m := keepsake.NewManager(ks, managerConfig(cfg), d.clock, d.ids, log)
	if err := m.Init(); err != nil {
		closeBackend(primary)
		closeBackend(fallback)
		logFile.Close()
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	log.Debug("operation started", "operation", operation)
	return &App{
		cfg:       cfg,
		primary:   primary,
		fallback:  fallback,
		manager:   m,
		tracker:   progress.NewTracker(m, d.clock, log, d.loc),
		encryptor: enc,
		logger:    log,
		clock:     d.clock,
		op:        op,
		logFile:   logFile,
	}, nil
}

// managerConfig maps the [limits] and [backup] tables onto the Manager tunables.
func managerConfig(cfg *config.Config) keepsake.ManagerConfig {
	return keepsake.ManagerConfig{
		Limits: keepsake.Limits{
			PhotoAnalyses:         cfg.Limits.PhotoAnalyses,
			CharacterExplorations: cfg.Limits.CharacterExplorations,
			SkillHeritages:        cfg.Limits.SkillHeritages,
			Default:               cfg.Limits.Default,
		},
		Backup: keepsake.BackupPolicy{
			AutoBackup: cfg.Backup.AutoBackup,
			MaxBackups: cfg.Backup.MaxBackups,
			Interval:   cfg.Backup.Interval(),
		},
	}
}

// Config returns the configuration the App was built from.
func (a *App) Config() *config.Config { return a.cfg }

// Manager returns the initialized persistence manager.
func (a *App) Manager() *keepsake.Manager { return a.manager }

// Tracker returns the progress tracker over the manager.
func (a *App) Tracker() *progress.Tracker { return a.tracker }

// Encryptor returns the export file encryptor.
func (a *App) Encryptor() encryption.Encryptor { return a.encryptor }

// Operation returns the operation the App was opened for.
func (a *App) Operation() *Operation { return a.op }

// MarkMutating records that the operation writes to storage, so Close
// checks for writes that only reached session storage.
func (a *App) MarkMutating(parameters string) {
	a.op.Mutating = true
	a.op.Parameters = parameters
}

// Unpersisted returns the keys currently held only in session storage. They
// are lost when the process exits.
func (a *App) Unpersisted() []string {
	if a.fallback == nil {
		return nil
	}
	keys, err := a.fallback.Keys()
	if err != nil {
		a.logger.Warn("listing session storage failed", "error", err)
		return nil
	}
	return keys
}

// Close finishes the operation and closes all resources. For mutating
// operations it warns about data that never reached persistent storage.
func (a *App) Close() error {
	if a.op.Mutating {
		if keys := a.Unpersisted(); len(keys) > 0 {
			a.logger.Warn("data held only in session storage will be lost", "keys", keys)
		}
	}
	a.logger.Info("operation finished",
		"operation", a.op.Name,
		"parameters", a.op.Parameters,
		"status", a.op.Status,
		"duration", a.clock.Now().Sub(a.op.StartedAt).Truncate(time.Millisecond),
	)

	var errs []error
	if err := closeBackend(a.primary); err != nil {
		errs = append(errs, fmt.Errorf("closing store: %w", err))
	}
	if err := closeBackend(a.fallback); err != nil {
		errs = append(errs, fmt.Errorf("closing fallback store: %w", err))
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return errors.Join(errs...)
}

// closeBackend closes b if it holds resources.
func closeBackend(b keepsake.Backend) error {
	if c, ok := b.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
