package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for keepsake.
type Config struct {
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	Store      StoreConfig      `toml:"store"`
	Fallback   StoreConfig      `toml:"fallback"`
	Limits     LimitsConfig     `toml:"limits"`
	Backup     BackupConfig     `toml:"backup"`
	Export     ExportConfig     `toml:"export"`
	Encryption EncryptionConfig `toml:"encryption"`
}

// StoreConfig represents configuration for a key-value backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type StoreConfig struct {
	Type     string `toml:"type"`                // "filesystem", "sqlite" or "memory"
	DataDir  string `toml:"data_dir,omitempty"`  // filesystem and sqlite only
	MaxBytes int64  `toml:"max_bytes,omitempty"` // memory only; 0 means unlimited
}

// LimitsConfig holds the per-collection capacity caps.
type LimitsConfig struct {
	PhotoAnalyses         int `toml:"photo_analyses"`
	CharacterExplorations int `toml:"character_explorations"`
	SkillHeritages        int `toml:"skill_heritages"`
	Default               int `toml:"default"`
}

// BackupConfig holds snapshot retention and scheduling.
type BackupConfig struct {
	AutoBackup    bool `toml:"auto_backup"`
	MaxBackups    int  `toml:"max_backups"`
	IntervalHours int  `toml:"interval_hours"`
}

// Interval returns the automatic backup interval.
func (b BackupConfig) Interval() time.Duration {
	return time.Duration(b.IntervalHours) * time.Hour
}

// ExportConfig holds the defaults for the export command.
type ExportConfig struct {
	Format        string `toml:"format"` // "json" or "text"
	IncludePhotos bool   `toml:"include_photos"`
	Compact       bool   `toml:"compact"`
}

// EncryptionConfig holds paths to the age key pair used to encrypt export files.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// NewConfig creates a new Config rooted at baseDir with default settings.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Store: StoreConfig{
			Type:    "filesystem",
			DataDir: filepath.Join(baseDir, "data"),
		},
		Fallback: StoreConfig{Type: "memory"},
		Limits: LimitsConfig{
			PhotoAnalyses:         100,
			CharacterExplorations: 200,
			SkillHeritages:        150,
			Default:               1000,
		},
		Backup: BackupConfig{
			AutoBackup:    true,
			MaxBackups:    10,
			IntervalHours: 7 * 24,
		},
		Export: ExportConfig{
			Format:        "json",
			IncludePhotos: true,
			Compact:       true,
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "keepsake.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "keepsake.key"),
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path, creating parent
// directories as needed.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
