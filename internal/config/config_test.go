package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		BaseDir: "/home/user/.local/share/keepsake",
		LogDir:  "/home/user/.local/share/keepsake/log",
		Store:   StoreConfig{Type: "sqlite", DataDir: "/home/user/.local/share/keepsake/db"},
		Fallback: StoreConfig{
			Type:     "memory",
			MaxBytes: 5 << 20,
		},
		Limits: LimitsConfig{PhotoAnalyses: 5, CharacterExplorations: 6, SkillHeritages: 7, Default: 8},
		Backup: BackupConfig{AutoBackup: true, MaxBackups: 3, IntervalHours: 24},
		Export: ExportConfig{Format: "text", IncludePhotos: false, Compact: true},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  "/home/user/.local/share/keepsake/keys/keepsake.pub",
			PrivateKeyPath: "/home/user/.local/share/keepsake/keys/keepsake.key",
		},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if *got != *original {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", *got, *original)
	}
}

func TestManager_Read_TOML(t *testing.T) {
	input := `
base_dir = "/srv/keepsake"

[store]
type = "filesystem"
data_dir = "/srv/keepsake/data"

[fallback]
type = "memory"
max_bytes = 1024

[limits]
photo_analyses = 10

[backup]
auto_backup = false
interval_hours = 12
`
	m := &Manager{}
	got, err := m.Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.Store.Type != "filesystem" || got.Store.DataDir != "/srv/keepsake/data" {
		t.Errorf("Store = %+v", got.Store)
	}
	if got.Fallback.MaxBytes != 1024 {
		t.Errorf("Fallback.MaxBytes = %d, want 1024", got.Fallback.MaxBytes)
	}
	if got.Limits.PhotoAnalyses != 10 {
		t.Errorf("Limits.PhotoAnalyses = %d, want 10", got.Limits.PhotoAnalyses)
	}
	if got.Backup.AutoBackup {
		t.Error("Backup.AutoBackup = true, want false")
	}
	if got.Backup.Interval() != 12*time.Hour {
		t.Errorf("Backup.Interval() = %v, want 12h", got.Backup.Interval())
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/keepsake")

	if cfg.BaseDir != "/data/keepsake" {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, "/data/keepsake")
	}
	if cfg.LogDir != "/data/keepsake/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/keepsake/log")
	}
	if cfg.Store.Type != "filesystem" || cfg.Store.DataDir != "/data/keepsake/data" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Fallback.Type != "memory" {
		t.Errorf("Fallback.Type = %q, want memory", cfg.Fallback.Type)
	}
	if cfg.Limits.PhotoAnalyses != 100 || cfg.Limits.CharacterExplorations != 200 || cfg.Limits.SkillHeritages != 150 {
		t.Errorf("Limits = %+v", cfg.Limits)
	}
	if cfg.Backup.MaxBackups != 10 {
		t.Errorf("Backup.MaxBackups = %d, want 10", cfg.Backup.MaxBackups)
	}
	if cfg.Backup.Interval() != 7*24*time.Hour {
		t.Errorf("Backup.Interval() = %v, want 168h", cfg.Backup.Interval())
	}
	if cfg.Encryption.PublicKeyPath != "/data/keepsake/keys/keepsake.pub" {
		t.Errorf("Encryption.PublicKeyPath = %q", cfg.Encryption.PublicKeyPath)
	}
	if cfg.Encryption.PrivateKeyPath != "/data/keepsake/keys/keepsake.key" {
		t.Errorf("Encryption.PrivateKeyPath = %q", cfg.Encryption.PrivateKeyPath)
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "nested", "keepsake.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "keepsake.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		err := Init(path, cfg)
		if err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "keepsake.toml")
		cfg := NewConfig(dir)
		cfg.Store = StoreConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.Store.Type != "memory" {
			t.Errorf("Store.Type = %q, want %q", got.Store.Type, "memory")
		}
		if got.BaseDir != dir {
			t.Errorf("BaseDir = %q, want %q", got.BaseDir, dir)
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile("/nonexistent/path/keepsake.toml")
		if err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
