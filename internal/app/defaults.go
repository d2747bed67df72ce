package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Environment overrides for the default locations.
const (
	envConfigPath = "KEEPSAKE_CONFIG_PATH"
	envHome       = "KEEPSAKE_HOME"
)

// GetDefaults resolves where keepsake looks for its config file and where
// the journal keeps its key files and operation log, before any config has
// been read. KEEPSAKE_CONFIG_PATH replaces ~/.config/keepsake.toml and
// KEEPSAKE_HOME replaces ~/.local/share/keepsake; the log directory always
// sits under the data directory.
func GetDefaults() (map[string]string, error) {
	configPath, err := envOrHome(envConfigPath, ".config", "keepsake.toml")
	if err != nil {
		return nil, err
	}

	baseDir, err := envOrHome(envHome, ".local", "share", "keepsake")
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

func envOrHome(name string, elem ...string) (string, error) {
	if path := os.Getenv(name); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating journal files without %s: %w", name, err)
	}
	return filepath.Join(append([]string{homeDir}, elem...)...), nil
}
