package main

import (
	"fmt"
	"os"
	"strings"

	"keepsake/internal/app"
	"keepsake/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Export", "RestoreBackup").
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// withApp opens an App for operation, runs fn and closes the App, recording
// a failed fn on the operation first. Keys that only reached session storage
// are reported once fn returns.
func withApp(operation string, fn func(a *app.App) error) error {
	a, err := newApp(operation)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := fn(a); err != nil {
		a.Operation().Fail()
		return err
	}
	if a.Operation().Mutating {
		if keys := a.Unpersisted(); len(keys) > 0 {
			warnf("persistent storage is unavailable; not saved: %s", strings.Join(keys, ", "))
		}
	}
	return nil
}

var rootCmd = &cobra.Command{
	Use:          "keepsake",
	Short:        "Family heritage journal with local persistence, backups and achievements",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		storeType, _ := cmd.Flags().GetString("store")
		cfg := config.NewConfig(defaults["base_dir"])
		if storeType != "" {
			cfg.Store.Type = storeType
		}

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		fmt.Printf("Store:    %s (%s)\n", cfg.Store.Type, cfg.Store.DataDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Store:       %s %s\n", cfg.Store.Type, cfg.Store.DataDir)
		fmt.Printf("Fallback:    %s\n", cfg.Fallback.Type)
		fmt.Printf("Limits:      photos=%d characters=%d skills=%d other=%d\n",
			cfg.Limits.PhotoAnalyses,
			cfg.Limits.CharacterExplorations,
			cfg.Limits.SkillHeritages,
			cfg.Limits.Default,
		)
		fmt.Printf("Auto Backup: %v every %s, keep %d\n", cfg.Backup.AutoBackup, cfg.Backup.Interval(), cfg.Backup.MaxBackups)
		fmt.Printf("Export:      %s photos=%v compact=%v\n", cfg.Export.Format, cfg.Export.IncludePhotos, cfg.Export.Compact)
		fmt.Printf("Encryption:  %s %s\n", cfg.Encryption.Type, cfg.Encryption.PublicKeyPath)
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage export encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the key pair used to encrypt exports",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp("SetupKeys", func(a *app.App) error {
			pass, err := readNewPassphrase()
			if err != nil {
				return err
			}
			if err := a.Encryptor().Setup(pass); err != nil {
				return fmt.Errorf("setting up keys: %w", err)
			}
			fmt.Printf("Keys written to %s\n", a.Config().Encryption.PublicKeyPath)
			return nil
		})
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configInitCmd.Flags().String("store", "", "Store type: filesystem, sqlite or memory")

	keysCmd.AddCommand(keysInitCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)
}
