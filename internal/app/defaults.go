package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - REALVORA_CONFIG_PATH: config file location (default: ~/.config/realvora.toml)
//   - REALVORA_HOME: base directory for ledger data (default: ~/.local/share/realvora)
func GetDefaults() (map[string]string, error) {
	configPath, err := envOrHome("REALVORA_CONFIG_PATH", ".config", "realvora.toml")
	if err != nil {
		return nil, err
	}
	baseDir, err := envOrHome("REALVORA_HOME", ".local", "share", "realvora")
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// envOrHome returns the value of env when set, else the path under the
// user's home directory.
func envOrHome(env string, elem ...string) (string, error) {
	if path := os.Getenv(env); path != "" {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(append([]string{homeDir}, elem...)...), nil
}
