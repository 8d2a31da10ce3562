package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("REALVORA_CONFIG_PATH", "/etc/realvora.toml")
		t.Setenv("REALVORA_HOME", "/srv/realvora")

		d, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}
		if d["config_path"] != "/etc/realvora.toml" {
			t.Errorf("config_path = %q", d["config_path"])
		}
		if d["base_dir"] != "/srv/realvora" {
			t.Errorf("base_dir = %q", d["base_dir"])
		}
		if d["log_dir"] != filepath.Join("/srv/realvora", "log") {
			t.Errorf("log_dir = %q", d["log_dir"])
		}
	})

	t.Run("home directory fallback", func(t *testing.T) {
		t.Setenv("REALVORA_CONFIG_PATH", "")
		t.Setenv("REALVORA_HOME", "")
		home, err := os.UserHomeDir()
		if err != nil {
			t.Skipf("no home directory: %v", err)
		}

		d, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}
		if want := filepath.Join(home, ".config", "realvora.toml"); d["config_path"] != want {
			t.Errorf("config_path = %q, want %q", d["config_path"], want)
		}
		if want := filepath.Join(home, ".local", "share", "realvora"); d["base_dir"] != want {
			t.Errorf("base_dir = %q, want %q", d["base_dir"], want)
		}
	})
}
