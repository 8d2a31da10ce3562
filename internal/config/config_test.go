package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	fee := uint64(0)
	original := &Config{
		ChainID:  "realvora-devnet",
		BaseDir:  "/home/user/.local/share/realvora",
		LogDir:   "/home/user/.local/share/realvora/log",
		Admins:   []string{"ST1ADMIN"},
		Treasury: "ST1TREASURY",
		Vaults: []VaultConfig{
			{Type: "filesystem", Name: "local", FSVaultRoot: "/backup/vault"},
		},
		Database:   DatabaseConfig{Type: "sqlite", DataDir: "/home/user/.local/share/realvora/db"},
		Mempool:    MempoolConfig{Type: "memory", MaxCalls: 20},
		Governance: GovernanceConfig{VotingPeriod: 10, QuorumPct: 40, ApprovalPct: 60, VotingPower: "registry"},
		Market:     MarketConfig{TradingFeeBps: &fee, MaxOpenOrders: 5},
		Revenue:    RevenueConfig{Basis: "held"},
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

	if got.ChainID != original.ChainID {
		t.Errorf("ChainID = %q, want %q", got.ChainID, original.ChainID)
	}
	if len(got.Admins) != 1 || got.Admins[0] != "ST1ADMIN" {
		t.Errorf("Admins = %v, want [ST1ADMIN]", got.Admins)
	}
	if got.Treasury != "ST1TREASURY" {
		t.Errorf("Treasury = %q, want ST1TREASURY", got.Treasury)
	}
	if len(got.Vaults) != 1 {
		t.Fatalf("len(Vaults) = %d, want 1", len(got.Vaults))
	}
	if got.Vaults[0].FSVaultRoot != "/backup/vault" {
		t.Errorf("Vault.FSVaultRoot = %q, want %q", got.Vaults[0].FSVaultRoot, "/backup/vault")
	}
	if got.Mempool.MaxCalls != 20 {
		t.Errorf("Mempool.MaxCalls = %d, want 20", got.Mempool.MaxCalls)
	}
	if got.Governance.VotingPower != "registry" {
		t.Errorf("Governance.VotingPower = %q, want registry", got.Governance.VotingPower)
	}
	if got.Market.TradingFeeBps == nil || *got.Market.TradingFeeBps != 0 {
		t.Errorf("Market.TradingFeeBps = %v, want explicit 0", got.Market.TradingFeeBps)
	}
	if got.Revenue.Basis != "held" {
		t.Errorf("Revenue.Basis = %q, want held", got.Revenue.Basis)
	}
}

func TestManager_Read_FeeUnset(t *testing.T) {
	m := &Manager{}
	got, err := m.Read(strings.NewReader("chain_id = \"x\"\n[market]\nmax_open_orders = 3\n"))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.Market.TradingFeeBps != nil {
		t.Errorf("Market.TradingFeeBps = %v, want nil", *got.Market.TradingFeeBps)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("devnet", "/data/realvora")

	if cfg.ChainID != "devnet" {
		t.Errorf("ChainID = %q, want %q", cfg.ChainID, "devnet")
	}
	if cfg.LogDir != "/data/realvora/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/realvora/log")
	}
	if cfg.Encryption.PublicKeyPath != "/data/realvora/keys/realvora.pub" {
		t.Errorf("Encryption.PublicKeyPath = %q", cfg.Encryption.PublicKeyPath)
	}
	if cfg.Database.DataDir != "/data/realvora/db" {
		t.Errorf("Database.DataDir = %q, want /data/realvora/db", cfg.Database.DataDir)
	}
	if cfg.Governance.VotingPeriod != 1440 {
		t.Errorf("Governance.VotingPeriod = %d, want 1440", cfg.Governance.VotingPeriod)
	}
	if cfg.Mempool.MempoolDir != "/data/realvora/mempool" {
		t.Errorf("Mempool.MempoolDir = %q", cfg.Mempool.MempoolDir)
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "realvora.toml")

		if err := Init(path, NewConfig("c1", dir)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "realvora.toml")
		cfg := NewConfig("c1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}
		if err := Init(path, cfg); err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "realvora.toml")
		cfg := NewConfig("read-test", dir)
		cfg.Database = DatabaseConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.ChainID != "read-test" {
			t.Errorf("ChainID = %q, want %q", got.ChainID, "read-test")
		}
		if got.Database.Type != "memory" {
			t.Errorf("Database.Type = %q, want memory", got.Database.Type)
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		if _, err := ReadFromFile("/nonexistent/path/realvora.toml"); err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
