package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the node configuration for realvora.
type Config struct {
	ChainID    string           `toml:"chain_id"`
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	Admins     []string         `toml:"admins"`
	Treasury   string           `toml:"treasury"`
	Vaults     []VaultConfig    `toml:"vaults"`
	Encryption EncryptionConfig `toml:"encryption"`
	Database   DatabaseConfig   `toml:"database"`
	Mempool    MempoolConfig    `toml:"mempool"`
	Governance GovernanceConfig `toml:"governance"`
	Market     MarketConfig     `toml:"market"`
	Revenue    RevenueConfig    `toml:"revenue"`
	Server     ServerConfig     `toml:"server"`
}

// EncryptionConfig holds paths to the age key pair that protects snapshots.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default) or "stub"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// VaultConfig is a tagged union: Type selects which fields apply.
type VaultConfig struct {
	Type string `toml:"type"` // "memory", "s3" or "filesystem"
	Name string `toml:"name"`

	// type = "s3"
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"`
	// Static keys; when empty the default AWS credential chain is used.
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	// type = "filesystem"
	FSVaultRoot string `toml:"fs_vault_root,omitempty"`
}

// DatabaseConfig is a tagged union: Type selects which fields apply.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // type = "sqlite"
}

// MempoolConfig is a tagged union: Type selects which fields apply.
type MempoolConfig struct {
	Type       string `toml:"type"`                  // "memory" or "filesystem"
	MempoolDir string `toml:"mempool_dir,omitempty"` // type = "filesystem"
	MaxCalls   int    `toml:"max_calls"`             // defaults to 1000
}

// GovernanceConfig tunes proposals and voting. Zero values take defaults.
type GovernanceConfig struct {
	VotingPeriod uint64 `toml:"voting_period"` // blocks
	QuorumPct    uint64 `toml:"quorum_pct"`
	ApprovalPct  uint64 `toml:"approval_pct"`
	VotingPower  string `toml:"voting_power"` // "shares" or "registry"
}

// MarketConfig tunes the order book. TradingFeeBps is a pointer so an
// explicit zero fee can be told apart from an unset one.
type MarketConfig struct {
	TradingFeeBps *uint64 `toml:"trading_fee_bps,omitempty"`
	MaxOpenOrders int     `toml:"max_open_orders"`
}

type RevenueConfig struct {
	Basis string `toml:"basis"` // "total" or "held"
}

// ServerConfig controls `realvora serve`.
type ServerConfig struct {
	ListenAddr    string `toml:"listen_addr"`
	BlockInterval string `toml:"block_interval"` // cron spec, e.g. "@every 10s"
}

// NewConfig returns a Config rooted at baseDir with file-backed defaults.
func NewConfig(chainID, baseDir string) *Config {
	return &Config{
		ChainID: chainID,
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Encryption: EncryptionConfig{
			PublicKeyPath:  filepath.Join(baseDir, "keys", "realvora.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "realvora.key"),
		},
		Database: DatabaseConfig{Type: "sqlite", DataDir: filepath.Join(baseDir, "db")},
		Mempool:  MempoolConfig{Type: "filesystem", MempoolDir: filepath.Join(baseDir, "mempool"), MaxCalls: 1000},
		Governance: GovernanceConfig{
			VotingPeriod: 1440,
			QuorumPct:    50,
			ApprovalPct:  51,
			VotingPower:  "shares",
		},
		Market:  MarketConfig{MaxOpenOrders: 100},
		Revenue: RevenueConfig{Basis: "total"},
		Server:  ServerConfig{ListenAddr: "127.0.0.1:8645", BlockInterval: "@every 10s"},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from r.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// Write encodes cfg to w.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes cfg to path, refusing to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
