package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"realvora-go/internal/config"
	"realvora-go/internal/database"
	"realvora-go/internal/encryption"
	"realvora-go/internal/ledger"
	"realvora-go/internal/mempool"
	"realvora-go/internal/vault"
)

// App is the layer between the CLI and the ledger service. It builds all
// dependencies from config, journals mutating calls, produces blocks and
// moves snapshots to and from the vault.
type App struct {
	cfg       *config.Config
	db        *database.SQLiteDatabase
	mempool   ledger.Mempool
	vault     ledger.Vault // nil when no vault is configured
	encryptor ledger.Encryptor
	service   *ledger.Service
	journaled *journalDB
	logger    *slog.Logger
	logFile   *os.File
	ids       ledger.IDGenerator
	clock     ledger.Clock

	mineMu sync.Mutex
	execMu sync.Mutex // one journaled call at a time
}

// deps are the collaborators NewApp builds from config. Tests supply their own.
type deps struct {
	db        *database.SQLiteDatabase
	mempool   ledger.Mempool
	vault     ledger.Vault
	encryptor ledger.Encryptor
	logger    *slog.Logger
	logFile   *os.File
	ids       ledger.IDGenerator
	clock     ledger.Clock
}

// NewApp creates a fully wired App from cfg. The ledger must already be
// initialized. The caller must call Close when done.
func NewApp(cfg *config.Config) (*App, error) {
	return NewAppWithOutput(cfg, os.Stderr)
}

// NewAppWithOutput is NewApp with log lines mirrored to stderr instead of
// os.Stderr; nil logs to the file only.
func NewAppWithOutput(cfg *config.Config, stderr io.Writer) (*App, error) {
	d, err := depsFromConfig(cfg, stderr)
	if err != nil {
		return nil, err
	}
	a, err := newApp(cfg, d)
	if err != nil {
		d.db.Close()
		d.logFile.Close()
		return nil, err
	}
	return a, nil
}

func depsFromConfig(cfg *config.Config, stderr io.Writer) (deps, error) {
	var d deps
	d.clock = ledger.RealClock{}
	d.ids = ledger.UUIDGenerator{}

	var err error
	if len(cfg.Vaults) > 0 {
		if d.vault, err = vault.NewVaultFromConfig(context.Background(), cfg.Vaults[0]); err != nil {
			return d, fmt.Errorf("creating vault: %w", err)
		}
	}
	if d.mempool, err = mempool.NewMempoolFromConfig(cfg.Mempool); err != nil {
		return d, fmt.Errorf("creating mempool: %w", err)
	}
	if d.encryptor, err = encryption.NewEncryptorFromConfig(cfg.Encryption); err != nil {
		return d, fmt.Errorf("creating encryptor: %w", err)
	}

	session := d.clock.Now().UTC().Format("20060102T150405Z")
	if d.logger, d.logFile, err = newLogger(cfg.LogDir, session, stderr); err != nil {
		return d, fmt.Errorf("creating logger: %w", err)
	}

	if d.db, err = database.NewDatabaseFromConfig(cfg.Database, cfg.ChainID, d.clock); err != nil {
		d.logFile.Close()
		return d, fmt.Errorf("creating database: %w", err)
	}
	return d, nil
}

func newApp(cfg *config.Config, d deps) (*App, error) {
	if err := d.db.CheckMigrations(); err != nil {
		return nil, fmt.Errorf("ledger not initialized or schema out of date: %w", err)
	}

	if d.vault != nil {
		remote, err := d.vault.GetSnapshotVersion(cfg.ChainID)
		if err != nil {
			return nil, fmt.Errorf("checking remote snapshot version: %w", err)
		}
		local, err := d.db.LastOperationID()
		if err != nil {
			return nil, fmt.Errorf("checking local journal: %w", err)
		}
		if remote > local {
			return nil, fmt.Errorf("local ledger is behind the vault (local=%d, remote=%d): pull the snapshot or re-initialize", local, remote)
		}
	}

	settings, err := SettingsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	journaled := &journalDB{Database: d.db}
	return &App{
		cfg:       cfg,
		db:        d.db,
		mempool:   d.mempool,
		vault:     d.vault,
		encryptor: d.encryptor,
		service:   ledger.NewService(journaled, d.db, settings, &slogAdapter{l: d.logger}),
		journaled: journaled,
		logger:    d.logger,
		logFile:   d.logFile,
		ids:       d.ids,
		clock:     d.clock,
	}, nil
}

// SettingsFromConfig overlays configured values on the ledger defaults.
func SettingsFromConfig(cfg *config.Config) (ledger.Settings, error) {
	s := ledger.DefaultSettings()
	s.Treasury = cfg.Treasury

	g := cfg.Governance
	if g.VotingPeriod > 0 {
		s.VotingPeriod = g.VotingPeriod
	}
	if g.QuorumPct > 0 {
		s.QuorumPct = g.QuorumPct
	}
	if g.ApprovalPct > 0 {
		s.ApprovalPct = g.ApprovalPct
	}
	if s.QuorumPct > 100 || s.ApprovalPct > 100 {
		return s, fmt.Errorf("governance thresholds must be percentages (quorum=%d, approval=%d)", s.QuorumPct, s.ApprovalPct)
	}
	switch ledger.VotingPowerModel(g.VotingPower) {
	case "":
	case ledger.VotingPowerShares, ledger.VotingPowerRegistry:
		s.VotingPower = ledger.VotingPowerModel(g.VotingPower)
	default:
		return s, fmt.Errorf("unknown voting_power: %s", g.VotingPower)
	}

	if bps := cfg.Market.TradingFeeBps; bps != nil {
		if *bps > s.MaxFeeBps {
			return s, fmt.Errorf("trading_fee_bps %d exceeds maximum %d", *bps, s.MaxFeeBps)
		}
		s.TradingFeeBps = *bps
	}
	if cfg.Market.MaxOpenOrders > 0 {
		s.MaxOpenOrders = cfg.Market.MaxOpenOrders
	}

	switch ledger.RevenueBasis(cfg.Revenue.Basis) {
	case "":
	case ledger.RevenueBasisTotal, ledger.RevenueBasisHeld:
		s.RevenueBasis = ledger.RevenueBasis(cfg.Revenue.Basis)
	default:
		return s, fmt.Errorf("unknown revenue basis: %s", cfg.Revenue.Basis)
	}
	return s, nil
}

// InitLedger creates the ledger store for cfg, applies the schema and seeds
// the configured admins. When passphrase is non-empty and no snapshot keys
// exist yet, a key pair is generated.
func InitLedger(cfg *config.Config, passphrase string) error {
	if len(cfg.Admins) == 0 {
		return fmt.Errorf("at least one admin address must be configured")
	}
	settings, err := SettingsFromConfig(cfg)
	if err != nil {
		return err
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.ChainID, ledger.RealClock{})
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	svc := ledger.NewService(db, db, settings, ledger.NewNopLogger())
	if err := svc.Bootstrap(cfg.Admins); err != nil {
		return err
	}

	if passphrase == "" {
		return nil
	}
	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	if enc.IsConfigured() {
		return nil
	}
	if err := enc.Setup(passphrase); err != nil {
		return fmt.Errorf("generating snapshot keys: %w", err)
	}
	return nil
}

// Service exposes the ledger for read-only queries.
func (a *App) Service() *ledger.Service {
	return a.service
}

// Height returns the current block height.
func (a *App) Height() (uint64, error) {
	return a.db.Height()
}

// Logger returns the app's structured logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Config returns the configuration the app was built from.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Close closes the ledger store and the log file.
func (a *App) Close() error {
	var firstErr error
	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
