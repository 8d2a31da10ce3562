package ledger

import (
	"fmt"
	"strconv"
)

// Logger provides structured logging for the ledger service.
// The args follow slog conventions: alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NopLogger is a Logger that discards all output. Use in tests.
type NopLogger struct{}

func NewNopLogger() *NopLogger { return &NopLogger{} }

func (*NopLogger) Debug(string, ...any) {}
func (*NopLogger) Info(string, ...any)  {}
func (*NopLogger) Warn(string, ...any)  {}
func (*NopLogger) Error(string, ...any) {}

// VotingPowerModel selects where a voter's weight comes from.
type VotingPowerModel string

const (
	// VotingPowerShares weighs votes by current share holdings.
	VotingPowerShares VotingPowerModel = "shares"
	// VotingPowerRegistry weighs votes by administratively assigned power.
	VotingPowerRegistry VotingPowerModel = "registry"
)

// RevenueBasis selects the denominator of a revenue distribution.
type RevenueBasis string

const (
	// RevenueBasisTotal divides by every share of the property, sold or not.
	RevenueBasisTotal RevenueBasis = "total"
	// RevenueBasisHeld divides by shares held at snapshot time.
	RevenueBasisHeld RevenueBasis = "held"
)

const paramTradingFee = "trading_fee_bps"

// Settings are the tunable ledger parameters.
type Settings struct {
	VotingPeriod  uint64 // blocks
	QuorumPct     uint64
	ApprovalPct   uint64
	VotingPower   VotingPowerModel
	TradingFeeBps uint64
	MaxFeeBps     uint64
	MaxOpenOrders int
	Treasury      string
	RevenueBasis  RevenueBasis
}

// DefaultSettings returns the parameters used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		VotingPeriod:  1440,
		QuorumPct:     50,
		ApprovalPct:   51,
		VotingPower:   VotingPowerShares,
		TradingFeeBps: 250,
		MaxFeeBps:     1000,
		MaxOpenOrders: 100,
		RevenueBasis:  RevenueBasisTotal,
	}
}

// Service implements the ledger operations: shares, revenue, marketplace,
// governance, funds and roles. Each mutating method runs in one transaction.
type Service struct {
	database Database
	blocks   BlockSource
	settings Settings
	effects  *EffectRegistry
	logger   Logger
}

// NewService creates a Service with the default proposal effects registered.
func NewService(database Database, blocks BlockSource, settings Settings, logger Logger) *Service {
	s := &Service{
		database: database,
		blocks:   blocks,
		settings: settings,
		logger:   logger,
	}
	s.effects = defaultEffects(s)
	return s
}

// Settings returns the parameters the service was created with.
func (s *Service) Settings() Settings {
	return s.settings
}

// Effects exposes the proposal effect registry so callers can add types.
func (s *Service) Effects() *EffectRegistry {
	return s.effects
}

// atomic runs fn in one transaction at the current block height.
func (s *Service) atomic(fn func(tx Tx, height uint64) error) error {
	height, err := s.blocks.Height()
	if err != nil {
		return fmt.Errorf("reading block height: %w", err)
	}
	return s.database.Atomic(func(tx Tx) error {
		return fn(tx, height)
	})
}

// view runs a read-only fn at the current block height.
func (s *Service) view(fn func(tx Tx, height uint64) error) error {
	height, err := s.blocks.Height()
	if err != nil {
		return fmt.Errorf("reading block height: %w", err)
	}
	return s.database.View(func(tx Tx) error {
		return fn(tx, height)
	})
}

// tradingFeeBps returns the governance-set fee, falling back to settings.
func (s *Service) tradingFeeBps(tx Tx) (uint64, error) {
	v, ok, err := tx.GetParam(paramTradingFee)
	if err != nil {
		return 0, fmt.Errorf("reading trading fee: %w", err)
	}
	if !ok {
		return s.settings.TradingFeeBps, nil
	}
	bps, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing trading fee %q: %w", v, err)
	}
	return bps, nil
}

// TradingFeeBps returns the fee currently charged on trades.
func (s *Service) TradingFeeBps() (uint64, error) {
	var bps uint64
	err := s.database.View(func(tx Tx) error {
		var err error
		bps, err = s.tradingFeeBps(tx)
		return err
	})
	return bps, err
}
