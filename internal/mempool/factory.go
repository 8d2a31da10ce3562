package mempool

import (
	"fmt"

	"realvora-go/internal/config"
	"realvora-go/internal/ledger"
)

// DefaultMaxCalls bounds the queue when max_calls is unset.
const DefaultMaxCalls = 1000

// NewMempoolFromConfig creates a Mempool implementation based on the config type.
func NewMempoolFromConfig(cfg config.MempoolConfig) (ledger.Mempool, error) {
	maxCalls := cfg.MaxCalls
	if maxCalls <= 0 {
		maxCalls = DefaultMaxCalls
	}

	switch cfg.Type {
	case "memory":
		return NewMemoryMempool(maxCalls), nil
	case "filesystem":
		if cfg.MempoolDir == "" {
			return nil, fmt.Errorf("filesystem mempool requires mempool_dir to be set")
		}
		return NewFileSystemMempool(cfg.MempoolDir, maxCalls)
	default:
		return nil, fmt.Errorf("unknown mempool type: %s", cfg.Type)
	}
}
