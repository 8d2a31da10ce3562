package app

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Ledger amounts are integer micro-STX.
const microDecimals = 6

// FormatAmount renders a micro-STX amount as STX, e.g. 1500000 -> "1.500000 STX".
func FormatAmount(micro uint64) string {
	d := decimal.NewFromBigInt(new(big.Int).SetUint64(micro), -microDecimals)
	return d.StringFixed(microDecimals) + " STX"
}

// FormatBps renders basis points as a percentage, e.g. 250 -> "2.50%".
func FormatBps(bps uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(bps), -2).StringFixed(2) + "%"
}

// ParseAmount reads an amount given either as integer micro-STX ("1500000")
// or as STX with an explicit suffix ("1.5STX", "1.5 stx").
func ParseAmount(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	if !strings.HasSuffix(lower, "stx") {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("amount %q out of range", s)
		}
		return v, nil
	}

	d, err := decimal.NewFromString(strings.TrimSpace(s[:len(s)-3]))
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount %q is negative", s)
	}
	micro := d.Shift(microDecimals)
	if !micro.Equal(micro.Truncate(0)) {
		return 0, fmt.Errorf("amount %q has more than %d decimals", s, microDecimals)
	}
	n := micro.BigInt()
	if !n.IsInt64() {
		return 0, fmt.Errorf("amount %q out of range", s)
	}
	return uint64(n.Int64()), nil
}
