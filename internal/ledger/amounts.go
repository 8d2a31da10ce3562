package ledger

import (
	"math"
	"math/bits"
)

// maxAmount is the largest amount the store can hold.
const maxAmount = math.MaxInt64

func addAmount(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 || sum > maxAmount {
		return 0, ErrAmountOverflow
	}
	return sum, nil
}

func mulAmount(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 || lo > maxAmount {
		return 0, ErrAmountOverflow
	}
	return lo, nil
}

// mulDiv returns floor(a*b/c) using a 128-bit intermediate.
func mulDiv(a, b, c uint64) (uint64, error) {
	if c == 0 {
		return 0, ErrInvalidQuantity
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		return 0, ErrAmountOverflow
	}
	q, _ := bits.Div64(hi, lo, c)
	if q > maxAmount {
		return 0, ErrAmountOverflow
	}
	return q, nil
}
