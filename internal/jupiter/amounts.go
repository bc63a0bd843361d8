package jupiter

import (
	"fmt"
	"math"
	"strconv"
)

// ToRawAmount converts a UI amount to the token's smallest unit,
// flooring fractional dust below one raw unit.
func ToRawAmount(uiAmount float64, decimals int) (uint64, error) {
	if uiAmount < 0 {
		return 0, fmt.Errorf("amount must be >= 0, got %v", uiAmount)
	}
	if decimals < 0 {
		return 0, fmt.Errorf("decimals must be >= 0, got %d", decimals)
	}
	raw := math.Floor(uiAmount * math.Pow10(decimals))
	if raw > math.MaxUint64 || math.IsInf(raw, 0) || math.IsNaN(raw) {
		return 0, fmt.Errorf("amount %v overflows at %d decimals", uiAmount, decimals)
	}
	return uint64(raw), nil
}

// FromRawAmount converts a raw integer string from the API back to a
// UI amount.
func FromRawAmount(raw string, decimals int) (float64, error) {
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid raw amount %q: %w", raw, err)
	}
	return float64(n) / math.Pow10(decimals), nil
}

// SlippageToBps converts a percentage to basis points, flooring
// sub-bps precision.
func SlippageToBps(pct float64) uint16 {
	if pct < 0 {
		return 0
	}
	bps := math.Floor(pct * 100)
	if bps > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(bps)
}
