// Package engine implements the simulation core: session state, the trade
// executor and the batch runner.
package engine

import "github.com/shopspring/decimal"

// AmountScale is the number of decimal places kept on risk amounts.
// Profit and capital are then exact sums of scaled amounts.
const AmountScale = 10

// Config holds engine limits.
type Config struct {
	// MinCapital is the smallest accepted initial capital.
	MinCapital decimal.Decimal
	// CrashThreshold is the capital below which the account is crashed.
	CrashThreshold decimal.Decimal
	// MaxBatchCount caps the trades of a single batch call.
	MaxBatchCount int
	// MaxStreamCount caps the total trades of a chunked run. Zero means
	// no cap.
	MaxStreamCount int
}

// DefaultConfig returns the default engine limits.
func DefaultConfig() Config {
	return Config{
		MinCapital:     decimal.NewFromInt(100),
		CrashThreshold: decimal.NewFromInt(1),
		MaxBatchCount:  10000,
		MaxStreamCount: 1000000,
	}
}
