package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SimulationSpec configures one group of independent simulations for a
// single strategy configuration.
type SimulationSpec struct {
	StrategyKey     string             `json:"strategy_key"`
	Params          map[string]float64 `json:"params,omitempty"`
	NumSimulations  int                `json:"num_simulations"`
	NumTrades       int                `json:"num_trades"`
	InitialCapital  decimal.Decimal    `json:"initial_capital"`
	Preset          string             `json:"preset,omitempty"`
	Outcomes        map[int]float64    `json:"outcomes,omitempty"`
	KeepEquityCurve bool               `json:"keep_equity_curve,omitempty"`
}

// BatchStatus is the lifecycle state of a simulation batch.
type BatchStatus string

// Batch status constants
const (
	BatchStatusPending   BatchStatus = "pending"
	BatchStatusRunning   BatchStatus = "running"
	BatchStatusCompleted BatchStatus = "completed"
	BatchStatusFailed    BatchStatus = "failed"
)

// SimulationBatch groups the simulations launched by one request.
type SimulationBatch struct {
	BatchID          string
	Name             string
	Status           BatchStatus
	TotalSimulations int
	ErrorMessage     string
	CreatedAt        time.Time
	CompletedAt      *time.Time
}

// SimulationResult is the summary of one simulation inside a batch.
// Corresponds to simulation_results table.
type SimulationResult struct {
	BatchID         string
	StrategyKey     string // catalog key
	UniqueKey       string // strategy key + params hash
	SimulationIndex int
	Seed            uint64

	TradesExecuted int
	Crashed        bool

	InitialCapital    float64
	FinalCapital      float64
	PerformancePct    float64
	MaxCapital        float64
	MaxDrawdownPct    float64
	MaxPerformancePct float64

	AvgRiskPercent float64
	AvgRiskAmount  float64
	AvgProfitLoss  float64
	ProfitLossStd  float64 // population std dev of per-trade P&L

	MaxConsecutiveWins   int
	MaxConsecutiveLosses int
	SuccessRate          float64
	Wins                 int
	Losses               int

	EquityCurve []float64 // capital after each trade, optional
}

// StrategyAggregate represents per-strategy aggregate metrics of a batch.
// Corresponds to strategy_aggregates table.
type StrategyAggregate struct {
	BatchID     string `json:"batch_id"`
	UniqueKey   string `json:"unique_key"`
	StrategyKey string `json:"strategy_key"`

	Simulations int `json:"simulations"`
	Crashes     int `json:"crashes"`

	// Performance
	PerformanceMean   float64 `json:"performance_mean"`
	PerformanceMin    float64 `json:"performance_min"`
	PerformanceMax    float64 `json:"performance_max"`
	PerformanceStddev float64 `json:"performance_stddev"`
	PerformanceMedian float64 `json:"performance_median"`

	// Drawdown (values are <= 0, min is the worst)
	MaxDrawdownMean float64 `json:"max_drawdown_mean"`
	MaxDrawdownMin  float64 `json:"max_drawdown_min"`
	MaxDrawdownMax  float64 `json:"max_drawdown_max"`

	AvgSuccessRate          float64 `json:"avg_success_rate"`
	AvgMaxConsecutiveWins   float64 `json:"avg_max_consecutive_wins"`
	AvgMaxConsecutiveLosses float64 `json:"avg_max_consecutive_losses"`
	AvgFinalCapital         float64 `json:"avg_final_capital"`
}
