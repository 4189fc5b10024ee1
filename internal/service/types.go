package service

import (
	"github.com/shopspring/decimal"

	"rmultiple-lab/internal/domain"
)

// StartRequest starts or restarts a session.
// Outcomes take precedence over Preset; with neither the balanced preset is used.
type StartRequest struct {
	SessionID      string          `json:"session_id,omitempty"`
	InitialCapital decimal.Decimal `json:"initial_capital"`
	Preset         string          `json:"preset,omitempty"`
	Outcomes       map[int]float64 `json:"outcomes,omitempty"`
	Seed           *uint64         `json:"seed,omitempty"`
}

// StartResult is returned by StartSession.
type StartResult struct {
	SessionID string `json:"session_id"`
	Seed      uint64 `json:"seed"`
}

// BatchRequest selects the sizing of a batch.
type BatchRequest struct {
	Mode        domain.SizingMode  `json:"mode"`
	RiskPercent float64            `json:"risk_percent,omitempty"`
	StrategyKey string             `json:"strategy_key,omitempty"`
	Params      map[string]float64 `json:"params,omitempty"`
	Count       int                `json:"count"`
}

// TradeResult is returned by ExecuteTrade.
type TradeResult struct {
	Trade          domain.Trade          `json:"trade"`
	CurrentCapital decimal.Decimal       `json:"current_capital"`
	AccountCrashed bool                  `json:"account_crashed"`
	Stats          *domain.Stats         `json:"stats"`
	History        []domain.HistoryPoint `json:"history"`
}

// BatchResult is returned by the batch operations.
type BatchResult struct {
	TradesExecuted int                   `json:"trades_executed"`
	CurrentCapital decimal.Decimal       `json:"current_capital"`
	AccountCrashed bool                  `json:"account_crashed"`
	Stats          *domain.Stats         `json:"stats"`
	History        []domain.HistoryPoint `json:"history"`
}

// StatsResult is returned by Stats.
type StatsResult struct {
	Stats   *domain.Stats         `json:"stats"`
	History []domain.HistoryPoint `json:"history"`
}

// Progress is reported after each chunk of a streamed batch. It carries
// no history so a report costs the same at any point of the run.
type Progress struct {
	TradesExecuted int           `json:"trades_executed"`
	Total          int           `json:"total"`
	AccountCrashed bool          `json:"account_crashed"`
	Stats          *domain.Stats `json:"stats"`
}

// PresetInfo describes a preset distribution.
type PresetInfo struct {
	Key         string      `json:"key"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Counts      map[int]int `json:"counts"`
	Expectation float64     `json:"expectation"`
}
