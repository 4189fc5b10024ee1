package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"rmultiple-lab/internal/domain"
	"rmultiple-lab/internal/service"
)

type startSessionRequest struct {
	SessionID      string          `json:"session_id"`
	InitialCapital decimal.Decimal `json:"initial_capital"`
	Preset         string          `json:"preset"`
	Outcomes       map[int]float64 `json:"outcomes"`
	Seed           *uint64         `json:"seed"`
}

type tradeRequest struct {
	RiskPercent float64 `json:"risk_percent" binding:"required"`
}

type batchRequest struct {
	RiskPercent float64 `json:"risk_percent" binding:"required"`
	Count       int     `json:"count" binding:"required"`
}

type strategyBatchRequest struct {
	StrategyKey string             `json:"strategy_key" binding:"required"`
	Params      map[string]float64 `json:"params"`
	Count       int                `json:"count" binding:"required"`
}

func (s *Server) handlePresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "presets": s.sessions.Presets()})
}

func (s *Server) handleStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "strategies": s.sessions.Strategies()})
}

func (s *Server) handleStartSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	res, err := s.sessions.StartSession(c.Request.Context(), service.StartRequest{
		SessionID:      req.SessionID,
		InitialCapital: req.InitialCapital,
		Preset:         req.Preset,
		Outcomes:       req.Outcomes,
		Seed:           req.Seed,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session_id": res.SessionID, "seed": res.Seed})
}

func (s *Server) handleExecuteTrade(c *gin.Context) {
	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	res, err := s.sessions.ExecuteTrade(c.Request.Context(), c.Param("id"), req.RiskPercent)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"trade":           res.Trade,
		"current_capital": res.CurrentCapital,
		"account_crashed": res.AccountCrashed,
		"stats":           statsView(res.Stats),
		"history":         res.History,
	})
}

func (s *Server) handleExecuteBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	res, err := s.sessions.ExecuteBatch(c.Request.Context(), c.Param("id"), req.RiskPercent, req.Count)
	if err != nil {
		writeError(c, err)
		return
	}
	writeBatch(c, res)
}

func (s *Server) handleExecuteStrategyBatch(c *gin.Context) {
	var req strategyBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	res, err := s.sessions.ExecuteStrategyBatch(c.Request.Context(), c.Param("id"), req.StrategyKey, req.Params, req.Count)
	if err != nil {
		writeError(c, err)
		return
	}
	writeBatch(c, res)
}

func writeBatch(c *gin.Context, res *service.BatchResult) {
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"trades_executed": res.TradesExecuted,
		"current_capital": res.CurrentCapital,
		"account_crashed": res.AccountCrashed,
		"stats":           statsView(res.Stats),
		"history":         res.History,
	})
}

func (s *Server) handleStats(c *gin.Context) {
	res, err := s.sessions.Stats(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"stats":           statsView(res.Stats),
		"history":         res.History,
		"account_crashed": res.Stats.AccountCrashed,
	})
}

func (s *Server) handleRestart(c *gin.Context) {
	if err := s.sessions.Restart(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "account_crashed": false})
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	if err := s.sessions.DeleteSession(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// sizingMode defaults a stream request without a mode from its fields.
func sizingMode(mode domain.SizingMode, strategyKey string) domain.SizingMode {
	if mode != "" {
		return mode
	}
	if strategyKey != "" {
		return domain.SizingStrategy
	}
	return domain.SizingFixed
}
