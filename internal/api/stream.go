package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"rmultiple-lab/internal/domain"
	"rmultiple-lab/internal/service"
)

const (
	streamReadTimeout  = 30 * time.Second
	streamWriteTimeout = 10 * time.Second
)

// streamRequest is the single message a client sends after connecting.
type streamRequest struct {
	Mode        domain.SizingMode  `json:"mode"`
	RiskPercent float64            `json:"risk_percent"`
	StrategyKey string             `json:"strategy_key"`
	Params      map[string]float64 `json:"params"`
	Count       int                `json:"count"`
	Chunk       int                `json:"chunk"`
}

// streamFrame is sent by the server. Type is progress, done or error.
type streamFrame struct {
	Type           string        `json:"type"`
	TradesExecuted int           `json:"trades_executed"`
	Total          int           `json:"total,omitempty"`
	AccountCrashed bool          `json:"account_crashed"`
	Stats          *domain.Stats `json:"stats,omitempty"`
	Error          string        `json:"error,omitempty"`
	Status         int           `json:"status,omitempty"`

	History []domain.HistoryPoint `json:"history,omitempty"`
}

// handleStream runs one chunked batch and reports progress after each chunk.
func (s *Server) handleStream(c *gin.Context) {
	id := c.Param("id")

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.String("session_id", id), zap.Error(err))
		return
	}
	defer conn.Close()

	if s.metrics != nil {
		s.metrics.StreamsActive.Inc()
		defer s.metrics.StreamsActive.Dec()
	}

	var req streamRequest
	_ = conn.SetReadDeadline(time.Now().Add(streamReadTimeout))
	if err := conn.ReadJSON(&req); err != nil {
		s.writeFrame(conn, streamFrame{Type: "error", Error: "invalid request: " + err.Error(), Status: http.StatusBadRequest})
		return
	}

	chunk := req.Chunk
	if chunk <= 0 {
		chunk = s.defaultChunk
	}
	batch := service.BatchRequest{
		Mode:        sizingMode(req.Mode, req.StrategyKey),
		RiskPercent: req.RiskPercent,
		StrategyKey: req.StrategyKey,
		Params:      req.Params,
		Count:       req.Count,
	}

	var writeErr error
	res, err := s.sessions.ExecuteChunked(c.Request.Context(), id, batch, chunk, func(p service.Progress) error {
		writeErr = s.writeFrame(conn, streamFrame{
			Type:           "progress",
			TradesExecuted: p.TradesExecuted,
			Total:          p.Total,
			AccountCrashed: p.AccountCrashed,
			Stats:          statsView(p.Stats),
		})
		return writeErr
	})
	if writeErr != nil {
		// The client is gone; the run was stopped and not saved.
		s.logger.Info("stream abandoned", zap.String("session_id", id), zap.Error(writeErr))
		return
	}
	if err != nil {
		s.writeFrame(conn, streamFrame{Type: "error", Error: err.Error(), Status: errorStatus(err)})
		return
	}

	s.writeFrame(conn, streamFrame{
		Type:           "done",
		TradesExecuted: res.TradesExecuted,
		Total:          req.Count,
		AccountCrashed: res.AccountCrashed,
		Stats:          statsView(res.Stats),
		History:        res.History,
	})
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(streamWriteTimeout))
}

func (s *Server) writeFrame(conn *websocket.Conn, f streamFrame) error {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	if err := conn.WriteJSON(f); err != nil {
		s.logger.Debug("websocket write failed", zap.Error(err))
		return err
	}
	return nil
}
