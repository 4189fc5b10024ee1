package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rmultiple-lab/internal/domain"
	"rmultiple-lab/internal/reporting"
)

type runSimulationsRequest struct {
	Name        string                  `json:"batch_name"`
	Simulations []domain.SimulationSpec `json:"simulations" binding:"required,min=1"`
}

type batchView struct {
	BatchID          string             `json:"batch_id"`
	Name             string             `json:"name"`
	Status           domain.BatchStatus `json:"status"`
	TotalSimulations int                `json:"total_simulations"`
	ErrorMessage     string             `json:"error_message,omitempty"`
	CreatedAt        string             `json:"created_at"`
	CompletedAt      string             `json:"completed_at,omitempty"`
}

func newBatchView(b *domain.SimulationBatch) batchView {
	v := batchView{
		BatchID:          b.BatchID,
		Name:             b.Name,
		Status:           b.Status,
		TotalSimulations: b.TotalSimulations,
		ErrorMessage:     b.ErrorMessage,
		CreatedAt:        b.CreatedAt.Format(timeLayout),
	}
	if b.CompletedAt != nil {
		v.CompletedAt = b.CompletedAt.Format(timeLayout)
	}
	return v
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func (s *Server) handleRunSimulations(c *gin.Context) {
	var req runSimulationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	report, err := s.runner.Run(c.Request.Context(), req.Name, req.Simulations)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"batch":      newBatchView(report.Batch),
		"aggregates": report.Aggregates,
	})
}

func (s *Server) handleListBatches(c *gin.Context) {
	batches, err := s.batches.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	views := make([]batchView, len(batches))
	for i, b := range batches {
		views[i] = newBatchView(b)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "batches": views})
}

func (s *Server) handleGetBatch(c *gin.Context) {
	ctx := c.Request.Context()
	batch, err := s.batches.GetByID(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	aggs, err := s.aggregates.GetByBatch(ctx, batch.BatchID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "batch": newBatchView(batch), "aggregates": aggs})
}

// handleBatchReport renders the batch report as markdown (default), csv or json.
func (s *Server) handleBatchReport(c *gin.Context) {
	report, err := s.reports.Generate(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	switch c.DefaultQuery("format", "markdown") {
	case "markdown", "md":
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(reporting.RenderMarkdown(report)))
	case "csv":
		c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(reporting.RenderCSV(report.Strategies)))
	case "json":
		c.JSON(http.StatusOK, gin.H{"success": true, "report": report})
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "unknown format " + c.Query("format")})
	}
}
