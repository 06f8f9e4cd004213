package handlers

import (
	"fmt"
	"net/http"
	"time"

	"marketplace-backend/internal/dto"
	"marketplace-backend/internal/metrics"
	"marketplace-backend/internal/services"
	"marketplace-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RiskHandler serves wallet risk assessments. The scorer is deterministic and
// stateless; these endpoints exist for smoke-testing the screening path
// without a ledger.
type RiskHandler struct {
	scorer *services.RiskScorer
	logger *logrus.Logger
}

// NewRiskHandler creates a risk assessment handler.
func NewRiskHandler(scorer *services.RiskScorer) *RiskHandler {
	return &RiskHandler{
		scorer: scorer,
		logger: logrus.New(),
	}
}

// GetEntityHandler handles GET /api/risk/v2/entities/:address
func (h *RiskHandler) GetEntityHandler(c *gin.Context) {
	address := c.Param("address")
	if !utils.IsWalletAddress(address) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid address format",
			"details": fmt.Sprintf("address must match ^0x[a-fA-F0-9]{40}$, got %q", address),
		})
		return
	}

	assessment := h.scorer.Score(address)
	metrics.RiskAssessments.WithLabelValues(assessment.Risk).Inc()

	c.JSON(http.StatusOK, assessment)
}

// AnalyzeWalletHandler handles POST /api/wallet/analyze
func (h *RiskHandler) AnalyzeWalletHandler(c *gin.Context) {
	var req dto.WalletAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if !utils.IsWalletAddress(req.Address) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid address format",
			"details": fmt.Sprintf("address must match ^0x[a-fA-F0-9]{40}$, got %q", req.Address),
		})
		return
	}

	assessment := h.scorer.Score(req.Address)
	metrics.RiskAssessments.WithLabelValues(assessment.Risk).Inc()

	c.JSON(http.StatusOK, assessment)
}

// BulkAnalyzeHandler handles POST /api/wallet/analyze/bulk
// Accepts 1-100 addresses per request.
func (h *RiskHandler) BulkAnalyzeHandler(c *gin.Context) {
	var req dto.BulkAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if len(req.Addresses) == 0 || len(req.Addresses) > 100 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid batch size",
			"details": fmt.Sprintf("addresses must contain between 1 and 100 entries, got %d", len(req.Addresses)),
		})
		return
	}

	results := make([]gin.H, 0, len(req.Addresses))
	for _, address := range req.Addresses {
		if !utils.IsWalletAddress(address) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid address format",
				"details": fmt.Sprintf("address must match ^0x[a-fA-F0-9]{40}$, got %q", address),
			})
			return
		}

		assessment := h.scorer.Score(address)
		metrics.RiskAssessments.WithLabelValues(assessment.Risk).Inc()
		results = append(results, gin.H{
			"address":  address,
			"analysis": assessment,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"results":       results,
		"totalAnalyzed": len(results),
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}
