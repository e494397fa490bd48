package handlers

import (
	"errors"
	"net/http"

	"github.com/mashcatg/visa-cracked/internal/engine"
	"github.com/mashcatg/visa-cracked/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ResultsHandler owns the post-call pipeline endpoints: retrieving the
// authoritative call artifacts and dispatching analysis.
type ResultsHandler struct {
	log      *zap.Logger
	results  *services.Results
	analyzer *services.Analyzer
}

func NewResultsHandler(log *zap.Logger, results *services.Results, analyzer *services.Analyzer) *ResultsHandler {
	return &ResultsHandler{log: log, results: results, analyzer: analyzer}
}

// Retrieve runs the single-shot artifact fetch for a finished call. The
// session always leaves this endpoint with a terminal status; a failed
// status is the billing suppression signal for the credit ledger.
func (h *ResultsHandler) Retrieve(c *gin.Context) {
	sessionID := c.Param("id")

	session, err := h.results.Retrieve(c.Request.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoProviderCall):
			c.JSON(http.StatusNotFound, gin.H{"error": "no provider call found for interview"})
		case h.results.IsNotFound(err):
			c.JSON(http.StatusNotFound, gin.H{"error": "interview not found"})
		default:
			h.log.Error("Result retrieval failed", zap.String("session_id", sessionID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not retrieve results"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       session.Status,
		"transcript":   session.Transcript,
		"messages":     session.DecodedMessages(),
		"recordingUrl": session.RecordingURL,
		"duration":     session.Duration,
		"cost":         session.Cost,
	})
}

// Analyze dispatches one analysis attempt. Re-invoking it overwrites the
// previous report, which is the regenerate path.
func (h *ResultsHandler) Analyze(c *gin.Context) {
	sessionID := c.Param("id")

	report, err := h.analyzer.Analyze(c.Request.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInsufficientInput):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "transcript too short to analyze"})
		case errors.Is(err, engine.ErrUnavailable):
			h.log.Error("Analysis engine unavailable", zap.String("session_id", sessionID), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "analysis engine unavailable"})
		case h.results.IsNotFound(err):
			c.JSON(http.StatusNotFound, gin.H{"error": "interview not found"})
		default:
			h.log.Error("Analysis failed", zap.String("session_id", sessionID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not analyze interview"})
		}
		return
	}

	if report == nil {
		// Failed call: analysis is meaningless, not exceptional.
		c.JSON(http.StatusOK, gin.H{"analyzed": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"analyzed": true, "report": report})
}
