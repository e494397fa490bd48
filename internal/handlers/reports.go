package handlers

import (
	"fmt"
	"net/http"

	"github.com/mashcatg/visa-cracked/internal/repository"
	"github.com/mashcatg/visa-cracked/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReportHandler serves the progressive report view and the plain-text
// download.
type ReportHandler struct {
	log     *zap.Logger
	reports *services.Reports
}

func NewReportHandler(log *zap.Logger, reports *services.Reports) *ReportHandler {
	return &ReportHandler{log: log, reports: reports}
}

// Show returns the session with whatever of its report exists so far. The
// report may be absent or partial; the complete flag tells the client when
// to stop polling.
func (h *ReportHandler) Show(c *gin.Context) {
	view, ok := h.loadView(c, false)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, view)
}

// ShowPublic serves a shared report without authentication, only for
// sessions the owner flagged public.
func (h *ReportHandler) ShowPublic(c *gin.Context) {
	view, ok := h.loadView(c, true)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, view)
}

// Download streams the plain-text rendering of the report.
func (h *ReportHandler) Download(c *gin.Context) {
	view, ok := h.loadView(c, false)
	if !ok {
		return
	}

	filename, body := h.reports.RenderText(view)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(body))
}

// loadView fetches the session+report view and applies access rules:
// owners see their own sessions, everyone sees public ones.
func (h *ReportHandler) loadView(c *gin.Context, publicOnly bool) (*services.ReportView, bool) {
	sessionID := c.Param("id")

	view, err := h.reports.Load(c.Request.Context(), sessionID)
	if err != nil {
		if repository.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "interview not found"})
		} else {
			h.log.Error("Failed to load report view", zap.String("session_id", sessionID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load report"})
		}
		return nil, false
	}

	if publicOnly {
		if !view.Session.IsPublic {
			c.JSON(http.StatusNotFound, gin.H{"error": "interview not found"})
			return nil, false
		}
		return view, true
	}

	if view.Session.UserID != c.GetString("userID") && !view.Session.IsPublic {
		c.JSON(http.StatusNotFound, gin.H{"error": "interview not found"})
		return nil, false
	}
	return view, true
}
