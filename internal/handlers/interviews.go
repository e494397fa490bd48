package handlers

import (
	"errors"
	"net/http"

	"github.com/mashcatg/visa-cracked/internal/config"
	"github.com/mashcatg/visa-cracked/internal/models"
	"github.com/mashcatg/visa-cracked/internal/provider"
	"github.com/mashcatg/visa-cracked/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InterviewHandler owns the session lifecycle endpoints: creating an
// attempt and starting the live provider call.
type InterviewHandler struct {
	log   *zap.Logger
	store repository.Store
	calls *provider.Client
}

func NewInterviewHandler(log *zap.Logger, store repository.Store, calls *provider.Client) *InterviewHandler {
	return &InterviewHandler{log: log, store: store, calls: calls}
}

type createInterviewRequest struct {
	CountryID  uint   `json:"countryId" binding:"required"`
	VisaTypeID uint   `json:"visaTypeId" binding:"required"`
	Difficulty string `json:"difficulty"`
	Name       string `json:"name"`
}

// Create registers a new pending session for the authenticated user.
func (h *InterviewHandler) Create(c *gin.Context) {
	userID := c.GetString("userID")

	var req createInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "countryId and visaTypeId are required"})
		return
	}

	difficulty := req.Difficulty
	switch difficulty {
	case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
	case "":
		difficulty = models.DifficultyMedium
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "difficulty must be easy, medium or hard"})
		return
	}

	session := &models.InterviewSession{
		ID:         uuid.NewString(),
		UserID:     userID,
		CountryID:  req.CountryID,
		VisaTypeID: req.VisaTypeID,
		Difficulty: difficulty,
		Name:       req.Name,
		Status:     models.SessionStatusPending,
	}

	if err := h.store.CreateSession(c.Request.Context(), session); err != nil {
		h.log.Error("Failed to create interview session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create interview"})
		return
	}

	c.JSON(http.StatusCreated, session)
}

// List returns the user's sessions, newest first.
func (h *InterviewHandler) List(c *gin.Context) {
	userID := c.GetString("userID")

	sessions, err := h.store.ListSessions(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("Failed to list interview sessions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load interviews"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"interviews": sessions})
}

// Start creates the provider web call for a session and hands the caller
// what the realtime SDK needs: the public key and the raw call config.
// The provider call id is linked to the session exactly once; repeat
// starts are rejected.
func (h *InterviewHandler) Start(c *gin.Context) {
	session, ok := h.ownedSession(c)
	if !ok {
		return
	}
	if session.Terminal() {
		c.JSON(http.StatusConflict, gin.H{"error": "interview already finished"})
		return
	}

	assistantID := session.VisaType.AssistantID
	if assistantID == "" {
		assistantID = config.Conf.Provider.AssistantID
	}

	call, err := h.calls.CreateWebCall(c.Request.Context(), assistantID)
	if err != nil {
		h.log.Error("Failed to create provider call",
			zap.String("session_id", session.ID),
			zap.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not start interview call"})
		return
	}

	if err := h.store.SetProviderCall(c.Request.Context(), session.ID, call.ID); err != nil {
		if errors.Is(err, repository.ErrProviderCallSet) {
			c.JSON(http.StatusConflict, gin.H{"error": "interview call already started"})
			return
		}
		h.log.Error("Failed to link provider call", zap.String("session_id", session.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start interview"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"publicKey":  call.PublicKey,
		"callConfig": call.Config,
	})
}

// ownedSession loads the path session and enforces ownership. Missing and
// foreign sessions are indistinguishable to the caller.
func (h *InterviewHandler) ownedSession(c *gin.Context) (*models.InterviewSession, bool) {
	userID := c.GetString("userID")

	session, err := h.store.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		if repository.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "interview not found"})
		} else {
			h.log.Error("Failed to load interview session", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load interview"})
		}
		return nil, false
	}
	if session.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "interview not found"})
		return nil, false
	}
	return session, true
}
