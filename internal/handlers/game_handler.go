package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"live-quiz-service/config"
	"live-quiz-service/internal/constants"
	"live-quiz-service/internal/game"
	"live-quiz-service/internal/models"
	"live-quiz-service/internal/questions"
	"live-quiz-service/pkg/auth"
)

const (
	defaultQuestionCount   = 10
	maxQuestionCount       = 50
	defaultTimePerQuestion = 30
	maxTimePerQuestion     = 300
)

type GameHandler struct {
	registry *game.Registry
	bank     *questions.Bank
	config   *config.Config
}

func NewGameHandler(registry *game.Registry, bank *questions.Bank, cfg *config.Config) *GameHandler {
	return &GameHandler{
		registry: registry,
		bank:     bank,
		config:   cfg,
	}
}

type createGameRequest struct {
	Mode            string `json:"mode"`
	QuestionCount   int    `json:"question_count"`
	TimePerQuestion int    `json:"time_per_question"`
	Category        string `json:"category"`
}

// CreateGame is how a teacher opens a new lobby. Questions are sampled
// here, once; the session never re-samples. The caller gets back the join
// code to put on the board and then attaches as host over /ws.
func (h *GameHandler) CreateGame(c *gin.Context) {
	claims := hostClaims(c, h.config.Auth.JWTSecret)
	if claims == nil {
		return
	}

	var req createGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if req.Mode == "" {
		req.Mode = constants.GameModeIndividual
	}
	if req.Mode != constants.GameModeIndividual && req.Mode != constants.GameModeTeam {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Mode must be 'individual' or 'team'"})
		return
	}
	if req.QuestionCount <= 0 {
		req.QuestionCount = defaultQuestionCount
	}
	if req.QuestionCount > maxQuestionCount {
		req.QuestionCount = maxQuestionCount
	}
	if req.TimePerQuestion <= 0 {
		req.TimePerQuestion = defaultTimePerQuestion
	}
	if req.TimePerQuestion > maxTimePerQuestion {
		req.TimePerQuestion = maxTimePerQuestion
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	qs, err := h.bank.Sample(ctx, req.Category, req.QuestionCount)
	if err != nil {
		log.Printf("Failed to sample questions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load questions"})
		return
	}
	if len(qs) == 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "No questions available"})
		return
	}

	settings := models.Settings{
		Mode:            req.Mode,
		QuestionCount:   len(qs),
		TimePerQuestion: req.TimePerQuestion,
		Category:        req.Category,
	}

	session, err := h.registry.CreateSession(claims.UserID, settings, qs)
	if err != nil {
		if errors.Is(err, game.ErrCodeGenerationExhausted) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Could not allocate a game code, try again"})
			return
		}
		log.Printf("Failed to create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create game"})
		return
	}

	log.Printf("Game created: id=%s, code=%s, host=%s", session.ID, session.Code, claims.UserID)
	c.JSON(http.StatusCreated, gin.H{
		"game_id":  session.ID,
		"code":     session.Code,
		"settings": settings,
	})
}

// hostClaims validates the bearer token and writes the error response
// itself when validation fails.
func hostClaims(c *gin.Context, jwtSecret string) *auth.Claims {
	authHeader := c.GetHeader("Authorization")
	token := ""
	if parts := strings.SplitN(authHeader, " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
		token = parts[1]
	}
	if token == "" {
		// Browsers cannot set headers on websocket upgrades, so the token
		// may arrive as a query parameter instead.
		token = c.Query("token")
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing access token"})
		return nil
	}

	claims, err := auth.ValidateAccessToken(token, jwtSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid access token"})
		return nil
	}
	return claims
}
