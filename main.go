package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"live-quiz-service/config"
	"live-quiz-service/internal/game"
	"live-quiz-service/internal/handlers"
	"live-quiz-service/internal/questions"
	"live-quiz-service/internal/repository"
	ws "live-quiz-service/internal/websocket"
	"live-quiz-service/pkg/cache"
	"live-quiz-service/pkg/database"
)

func main() {
	cfg := config.Load()
	log.Println("Configuration loaded")

	pgClient, err := database.NewPostgresClient(&cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	log.Println("Connected to PostgreSQL")
	defer pgClient.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := pgClient.InitSchema(ctx); err != nil {
		log.Printf("Warning: Failed to initialize PostgreSQL schema: %v", err)
	} else {
		log.Println("PostgreSQL schema initialized")
	}
	cancel()

	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v", err)
		redisClient = nil
	} else {
		log.Println("Connected to Redis")
		defer redisClient.Close()
	}

	questionRepo := repository.NewQuestionRepository(pgClient.GetDB())
	resultRepo := repository.NewResultRepository(pgClient.GetDB())
	bank := questions.NewBank(questionRepo, redisClient)

	hub := ws.NewHub(resultRepo, redisClient)

	policy := game.Policy{
		HostGrace:    time.Duration(cfg.Game.HostGraceSeconds) * time.Second,
		EvictAfter:   time.Duration(cfg.Game.SessionEvictSeconds) * time.Second,
		MinReady:     cfg.Game.MinReadyToStart,
		RetainKicked: cfg.Game.RetainKickedScores,
	}
	registry := game.NewRegistry(clockwork.NewRealClock(), hub, policy)
	hub.SetRegistry(registry)

	go hub.Run()
	log.Println("WebSocket hub started")

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "live-quiz-service",
		})
	})

	router.GET("/ready", func(c *gin.Context) {
		if pgClient == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":       "ready",
			"active_games": registry.Count(),
		})
	})

	gameHandler := handlers.NewGameHandler(registry, bank, cfg)
	router.POST("/games", gameHandler.CreateGame)

	wsHandler := handlers.NewWebSocketHandler(hub, registry, cfg)
	router.GET("/ws", wsHandler.HandleWebSocket)

	httpAddr := ":" + cfg.Server.HTTPPort
	log.Printf("Live quiz service starting on port %s...", cfg.Server.HTTPPort)

	go func() {
		if err := router.Run(httpAddr); err != nil {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Live quiz service stopped")
}
