package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/thinkingjet/SpeakSync/pkg/validator"

	"github.com/thinkingjet/SpeakSync/internal/adapter/handler"
	"github.com/thinkingjet/SpeakSync/internal/dispatch"
	"github.com/thinkingjet/SpeakSync/internal/infrastructure/cache"
	"github.com/thinkingjet/SpeakSync/internal/infrastructure/external/elevenlabs"
	"github.com/thinkingjet/SpeakSync/internal/notes"
	"github.com/thinkingjet/SpeakSync/internal/registry"
	"github.com/thinkingjet/SpeakSync/internal/translation"
	"github.com/thinkingjet/SpeakSync/internal/transport/ws"
	"github.com/thinkingjet/SpeakSync/internal/voice"
	pkgai "github.com/thinkingjet/SpeakSync/pkg/ai"
	"github.com/thinkingjet/SpeakSync/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	log.Println("🔧 Initializing dependencies...")

	// Voice cache backend: Redis when enabled, in-memory otherwise
	var voiceStore cache.Store
	if cfg.Redis.Enabled {
		log.Println("📦 Connecting to Redis...")
		redisStore, err := cache.NewRedisStore(cfg.GetRedisAddr(), cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisStore.Close()
		voiceStore = redisStore
	} else {
		log.Println("📦 Using in-memory voice cache")
		voiceStore = cache.NewMemoryStore()
	}

	// Vendor clients
	log.Println("🤖 Initializing vendor clients...")
	elevenClient := elevenlabs.NewClient(&cfg.ElevenLabs)
	openRouterClient := pkgai.NewOpenRouterClient(&cfg.Notes)
	transcriber := pkgai.NewTranscriber(&cfg.Assembly)

	// Room engine
	log.Println("🏠 Initializing room engine...")
	reg := registry.New(logger)
	hub := ws.NewHub(logger)
	gateway := translation.NewGateway(&cfg.Translation, logger)
	dispatcher := dispatch.New(reg, gateway, hub, logger)
	notesService := notes.NewService(reg, openRouterClient, gateway, hub, cfg.Notes.RequestTimeout, logger)
	voiceResolver := voice.NewResolver(elevenClient, voiceStore, cfg.ElevenLabs.VoiceCacheTTL, logger)

	// Transport
	log.Println("🔌 Initializing websocket transport...")
	frameHandler := ws.NewHandler(hub, reg, dispatcher, notesService, voiceResolver, transcriber, elevenClient.DefaultVoiceID(), logger)
	wsHandler := handler.NewWebSocket(hub, frameHandler, cfg.Server.AllowedOrigins, logger)

	// REST surface
	log.Println("🛣️  Setting up routes...")
	api := handler.NewAPI(gateway, elevenClient, voiceResolver, notesService, reg, hub, cfg.Server.Environment, logger)
	router := handler.NewRouter(api, wsHandler)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
