// @title FlashZen API
// @version 1.0
// @description Local study server: generate flashcards and quizzes with an LLM, expand them, and take quizzes.
// @contact.name API Support
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8090
// @BasePath /api
// @schemes http
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "flashzen/cmd/api/docs"
	"flashzen/internal/adapter"
	"flashzen/internal/adapter/pdfextract"
	"flashzen/internal/adapter/quizgen"
	"flashzen/internal/adapter/speech"
	"flashzen/internal/adapter/websearch"
	"flashzen/internal/cache"
	"flashzen/internal/config"
	"flashzen/internal/domain"
	"flashzen/internal/handler"
	"flashzen/internal/logger"
	"flashzen/internal/middleware"
	"flashzen/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	ctx := context.Background()

	// Redis is optional; without it search and PDF results are not cached.
	var cacheAdapter domain.Cache
	if cfg.Redis.Address != "" {
		redisClient, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		cacheAdapter = adapter.NewRedisCacheAdapter(redisClient, appLogger)
		appLogger.Info("Successfully connected to Redis", zap.String("address", cfg.Redis.Address))
	} else {
		appLogger.Info("Redis not configured, caching disabled")
	}

	generator, closeGenerator, err := quizgen.NewFromConfig(ctx, cfg.LLM, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create generator", zap.Error(err))
	}
	defer closeGenerator()
	appLogger.Info("Generator initialized", zap.String("provider", cfg.LLM.Provider), zap.String("model", cfg.LLM.Model))

	pdfService := service.NewCachedPDFService(
		pdfextract.NewExtractor(cfg.PDF.MaxBytes(), cfg.PDF.Timeout, appLogger),
		cacheAdapter,
		cfg.ParseTTLStringOrDefault(cfg.CacheTTLs.PDFExtraction, 24*time.Hour),
		cfg.PDF.MaxSizeMB,
		appLogger,
	)

	// Interfaces stay nil when a feature is off so the services can report it.
	var searcher domain.WebSearcher
	if cfg.Search.Enabled {
		searcher = service.NewCachedSearchService(
			websearch.NewDuckDuckGo(cfg.Search.Endpoint, cfg.Search.MaxContextChars, cfg.Search.Timeout, appLogger),
			cacheAdapter,
			cfg.ParseTTLStringOrDefault(cfg.CacheTTLs.SearchContext, 30*time.Minute),
			appLogger,
		)
	}

	var transcriber domain.Transcriber
	var speaker domain.Speaker
	if cfg.Speech.Enabled {
		speechService, err := speech.NewGeminiSpeech(ctx, cfg.LLM.GeminiAPIKey, cfg.Speech.Model, cfg.Speech.TTSModel, cfg.LLM.Timeout, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to create speech service", zap.Error(err))
		}
		defer speechService.Close()
		transcriber, speaker = speechService, speechService
	}

	defaults, err := generationDefaults(cfg.Generation)
	if err != nil {
		appLogger.Fatal("Invalid generation defaults", zap.Error(err))
	}
	seed := cfg.Generation.QuizSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	studyService := service.NewStudyService(generator, searcher, defaults, seed, appLogger)
	assistService := service.NewAssistService(pdfService, transcriber, speaker, searcher, appLogger)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		BodyLimit:    cfg.Server.BodyLimitMB * 1024 * 1024,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,DELETE,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept", MaxAge: 300}))
	app.Use(recover.New())

	app.Get("/swagger/*", swagger.HandlerDefault)

	handler.RegisterRoutes(app,
		handler.NewStudyHandler(studyService),
		handler.NewAssistHandler(assistService, cfg.PDF.MaxBytes()),
		handler.NewHealthHandler(cacheAdapter),
	)

	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", os.Getenv("ENV")))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}

func generationDefaults(cfg config.GenerationConfig) (service.GenerationDefaults, error) {
	difficulty, err := domain.ParseDifficulty(cfg.DefaultDifficulty)
	if err != nil {
		return service.GenerationDefaults{}, err
	}
	return service.GenerationDefaults{
		NumFlashcards:    cfg.DefaultFlashcards,
		NumQuizQuestions: cfg.DefaultQuizQuestions,
		Difficulty:       difficulty,
	}, nil
}
