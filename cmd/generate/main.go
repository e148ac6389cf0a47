package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flashzen/internal/adapter"
	"flashzen/internal/adapter/quizgen"
	"flashzen/internal/adapter/websearch"
	"flashzen/internal/cache"
	"flashzen/internal/config"
	"flashzen/internal/domain"
	"flashzen/internal/logger"
	"flashzen/internal/service"

	"go.uber.org/zap"
)

func main() {
	var (
		topicsFile   = flag.String("topics", "", "JSON file with an array of topics (optional)")
		topic        = flag.String("topic", "", "Single topic to generate")
		numCards     = flag.Int("flashcards", -1, "Flashcards per topic (default from config)")
		numQuiz      = flag.Int("quiz", -1, "Quiz questions per topic, 0 for none (default from config)")
		difficulty   = flag.String("difficulty", "", "Easy, Medium, Hard or Expert")
		useWebSearch = flag.Bool("search", false, "Add DuckDuckGo context to the prompt")
		outDir       = flag.String("out", "./decks", "Output directory for export files")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Get()

	topics, err := loadTopics(*topicsFile, *topic)
	if err != nil {
		log.Fatal("Failed to read topics", zap.Error(err))
	}
	for i := range topics {
		if *numCards >= 0 && topics[i].NumFlashcards == nil {
			topics[i].NumFlashcards = numCards
		}
		if *numQuiz >= 0 && topics[i].NumQuizQuestions == nil {
			topics[i].NumQuizQuestions = numQuiz
		}
		if topics[i].Difficulty == "" {
			topics[i].Difficulty = *difficulty
		}
		topics[i].UseWebSearch = topics[i].UseWebSearch || *useWebSearch
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	generator, closeGenerator, err := quizgen.NewFromConfig(ctx, cfg.LLM, log)
	if err != nil {
		log.Fatal("Failed to create generator", zap.Error(err))
	}
	defer closeGenerator()

	var cacheAdapter domain.Cache
	if cfg.Redis.Address != "" {
		redisClient, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to initialize Redis Client", zap.Error(err))
		}
		defer redisClient.Close()
		cacheAdapter = adapter.NewRedisCacheAdapter(redisClient, log)
	} else {
		log.Warn("Redis cache is not configured. Running without cache.")
	}

	var searcher domain.WebSearcher
	if cfg.Search.Enabled {
		searcher = service.NewCachedSearchService(
			websearch.NewDuckDuckGo(cfg.Search.Endpoint, cfg.Search.MaxContextChars, cfg.Search.Timeout, log),
			cacheAdapter,
			cfg.ParseTTLStringOrDefault(cfg.CacheTTLs.SearchContext, 30*time.Minute),
			log,
		)
	}

	defaultDifficulty, err := domain.ParseDifficulty(cfg.Generation.DefaultDifficulty)
	if err != nil {
		log.Fatal("Invalid generation.default_difficulty", zap.Error(err))
	}
	batch := service.NewBatchService(generator, searcher, service.GenerationDefaults{
		NumFlashcards:    cfg.Generation.DefaultFlashcards,
		NumQuizQuestions: cfg.Generation.DefaultQuizQuestions,
		Difficulty:       defaultDifficulty,
	}, log)

	results, err := batch.GenerateDecks(ctx, topics, *outDir)
	if err != nil {
		log.Error("Batch generation stopped", zap.Error(err))
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
			fmt.Printf("FAIL  %s: %s\n", r.Topic, r.Error)
			continue
		}
		fmt.Printf("OK    %s -> %s (%d flashcards, %d quiz questions)\n", r.Topic, r.File, r.Flashcards, r.QuizQuestions)
		for _, w := range r.Warnings {
			fmt.Printf("      warning: %s\n", w)
		}
	}
	if failed > 0 || err != nil {
		os.Exit(1)
	}
}

func loadTopics(path, single string) ([]service.BatchTopic, error) {
	if path == "" {
		if single == "" {
			return nil, fmt.Errorf("either -topic or -topics is required")
		}
		return []service.BatchTopic{{Topic: single}}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var topics []service.BatchTopic
	if err := json.Unmarshal(data, &topics); err != nil {
		return nil, fmt.Errorf("invalid topics file %s: %w", path, err)
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("topics file %s is empty", path)
	}
	return topics, nil
}
