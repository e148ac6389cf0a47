package quizgen

import (
	"context"
	"fmt"

	"flashzen/internal/config"
	"flashzen/internal/domain"

	"go.uber.org/zap"
)

const (
	defaultOllamaModel = "qwen3:0.6b"
	defaultOpenAIModel = "gpt-4o-mini"
	defaultGeminiModel = "gemini-2.0-flash"
)

// NewFromConfig builds the generator selected by cfg.Provider. The returned
// close function releases provider clients and is never nil.
func NewFromConfig(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (domain.Generator, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Provider {
	case "ollama":
		g, err := NewOllamaGenerator(cfg.OllamaServerURL, modelOrDefault(cfg.Model, defaultOllamaModel), cfg.Temperature, cfg.Timeout, logger)
		if err != nil {
			return nil, noop, err
		}
		return g, noop, nil
	case "openai":
		g, err := NewOpenAIGenerator(cfg.OpenAIAPIKey, modelOrDefault(cfg.Model, defaultOpenAIModel), cfg.Temperature, cfg.Timeout, logger)
		if err != nil {
			return nil, noop, err
		}
		return g, noop, nil
	case "gemini":
		g, err := NewGeminiGenerator(ctx, cfg.GeminiAPIKey, modelOrDefault(cfg.Model, defaultGeminiModel), float32(cfg.Temperature), cfg.Timeout, logger)
		if err != nil {
			return nil, noop, err
		}
		return g, g.Close, nil
	default:
		return nil, noop, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

func modelOrDefault(model, def string) string {
	if model == "" {
		return def
	}
	return model
}
