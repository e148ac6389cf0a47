package quizgen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"flashzen/internal/domain"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// LangChainGenerator produces study material through any langchaingo model.
type LangChainGenerator struct {
	llm         llms.Model
	temperature float64
	timeout     time.Duration
	logger      *zap.Logger
}

var _ domain.Generator = (*LangChainGenerator)(nil)

// NewLangChainGenerator wraps an already constructed model.
func NewLangChainGenerator(llm llms.Model, temperature float64, timeout time.Duration, logger *zap.Logger) (*LangChainGenerator, error) {
	if llm == nil {
		return nil, errors.New("llm model cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LangChainGenerator{llm: llm, temperature: temperature, timeout: timeout, logger: logger}, nil
}

// NewOllamaGenerator connects to a local Ollama server.
func NewOllamaGenerator(serverURL, model string, temperature float64, timeout time.Duration, logger *zap.Logger) (*LangChainGenerator, error) {
	if serverURL == "" {
		return nil, errors.New("ollama server URL cannot be empty")
	}
	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     30 * time.Second,
		},
	}
	llm, err := ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(model),
		ollama.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	return NewLangChainGenerator(llm, temperature, timeout, logger)
}

// NewOpenAIGenerator uses the OpenAI chat completion API.
func NewOpenAIGenerator(apiKey, model string, temperature float64, timeout time.Duration, logger *zap.Logger) (*LangChainGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("API key cannot be empty")
	}
	llm, err := openai.New(openai.WithToken(apiKey), openai.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	return NewLangChainGenerator(llm, temperature, timeout, logger)
}

func (g *LangChainGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	prompt := BuildPrompt(req)
	g.logger.Debug("Generating study material",
		zap.Int("num_flashcards", req.NumFlashcards),
		zap.Int("num_quiz_questions", req.NumQuizQuestions),
		zap.String("difficulty", string(req.Difficulty)),
		zap.Int("prompt_length", len(prompt)))

	raw, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt, llms.WithTemperature(g.temperature))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			g.logger.Error("LLM request timed out", zap.Error(err))
		} else {
			g.logger.Error("Failed to get response from LLM", zap.Error(err))
		}
		return nil, domain.NewLLMServiceError(err)
	}
	g.logger.Debug("Raw LLM response received", zap.Int("length", len(raw)))

	return ParseOutput(raw, req.NumFlashcards > 0, req.NumQuizQuestions > 0), nil
}
