package quizgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"flashzen/internal/domain"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GeminiGenerator asks Gemini for JSON output directly.
type GeminiGenerator struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
	logger  *zap.Logger
}

var _ domain.Generator = (*GeminiGenerator)(nil)

func NewGeminiGenerator(ctx context.Context, apiKey, modelName string, temperature float32, timeout time.Duration, logger *zap.Logger) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("API key cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.ResponseMIMEType = "application/json"

	return &GeminiGenerator{client: client, model: model, timeout: timeout, logger: logger}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(BuildPrompt(req)))
	if err != nil {
		g.logger.Error("Gemini generation failed", zap.Error(err))
		return nil, domain.NewLLMServiceError(err)
	}

	raw := responseText(resp)
	if raw == "" {
		g.logger.Warn("Gemini returned no text content")
	}
	return ParseOutput(raw, req.NumFlashcards > 0, req.NumQuizQuestions > 0), nil
}

// Close releases the underlying client.
func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				b.WriteString(string(txt))
			}
		}
		// First candidate with content wins.
		if b.Len() > 0 {
			break
		}
	}
	return b.String()
}
