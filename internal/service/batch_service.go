package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"flashzen/internal/domain"
	"flashzen/internal/validation"

	"go.uber.org/zap"
)

// BatchTopic is one deck to generate offline.
type BatchTopic struct {
	Topic            string `json:"topic"`
	NumFlashcards    *int   `json:"numFlashcards,omitempty"`
	NumQuizQuestions *int   `json:"numQuizQuestions,omitempty"`
	Difficulty       string `json:"difficulty,omitempty"`
	UseWebSearch     bool   `json:"useWebSearch,omitempty"`
}

// BatchItemResult reports the outcome for one topic.
type BatchItemResult struct {
	Topic         string   `json:"topic"`
	File          string   `json:"file,omitempty"`
	Flashcards    int      `json:"flashcards"`
	QuizQuestions int      `json:"quizQuestions"`
	Warnings      []string `json:"warnings,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// BatchService generates study sets for many topics and writes each one as
// an export file that the import endpoint accepts.
type BatchService struct {
	generator domain.Generator
	searcher  domain.WebSearcher
	defaults  GenerationDefaults
	logger    *zap.Logger
}

func NewBatchService(generator domain.Generator, searcher domain.WebSearcher, defaults GenerationDefaults, logger *zap.Logger) *BatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchService{generator: generator, searcher: searcher, defaults: defaults, logger: logger}
}

// GenerateDecks processes topics in order. A failing topic is recorded and
// the batch moves on.
func (s *BatchService) GenerateDecks(ctx context.Context, topics []BatchTopic, outDir string) ([]BatchItemResult, error) {
	s.logger.Info("Starting batch generation", zap.Int("topics", len(topics)), zap.Time("start_time", time.Now()))

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	results := make([]BatchItemResult, 0, len(topics))
	for i, t := range topics {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := s.generateOne(ctx, i, t, outDir)
		if res.Error != "" {
			s.logger.Error("Topic failed", zap.String("topic", t.Topic), zap.String("error", res.Error))
		} else {
			s.logger.Info("Topic written",
				zap.String("topic", t.Topic),
				zap.String("file", res.File),
				zap.Int("flashcards", res.Flashcards),
				zap.Int("quiz_questions", res.QuizQuestions))
		}
		results = append(results, res)
	}

	s.logger.Info("Batch generation finished", zap.Int("topics", len(results)))
	return results, nil
}

func (s *BatchService) generateOne(ctx context.Context, index int, t BatchTopic, outDir string) BatchItemResult {
	res := BatchItemResult{Topic: t.Topic}

	// A fresh session per topic: the first replace always applies.
	study := NewStudyService(s.generator, s.searcher, s.defaults, int64(index)+1, s.logger)
	out, err := study.Generate(ctx, GenerateInput{
		Prompt:           t.Topic,
		NumFlashcards:    t.NumFlashcards,
		NumQuizQuestions: t.NumQuizQuestions,
		Difficulty:       t.Difficulty,
		UseWebSearch:     t.UseWebSearch,
	})
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Warnings = out.Warnings
	if !out.Applied {
		res.Error = "no usable items were generated"
		return res
	}

	data, err := study.Export()
	if err != nil {
		res.Error = err.Error()
		return res
	}
	path := filepath.Join(outDir, deckFileName(index, t.Topic))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		res.Error = fmt.Sprintf("failed to write %s: %v", path, err)
		return res
	}

	res.File = path
	res.Flashcards = out.FlashcardCount
	res.QuizQuestions = out.QuizQuestionCount
	return res
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func deckFileName(index int, topic string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(topic), "-"), "-")
	if len(slug) > 40 {
		slug = strings.TrimRight(slug[:40], "-")
	}
	if slug == "" {
		slug = "deck"
	}
	return fmt.Sprintf("%02d_%s_%s", index+1, slug, validation.ExportFileName)
}
