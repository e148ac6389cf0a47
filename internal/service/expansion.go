package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"flashzen/internal/domain"
	"flashzen/internal/validation"

	"go.uber.org/zap"
)

// ExpansionKind selects which list an expansion grows.
type ExpansionKind string

const (
	ExpandFlashcards ExpansionKind = "flashcards"
	ExpandQuiz       ExpansionKind = "quiz"
)

// ExpansionStatus distinguishes a successful append from a legitimate empty
// expansion.
type ExpansionStatus string

const (
	ExpansionAdded      ExpansionStatus = "added"
	ExpansionNoNewItems ExpansionStatus = "no_new_items"
)

// ExpandOptions carries the generation context for an expansion.
type ExpandOptions struct {
	Topic      string
	Difficulty domain.Difficulty
}

// ExpansionResult reports what an expansion appended.
type ExpansionResult struct {
	Kind               ExpansionKind         `json:"kind"`
	Requested          int                   `json:"requested"`
	Status             ExpansionStatus       `json:"status"`
	AddedFlashcards    []domain.Flashcard    `json:"addedFlashcards"`
	AddedQuizQuestions []domain.QuizQuestion `json:"addedQuizQuestions"`
	Warnings           []string              `json:"warnings,omitempty"`
}

// SessionAppender is the part of the session store an expansion needs.
type SessionAppender interface {
	Snapshot() domain.StudySet
	Append(flashcards []domain.Flashcard, quizQuestions []domain.QuizQuestion)
}

// ExpansionCoordinator asks the generator for more items of one kind and
// appends the valid ones. It holds no per-call state; callers keep at most
// one expansion in flight.
type ExpansionCoordinator struct {
	generator domain.Generator
	store     SessionAppender
	validator *validation.Validator
	logger    *zap.Logger
}

func NewExpansionCoordinator(generator domain.Generator, store SessionAppender, logger *zap.Logger) *ExpansionCoordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpansionCoordinator{
		generator: generator,
		store:     store,
		validator: validation.NewValidator(),
		logger:    logger,
	}
}

// Expand requests count new items of kind. Input errors are returned before
// the generator is called. A parse failure of the requested kind is an error
// and leaves the session unchanged; zero valid items is a no_new_items result.
func (c *ExpansionCoordinator) Expand(ctx context.Context, kind ExpansionKind, count int, opts ExpandOptions) (*ExpansionResult, error) {
	if errs := c.validator.ValidateExpandRequest(string(kind), count); len(errs) > 0 {
		return nil, errs
	}

	snapshot := c.store.Snapshot()
	req := domain.GenerationRequest{
		Prompt:     expansionPrompt(kind, count, opts.Topic),
		Difficulty: opts.Difficulty,
	}
	if req.Difficulty == "" {
		req.Difficulty = domain.DifficultyMedium
	}
	if kind == ExpandFlashcards {
		req.NumFlashcards = count
	} else {
		req.NumQuizQuestions = count
	}
	var err error
	if req.ExistingFlashcards, err = exclusionJSON(snapshot.Flashcards); err != nil {
		return nil, domain.NewInternalError("failed to encode existing flashcards", err)
	}
	if req.ExistingQuizQuestions, err = exclusionJSON(snapshot.QuizQuestions); err != nil {
		return nil, domain.NewInternalError("failed to encode existing quiz questions", err)
	}

	c.logger.Info("Expanding session",
		zap.String("kind", string(kind)),
		zap.Int("count", count),
		zap.Int("existing_flashcards", len(snapshot.Flashcards)),
		zap.Int("existing_quiz_questions", len(snapshot.QuizQuestions)))

	out, err := c.generator.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &ExpansionResult{
		Kind:               kind,
		Requested:          count,
		AddedFlashcards:    []domain.Flashcard{},
		AddedQuizQuestions: []domain.QuizQuestion{},
	}

	// Each kind is normalized on its own; only the requested one can fail
	// the expansion.
	cards, cardErr := normalizeOptional(out.Flashcards, validation.NormalizeFlashcards)
	questions, quizErr := normalizeOptional(out.QuizQuestions, validation.NormalizeQuizQuestions)

	switch kind {
	case ExpandFlashcards:
		if cardErr != nil {
			return nil, normalizeFailure(cardErr)
		}
		if quizErr != nil {
			result.Warnings = append(result.Warnings, "Ignored unusable quiz questions in the response.")
		}
		result.AddedFlashcards = cards
	case ExpandQuiz:
		if quizErr != nil {
			return nil, normalizeFailure(quizErr)
		}
		if cardErr != nil {
			result.Warnings = append(result.Warnings, "Ignored unusable flashcards in the response.")
		}
		result.AddedQuizQuestions = questions
	}

	if len(result.AddedFlashcards) == 0 && len(result.AddedQuizQuestions) == 0 {
		result.Status = ExpansionNoNewItems
		c.logger.Info("Expansion produced no new items", zap.String("kind", string(kind)))
		return result, nil
	}

	c.store.Append(result.AddedFlashcards, result.AddedQuizQuestions)
	result.Status = ExpansionAdded
	c.logger.Info("Expansion appended",
		zap.String("kind", string(kind)),
		zap.Int("added_flashcards", len(result.AddedFlashcards)),
		zap.Int("added_quiz_questions", len(result.AddedQuizQuestions)))
	return result, nil
}

func expansionPrompt(kind ExpansionKind, count int, topic string) string {
	noun := "flashcards"
	if kind == ExpandQuiz {
		noun = "multiple-choice quiz questions"
	}
	if topic == "" {
		return fmt.Sprintf("Generate %d new, distinct %s that extend the existing study set on the same subject.", count, noun)
	}
	return fmt.Sprintf("Generate %d new, distinct %s about: %s. They must extend the existing study set.", count, noun, topic)
}

func exclusionJSON[T any](items []T) (string, error) {
	if len(items) == 0 {
		return "", nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// normalizeOptional treats an absent payload as an empty list.
func normalizeOptional[T any](raw string, normalize func(any) ([]T, error)) ([]T, error) {
	if raw == "" {
		return []T{}, nil
	}
	items, err := normalize(raw)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// normalizeFailure converts a normalizer error into a DomainError with the
// matching parse, schema or empty-result code.
func normalizeFailure(err error) *domain.DomainError {
	var nerr *validation.NormalizeError
	if errors.As(err, &nerr) {
		return domain.NewError(nerr.Code(), normalizeMessage(nerr), err).WithContext("raw", nerr.Raw)
	}
	return domain.NewInternalError("failed to normalize generated items", err)
}

func normalizeMessage(nerr *validation.NormalizeError) string {
	switch nerr.Code() {
	case domain.CodeParseError:
		return fmt.Sprintf("The AI returned %s in an unexpected format. Please try again.", nerr.Items)
	case domain.CodeSchemaError:
		return fmt.Sprintf("The AI response for %s was not a list. Please try again.", nerr.Items)
	default:
		return fmt.Sprintf("The AI response contained no usable %s. Please try again.", nerr.Items)
	}
}
