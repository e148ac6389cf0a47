package domain

import (
	"context"
	"fmt"
	"strings"
)

// Difficulty steers the depth of generated content.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
	DifficultyExpert Difficulty = "Expert"
)

// ParseDifficulty accepts a case-insensitive level name. An empty string
// yields DifficultyMedium.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DifficultyMedium, nil
	case "easy":
		return DifficultyEasy, nil
	case "medium":
		return DifficultyMedium, nil
	case "hard":
		return DifficultyHard, nil
	case "expert":
		return DifficultyExpert, nil
	default:
		return "", fmt.Errorf("unknown difficulty %q", s)
	}
}

// EmptyJSONArray is how the generation service reports a requested kind
// that produced nothing.
const EmptyJSONArray = "[]"

// GenerationRequest is the input contract of the generation service.
type GenerationRequest struct {
	Prompt                string
	PDFText               string
	WebSearchContext      string
	NumFlashcards         int
	NumQuizQuestions      int
	ExistingFlashcards    string // JSON-encoded exclusion context
	ExistingQuizQuestions string // JSON-encoded exclusion context
	Difficulty            Difficulty
}

// GenerationResult carries stringified JSON arrays exactly as the service
// produced them. QuizQuestions is empty when no quiz was requested.
type GenerationResult struct {
	Flashcards    string
	QuizQuestions string
}

// Generator is the port for the LLM-backed content generation service.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error)
}
