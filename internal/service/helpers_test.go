package service

import (
	"encoding/json"
	"fmt"
	"testing"

	"flashzen/internal/domain"
	"flashzen/internal/validation"

	"github.com/stretchr/testify/require"
)

func cardsJSON(t *testing.T, prefix string, n int) string {
	t.Helper()
	items := make([]map[string]string, n)
	for i := range items {
		items[i] = map[string]string{
			"question": fmt.Sprintf("%s question %d", prefix, i),
			"answer":   fmt.Sprintf("%s answer %d", prefix, i),
		}
	}
	b, err := json.Marshal(items)
	require.NoError(t, err)
	return string(b)
}

func quizJSON(t *testing.T, prefix string, n int) string {
	t.Helper()
	items := make([]map[string]any, n)
	for i := range items {
		right := fmt.Sprintf("%s right %d", prefix, i)
		items[i] = map[string]any{
			"question":      fmt.Sprintf("%s quiz %d", prefix, i),
			"options":       []string{right, "wrong a", "wrong b", "wrong c"},
			"correctAnswer": right,
		}
	}
	b, err := json.Marshal(items)
	require.NoError(t, err)
	return string(b)
}

func intPtr(v int) *int { return &v }

func requireCode(t *testing.T, err error, code domain.ErrorCode) {
	t.Helper()
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, code, domainErr.Code)
}

func mustCards(t *testing.T, raw string) []domain.Flashcard {
	t.Helper()
	cards, err := validation.NormalizeFlashcards(raw)
	require.NoError(t, err)
	return cards
}

func mustQuestions(t *testing.T, raw string) []domain.QuizQuestion {
	t.Helper()
	questions, err := validation.NormalizeQuizQuestions(raw)
	require.NoError(t, err)
	return questions
}
