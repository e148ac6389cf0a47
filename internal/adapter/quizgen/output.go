package quizgen

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"flashzen/internal/domain"
	"flashzen/internal/validation"
)

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// ParseOutput converts raw model text into a GenerationResult. Fields that
// arrive as arrays or objects instead of strings are re-encoded; a missing
// requested field becomes "[]". A bare JSON array is taken as the payload of
// the requested kind (flashcards when both are requested). Any other text
// that is not a JSON object is passed through in every requested field so
// the normalizer reports it.
func ParseOutput(raw string, flashcardsRequested, quizRequested bool) *domain.GenerationResult {
	cleaned := thinkBlock.ReplaceAllString(raw, "")
	cleaned = validation.StripCodeFence(cleaned)

	if arr, ok := extractArray(cleaned); ok {
		res := &domain.GenerationResult{Flashcards: domain.EmptyJSONArray}
		if quizRequested {
			res.QuizQuestions = domain.EmptyJSONArray
		}
		if quizRequested && !flashcardsRequested {
			res.QuizQuestions = arr
		} else {
			res.Flashcards = arr
		}
		return res
	}

	obj := extractObject(cleaned)
	if obj == nil {
		res := &domain.GenerationResult{Flashcards: cleaned}
		if quizRequested {
			res.QuizQuestions = cleaned
		}
		return res
	}

	res := &domain.GenerationResult{Flashcards: fieldAsString(obj["flashcards"])}
	if quizRequested {
		res.QuizQuestions = fieldAsString(obj["quizQuestions"])
	}
	return res
}

// extractArray returns the outermost JSON array when the text leads with
// one, before any object brace.
func extractArray(s string) (string, bool) {
	start := strings.Index(s, "[")
	if start < 0 {
		return "", false
	}
	if brace := strings.Index(s, "{"); brace >= 0 && brace < start {
		return "", false
	}
	end := strings.LastIndex(s, "]")
	if end <= start {
		return "", false
	}
	candidate := s[start : end+1]
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &items); err != nil {
		return "", false
	}
	return candidate, true
}

func extractObject(s string) map[string]json.RawMessage {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &obj); err == nil {
		return obj
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return nil
	}
	if err := json.Unmarshal([]byte(s[start:end+1]), &obj); err != nil {
		return nil
	}
	return obj
}

func fieldAsString(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return domain.EmptyJSONArray
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	// Array or object instead of a string: keep it as JSON text.
	return string(trimmed)
}
