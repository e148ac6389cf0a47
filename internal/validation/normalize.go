package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"flashzen/internal/domain"
)

// Sentinel outcomes of normalization. Callers branch on these with errors.Is
// to choose between parse, schema, and empty-result messages.
var (
	ErrMalformedJSON = errors.New("response is not valid JSON")
	ErrNotAnArray    = errors.New("response is not a JSON array")
	ErrNoValidItems  = errors.New("response contained no valid items")
)

// nowFunc is replaced in tests to pin synthesized ids.
var nowFunc = time.Now

const maxRawInError = 500

// NormalizeError reports why a generation payload could not be used.
type NormalizeError struct {
	Kind  error  // one of ErrMalformedJSON, ErrNotAnArray, ErrNoValidItems
	Items string // "flashcards" or "quiz questions"
	Raw   string // offending text, truncated
	Err   error  // underlying decoder error, if any
}

func (e *NormalizeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", e.Items, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Items, e.Kind)
}

func (e *NormalizeError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// Code maps the failure to its domain error code.
func (e *NormalizeError) Code() domain.ErrorCode {
	switch e.Kind {
	case ErrMalformedJSON:
		return domain.CodeParseError
	case ErrNotAnArray:
		return domain.CodeSchemaError
	default:
		return domain.CodeEmptyResult
	}
}

// StripCodeFence removes a surrounding Markdown code fence (``` or ```json)
// from LLM output. Text without a leading fence is only trimmed.
func StripCodeFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	if i := strings.IndexByte(t, '\n'); i >= 0 {
		if tag := strings.TrimSpace(t[:i]); tag == "" || isFenceTag(tag) {
			t = t[i+1:]
		}
	} else if len(t) >= 4 && strings.EqualFold(t[:4], "json") {
		t = t[4:]
	}
	t = strings.TrimSpace(t)
	t = strings.TrimSuffix(t, "```")
	return strings.TrimSpace(t)
}

func isFenceTag(tag string) bool {
	for _, r := range tag {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

// NormalizeFlashcards turns a raw generation payload into valid flashcards.
// Invalid elements are dropped; ids are synthesized as fc-<millis>-<index>.
func NormalizeFlashcards(raw any) ([]domain.Flashcard, error) {
	elems, rawText, err := decodeArray(raw, "flashcards")
	if err != nil {
		return nil, err
	}

	stamp := nowFunc().UnixMilli()
	cards := make([]domain.Flashcard, 0, len(elems))
	for i, el := range elems {
		obj, ok := el.(map[string]any)
		if !ok {
			continue
		}
		card := domain.Flashcard{
			ID:       idField(obj),
			Question: stringField(obj, "question", "front"),
			Answer:   stringField(obj, "answer", "back"),
		}
		if card.Validate() != nil {
			continue
		}
		if card.ID == "" {
			card.ID = fmt.Sprintf("fc-%d-%d", stamp, i)
		}
		cards = append(cards, card)
	}

	if len(cards) == 0 && len(elems) > 0 {
		return nil, &NormalizeError{Kind: ErrNoValidItems, Items: "flashcards", Raw: truncate(rawText)}
	}
	return cards, nil
}

// NormalizeQuizQuestions turns a raw generation payload into valid quiz
// questions. Options are trimmed and deduplicated before validation; ids are
// synthesized as qz-<millis>-<index>.
func NormalizeQuizQuestions(raw any) ([]domain.QuizQuestion, error) {
	elems, rawText, err := decodeArray(raw, "quiz questions")
	if err != nil {
		return nil, err
	}

	stamp := nowFunc().UnixMilli()
	questions := make([]domain.QuizQuestion, 0, len(elems))
	for i, el := range elems {
		obj, ok := el.(map[string]any)
		if !ok {
			continue
		}
		q := domain.QuizQuestion{
			ID:            idField(obj),
			Question:      stringField(obj, "question"),
			Options:       optionsField(obj["options"]),
			CorrectAnswer: stringField(obj, "correctAnswer"),
		}
		if q.Validate() != nil {
			continue
		}
		if q.ID == "" {
			q.ID = fmt.Sprintf("qz-%d-%d", stamp, i)
		}
		questions = append(questions, q)
	}

	if len(questions) == 0 && len(elems) > 0 {
		return nil, &NormalizeError{Kind: ErrNoValidItems, Items: "quiz questions", Raw: truncate(rawText)}
	}
	return questions, nil
}

// decodeArray accepts JSON text (optionally fenced) or already-decoded data
// and returns the top-level array elements.
func decodeArray(raw any, items string) ([]any, string, error) {
	var text string
	switch v := raw.(type) {
	case string:
		text = v
	case []byte:
		text = string(v)
	case json.RawMessage:
		text = string(v)
	default:
		// Already-decoded data goes through a JSON round trip so that typed
		// slices and maps share one code path with decoded text.
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Sprintf("%v", v), &NormalizeError{Kind: ErrNotAnArray, Items: items, Raw: truncate(fmt.Sprintf("%v", v)), Err: err}
		}
		text = string(b)
	}

	cleaned := StripCodeFence(text)
	var parsed any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, text, &NormalizeError{Kind: ErrMalformedJSON, Items: items, Raw: truncate(text), Err: err}
	}
	arr, ok := parsed.([]any)
	if !ok {
		return nil, text, &NormalizeError{Kind: ErrNotAnArray, Items: items, Raw: truncate(text)}
	}
	return arr, text, nil
}

func stringField(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok {
			if t := strings.TrimSpace(s); t != "" {
				return t
			}
		}
	}
	return ""
}

func idField(obj map[string]any) string {
	switch v := obj["id"].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func optionsField(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, o := range list {
		s, ok := o.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func truncate(s string) string {
	if len(s) <= maxRawInError {
		return s
	}
	return s[:maxRawInError] + "..."
}
