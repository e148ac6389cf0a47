package validation

import (
	"bytes"
	"encoding/json"
	"fmt"

	"flashzen/internal/domain"
)

// ExportFileName is the suggested file name for exported study sets.
const ExportFileName = "flashzen_export.json"

// ParseStudySet validates an import file. Any structural violation rejects
// the whole file; nothing is normalized so an export re-imports unchanged.
func ParseStudySet(data []byte) (*domain.StudySet, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, importError("file is not a JSON object", err, nil)
	}

	var errs domain.ValidationErrors
	set := &domain.StudySet{
		Flashcards:    []domain.Flashcard{},
		QuizQuestions: []domain.QuizQuestion{},
	}

	rawCards, ok := root["flashcards"]
	if !ok || isNull(rawCards) {
		errs = append(errs, domain.NewMissingFieldError("flashcards"))
	} else {
		cards, cardErrs := parseFlashcardList(rawCards)
		errs = append(errs, cardErrs...)
		set.Flashcards = cards
	}

	if rawQuiz, ok := root["quizQuestions"]; ok && !isNull(rawQuiz) {
		questions, quizErrs := parseQuizList(rawQuiz)
		errs = append(errs, quizErrs...)
		set.QuizQuestions = questions
	}

	if len(errs) > 0 {
		return nil, importError("file does not match the FlashZen export format", errs, errs)
	}
	return set, nil
}

// MarshalStudySet encodes a study set in the export format with two-space
// indentation. Nil lists are written as empty arrays.
func MarshalStudySet(set domain.StudySet) ([]byte, error) {
	if set.Flashcards == nil {
		set.Flashcards = []domain.Flashcard{}
	}
	if set.QuizQuestions == nil {
		set.QuizQuestions = []domain.QuizQuestion{}
	}
	return json.MarshalIndent(set, "", "  ")
}

func parseFlashcardList(raw json.RawMessage) ([]domain.Flashcard, domain.ValidationErrors) {
	var elems []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, domain.ValidationErrors{{Field: "flashcards", Message: "must be an array of objects"}}
	}

	var errs domain.ValidationErrors
	cards := make([]domain.Flashcard, 0, len(elems))
	for i, el := range elems {
		path := fmt.Sprintf("flashcards[%d]", i)
		if el == nil {
			errs = append(errs, domain.ValidationError{Field: path, Message: "must be an object"})
			continue
		}
		var card domain.Flashcard
		errs = appendStringField(errs, el, path, "id", &card.ID)
		errs = appendStringField(errs, el, path, "question", &card.Question)
		errs = appendStringField(errs, el, path, "answer", &card.Answer)
		cards = append(cards, card)
	}
	return cards, errs
}

func parseQuizList(raw json.RawMessage) ([]domain.QuizQuestion, domain.ValidationErrors) {
	var elems []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, domain.ValidationErrors{{Field: "quizQuestions", Message: "must be an array of objects"}}
	}

	var errs domain.ValidationErrors
	questions := make([]domain.QuizQuestion, 0, len(elems))
	for i, el := range elems {
		path := fmt.Sprintf("quizQuestions[%d]", i)
		if el == nil {
			errs = append(errs, domain.ValidationError{Field: path, Message: "must be an object"})
			continue
		}
		var q domain.QuizQuestion
		errs = appendStringField(errs, el, path, "id", &q.ID)
		errs = appendStringField(errs, el, path, "question", &q.Question)
		errs = appendStringField(errs, el, path, "correctAnswer", &q.CorrectAnswer)

		rawOpts, ok := el["options"]
		if !ok {
			errs = append(errs, domain.NewMissingFieldError(path+".options"))
		} else if err := json.Unmarshal(rawOpts, &q.Options); err != nil || q.Options == nil {
			errs = append(errs, domain.ValidationError{Field: path + ".options", Message: "must be an array of strings"})
		}
		questions = append(questions, q)
	}
	return questions, errs
}

func appendStringField(errs domain.ValidationErrors, obj map[string]json.RawMessage, path, key string, dst *string) domain.ValidationErrors {
	raw, ok := obj[key]
	if !ok {
		return append(errs, domain.NewMissingFieldError(path+"."+key))
	}
	if err := json.Unmarshal(raw, dst); err != nil || isNull(raw) {
		return append(errs, domain.ValidationError{Field: path + "." + key, Message: "must be a string"})
	}
	return errs
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func importError(msg string, cause error, details domain.ValidationErrors) *domain.DomainError {
	de := domain.NewError(domain.CodeImportError, "Invalid import file: "+msg, cause)
	if len(details) > 0 {
		de.WithContext("errors", details)
	}
	return de
}
