package domain

import (
	"fmt"
	"strings"
)

// Flashcard is a question/answer pair for recall study.
type Flashcard struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Validate checks the flashcard invariant: both sides non-empty after trimming.
func (f Flashcard) Validate() error {
	if strings.TrimSpace(f.Question) == "" {
		return fmt.Errorf("flashcard question is required")
	}
	if strings.TrimSpace(f.Answer) == "" {
		return fmt.Errorf("flashcard answer is required")
	}
	return nil
}

// QuizQuestion is a multiple-choice question authored by the generation service.
type QuizQuestion struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// Validate checks that the question is answerable: at least two options and
// the correct answer among them.
func (q QuizQuestion) Validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return fmt.Errorf("quiz question text is required")
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("quiz question needs at least 2 options, got %d", len(q.Options))
	}
	if strings.TrimSpace(q.CorrectAnswer) == "" {
		return fmt.Errorf("quiz question correct answer is required")
	}
	if !q.HasOption(q.CorrectAnswer) {
		return fmt.Errorf("correct answer %q is not one of the options", q.CorrectAnswer)
	}
	return nil
}

// HasOption reports whether option is offered by the question.
func (q QuizQuestion) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

// Clone returns a copy that does not share the options slice.
func (q QuizQuestion) Clone() QuizQuestion {
	q.Options = append([]string(nil), q.Options...)
	return q
}

// QuizDisplayQuestion is the per-attempt rendering of a quiz question.
// Options are a permutation fixed for the duration of one attempt.
type QuizDisplayQuestion struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// StudySet is the import/export file format and the value copy of a session.
type StudySet struct {
	Flashcards    []Flashcard    `json:"flashcards"`
	QuizQuestions []QuizQuestion `json:"quizQuestions"`
}

// IsEmpty reports whether the set holds no items of either kind.
func (s StudySet) IsEmpty() bool {
	return len(s.Flashcards) == 0 && len(s.QuizQuestions) == 0
}

// CloneFlashcards copies a flashcard slice, never returning nil.
func CloneFlashcards(in []Flashcard) []Flashcard {
	out := make([]Flashcard, len(in))
	copy(out, in)
	return out
}

// CloneQuizQuestions deep-copies a quiz question slice, never returning nil.
func CloneQuizQuestions(in []QuizQuestion) []QuizQuestion {
	out := make([]QuizQuestion, len(in))
	for i, q := range in {
		out[i] = q.Clone()
	}
	return out
}
