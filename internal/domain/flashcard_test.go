package domain

import (
	"strings"
	"testing"
)

func TestFlashcard_Validate(t *testing.T) {
	tests := []struct {
		name    string
		card    Flashcard
		wantErr bool
		errText string
	}{
		{"valid", Flashcard{ID: "1", Question: "Q", Answer: "A"}, false, ""},
		{"blank question", Flashcard{Question: "   ", Answer: "A"}, true, "question is required"},
		{"blank answer", Flashcard{Question: "Q", Answer: "\n\t"}, true, "answer is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.card.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errText) {
				t.Errorf("Validate() error = %q, want substring %q", err.Error(), tt.errText)
			}
		})
	}
}

func TestQuizQuestion_Validate(t *testing.T) {
	base := func() QuizQuestion {
		return QuizQuestion{ID: "q1", Question: "2+2?", Options: []string{"3", "4"}, CorrectAnswer: "4"}
	}

	tests := []struct {
		name    string
		mutate  func(q *QuizQuestion)
		wantErr bool
		errText string
	}{
		{"valid", func(q *QuizQuestion) {}, false, ""},
		{"missing question", func(q *QuizQuestion) { q.Question = "" }, true, "text is required"},
		{"single option", func(q *QuizQuestion) { q.Options = []string{"4"} }, true, "at least 2 options"},
		{"blank correct answer", func(q *QuizQuestion) { q.CorrectAnswer = " " }, true, "correct answer is required"},
		{"correct answer not an option", func(q *QuizQuestion) { q.CorrectAnswer = "5" }, true, "not one of the options"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := base()
			tt.mutate(&q)
			err := q.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errText) {
				t.Errorf("Validate() error = %q, want substring %q", err.Error(), tt.errText)
			}
		})
	}
}

func TestCloneQuizQuestions_DoesNotShareOptions(t *testing.T) {
	src := []QuizQuestion{{ID: "q1", Question: "Q", Options: []string{"a", "b"}, CorrectAnswer: "a"}}
	cp := CloneQuizQuestions(src)
	cp[0].Options[0] = "changed"
	if src[0].Options[0] != "a" {
		t.Errorf("clone shares options slice with source")
	}
	if CloneFlashcards(nil) == nil {
		t.Errorf("CloneFlashcards(nil) should return an empty, non-nil slice")
	}
}

func TestParseDifficulty(t *testing.T) {
	cases := map[string]Difficulty{"": DifficultyMedium, "easy": DifficultyEasy, "HARD": DifficultyHard, " Expert ": DifficultyExpert}
	for in, want := range cases {
		got, err := ParseDifficulty(in)
		if err != nil || got != want {
			t.Errorf("ParseDifficulty(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseDifficulty("impossible"); err == nil {
		t.Errorf("expected error for unknown difficulty")
	}
}
