package quizgen

import (
	"fmt"
	"strings"

	"flashzen/internal/domain"
)

var difficultyGuidance = map[domain.Difficulty]string{
	domain.DifficultyEasy:   "Keep items introductory: definitions, key terms and simple facts.",
	domain.DifficultyMedium: "Mix recall of facts with questions that check understanding of how ideas relate.",
	domain.DifficultyHard:   "Focus on application, comparison and multi-step reasoning rather than simple recall.",
	domain.DifficultyExpert: "Target nuanced edge cases, trade-offs and synthesis across topics, as for a specialist.",
}

// BuildPrompt renders the generation instructions for req. The model is
// asked for a JSON object whose fields hold stringified JSON arrays.
func BuildPrompt(req domain.GenerationRequest) string {
	var b strings.Builder

	b.WriteString("You are an expert flashcard and quiz generation assistant.\n\n")
	fmt.Fprintf(&b, "User's primary query: %q\n\n", req.Prompt)

	if req.PDFText != "" {
		b.WriteString("The user has uploaded a PDF document. Prioritize its content.\n")
		b.WriteString("--- START PDF CONTENT ---\n")
		b.WriteString(req.PDFText)
		b.WriteString("\n--- END PDF CONTENT ---\n\n")
	}
	if req.WebSearchContext != "" {
		b.WriteString("Additional context from a web search. Use it to supplement your knowledge.\n")
		b.WriteString("--- START WEB SEARCH CONTEXT ---\n")
		b.WriteString(req.WebSearchContext)
		b.WriteString("\n--- END WEB SEARCH CONTEXT ---\n\n")
	}

	hasExisting := req.ExistingFlashcards != "" || req.ExistingQuizQuestions != ""
	if hasExisting {
		b.WriteString("The user already has the items below. Every item you produce MUST be new and distinct from them; ")
		b.WriteString("do not repeat or rephrase an existing question.\n")
		if req.ExistingFlashcards != "" {
			b.WriteString("--- EXISTING FLASHCARDS ---\n")
			b.WriteString(req.ExistingFlashcards)
			b.WriteString("\n")
		}
		if req.ExistingQuizQuestions != "" {
			b.WriteString("--- EXISTING QUIZ QUESTIONS ---\n")
			b.WriteString(req.ExistingQuizQuestions)
			b.WriteString("\n")
		}
		b.WriteString("--- END EXISTING ITEMS ---\n\n")
	}

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = domain.DifficultyMedium
	}
	fmt.Fprintf(&b, "Difficulty: %s. %s\n\n", difficulty, difficultyGuidance[difficulty])

	if req.NumFlashcards > 0 {
		fmt.Fprintf(&b, "1. Flashcards: generate approximately %d flashcards. ", req.NumFlashcards)
		b.WriteString(`Each has a "question" and an "answer". Format them as a JSON array, for example `)
		b.WriteString(`[{"question": "What is the capital of France?", "answer": "Paris"}].` + "\n")
	} else {
		b.WriteString(`1. Flashcards: none requested. Set "flashcards" to the string "[]".` + "\n")
	}

	if req.NumQuizQuestions > 0 {
		fmt.Fprintf(&b, "2. Quiz questions: generate approximately %d multiple-choice questions on the same material. ", req.NumQuizQuestions)
		b.WriteString("They must test understanding and must not copy the flashcards. ")
		b.WriteString(`Each has a "question", "options" (3-4 distinct strings) and a "correctAnswer" that is exactly one of the options. `)
		b.WriteString(`For example [{"question": "Which is a primary color?", "options": ["Green", "Blue", "Orange"], "correctAnswer": "Blue"}].` + "\n")
	}

	b.WriteString("\nYour final output MUST be a single JSON object and nothing else.\n")
	b.WriteString(`It MUST have a key "flashcards" whose value is a STRINGIFIED JSON array of the flashcards.` + "\n")
	if req.NumQuizQuestions > 0 {
		b.WriteString(`It MUST have a key "quizQuestions" whose value is a STRINGIFIED JSON array of the quiz questions, or "[]" if none could be produced.` + "\n")
	} else {
		b.WriteString(`Omit the "quizQuestions" key.` + "\n")
	}
	return b.String()
}
