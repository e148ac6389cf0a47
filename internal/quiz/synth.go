package quiz

import (
	"fmt"
	"math/rand"
	"strconv"

	"flashzen/internal/domain"
)

const distractorsPerQuestion = 3

// SynthesizeQuestions derives up to count multiple-choice questions from
// flashcards. Distractors come from the other cards' answers; placeholders
// fill in when fewer than three distinct ones exist. Fewer than two cards
// yields nil.
func SynthesizeQuestions(cards []domain.Flashcard, count int, rng *rand.Rand) []domain.QuizDisplayQuestion {
	if len(cards) < 2 || count < 1 {
		return nil
	}
	if count > len(cards) {
		count = len(cards)
	}

	selected := rng.Perm(len(cards))[:count]
	questions := make([]domain.QuizDisplayQuestion, 0, count)
	for idx, ci := range selected {
		card := cards[ci]

		pool := make([]string, 0, len(cards)-1)
		for j, other := range cards {
			if j != ci {
				pool = append(pool, other.Answer)
			}
		}

		distractors := pickDistractors(card.Answer, pool, rng)
		for k := 1; len(distractors) < distractorsPerQuestion; k++ {
			placeholder := fmt.Sprintf("Option %d for Q%d", k, idx+1)
			if placeholder != card.Answer && !contains(distractors, placeholder) {
				distractors = append(distractors, placeholder)
			}
		}

		options := append([]string{card.Answer}, distractors...)
		shuffleStrings(rng, options)

		questions = append(questions, domain.QuizDisplayQuestion{
			ID:            card.ID + "_quiz_" + strconv.Itoa(idx),
			Question:      card.Question,
			Options:       options,
			CorrectAnswer: card.Answer,
		})
	}
	return questions
}

// pickDistractors returns up to three distinct pool values other than answer,
// in shuffled order.
func pickDistractors(answer string, pool []string, rng *rand.Rand) []string {
	shuffled := append([]string(nil), pool...)
	shuffleStrings(rng, shuffled)

	out := make([]string, 0, distractorsPerQuestion)
	for _, v := range shuffled {
		if len(out) == distractorsPerQuestion {
			break
		}
		if v == answer || contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// displayQuestions renders AI-authored questions with freshly shuffled
// options. shuffleOrder additionally permutes the question order.
func displayQuestions(src []domain.QuizQuestion, shuffleOrder bool, rng *rand.Rand) []domain.QuizDisplayQuestion {
	out := make([]domain.QuizDisplayQuestion, len(src))
	for i, q := range src {
		opts := dedupe(q.Options)
		shuffleStrings(rng, opts)
		out[i] = domain.QuizDisplayQuestion{
			ID:            q.ID,
			Question:      q.Question,
			Options:       opts,
			CorrectAnswer: q.CorrectAnswer,
		}
	}
	if shuffleOrder {
		rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	}
	return out
}

func shuffleStrings(rng *rand.Rand, s []string) {
	rng.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if !contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
