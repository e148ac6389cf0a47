// Package quiz runs the multiple-choice quiz state machine over the current
// session contents.
package quiz

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"flashzen/internal/domain"

	"go.uber.org/zap"
)

// Mode is how the quiz is sourced.
type Mode string

const (
	ModeEmpty      Mode = "empty"
	ModeAutoConfig Mode = "auto_config"
	ModeAutoActive Mode = "auto_active"
	ModeAIDirect   Mode = "ai_direct"
)

// MinFlashcardsForAutoQuiz is the smallest deck a quiz can be derived from.
const MinFlashcardsForAutoQuiz = 2

var (
	ErrNotConfiguring       = errors.New("quiz is not waiting for a question count")
	ErrInvalidQuestionCount = errors.New("question count out of range")
	ErrNoActiveQuestion     = errors.New("no quiz question is active")
	ErrNotAnswered          = errors.New("current question has not been answered")
	ErrQuizCompleted        = errors.New("quiz is already completed")
	ErrUnknownOption        = errors.New("option is not offered by the current question")
)

// State is a read-only view of the engine.
type State struct {
	Mode           Mode                         `json:"mode"`
	Questions      []domain.QuizDisplayQuestion `json:"questions"`
	CurrentIndex   int                          `json:"currentIndex"`
	SelectedAnswer *string                      `json:"selectedAnswer,omitempty"`
	Answered       bool                         `json:"answered"`
	Score          int                          `json:"score"`
	Completed      bool                         `json:"completed"`
	// MaxQuestions is the largest count StartAuto accepts.
	MaxQuestions int `json:"maxQuestions"`
	// PoolQuizQuestions counts AI questions available to the next attempt.
	PoolQuizQuestions int `json:"poolQuizQuestions"`
}

// Engine owns the runtime state of one quiz attempt. It keeps its own copy
// of the session lists and never writes back to the session.
type Engine struct {
	mu     sync.Mutex
	rng    *rand.Rand
	logger *zap.Logger

	flashcards    []domain.Flashcard
	quizQuestions []domain.QuizQuestion

	mode         Mode
	questions    []domain.QuizDisplayQuestion
	currentIndex int
	selected     *string
	answered     bool
	score        int
	completed    bool
}

// NewEngine creates an engine in ModeEmpty. seed fixes the shuffle sequence.
func NewEngine(logger *zap.Logger, seed int64) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		rng:    rand.New(rand.NewSource(seed)),
		logger: logger,
		mode:   ModeEmpty,
	}
}

// Recompute replaces the source lists and re-derives the mode from scratch,
// discarding any attempt in progress.
func (e *Engine) Recompute(src domain.StudySet) State {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.setSourceLocked(src)
	e.deriveLocked()
	return e.stateLocked()
}

// Merge replaces the source lists without disturbing a live attempt. New
// AI questions join the pool and are shown from the next restart.
func (e *Engine) Merge(src domain.StudySet) State {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.setSourceLocked(src)
	switch e.mode {
	case ModeAIDirect, ModeAutoActive:
		e.logger.Debug("Quiz pool updated during attempt",
			zap.String("mode", string(e.mode)),
			zap.Int("pool_quiz_questions", len(e.quizQuestions)),
			zap.Int("pool_flashcards", len(e.flashcards)),
		)
	default:
		e.deriveLocked()
	}
	return e.stateLocked()
}

// StartAuto derives count questions from the flashcards and begins an
// auto_active attempt.
func (e *Engine) StartAuto(count int) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode != ModeAutoConfig {
		return e.stateLocked(), fmt.Errorf("%w (mode %s)", ErrNotConfiguring, e.mode)
	}
	if count < 1 || count > len(e.flashcards) {
		return e.stateLocked(), fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidQuestionCount, count, len(e.flashcards))
	}

	questions := SynthesizeQuestions(e.flashcards, count, e.rng)
	if len(questions) == 0 {
		return e.stateLocked(), fmt.Errorf("%w: could not derive questions", ErrInvalidQuestionCount)
	}

	e.mode = ModeAutoActive
	e.questions = questions
	e.resetAttemptLocked()
	e.logger.Info("Auto quiz started", zap.Int("questions", len(questions)))
	return e.stateLocked(), nil
}

// SelectAnswer scores option against the current question. Once a question
// is answered further calls are no-ops.
func (e *Engine) SelectAnswer(option string) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	q, err := e.currentLocked()
	if err != nil {
		return e.stateLocked(), err
	}
	if e.answered {
		return e.stateLocked(), nil
	}
	if !contains(q.Options, option) {
		return e.stateLocked(), fmt.Errorf("%w: %q", ErrUnknownOption, option)
	}

	chosen := option
	e.selected = &chosen
	e.answered = true
	if option == q.CorrectAnswer {
		e.score++
	}
	return e.stateLocked(), nil
}

// Advance moves past an answered question, completing the quiz after the
// last one.
func (e *Engine) Advance() (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.currentLocked(); err != nil {
		return e.stateLocked(), err
	}
	if !e.answered {
		return e.stateLocked(), ErrNotAnswered
	}

	if e.currentIndex == len(e.questions)-1 {
		e.completed = true
		e.logger.Info("Quiz completed",
			zap.String("mode", string(e.mode)),
			zap.Int("score", e.score),
			zap.Int("questions", len(e.questions)),
		)
		return e.stateLocked(), nil
	}
	e.currentIndex++
	e.selected = nil
	e.answered = false
	return e.stateLocked(), nil
}

// Restart begins a new attempt. ai_direct reshuffles the current pool;
// auto_active goes back to choosing a question count.
func (e *Engine) Restart() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.mode {
	case ModeAIDirect:
		if len(e.quizQuestions) == 0 {
			e.deriveLocked()
			break
		}
		e.questions = displayQuestions(e.quizQuestions, true, e.rng)
		e.resetAttemptLocked()
	case ModeAutoActive:
		if len(e.quizQuestions) == 0 && len(e.flashcards) >= MinFlashcardsForAutoQuiz {
			e.mode = ModeAutoConfig
			e.questions = nil
			e.resetAttemptLocked()
			break
		}
		e.deriveLocked()
	}
	return e.stateLocked()
}

// State returns a copy of the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *Engine) setSourceLocked(src domain.StudySet) {
	e.flashcards = domain.CloneFlashcards(src.Flashcards)
	e.quizQuestions = make([]domain.QuizQuestion, 0, len(src.QuizQuestions))
	for _, q := range domain.CloneQuizQuestions(src.QuizQuestions) {
		// Imported sets are only type-checked, so a question may offer no
		// way to answer it correctly.
		if err := q.Validate(); err != nil {
			e.logger.Warn("Skipping unplayable quiz question",
				zap.String("id", q.ID),
				zap.Error(err))
			continue
		}
		e.quizQuestions = append(e.quizQuestions, q)
	}
}

func (e *Engine) deriveLocked() {
	switch {
	case len(e.quizQuestions) > 0:
		e.mode = ModeAIDirect
		e.questions = displayQuestions(e.quizQuestions, false, e.rng)
	case len(e.flashcards) >= MinFlashcardsForAutoQuiz:
		e.mode = ModeAutoConfig
		e.questions = nil
	default:
		e.mode = ModeEmpty
		e.questions = nil
	}
	e.resetAttemptLocked()
}

func (e *Engine) resetAttemptLocked() {
	e.currentIndex = 0
	e.selected = nil
	e.answered = false
	e.score = 0
	e.completed = false
}

func (e *Engine) currentLocked() (domain.QuizDisplayQuestion, error) {
	if (e.mode != ModeAIDirect && e.mode != ModeAutoActive) || len(e.questions) == 0 {
		return domain.QuizDisplayQuestion{}, ErrNoActiveQuestion
	}
	if e.completed {
		return domain.QuizDisplayQuestion{}, ErrQuizCompleted
	}
	return e.questions[e.currentIndex], nil
}

func (e *Engine) stateLocked() State {
	s := State{
		Mode:              e.mode,
		Questions:         make([]domain.QuizDisplayQuestion, len(e.questions)),
		CurrentIndex:      e.currentIndex,
		Answered:          e.answered,
		Score:             e.score,
		Completed:         e.completed,
		PoolQuizQuestions: len(e.quizQuestions),
	}
	for i, q := range e.questions {
		q.Options = append([]string(nil), q.Options...)
		s.Questions[i] = q
	}
	if e.selected != nil {
		v := *e.selected
		s.SelectedAnswer = &v
	}
	if e.mode == ModeAutoConfig || e.mode == ModeAutoActive {
		s.MaxQuestions = len(e.flashcards)
	}
	return s
}
