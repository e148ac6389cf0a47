// Package session owns the canonical flashcard and quiz-question lists of a
// study session and gates destructive replacement behind user confirmation.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"flashzen/internal/domain"
	"flashzen/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Origin identifies which user action asked for a replace.
type Origin string

const (
	OriginGenerate Origin = "generate"
	OriginImport   Origin = "import"
)

var (
	ErrNoPendingConfirmation = errors.New("no replace is awaiting confirmation")
	ErrStaleConfirmation     = errors.New("confirmation was superseded by a newer request")
)

// Confirmation describes a replace that is waiting for the user to accept
// losing the current session contents.
type Confirmation struct {
	ID                    string    `json:"id"`
	Origin                Origin    `json:"origin"`
	Title                 string    `json:"title"`
	Message               string    `json:"message"`
	ExistingFlashcards    int       `json:"existingFlashcards"`
	ExistingQuizQuestions int       `json:"existingQuizQuestions"`
	IncomingFlashcards    int       `json:"incomingFlashcards"`
	IncomingQuizQuestions int       `json:"incomingQuizQuestions"`
	RequestedAt           time.Time `json:"requestedAt"`
}

// ReplaceOutcome reports whether RequestReplace applied immediately or is
// waiting on Confirmation.
type ReplaceOutcome struct {
	Applied      bool
	Confirmation *Confirmation
}

type pendingReplace struct {
	confirmation  Confirmation
	flashcards    []domain.Flashcard
	quizQuestions []domain.QuizQuestion
}

// Store holds the session lists. Every operation is atomic. Listeners run
// inside the operation that triggered them, so they observe changes in
// mutation order and must not call back into the Store.
type Store struct {
	mu            sync.Mutex
	id            string
	flashcards    []domain.Flashcard
	quizQuestions []domain.QuizQuestion
	pending       *pendingReplace
	listeners     []Listener
	logger        *zap.Logger
}

// NewStore creates an empty session.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		id:            uuid.NewString(),
		flashcards:    []domain.Flashcard{},
		quizQuestions: []domain.QuizQuestion{},
		logger:        logger,
	}
}

// ID returns the session identifier.
func (s *Store) ID() string {
	return s.id
}

// Subscribe registers a listener for change events.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Snapshot returns a copy of the current lists.
func (s *Store) Snapshot() domain.StudySet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Pending returns the outstanding confirmation, or nil.
func (s *Store) Pending() *Confirmation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil
	}
	c := s.pending.confirmation
	return &c
}

// Replace overwrites the session unconditionally. User-facing flows go
// through RequestReplace.
func (s *Store) Replace(flashcards []domain.Flashcard, quizQuestions []domain.QuizQuestion) {
	s.mu.Lock()
	ev := s.replaceLocked(flashcards, quizQuestions)
	s.dispatch(ev)
}

// RequestReplace replaces immediately when the session is empty. Otherwise it
// records a pending replace, superseding any earlier one, and returns the
// confirmation the user must accept.
func (s *Store) RequestReplace(flashcards []domain.Flashcard, quizQuestions []domain.QuizQuestion, origin Origin) ReplaceOutcome {
	s.mu.Lock()

	if len(s.flashcards) == 0 && len(s.quizQuestions) == 0 {
		s.pending = nil
		ev := s.replaceLocked(flashcards, quizQuestions)
		s.dispatch(ev)
		return ReplaceOutcome{Applied: true}
	}
	defer s.mu.Unlock()

	c := Confirmation{
		ID:                    util.NewULID(),
		Origin:                origin,
		Title:                 "Overwrite Existing Content?",
		Message:               confirmationMessage(origin, len(s.flashcards), len(s.quizQuestions)),
		ExistingFlashcards:    len(s.flashcards),
		ExistingQuizQuestions: len(s.quizQuestions),
		IncomingFlashcards:    len(flashcards),
		IncomingQuizQuestions: len(quizQuestions),
		RequestedAt:           time.Now(),
	}
	if s.pending != nil {
		s.logger.Info("Superseding pending replace",
			zap.String("session_id", s.id),
			zap.String("superseded_id", s.pending.confirmation.ID),
			zap.String("confirmation_id", c.ID),
		)
	}
	s.pending = &pendingReplace{
		confirmation:  c,
		flashcards:    domain.CloneFlashcards(flashcards),
		quizQuestions: domain.CloneQuizQuestions(quizQuestions),
	}
	s.logger.Info("Replace awaiting confirmation",
		zap.String("session_id", s.id),
		zap.String("origin", string(origin)),
		zap.Int("existing_flashcards", c.ExistingFlashcards),
		zap.Int("existing_quiz_questions", c.ExistingQuizQuestions),
	)
	return ReplaceOutcome{Confirmation: &c}
}

// Confirm applies the pending replace identified by id.
func (s *Store) Confirm(id string) error {
	s.mu.Lock()
	p, err := s.takePendingLocked(id)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	ev := s.replaceLocked(p.flashcards, p.quizQuestions)
	s.dispatch(ev)
	return nil
}

// Cancel discards the pending replace identified by id.
func (s *Store) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.takePendingLocked(id); err != nil {
		return err
	}
	s.logger.Info("Replace cancelled", zap.String("session_id", s.id), zap.String("confirmation_id", id))
	return nil
}

// Append adds items to the end of each list in order. It never asks for
// confirmation.
func (s *Store) Append(flashcards []domain.Flashcard, quizQuestions []domain.QuizQuestion) {
	s.mu.Lock()
	s.flashcards = append(s.flashcards, domain.CloneFlashcards(flashcards)...)
	s.quizQuestions = append(s.quizQuestions, domain.CloneQuizQuestions(quizQuestions)...)

	ev := Event{
		Kind:               ChangeAppended,
		Snapshot:           s.snapshotLocked(),
		AddedFlashcards:    len(flashcards),
		AddedQuizQuestions: len(quizQuestions),
	}
	if len(flashcards) > 0 {
		ev.View = ViewFlashcards
	}
	s.logger.Debug("Session appended",
		zap.String("session_id", s.id),
		zap.Int("added_flashcards", len(flashcards)),
		zap.Int("added_quiz_questions", len(quizQuestions)),
	)
	s.dispatch(ev)
}

// Clear empties the session and drops any pending replace.
func (s *Store) Clear() {
	s.mu.Lock()
	s.flashcards = []domain.Flashcard{}
	s.quizQuestions = []domain.QuizQuestion{}
	s.pending = nil
	ev := Event{Kind: ChangeCleared, Snapshot: s.snapshotLocked(), View: ViewGenerate}
	s.logger.Info("Session cleared", zap.String("session_id", s.id))
	s.dispatch(ev)
}

func (s *Store) takePendingLocked(id string) (*pendingReplace, error) {
	if s.pending == nil {
		return nil, ErrNoPendingConfirmation
	}
	if s.pending.confirmation.ID != id {
		return nil, fmt.Errorf("%w: %s", ErrStaleConfirmation, id)
	}
	p := s.pending
	s.pending = nil
	return p, nil
}

func (s *Store) replaceLocked(flashcards []domain.Flashcard, quizQuestions []domain.QuizQuestion) Event {
	s.flashcards = domain.CloneFlashcards(flashcards)
	s.quizQuestions = domain.CloneQuizQuestions(quizQuestions)

	view := ViewGenerate
	if len(s.flashcards) > 0 {
		view = ViewFlashcards
	}
	s.logger.Info("Session replaced",
		zap.String("session_id", s.id),
		zap.Int("flashcards", len(s.flashcards)),
		zap.Int("quiz_questions", len(s.quizQuestions)),
	)
	return Event{
		Kind:               ChangeReplaced,
		Snapshot:           s.snapshotLocked(),
		AddedFlashcards:    len(s.flashcards),
		AddedQuizQuestions: len(s.quizQuestions),
		View:               view,
	}
}

func (s *Store) snapshotLocked() domain.StudySet {
	return domain.StudySet{
		Flashcards:    domain.CloneFlashcards(s.flashcards),
		QuizQuestions: domain.CloneQuizQuestions(s.quizQuestions),
	}
}

// dispatch is called with s.mu held and releases it after notifying.
func (s *Store) dispatch(ev Event) {
	defer s.mu.Unlock()
	for _, l := range s.listeners {
		l(ev)
	}
}

func confirmationMessage(origin Origin, flashcards, quizQuestions int) string {
	what := "flashcards"
	switch {
	case flashcards > 0 && quizQuestions > 0:
		what = "flashcards and quiz questions"
	case flashcards == 0 && quizQuestions > 0:
		what = "quiz questions"
	}
	action := "Generating new content"
	if origin == OriginImport {
		action = "Importing data"
	}
	return fmt.Sprintf("You have existing %s. %s will replace your current set. Are you sure you want to proceed?", what, action)
}
