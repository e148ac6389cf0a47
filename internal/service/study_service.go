package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"flashzen/internal/domain"
	"flashzen/internal/quiz"
	"flashzen/internal/session"
	"flashzen/internal/validation"

	"go.uber.org/zap"
)

// GenerationDefaults fill in counts and difficulty a request leaves unset.
type GenerationDefaults struct {
	NumFlashcards    int
	NumQuizQuestions int
	Difficulty       domain.Difficulty
}

// GenerateInput is a submit from the generate view. Nil counts take the
// defaults; a zero quiz count means no quiz was requested.
type GenerateInput struct {
	Prompt           string
	PDFText          string
	PDFName          string
	NumFlashcards    *int
	NumQuizQuestions *int
	Difficulty       string
	UseWebSearch     bool
}

// ReplaceResult reports the outcome of a generate or import. When Applied is
// false and Confirmation is set, the user must confirm before the session
// changes.
type ReplaceResult struct {
	Applied           bool                  `json:"applied"`
	Confirmation      *session.Confirmation `json:"confirmation,omitempty"`
	FlashcardCount    int                   `json:"flashcardCount"`
	QuizQuestionCount int                   `json:"quizQuestionCount"`
	Warnings          []string              `json:"warnings,omitempty"`
	View              session.View          `json:"view,omitempty"`
}

// SessionView is the client-facing picture of the session.
type SessionView struct {
	ID            string                `json:"id"`
	Flashcards    []domain.Flashcard    `json:"flashcards"`
	QuizQuestions []domain.QuizQuestion `json:"quizQuestions"`
	Pending       *session.Confirmation `json:"pendingConfirmation,omitempty"`
	View          session.View          `json:"view"`
	Expanding     bool                  `json:"expanding"`
}

// StudyService ties the session store, the quiz engine and the generator
// together for one study session.
type StudyService struct {
	store       *session.Store
	engine      *quiz.Engine
	coordinator *ExpansionCoordinator
	generator   domain.Generator
	searcher    domain.WebSearcher
	validator   *validation.Validator
	defaults    GenerationDefaults
	logger      *zap.Logger

	expanding atomic.Bool

	mu             sync.Mutex
	view           session.View
	lastTopic      string
	lastDifficulty domain.Difficulty
}

// NewStudyService wires a fresh session. searcher may be nil when web search
// is disabled.
func NewStudyService(generator domain.Generator, searcher domain.WebSearcher, defaults GenerationDefaults, quizSeed int64, logger *zap.Logger) *StudyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaults.NumFlashcards <= 0 {
		defaults.NumFlashcards = 10
	}
	if defaults.NumQuizQuestions < 0 {
		defaults.NumQuizQuestions = 0
	}
	if defaults.Difficulty == "" {
		defaults.Difficulty = domain.DifficultyMedium
	}

	store := session.NewStore(logger)
	s := &StudyService{
		store:       store,
		engine:      quiz.NewEngine(logger, quizSeed),
		coordinator: NewExpansionCoordinator(generator, store, logger),
		generator:   generator,
		searcher:    searcher,
		validator:   validation.NewValidator(),
		defaults:    defaults,
		logger:      logger,
		view:        session.ViewGenerate,
	}
	store.Subscribe(s.onSessionChange)
	return s
}

// onSessionChange keeps the quiz engine and the current view in step with
// the store. It runs inside the store's critical section.
func (s *StudyService) onSessionChange(ev session.Event) {
	switch ev.Kind {
	case session.ChangeAppended:
		s.engine.Merge(ev.Snapshot)
	default:
		s.engine.Recompute(ev.Snapshot)
	}
	if ev.View != session.ViewNone {
		s.mu.Lock()
		s.view = ev.View
		s.mu.Unlock()
	}
}

// Session returns the current contents, pending confirmation and view.
func (s *StudyService) Session() SessionView {
	set := s.store.Snapshot()
	s.mu.Lock()
	view := s.view
	s.mu.Unlock()
	return SessionView{
		ID:            s.store.ID(),
		Flashcards:    set.Flashcards,
		QuizQuestions: set.QuizQuestions,
		Pending:       s.store.Pending(),
		View:          view,
		Expanding:     s.Expanding(),
	}
}

// Generate validates the submit, calls the generator and requests a replace
// with the normalized items. Failures leave the session untouched.
func (s *StudyService) Generate(ctx context.Context, in GenerateInput) (*ReplaceResult, error) {
	numFlashcards := s.defaults.NumFlashcards
	if in.NumFlashcards != nil {
		numFlashcards = *in.NumFlashcards
	}
	numQuiz := s.defaults.NumQuizQuestions
	if in.NumQuizQuestions != nil {
		numQuiz = *in.NumQuizQuestions
	}
	prompt := strings.TrimSpace(in.Prompt)
	pdfText := strings.TrimSpace(in.PDFText)

	if errs := s.validator.ValidateGenerateRequest(prompt, pdfText != "", numFlashcards, numQuiz); len(errs) > 0 {
		return nil, errs
	}
	difficulty := s.defaults.Difficulty
	if in.Difficulty != "" {
		d, err := domain.ParseDifficulty(in.Difficulty)
		if err != nil {
			return nil, domain.ValidationErrors{domain.NewInvalidFormatError("difficulty", in.Difficulty)}
		}
		difficulty = d
	}

	searchQuery := prompt
	if prompt == "" {
		name := strings.TrimSpace(in.PDFName)
		if name == "" {
			name = "uploaded document"
		}
		prompt = "Using content from PDF: " + name + ". Focus on its key topics."
		searchQuery = name
	}

	var warnings []string
	req := domain.GenerationRequest{
		Prompt:           prompt,
		PDFText:          pdfText,
		NumFlashcards:    numFlashcards,
		NumQuizQuestions: numQuiz,
		Difficulty:       difficulty,
	}
	if in.UseWebSearch {
		req.WebSearchContext, warnings = s.searchContext(ctx, searchQuery, warnings)
	}

	s.logger.Info("Generating study set",
		zap.Int("num_flashcards", numFlashcards),
		zap.Int("num_quiz_questions", numQuiz),
		zap.String("difficulty", string(difficulty)),
		zap.Bool("has_pdf", pdfText != ""),
		zap.Bool("has_search_context", req.WebSearchContext != ""))

	out, err := s.generator.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	cards, err := normalizeOptional(out.Flashcards, validation.NormalizeFlashcards)
	if err != nil {
		return nil, normalizeFailure(err)
	}
	questions := []domain.QuizQuestion{}
	if numQuiz > 0 {
		questions, err = normalizeOptional(out.QuizQuestions, validation.NormalizeQuizQuestions)
		if err != nil {
			s.logger.Warn("Discarding unusable quiz questions", zap.Error(err))
			warnings = append(warnings, normalizeFailure(err).Message)
			questions = []domain.QuizQuestion{}
		}
	}

	if len(cards) == 0 && len(questions) == 0 {
		warnings = append(warnings, "The AI returned no usable flashcards or quiz questions. Try a different topic or wording.")
		return &ReplaceResult{Warnings: warnings}, nil
	}

	s.mu.Lock()
	s.lastTopic = prompt
	s.lastDifficulty = difficulty
	s.mu.Unlock()

	return s.requestReplace(cards, questions, session.OriginGenerate, warnings), nil
}

func (s *StudyService) searchContext(ctx context.Context, query string, warnings []string) (string, []string) {
	if s.searcher == nil {
		return "", append(warnings, "Web search is not enabled on this server.")
	}
	text, err := s.searcher.Search(ctx, query)
	if err != nil {
		s.logger.Warn("Web search failed; continuing without context", zap.Error(err), zap.String("query", query))
		return "", append(warnings, "Web search failed; generated without search context.")
	}
	if text == "" {
		return "", append(warnings, "No web search results found for \""+query+"\".")
	}
	return text, warnings
}

// Import validates an export file and requests a replace with its contents.
func (s *StudyService) Import(data []byte) (*ReplaceResult, error) {
	set, err := validation.ParseStudySet(data)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Importing study set",
		zap.Int("flashcards", len(set.Flashcards)),
		zap.Int("quiz_questions", len(set.QuizQuestions)))
	return s.requestReplace(set.Flashcards, set.QuizQuestions, session.OriginImport, nil), nil
}

func (s *StudyService) requestReplace(cards []domain.Flashcard, questions []domain.QuizQuestion, origin session.Origin, warnings []string) *ReplaceResult {
	outcome := s.store.RequestReplace(cards, questions, origin)
	res := &ReplaceResult{
		Applied:           outcome.Applied,
		Confirmation:      outcome.Confirmation,
		FlashcardCount:    len(cards),
		QuizQuestionCount: len(questions),
		Warnings:          warnings,
	}
	if outcome.Applied {
		res.View = s.currentView()
	}
	return res
}

// Export encodes the session in the import format.
func (s *StudyService) Export() ([]byte, error) {
	set := s.store.Snapshot()
	if set.IsEmpty() {
		return nil, domain.NewInvalidInputError("There is no content to export.")
	}
	data, err := validation.MarshalStudySet(set)
	if err != nil {
		return nil, domain.NewInternalError("failed to encode export", err)
	}
	return data, nil
}

// Confirm applies the pending replace id.
func (s *StudyService) Confirm(id string) (SessionView, error) {
	if errs := s.validator.ValidateConfirmationID(id); len(errs) > 0 {
		return SessionView{}, errs
	}
	if err := s.store.Confirm(id); err != nil {
		return SessionView{}, confirmationError(err)
	}
	return s.Session(), nil
}

// Cancel discards the pending replace id.
func (s *StudyService) Cancel(id string) error {
	if errs := s.validator.ValidateConfirmationID(id); len(errs) > 0 {
		return errs
	}
	if err := s.store.Cancel(id); err != nil {
		return confirmationError(err)
	}
	return nil
}

func confirmationError(err error) error {
	switch {
	case errors.Is(err, session.ErrNoPendingConfirmation):
		return domain.NewError(domain.CodeNotFound, "There is no replace awaiting confirmation.", err)
	case errors.Is(err, session.ErrStaleConfirmation):
		return domain.NewError(domain.CodeStaleConfirmation, "This confirmation was replaced by a newer request.", err)
	default:
		return domain.NewInternalError("confirmation failed", err)
	}
}

// Clear empties the session.
func (s *StudyService) Clear() SessionView {
	s.store.Clear()
	s.mu.Lock()
	s.lastTopic = ""
	s.mu.Unlock()
	return s.Session()
}

// Expand runs one expansion at a time; a concurrent call gets a conflict.
// An empty topic reuses the last generated one.
func (s *StudyService) Expand(ctx context.Context, kind ExpansionKind, count int, opts ExpandOptions) (*ExpansionResult, error) {
	if !s.expanding.CompareAndSwap(false, true) {
		return nil, domain.NewConflictError("An expansion is already in progress.")
	}
	defer s.expanding.Store(false)

	s.mu.Lock()
	if opts.Topic == "" {
		opts.Topic = s.lastTopic
	}
	if opts.Difficulty == "" {
		opts.Difficulty = s.lastDifficulty
	}
	s.mu.Unlock()

	return s.coordinator.Expand(ctx, kind, count, opts)
}

// Expanding reports whether an expansion is running.
func (s *StudyService) Expanding() bool {
	return s.expanding.Load()
}

func (s *StudyService) currentView() session.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// QuizState returns the quiz engine state.
func (s *StudyService) QuizState() quiz.State {
	return s.engine.State()
}

func (s *StudyService) StartQuiz(count int) (quiz.State, error) {
	st, err := s.engine.StartAuto(count)
	return st, quizError(err)
}

func (s *StudyService) AnswerQuiz(option string) (quiz.State, error) {
	st, err := s.engine.SelectAnswer(option)
	return st, quizError(err)
}

func (s *StudyService) NextQuestion() (quiz.State, error) {
	st, err := s.engine.Advance()
	return st, quizError(err)
}

func (s *StudyService) RestartQuiz() quiz.State {
	return s.engine.Restart()
}

func quizError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, quiz.ErrInvalidQuestionCount):
		return domain.NewError(domain.CodeInvalidInput, "Choose a question count between 1 and the number of flashcards.", err)
	case errors.Is(err, quiz.ErrUnknownOption):
		return domain.NewError(domain.CodeInvalidInput, "That option is not offered by the current question.", err)
	case errors.Is(err, quiz.ErrNotConfiguring):
		return domain.NewError(domain.CodeQuizState, "A flashcard quiz can only be started from the configuration step.", err)
	case errors.Is(err, quiz.ErrNotAnswered):
		return domain.NewError(domain.CodeQuizState, "Answer the current question before moving on.", err)
	case errors.Is(err, quiz.ErrQuizCompleted):
		return domain.NewError(domain.CodeQuizState, "The quiz is already completed. Restart to try again.", err)
	case errors.Is(err, quiz.ErrNoActiveQuestion):
		return domain.NewError(domain.CodeQuizState, "There is no active quiz question.", err)
	default:
		return domain.NewError(domain.CodeQuizState, "The quiz cannot do that right now.", err)
	}
}
