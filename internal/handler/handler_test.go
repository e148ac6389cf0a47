package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"flashzen/internal/domain"
	"flashzen/internal/dto"
	"flashzen/internal/handler"
	"flashzen/internal/middleware"
	"flashzen/internal/quiz"
	"flashzen/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Manual Mocks ---

type MockGenerator struct {
	GenerateFunc func(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error)
	calls        []domain.GenerationRequest
}

func (m *MockGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	m.calls = append(m.calls, req)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	panic("MockGenerator.GenerateFunc not implemented")
}

type MockAssistService struct {
	ExtractPDFFunc        func(ctx context.Context, data []byte) (domain.PDFExtraction, error)
	ExtractPDFDataURIFunc func(ctx context.Context, dataURI string) (domain.PDFExtraction, error)
	TranscribeFunc        func(ctx context.Context, audioDataURI string) (string, error)
	SynthesizeFunc        func(ctx context.Context, text string) (string, error)
	SearchFunc            func(ctx context.Context, query string) (string, error)
}

func (m *MockAssistService) ExtractPDF(ctx context.Context, data []byte) (domain.PDFExtraction, error) {
	if m.ExtractPDFFunc != nil {
		return m.ExtractPDFFunc(ctx, data)
	}
	panic("MockAssistService.ExtractPDFFunc not implemented")
}
func (m *MockAssistService) ExtractPDFDataURI(ctx context.Context, dataURI string) (domain.PDFExtraction, error) {
	if m.ExtractPDFDataURIFunc != nil {
		return m.ExtractPDFDataURIFunc(ctx, dataURI)
	}
	panic("MockAssistService.ExtractPDFDataURIFunc not implemented")
}
func (m *MockAssistService) Transcribe(ctx context.Context, audioDataURI string) (string, error) {
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audioDataURI)
	}
	panic("MockAssistService.TranscribeFunc not implemented")
}
func (m *MockAssistService) Synthesize(ctx context.Context, text string) (string, error) {
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text)
	}
	panic("MockAssistService.SynthesizeFunc not implemented")
}
func (m *MockAssistService) Search(ctx context.Context, query string) (string, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query)
	}
	panic("MockAssistService.SearchFunc not implemented")
}

type MockCache struct {
	PingErr error
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	return "", domain.ErrCacheMiss
}
func (m *MockCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	return nil
}
func (m *MockCache) Delete(ctx context.Context, key string) error { return nil }
func (m *MockCache) Ping(ctx context.Context) error               { return m.PingErr }

// --- Helpers ---

func cards(prefix string, n int) string {
	items := make([]map[string]string, n)
	for i := range items {
		items[i] = map[string]string{
			"question": fmt.Sprintf("%s question %d", prefix, i+1),
			"answer":   fmt.Sprintf("%s answer %d", prefix, i+1),
		}
	}
	b, _ := json.Marshal(items)
	return string(b)
}

func questions(prefix string, n int) string {
	items := make([]map[string]interface{}, n)
	for i := range items {
		right := fmt.Sprintf("%s right %d", prefix, i+1)
		items[i] = map[string]interface{}{
			"question":      fmt.Sprintf("%s quiz %d", prefix, i+1),
			"options":       []string{right, "wrong a", "wrong b", "wrong c"},
			"correctAnswer": right,
		}
	}
	b, _ := json.Marshal(items)
	return string(b)
}

type testServer struct {
	app    *fiber.App
	gen    *MockGenerator
	assist *MockAssistService
}

func setupApp(t *testing.T) *testServer {
	t.Helper()
	gen := &MockGenerator{}
	assist := &MockAssistService{}
	defaults := service.GenerationDefaults{NumFlashcards: 10, NumQuizQuestions: 5, Difficulty: domain.DifficultyMedium}
	study := service.NewStudyService(gen, nil, defaults, 1, zap.NewNop())

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	handler.RegisterRoutes(app,
		handler.NewStudyHandler(study),
		handler.NewAssistHandler(assist, 1024),
		handler.NewHealthHandler(nil),
	)
	return &testServer{app: app, gen: gen, assist: assist}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &v), string(b))
	return v
}

func (s *testServer) generate(t *testing.T, prompt string) service.ReplaceResult {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/generate", dto.GenerateRequest{Prompt: prompt})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[service.ReplaceResult](t, resp)
}

// --- Tests ---

func TestGenerate_FirstSubmitApplies(t *testing.T) {
	s := setupApp(t)
	s.gen.GenerateFunc = func(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
		return &domain.GenerationResult{Flashcards: cards("bio", 3), QuizQuestions: questions("bio", 2)}, nil
	}

	res := s.generate(t, "Photosynthesis")
	assert.True(t, res.Applied)
	assert.Nil(t, res.Confirmation)
	assert.Equal(t, 3, res.FlashcardCount)
	assert.Equal(t, 2, res.QuizQuestionCount)
	assert.Equal(t, "flashcards", string(res.View))

	require.Len(t, s.gen.calls, 1)
	assert.Equal(t, "Photosynthesis", s.gen.calls[0].Prompt)
	assert.Equal(t, 10, s.gen.calls[0].NumFlashcards)

	sess := decode[service.SessionView](t, s.do(t, http.MethodGet, "/api/session", nil))
	assert.Len(t, sess.Flashcards, 3)
	assert.Len(t, sess.QuizQuestions, 2)
	assert.NotEmpty(t, sess.ID)

	st := decode[quiz.State](t, s.do(t, http.MethodGet, "/api/quiz", nil))
	assert.Equal(t, quiz.ModeAIDirect, st.Mode)
	assert.Len(t, st.Questions, 2)
}

func TestGenerate_ValidationAndParseErrors(t *testing.T) {
	s := setupApp(t)

	resp := s.do(t, http.MethodPost, "/api/generate", dto.GenerateRequest{Prompt: "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	verr := decode[middleware.ValidationErrorResponse](t, resp)
	assert.Equal(t, string(domain.CodeValidation), verr.Code)

	resp = s.do(t, http.MethodPost, "/api/generate", dto.GenerateRequest{Prompt: "x", Difficulty: "impossible"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, s.gen.calls)

	s.gen.GenerateFunc = func(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
		return &domain.GenerationResult{Flashcards: "{not json", QuizQuestions: "[]"}, nil
	}
	resp = s.do(t, http.MethodPost, "/api/generate", dto.GenerateRequest{Prompt: "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, string(domain.CodeParseError), decode[middleware.ErrorResponse](t, resp).Code)

	s.gen.GenerateFunc = func(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
		return nil, domain.NewLLMServiceError(errors.New("connection refused"))
	}
	resp = s.do(t, http.MethodPost, "/api/generate", dto.GenerateRequest{Prompt: "x"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	sess := decode[service.SessionView](t, s.do(t, http.MethodGet, "/api/session", nil))
	assert.Empty(t, sess.Flashcards)
}

func TestConfirmationFlow(t *testing.T) {
	s := setupApp(t)
	round := 0
	s.gen.GenerateFunc = func(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
		round++
		return &domain.GenerationResult{Flashcards: cards(fmt.Sprintf("r%d", round), 2), QuizQuestions: "[]"}, nil
	}
	s.generate(t, "first")

	second := s.generate(t, "second")
	require.False(t, second.Applied)
	require.NotNil(t, second.Confirmation)
	assert.Equal(t, "Overwrite Existing Content?", second.Confirmation.Title)

	third := s.generate(t, "third")
	require.NotNil(t, third.Confirmation)

	resp := s.do(t, http.MethodPost, "/api/confirmations/"+second.Confirmation.ID, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, string(domain.CodeStaleConfirmation), decode[middleware.ErrorResponse](t, resp).Code)

	resp = s.do(t, http.MethodPost, "/api/confirmations/"+third.Confirmation.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sess := decode[service.SessionView](t, resp)
	require.Len(t, sess.Flashcards, 2)
	assert.Equal(t, "r3 question 1", sess.Flashcards[0].Question)
	assert.Nil(t, sess.Pending)

	resp = s.do(t, http.MethodDelete, "/api/confirmations/"+third.Confirmation.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/confirmations/nope", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCancelKeepsSession(t *testing.T) {
	s := setupApp(t)
	s.gen.GenerateFunc = func(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
		return &domain.GenerationResult{Flashcards: cards(req.Prompt, 2), QuizQuestions: "[]"}, nil
	}
	s.generate(t, "keep")
	pending := s.generate(t, "drop")
	require.NotNil(t, pending.Confirmation)

	resp := s.do(t, http.MethodDelete, "/api/confirmations/"+pending.Confirmation.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	sess := decode[service.SessionView](t, s.do(t, http.MethodGet, "/api/session", nil))
	assert.Equal(t, "keep question 1", sess.Flashcards[0].Question)
	assert.Nil(t, sess.Pending)
}

func TestExportImportRoundTrip(t *testing.T) {
	s := setupApp(t)

	resp := s.do(t, http.MethodGet, "/api/export", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	s.gen.GenerateFunc = func(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
		return &domain.GenerationResult{Flashcards: cards("exp", 2), QuizQuestions: questions("exp", 1)}, nil
	}
	s.generate(t, "export me")

	resp = s.do(t, http.MethodGet, "/api/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "flashzen_export.json")
	exported, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	resp = s.do(t, http.MethodDelete, "/api/session", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[service.SessionView](t, resp).Flashcards)

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	part, err := mw.CreateFormFile("file", "flashzen_export.json")
	require.NoError(t, err)
	_, err = part.Write(exported)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/import", &form)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err = s.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[service.ReplaceResult](t, resp)
	assert.True(t, res.Applied)
	assert.Equal(t, 2, res.FlashcardCount)
	assert.Equal(t, 1, res.QuizQuestionCount)
}

func TestImport_RejectsInvalidFile(t *testing.T) {
	s := setupApp(t)
	req := httptest.NewRequest(http.MethodPost, "/api/import", strings.NewReader(`{"flashcards": "nope"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExpandAppendsFlashcards(t *testing.T) {
	s := setupApp(t)
	s.gen.GenerateFunc = func(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
		if req.ExistingFlashcards != "" {
			return &domain.GenerationResult{Flashcards: cards("more", 2), QuizQuestions: "[]"}, nil
		}
		return &domain.GenerationResult{Flashcards: cards("base", 2), QuizQuestions: "[]"}, nil
	}
	s.generate(t, "Rome")

	resp := s.do(t, http.MethodPost, "/api/expand", dto.ExpandRequest{Kind: "flashcards", Count: 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[service.ExpansionResult](t, resp)
	assert.Equal(t, service.ExpansionAdded, res.Status)
	assert.Len(t, res.AddedFlashcards, 2)

	last := s.gen.calls[len(s.gen.calls)-1]
	assert.Contains(t, last.ExistingFlashcards, "base question 1")

	sess := decode[service.SessionView](t, s.do(t, http.MethodGet, "/api/session", nil))
	require.Len(t, sess.Flashcards, 4)
	assert.Equal(t, "more question 2", sess.Flashcards[3].Question)

	resp = s.do(t, http.MethodPost, "/api/expand", dto.ExpandRequest{Kind: "pictures", Count: 2})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQuizRoutes(t *testing.T) {
	s := setupApp(t)
	s.gen.GenerateFunc = func(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
		return &domain.GenerationResult{Flashcards: cards("auto", 3), QuizQuestions: "[]"}, nil
	}
	s.generate(t, "auto quiz")

	st := decode[quiz.State](t, s.do(t, http.MethodGet, "/api/quiz", nil))
	require.Equal(t, quiz.ModeAutoConfig, st.Mode)

	resp := s.do(t, http.MethodPost, "/api/quiz/start", dto.StartQuizRequest{Count: 9})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/quiz/next", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/quiz/start", dto.StartQuizRequest{Count: 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st = decode[quiz.State](t, resp)
	require.Equal(t, quiz.ModeAutoActive, st.Mode)

	resp = s.do(t, http.MethodPost, "/api/quiz/answer", dto.AnswerQuizRequest{Option: "not an option"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/quiz/answer", dto.AnswerQuizRequest{Option: st.Questions[0].CorrectAnswer})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st = decode[quiz.State](t, resp)
	assert.True(t, st.Answered)
	assert.Equal(t, 1, st.Score)

	resp = s.do(t, http.MethodPost, "/api/quiz/next", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[quiz.State](t, resp).CurrentIndex)

	resp = s.do(t, http.MethodPost, "/api/quiz/restart", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, quiz.ModeAutoConfig, decode[quiz.State](t, resp).Mode)
}

func TestAssistRoutes(t *testing.T) {
	s := setupApp(t)
	s.assist.SearchFunc = func(ctx context.Context, query string) (string, error) {
		return "Topic: " + query, nil
	}
	s.assist.TranscribeFunc = func(ctx context.Context, uri string) (string, error) {
		return "", domain.NewError(domain.CodeNotFound, "Speech-to-text is not enabled on this server.", nil)
	}
	s.assist.SynthesizeFunc = func(ctx context.Context, text string) (string, error) {
		return "data:audio/wav;base64,AAAA", nil
	}
	s.assist.ExtractPDFDataURIFunc = func(ctx context.Context, uri string) (domain.PDFExtraction, error) {
		return domain.PDFExtraction{Error: "Invalid file format"}, nil
	}

	resp := s.do(t, http.MethodGet, "/api/search?q=golang", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Topic: golang", decode[dto.SearchResponse](t, resp).Context)

	resp = s.do(t, http.MethodPost, "/api/speech/transcribe", dto.TranscribeRequest{AudioDataURI: "data:audio/wav;base64,AA=="})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/speech/synthesize", dto.SynthesizeRequest{Text: "hello"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "data:audio/wav;base64,AAAA", decode[dto.SynthesizeResponse](t, resp).AudioDataURI)

	resp = s.do(t, http.MethodPost, "/api/pdf/extract", dto.PDFDataURIRequest{DataURI: "data:text/plain;base64,AA=="})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[dto.PDFExtractResponse](t, resp).Success)

	resp = s.do(t, http.MethodPost, "/api/pdf/extract", dto.PDFDataURIRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExtractPDF_Multipart(t *testing.T) {
	s := setupApp(t)
	var got []byte
	s.assist.ExtractPDFFunc = func(ctx context.Context, data []byte) (domain.PDFExtraction, error) {
		got = data
		return domain.PDFExtraction{Success: true, ExtractedText: "hello"}, nil
	}

	upload := func(name string, content []byte) *http.Response {
		var form bytes.Buffer
		mw := multipart.NewWriter(&form)
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, name))
		h.Set("Content-Type", "application/pdf")
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		req := httptest.NewRequest(http.MethodPost, "/api/pdf/extract", &form)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		resp, err := s.app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	resp := upload("notes.pdf", []byte("%PDF-1.4 tiny"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[dto.PDFExtractResponse](t, resp)
	assert.Equal(t, "notes.pdf", body.FileName)
	assert.Equal(t, "hello", body.ExtractedText)
	assert.Equal(t, []byte("%PDF-1.4 tiny"), got)

	resp = upload("big.pdf", bytes.Repeat([]byte("x"), 2048))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	s := setupApp(t)
	resp := s.do(t, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode[dto.HealthResponse](t, resp).Status)

	for _, tt := range []struct {
		pingErr error
		status  int
		want    string
	}{
		{nil, http.StatusOK, "ok"},
		{errors.New("dial tcp: connection refused"), http.StatusServiceUnavailable, "degraded"},
	} {
		app := fiber.New()
		app.Get("/health", handler.NewHealthHandler(&MockCache{PingErr: tt.pingErr}).Health)
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, tt.status, resp.StatusCode)
		body := decode[dto.HealthResponse](t, resp)
		assert.Equal(t, tt.want, body.Status)
		assert.Contains(t, body.Checks, "redis")
	}
}
