package service

import (
	"context"
	"time"

	"flashzen/internal/domain"

	"github.com/stretchr/testify/mock"
)

// --- MockGenerator ---
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GenerationResult), args.Error(1)
}

// --- MockWebSearcher ---
type MockWebSearcher struct {
	mock.Mock
}

func (m *MockWebSearcher) Search(ctx context.Context, query string) (string, error) {
	args := m.Called(ctx, query)
	return args.String(0), args.Error(1)
}

// --- MockPDFExtractor ---
type MockPDFExtractor struct {
	mock.Mock
}

func (m *MockPDFExtractor) ExtractDataURI(ctx context.Context, dataURI string) domain.PDFExtraction {
	args := m.Called(ctx, dataURI)
	return args.Get(0).(domain.PDFExtraction)
}

func (m *MockPDFExtractor) ExtractBytes(ctx context.Context, data []byte) domain.PDFExtraction {
	args := m.Called(ctx, data)
	return args.Get(0).(domain.PDFExtraction)
}

// --- MockCache ---
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- MockTranscriber / MockSpeaker ---
type MockTranscriber struct {
	mock.Mock
}

func (m *MockTranscriber) Transcribe(ctx context.Context, audioDataURI string) (string, error) {
	args := m.Called(ctx, audioDataURI)
	return args.String(0), args.Error(1)
}

type MockSpeaker struct {
	mock.Mock
}

func (m *MockSpeaker) Synthesize(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}
