package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"flashzen/internal/cache"
	"flashzen/internal/domain"
	"flashzen/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCachedSearch_HitSkipsSearcher(t *testing.T) {
	c := new(MockCache)
	searcher := new(MockWebSearcher)
	key := cache.SearchContextKey("Photosynthesis")
	c.On("Get", mock.Anything, key).Return(`"cached context"`, nil)

	svc := NewCachedSearchService(searcher, c, time.Minute, zap.NewNop())
	got, err := svc.Search(context.Background(), "Photosynthesis")
	require.NoError(t, err)
	assert.Equal(t, "cached context", got)
	searcher.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestCachedSearch_MissStoresResult(t *testing.T) {
	c := new(MockCache)
	searcher := new(MockWebSearcher)
	key := cache.SearchContextKey("osmosis")
	c.On("Get", mock.Anything, key).Return("", domain.ErrCacheMiss)
	c.On("Set", mock.Anything, key, `"fresh"`, 30*time.Minute).Return(nil)
	searcher.On("Search", mock.Anything, "osmosis").Return("fresh", nil).Once()

	svc := NewCachedSearchService(searcher, c, 30*time.Minute, nil)
	got, err := svc.Search(context.Background(), "osmosis")
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)
	c.AssertExpectations(t)
	searcher.AssertExpectations(t)
}

func TestCachedSearch_EmptyAndErrorsAreNotCached(t *testing.T) {
	c := new(MockCache)
	searcher := new(MockWebSearcher)
	c.On("Get", mock.Anything, mock.Anything).Return("", errors.New("redis down"))
	searcher.On("Search", mock.Anything, "nothing").Return("", nil)
	searcher.On("Search", mock.Anything, "broken").Return("", errors.New("http 500"))

	svc := NewCachedSearchService(searcher, c, time.Minute, nil)
	got, err := svc.Search(context.Background(), "nothing")
	assert.NoError(t, err)
	assert.Empty(t, got)

	_, err = svc.Search(context.Background(), "broken")
	assert.Error(t, err)
	c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCachedSearch_NilCachePassesThrough(t *testing.T) {
	searcher := new(MockWebSearcher)
	searcher.On("Search", mock.Anything, "q").Return("ctx", nil)

	got, err := NewCachedSearchService(searcher, nil, time.Minute, nil).Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "ctx", got)
}

// countingSearcher counts concurrent loads and blocks until released.
type countingSearcher struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
}

func (s *countingSearcher) Search(ctx context.Context, query string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	<-s.release
	return "shared", nil
}

func TestCachedSearch_CoalescesConcurrentMisses(t *testing.T) {
	searcher := &countingSearcher{release: make(chan struct{})}
	svc := NewCachedSearchService(searcher, nil, time.Minute, nil)

	var wg sync.WaitGroup
	results := make([]string, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = svc.Search(context.Background(), "same")
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(searcher.release)
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, "shared", r)
	}
	searcher.mu.Lock()
	defer searcher.mu.Unlock()
	assert.LessOrEqual(t, searcher.calls, 5)
	assert.GreaterOrEqual(t, searcher.calls, 1)
}

// ctxSearcher fails with the context error it sees once released.
type ctxSearcher struct {
	mu      sync.Mutex
	calls   int
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (s *ctxSearcher) Search(ctx context.Context, query string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	s.once.Do(func() { close(s.started) })
	<-s.release
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "shared", nil
}

func TestCachedSearch_CancelledCallerDoesNotFailSharedLoad(t *testing.T) {
	searcher := &ctxSearcher{started: make(chan struct{}), release: make(chan struct{})}
	c := new(MockCache)
	key := cache.SearchContextKey("same")
	c.On("Get", mock.Anything, key).Return("", domain.ErrCacheMiss)
	c.On("Set", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }), key, `"shared"`, time.Minute).Return(nil).Once()
	svc := NewCachedSearchService(searcher, c, time.Minute, nil)

	firstCtx, cancel := context.WithCancel(context.Background())
	type outcome struct {
		text string
		err  error
	}
	first := make(chan outcome, 1)
	second := make(chan outcome, 1)
	go func() {
		text, err := svc.Search(firstCtx, "same")
		first <- outcome{text, err}
	}()
	<-searcher.started
	go func() {
		text, err := svc.Search(context.Background(), "same")
		second <- outcome{text, err}
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	close(searcher.release)

	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, "shared", got.text)
	got = <-first
	require.NoError(t, got.err)
	assert.Equal(t, "shared", got.text)

	searcher.mu.Lock()
	defer searcher.mu.Unlock()
	assert.Equal(t, 1, searcher.calls)
	c.AssertExpectations(t)
}

func TestCachedPDF_CachesOnlySuccess(t *testing.T) {
	data := []byte("%PDF-1.4 fake")
	key := cache.PDFExtractionKey(util.HashBytes(data), 10)
	ok := domain.PDFExtraction{Success: true, ExtractedText: "text", Metadata: &domain.PDFMetadata{PageCount: 1}}
	encoded, err := json.Marshal(ok)
	require.NoError(t, err)

	c := new(MockCache)
	extractor := new(MockPDFExtractor)
	c.On("Get", mock.Anything, key).Return("", domain.ErrCacheMiss).Once()
	c.On("Set", mock.Anything, key, string(encoded), time.Hour).Return(nil).Once()
	extractor.On("ExtractBytes", mock.Anything, data).Return(ok).Once()

	svc := NewCachedPDFService(extractor, c, time.Hour, 10, nil)
	got := svc.ExtractBytes(context.Background(), data)
	assert.Equal(t, ok, got)

	c.On("Get", mock.Anything, key).Return(string(encoded), nil).Once()
	got = svc.ExtractBytes(context.Background(), data)
	assert.Equal(t, "text", got.ExtractedText)
	extractor.AssertNumberOfCalls(t, "ExtractBytes", 1)

	uri := "data:application/pdf;base64,AAAA"
	failed := domain.PDFExtraction{Error: "Invalid file format"}
	uriKey := cache.PDFExtractionKey(util.HashString(uri), 10)
	c.On("Get", mock.Anything, uriKey).Return("", domain.ErrCacheMiss)
	extractor.On("ExtractDataURI", mock.Anything, uri).Return(failed)

	got = svc.ExtractDataURI(context.Background(), uri)
	assert.False(t, got.Success)
	c.AssertNumberOfCalls(t, "Set", 1)
}
