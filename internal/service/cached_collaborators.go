package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"flashzen/internal/cache"
	"flashzen/internal/domain"
	"flashzen/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// readThrough returns the cached JSON value at key, or runs load, caches
// what it returns when store is true, and shares one load among concurrent
// callers of the same key. The shared load runs detached from the caller's
// cancellation so one caller giving up does not fail the others.
func readThrough[T any](ctx context.Context, c domain.Cache, group *singleflight.Group, key string, ttl time.Duration,
	logger *zap.Logger, load func(ctx context.Context) (T, bool, error)) (T, error) {
	if c != nil {
		raw, err := c.Get(ctx, key)
		switch {
		case err == nil:
			var v T
			errDecode := json.Unmarshal([]byte(raw), &v)
			if errDecode == nil {
				logger.Debug("Cache hit", zap.String("key", key))
				return v, nil
			}
			logger.Warn("Failed to decode cached value", zap.Error(errDecode), zap.String("key", key))
		case errors.Is(err, domain.ErrCacheMiss):
			logger.Debug("Cache miss", zap.String("key", key))
		default:
			logger.Warn("Cache read failed", zap.Error(err), zap.String("key", key))
		}
	}

	res, err, _ := group.Do(key, func() (interface{}, error) {
		loadCtx := context.WithoutCancel(ctx)
		v, store, err := load(loadCtx)
		if err != nil {
			return v, err
		}
		if c != nil && store {
			encoded, errEncode := json.Marshal(v)
			if errEncode != nil {
				logger.Warn("Failed to encode value for caching", zap.Error(errEncode), zap.String("key", key))
				return v, nil
			}
			if errSet := c.Set(loadCtx, key, string(encoded), ttl); errSet != nil {
				logger.Warn("Failed to write cache", zap.Error(errSet), zap.String("key", key))
			}
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}

// CachedSearchService caches web search contexts by normalized query.
type CachedSearchService struct {
	searcher domain.WebSearcher
	cache    domain.Cache
	ttl      time.Duration
	group    singleflight.Group
	logger   *zap.Logger
}

var _ domain.WebSearcher = (*CachedSearchService)(nil)

func NewCachedSearchService(searcher domain.WebSearcher, c domain.Cache, ttl time.Duration, logger *zap.Logger) *CachedSearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedSearchService{searcher: searcher, cache: c, ttl: ttl, logger: logger}
}

func (s *CachedSearchService) Search(ctx context.Context, query string) (string, error) {
	return readThrough(ctx, s.cache, &s.group, cache.SearchContextKey(query), s.ttl, s.logger,
		func(ctx context.Context) (string, bool, error) {
			text, err := s.searcher.Search(ctx, query)
			// Empty results are not cached so a later search can still succeed.
			return text, text != "", err
		})
}

// CachedPDFService caches successful extractions by content hash.
type CachedPDFService struct {
	extractor domain.PDFExtractor
	cache     domain.Cache
	ttl       time.Duration
	maxSizeMB int
	group     singleflight.Group
	logger    *zap.Logger
}

var _ domain.PDFExtractor = (*CachedPDFService)(nil)

func NewCachedPDFService(extractor domain.PDFExtractor, c domain.Cache, ttl time.Duration, maxSizeMB int, logger *zap.Logger) *CachedPDFService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedPDFService{extractor: extractor, cache: c, ttl: ttl, maxSizeMB: maxSizeMB, logger: logger}
}

func (s *CachedPDFService) ExtractDataURI(ctx context.Context, dataURI string) domain.PDFExtraction {
	key := cache.PDFExtractionKey(util.HashString(dataURI), s.maxSizeMB)
	return s.extract(ctx, key, func(ctx context.Context) domain.PDFExtraction { return s.extractor.ExtractDataURI(ctx, dataURI) })
}

func (s *CachedPDFService) ExtractBytes(ctx context.Context, data []byte) domain.PDFExtraction {
	key := cache.PDFExtractionKey(util.HashBytes(data), s.maxSizeMB)
	return s.extract(ctx, key, func(ctx context.Context) domain.PDFExtraction { return s.extractor.ExtractBytes(ctx, data) })
}

func (s *CachedPDFService) extract(ctx context.Context, key string, run func(context.Context) domain.PDFExtraction) domain.PDFExtraction {
	res, _ := readThrough(ctx, s.cache, &s.group, key, s.ttl, s.logger,
		func(ctx context.Context) (domain.PDFExtraction, bool, error) {
			out := run(ctx)
			return out, out.Success, nil
		})
	return res
}
