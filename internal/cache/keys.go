package cache

import (
	"strconv"
	"strings"

	"flashzen/internal/util"
)

const (
	GlobalKeyPrefix = "flashzen"

	searchService = "search"
	pdfService    = "pdf"
)

// GenerateCacheKey generates a cache key for a given service, object type, and identifier.
// If paramsKey are provided, they are joined by "_" and appended to the cache key.
func GenerateCacheKey(serviceName, objectType, identifier string, paramsKey ...string) string {
	baseKey := strings.Join([]string{GlobalKeyPrefix, serviceName, objectType, identifier}, ":")
	if len(paramsKey) > 0 {
		return strings.Join([]string{baseKey, strings.Join(paramsKey, "_")}, ":")
	}
	return baseKey
}

// SearchContextKey keys a web search context by its normalized query.
func SearchContextKey(query string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(query), " "))
	return GenerateCacheKey(searchService, "context", util.HashString(normalized))
}

// PDFExtractionKey keys an extraction result by document content hash and
// the size limit it was checked against.
func PDFExtractionKey(contentHash string, maxSizeMB int) string {
	return GenerateCacheKey(pdfService, "extraction", contentHash, "max", strconv.Itoa(maxSizeMB))
}
