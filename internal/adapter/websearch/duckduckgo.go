package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"flashzen/internal/domain"

	"go.uber.org/zap"
)

const (
	DefaultEndpoint        = "https://api.duckduckgo.com/"
	DefaultMaxContextChars = 2000
	maxRelatedTopics       = 5
	truncationSuffix       = "... (context truncated)"
)

var htmlTag = regexp.MustCompile(`<[^>]*>?`)

type topic struct {
	Result   string  `json:"Result"`
	FirstURL string  `json:"FirstURL"`
	Text     string  `json:"Text"`
	Name     string  `json:"Name"`
	Topics   []topic `json:"Topics"`
}

type instantAnswer struct {
	Heading          string  `json:"Heading"`
	Abstract         string  `json:"Abstract"`
	AbstractText     string  `json:"AbstractText"`
	AbstractURL      string  `json:"AbstractURL"`
	Answer           string  `json:"Answer"`
	AnswerType       string  `json:"AnswerType"`
	Definition       string  `json:"Definition"`
	DefinitionSource string  `json:"DefinitionSource"`
	DefinitionURL    string  `json:"DefinitionURL"`
	RelatedTopics    []topic `json:"RelatedTopics"`
}

// DuckDuckGo queries the Instant Answer API and condenses the response
// into a plain-text context block.
type DuckDuckGo struct {
	endpoint string
	maxChars int
	client   *http.Client
	logger   *zap.Logger
}

var _ domain.WebSearcher = (*DuckDuckGo)(nil)

func NewDuckDuckGo(endpoint string, maxChars int, timeout time.Duration, logger *zap.Logger) *DuckDuckGo {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxContextChars
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DuckDuckGo{
		endpoint: endpoint,
		maxChars: maxChars,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Search returns "" for a blank query or when the API has nothing useful.
func (d *DuckDuckGo) Search(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", nil
	}

	u, err := url.Parse(d.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid search endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("no_html", "1")
	q.Set("skip_disambig", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("User-Agent", "FlashZen/1.0")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", domain.NewExternalServiceError("duckduckgo", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		d.logger.Warn("DuckDuckGo request failed",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
		return "", domain.NewExternalServiceError("duckduckgo",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var ia instantAnswer
	if err := json.NewDecoder(resp.Body).Decode(&ia); err != nil {
		return "", domain.NewExternalServiceError("duckduckgo",
			fmt.Errorf("could not parse search results: %w", err))
	}

	out := truncate(buildContext(ia), d.maxChars)
	d.logger.Debug("Web search context built", zap.String("query", query), zap.Int("length", len(out)))
	return out, nil
}

func buildContext(ia instantAnswer) string {
	var b strings.Builder

	abstract := strings.TrimSpace(ia.Abstract)
	if abstract == "" {
		abstract = strings.TrimSpace(ia.AbstractText)
	}
	if abstract != "" {
		if ia.Heading != "" {
			fmt.Fprintf(&b, "Topic: %s\nSummary: %s\n", ia.Heading, abstract)
		} else {
			fmt.Fprintf(&b, "Search Result Summary: %s\n", abstract)
		}
		if ia.AbstractURL != "" {
			fmt.Fprintf(&b, "Source: %s\n", ia.AbstractURL)
		}
		b.WriteString("---\n")
	}

	if answer := strings.TrimSpace(ia.Answer); answer != "" {
		fmt.Fprintf(&b, "Direct Answer: %s\n", answer)
		if ia.AnswerType != "" {
			fmt.Fprintf(&b, "Answer Type: %s\n", ia.AnswerType)
		}
		b.WriteString("---\n")
	}

	if def := strings.TrimSpace(ia.Definition); def != "" {
		fmt.Fprintf(&b, "Definition: %s\n", def)
		if ia.DefinitionSource != "" {
			fmt.Fprintf(&b, "Definition Source: %s\n", ia.DefinitionSource)
		}
		if ia.DefinitionURL != "" {
			fmt.Fprintf(&b, "Definition URL: %s\n", ia.DefinitionURL)
		}
		b.WriteString("---\n")
	}

	if texts := topicTexts(ia.RelatedTopics, maxRelatedTopics); len(texts) > 0 {
		b.WriteString("Related Information:\n")
		for _, t := range texts {
			fmt.Fprintf(&b, "- %s\n", t)
		}
		b.WriteString("---\n")
	}

	return strings.TrimSpace(b.String())
}

// topicTexts walks topics depth-first, skipping category links.
func topicTexts(topics []topic, limit int) []string {
	var out []string
	var walk func(t topic)
	walk = func(t topic) {
		if len(out) >= limit {
			return
		}
		isCategory := strings.Contains(t.Result, "Category:") ||
			strings.HasPrefix(t.Result, `<a href="https://duckduckgo.com/c/`)
		if text := strings.TrimSpace(htmlTag.ReplaceAllString(t.Text, "")); text != "" && !isCategory {
			if t.FirstURL != "" {
				text += " (More: " + t.FirstURL + ")"
			}
			out = append(out, text)
		}
		for _, sub := range t.Topics {
			if len(out) >= limit {
				return
			}
			walk(sub)
		}
	}
	for _, t := range topics {
		if len(out) >= limit {
			break
		}
		walk(t)
	}
	return out
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + truncationSuffix
}
