// Package crawler walks a support site breadth-first and collects articles.
//
// The frontier is bounded: a page is fetched at most once and the crawl
// terminates after maxPages distinct URLs even on cyclic link graphs. Pages
// the site renders with JavaScript are handled by the Browser fetcher; the
// frontier itself only sees final HTML through the Fetcher interface.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/bull/faqbot/internal/extract"
)

// ErrNoPages is returned when not a single page could be fetched.
var ErrNoPages = errors.New("no pages could be fetched")

// DefaultPathPrefix limits the crawl to the support knowledge base.
const DefaultPathPrefix = "/support/solutions"

// Fetcher retrieves the rendered HTML of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Config configures a Crawler.
type Config struct {
	// PathPrefix is the allowed URL path prefix. Links outside it are
	// silently dropped. Default: DefaultPathPrefix.
	PathPrefix string

	Logger *slog.Logger
}

// Crawler runs bounded breadth-first crawls.
type Crawler struct {
	fetcher    Fetcher
	classifier *extract.Classifier
	extractor  *extract.Extractor
	pathPrefix string
	logger     *slog.Logger
}

// New creates a Crawler from its collaborators.
func New(fetcher Fetcher, classifier *extract.Classifier, extractor *extract.Extractor, cfg Config) *Crawler {
	if cfg.PathPrefix == "" {
		cfg.PathPrefix = DefaultPathPrefix
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Crawler{
		fetcher:    fetcher,
		classifier: classifier,
		extractor:  extractor,
		pathPrefix: cfg.PathPrefix,
		logger:     cfg.Logger,
	}
}

// Crawl traverses the site breadth-first from baseURL, visiting at most
// maxPages distinct URLs, and returns the articles found. A page that fails
// to fetch is logged and skipped. ErrNoPages is returned when every fetch
// failed.
func (c *Crawler) Crawl(ctx context.Context, baseURL string, maxPages int) ([]extract.Article, error) {
	if maxPages <= 0 {
		return nil, fmt.Errorf("crawler: maxPages must be positive, got %d", maxPages)
	}
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("crawler: invalid base URL %q", baseURL)
	}

	visited := make(map[string]bool)
	pending := []string{base.String()}
	fetched := 0

	var articles []extract.Article

	for len(pending) > 0 && len(visited) < maxPages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current := pending[0]
		pending = pending[1:]
		if visited[current] {
			continue
		}
		visited[current] = true

		page, err := c.fetcher.Fetch(ctx, current)
		if err != nil {
			c.logger.Warn("crawl: fetch failed", "url", current, "error", err)
			continue
		}
		fetched++

		if c.classifier.IsArticle(current) {
			if a := c.extractor.Extract(page); a != nil {
				articles = append(articles, *a)
				c.logger.Debug("crawl: extracted article", "url", current, "question", a.Question)
			}
			continue
		}

		// Listing page: enqueue in-scope links.
		for _, href := range extract.Links(page) {
			next, ok := c.resolve(base, current, href)
			if !ok || visited[next] || contains(pending, next) {
				continue
			}
			pending = append(pending, next)
		}
	}

	c.logger.Info("crawl: finished", "visited", len(visited), "articles", len(articles))

	if fetched == 0 {
		return nil, fmt.Errorf("%w: visited %d urls starting at %s", ErrNoPages, len(visited), baseURL)
	}
	return articles, nil
}

// resolve turns a hyperlink into an absolute, slash-trimmed URL and applies
// the scope filter: same origin as base and path under the allowed prefix.
func (c *Crawler) resolve(base *url.URL, pageURL, href string) (string, bool) {
	page, err := url.Parse(pageURL)
	if err != nil {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := page.ResolveReference(ref)
	abs.Fragment = ""

	if abs.Scheme != base.Scheme || abs.Host != base.Host {
		return "", false
	}
	if !strings.HasPrefix(abs.Path, c.pathPrefix) {
		return "", false
	}
	return strings.TrimSuffix(abs.String(), "/"), true
}

func contains(urls []string, u string) bool {
	for _, v := range urls {
		if v == u {
			return true
		}
	}
	return false
}
