package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

const (
	// DefaultLoadTimeout bounds a single page navigation.
	DefaultLoadTimeout = 30 * time.Second

	// DefaultSettleDelay is how long to wait after load for script-driven
	// content to appear. Helpdesk sites render article bodies client-side.
	DefaultSettleDelay = 2 * time.Second
)

// BrowserConfig configures the headless browser fetcher.
type BrowserConfig struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome via launcher.
	RemoteURL string

	// LoadTimeout bounds navigation + load wait. Default: 30s.
	LoadTimeout time.Duration

	// SettleDelay is the fixed wait after load. Default: 2s.
	SettleDelay time.Duration

	Logger *slog.Logger
}

func (c *BrowserConfig) defaults() {
	if c.LoadTimeout <= 0 {
		c.LoadTimeout = DefaultLoadTimeout
	}
	if c.SettleDelay < 0 {
		c.SettleDelay = DefaultSettleDelay
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Browser fetches pages with headless Chrome so that script-rendered
// content is present in the returned HTML. It implements Fetcher.
//
// One navigation runs at a time; the crawl is sequential and reusing a
// single tab keeps Chrome memory flat.
type Browser struct {
	cfg     BrowserConfig
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// NewBrowser launches Chrome (or connects to a remote instance) and returns
// a ready fetcher. Call Close when done.
func NewBrowser(cfg BrowserConfig) (*Browser, error) {
	cfg.defaults()
	b := &Browser{cfg: cfg}

	wsURL := cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().
			Headless(true).
			Set("disable-gpu").
			Set("no-sandbox").
			Set("ignore-certificate-errors").
			Set("disable-dev-shm-usage")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		b.lnch = l
		wsURL = u
		cfg.Logger.Info("browser: launched local chrome", "url", wsURL)
	} else {
		cfg.Logger.Info("browser: connecting to remote", "url", wsURL)
	}

	rb := rod.New().ControlURL(wsURL)
	if err := rb.Connect(); err != nil {
		if b.lnch != nil {
			b.lnch.Cleanup()
		}
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	if err := rb.IgnoreCertErrors(true); err != nil {
		cfg.Logger.Warn("browser: ignore cert errors failed", "error", err)
	}
	b.browser = rb
	return b, nil
}

// Fetch navigates to the URL, waits for load plus the settle delay, and
// returns the rendered document HTML.
func (b *Browser) Fetch(ctx context.Context, pageURL string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || b.browser == nil {
		return "", fmt.Errorf("browser: fetcher is closed")
	}

	page, err := stealth.Page(b.browser)
	if err != nil {
		return "", fmt.Errorf("browser: create tab: %w", err)
	}
	defer page.Close()

	navCtx, cancel := context.WithTimeout(ctx, b.cfg.LoadTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		return "", fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		return "", fmt.Errorf("browser: wait load %s: %w", pageURL, err)
	}

	// Let deferred scripts paint the article body.
	select {
	case <-time.After(b.cfg.SettleDelay):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	res, err := page.Context(navCtx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return "", fmt.Errorf("browser: read DOM %s: %w", pageURL, err)
	}
	return res.Value.Str(), nil
}

// Close shuts down Chrome.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if b.browser != nil {
		b.browser.Close()
		b.browser = nil
	}
	if b.lnch != nil {
		b.lnch.Cleanup()
		b.lnch = nil
	}
	return nil
}
