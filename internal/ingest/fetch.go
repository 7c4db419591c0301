package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"
)

const (
	defaultUserAgent = "lakitu/1.0 (+https://github.com/lakitu0/lakitu)"
	defaultDelay     = time.Second
	defaultTimeout   = 30 * time.Second
)

// FetchConfig tunes the page fetcher. Zero values fall back to polite
// defaults: one request per second per domain with a 30 second timeout.
type FetchConfig struct {
	UserAgent   string
	Parallelism int
	Delay       time.Duration
	Timeout     time.Duration
}

// Fetcher downloads catalog pages with per-domain rate limiting.
type Fetcher struct {
	collector *colly.Collector
}

// NewFetcher builds a page fetcher from cfg.
func NewFetcher(cfg FetchConfig) (*Fetcher, error) {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 1
	}
	if cfg.Delay <= 0 {
		cfg.Delay = defaultDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	c := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(cfg.Timeout)
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: cfg.Parallelism,
		Delay:       cfg.Delay,
	}); err != nil {
		return nil, fmt.Errorf("configure rate limit: %w", err)
	}

	return &Fetcher{collector: c}, nil
}

// Fetch downloads a single page and returns its raw body.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Each fetch gets its own clone so response callbacks do not
	// accumulate on the shared collector.
	c := f.collector.Clone()
	c.Context = ctx

	var body []byte
	var fetchErr error

	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("fetch %s: %w", pageURL, err)
	})

	if err := c.Visit(pageURL); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	c.Wait()

	if fetchErr != nil {
		return nil, fetchErr
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("fetch %s: empty response", pageURL)
	}
	return body, nil
}
