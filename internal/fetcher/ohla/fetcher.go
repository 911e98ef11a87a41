// Package ohla implements the fetch adapter for the Online Hip-hop
// Lyrics Archive site shape. The crawl core never sees markup; this
// package turns pages into listings or plaintext and classifies every
// failure as permanent (archive.ErrNotFound) or retryable
// (archive.ErrTransient).
package ohla

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/ccampell/lyricscrawler/internal/archive"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Fetcher implements archive.Fetcher using the Colly collector.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := colly.NewCollector(colly.Async(false))
	c.WithTransport(newHTTPTransport())
	return &Fetcher{cfg: cfg, baseCollector: c, logger: logger}
}

// FetchIndex retrieves the artist entries from one alphabetical index
// page.
func (f *Fetcher) FetchIndex(ctx context.Context, url string) ([]archive.ListingEntry, error) {
	body, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	entries, err := parseIndex(body, url)
	if err != nil {
		return nil, fmt.Errorf("%w: parse index %s: %v", archive.ErrNotFound, url, err)
	}
	return entries, nil
}

// FetchListing retrieves the album or song entries found at an artist
// or album page.
func (f *Fetcher) FetchListing(ctx context.Context, url string) ([]archive.ListingEntry, error) {
	body, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	entries, err := parseListing(body, url)
	if err != nil {
		return nil, fmt.Errorf("%w: parse listing %s: %v", archive.ErrNotFound, url, err)
	}
	return entries, nil
}

// FetchText retrieves the plaintext lyric body at a song page.
func (f *Fetcher) FetchText(ctx context.Context, url string) (string, error) {
	body, err := f.get(ctx, url)
	if err != nil {
		return "", err
	}
	text, err := parseLyricText(body)
	if err != nil {
		return "", fmt.Errorf("%w: parse lyrics %s: %v", archive.ErrNotFound, url, err)
	}
	return text, nil
}

// get executes a single HTTP GET using Colly and classifies failures.
func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	var (
		body       []byte
		statusCode int
		fetchErr   error
	)

	collector := f.baseCollector.Clone()
	collector.AllowURLRevisit = true
	collector.IgnoreRobotsTxt = true
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.SetRequestTimeout(f.cfg.Timeout)

	collector.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			statusCode = r.StatusCode
		}
		fetchErr = err
	})

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: fetch %s canceled: %v", archive.ErrTransient, url, ctx.Err())
	case visitErr := <-done:
		if visitErr == nil && fetchErr == nil {
			f.logger.Debug("page fetched",
				zap.String("url", url),
				zap.Int("status", statusCode),
				zap.Int("bytes", len(body)),
				zap.Duration("dur", time.Since(start)),
			)
			return body, nil
		}
		err := fetchErr
		if err == nil {
			err = visitErr
		}
		return nil, classify(url, statusCode, err)
	}
}

// classify maps an HTTP status and transport error onto the crawl
// core's two failure classes.
func classify(url string, statusCode int, err error) error {
	switch statusCode {
	case http.StatusNotFound, http.StatusGone:
		return fmt.Errorf("%w: %s returned %d", archive.ErrNotFound, url, statusCode)
	case http.StatusTooManyRequests, http.StatusRequestTimeout:
		return fmt.Errorf("%w: %s returned %d", archive.ErrTransient, url, statusCode)
	}
	if statusCode >= 400 && statusCode < 500 {
		return fmt.Errorf("%w: %s returned %d", archive.ErrNotFound, url, statusCode)
	}
	if statusCode >= 500 {
		return fmt.Errorf("%w: %s returned %d: %v", archive.ErrTransient, url, statusCode, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %s timed out: %v", archive.ErrTransient, url, err)
	}
	// Connection resets, DNS hiccups and anything else unclassified are
	// worth retrying on a later pass.
	return fmt.Errorf("%w: fetch %s: %v", archive.ErrTransient, url, err)
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
