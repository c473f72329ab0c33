package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html/charset"

	"ElectionWatcher/internal/domain"
	"ElectionWatcher/internal/ports"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "ElectionWatcher/1.0"
)

// Client performs bounded GET requests against result sites.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

var _ ports.PageFetcher = (*Client)(nil)

// Options tune the HTTP client; zero values fall back to defaults.
type Options struct {
	Timeout   time.Duration
	UserAgent string
}

// New builds a fetcher. Retries are left to the poll cadence.
func New(opts Options, logger *slog.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetHeader("User-Agent", opts.UserAgent)
	client.SetRetryCount(0)

	return &Client{http: client, logger: logger}
}

// Fetch returns the page body transcoded to UTF-8.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	c.debug("fetch page", "url", url)

	res, err := c.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, &domain.FetchError{URL: url, Err: err}
	}
	if !res.IsSuccess() {
		return nil, &domain.FetchError{URL: url, StatusCode: res.StatusCode(), Err: fmt.Errorf("%s", res.Status())}
	}

	reader, err := charset.NewReader(bytes.NewReader(res.Body()), res.Header().Get("Content-Type"))
	if err != nil {
		return nil, &domain.ParseError{Stage: "charset", Err: err}
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &domain.ParseError{Stage: "charset", Err: err}
	}

	c.debug("page fetched", "url", url, "bytes", len(body), "elapsed", res.Time())
	return body, nil
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
