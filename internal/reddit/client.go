// Package reddit reads recent comments of a subreddit through the public JSON listing API.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/hpungsan/acrobot/internal/config"
	"github.com/hpungsan/acrobot/internal/logger"
)

// RetryBaseDelay is the first backoff step on 429 and 5xx responses; it doubles on each
// attempt. Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

// MaxPageSize is the largest listing page Reddit serves.
const MaxPageSize = 100

// Options configures a Client. Zero values fall back to config defaults.
type Options struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	MaxRetries        int
	HTTPClient        *http.Client
	Logger            *logger.Logger
}

// Client fetches comment listings. It is safe for concurrent use; all requests share one
// rate limiter.
type Client struct {
	baseURL    string
	userAgent  string
	http       *http.Client
	limiter    *rate.Limiter
	maxRetries int
	log        *logger.Logger
}

// StatusError is returned for a non-2xx response that was not retried away.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("reddit: %s returned %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// New builds a Client from opts.
func New(opts Options) *Client {
	def := config.DefaultConfig()
	if opts.BaseURL == "" {
		opts.BaseURL = def.RedditBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = def.UserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Duration(def.HTTPTimeoutSeconds) * time.Second
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = def.RequestsPerSecond
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	log := opts.Logger
	if log == nil {
		log = logger.Named("reddit")
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		userAgent:  opts.UserAgent,
		http:       hc,
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		maxRetries: opts.MaxRetries,
		log:        log,
	}
}

// NewFromConfig builds a Client from the merged configuration.
func NewFromConfig(cfg *config.Config) *Client {
	return New(Options{
		BaseURL:           cfg.RedditBaseURL,
		UserAgent:         cfg.UserAgent,
		Timeout:           time.Duration(cfg.HTTPTimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.RequestsPerSecond,
		MaxRetries:        cfg.MaxRetries,
	})
}

// Page is one listing page of comments, newest first.
type Page struct {
	Comments []Comment
	After    string // cursor for the next page; empty at the end
}

// Listing fetches one page of the newest comments of topic.
func (c *Client) Listing(ctx context.Context, topic, after string, limit int) (*Page, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("raw_json", "1")
	if after != "" {
		q.Set("after", after)
	}
	endpoint := fmt.Sprintf("%s/r/%s/comments.json?%s", c.baseURL, url.PathEscape(topic), q.Encode())

	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var l listing
	if err := json.NewDecoder(resp.Body).Decode(&l); err != nil {
		return nil, fmt.Errorf("reddit: decode listing: %w", err)
	}

	page := &Page{After: l.Data.After}
	for _, child := range l.Data.Children {
		if child.Kind != kindComment {
			continue
		}
		page.Comments = append(page.Comments, child.Data)
	}
	c.log.Debug().
		Str("topic", topic).
		Str("after", after).
		Int("comments", len(page.Comments)).
		Msg("fetched listing page")
	return page, nil
}

// get issues a rate-limited GET and retries 429 and 5xx responses with exponential
// backoff. Retry-After, when present and longer, wins over the computed delay.
func (c *Client) get(ctx context.Context, endpoint string) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		resp.Body.Close()

		if !retryable(resp.StatusCode) || attempt >= c.maxRetries {
			return nil, &StatusError{StatusCode: resp.StatusCode, URL: endpoint}
		}

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		if ra := retryAfter(resp.Header.Get("Retry-After")); ra > backoff {
			backoff = ra
		}
		c.log.Warn().
			Int("status", resp.StatusCode).
			Int("attempt", attempt+1).
			Int("max_retries", c.maxRetries).
			Dur("backoff", backoff).
			Msg("reddit request failed, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
