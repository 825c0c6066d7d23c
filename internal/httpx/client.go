// Package httpx fetches pages politely: per-host request spacing, a
// bounded cooldown loop on 429s, and a randomized delay after every
// successful response.
package httpx

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"
)

// ErrRateLimitExceeded marks a URL abandoned because the remote kept
// answering 429 past the retry ceiling.
var ErrRateLimitExceeded = errors.New("rate limit retries exhausted")

type FetchError struct {
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch error (status %d)", e.Status)
	}
	return fmt.Sprintf("fetch error (status %d): %v", e.Status, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Options tunes the politeness behavior. Zero values fall back to the
// defaults used against FBRef.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	// DelayMin/DelayMax bound the uniform random delay applied after
	// every successful fetch.
	DelayMin time.Duration
	DelayMax time.Duration
	// RateLimitCooldown is the wait before retrying a 429'd URL.
	RateLimitCooldown time.Duration
	// MaxRateLimitRetries bounds the cooldown loop; past it the fetch
	// fails with ErrRateLimitExceeded.
	MaxRateLimitRetries int
	// TransportWait is the single pause taken after a network-level
	// failure before the error is reported.
	TransportWait time.Duration
}

type Client struct {
	userAgent           string
	timeout             time.Duration
	delayMin            time.Duration
	delayMax            time.Duration
	rateLimitCooldown   time.Duration
	maxRateLimitRetries int
	transportWait       time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewClient(opts Options) *Client {
	c := &Client{
		userAgent:           opts.UserAgent,
		timeout:             opts.Timeout,
		delayMin:            opts.DelayMin,
		delayMax:            opts.DelayMax,
		rateLimitCooldown:   opts.RateLimitCooldown,
		maxRateLimitRetries: opts.MaxRateLimitRetries,
		transportWait:       opts.TransportWait,
		limiters:            map[string]*rate.Limiter{},
	}
	if c.userAgent == "" {
		c.userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
	}
	if c.timeout <= 0 {
		c.timeout = 30 * time.Second
	}
	if c.delayMin <= 0 && c.delayMax <= 0 {
		c.delayMin = 2 * time.Second
		c.delayMax = 6 * time.Second
	}
	if c.rateLimitCooldown <= 0 {
		c.rateLimitCooldown = 60 * time.Second
	}
	if c.maxRateLimitRetries <= 0 {
		c.maxRateLimitRetries = 5
	}
	if c.transportWait <= 0 {
		c.transportWait = 10 * time.Second
	}
	return c
}

// FetchBytes issues one polite GET and returns the response body. 429s are
// retried after a cooldown up to the configured ceiling; any other non-2xx
// status fails immediately. Every successful return is preceded by the
// politeness delay.
func (c *Client) FetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	target, err := normalizeURL(rawURL)
	if err != nil {
		return nil, err
	}
	host := hostKey(target)

	for attempt := 0; ; attempt++ {
		if err := c.limiterFor(host).Wait(ctx); err != nil {
			return nil, err
		}

		body, status, err := c.fetchOnce(ctx, target)

		if status == http.StatusTooManyRequests {
			if attempt >= c.maxRateLimitRetries {
				return nil, &FetchError{Status: status, Err: ErrRateLimitExceeded}
			}
			if err := sleepWithContext(ctx, c.rateLimitCooldown); err != nil {
				return nil, err
			}
			continue
		}

		if err != nil {
			if status == 0 {
				// network-level failure, not an HTTP status
				if werr := sleepWithContext(ctx, c.transportWait); werr != nil {
					return nil, werr
				}
			}
			return nil, &FetchError{Status: status, Err: err}
		}

		if err := c.politenessDelay(ctx); err != nil {
			return nil, err
		}
		return body, nil
	}
}

func (c *Client) fetchOnce(ctx context.Context, target string) ([]byte, int, error) {
	col := c.newCollector()

	var body []byte
	status := 0
	var reqErr error
	col.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	col.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		reqErr = err
	})

	collyCtx := colly.NewContext()
	collyCtx.Put("ctx", ctx)

	if err := col.Request(http.MethodGet, target, nil, collyCtx, nil); err != nil {
		return nil, status, err
	}
	if reqErr != nil {
		return nil, status, reqErr
	}
	if status >= 400 {
		return nil, status, fmt.Errorf("status %d", status)
	}
	return body, status, nil
}

// newCollector builds a fresh collector per attempt so colly's visited-URL
// bookkeeping never blocks a retry of the same URL.
func (c *Client) newCollector() *colly.Collector {
	col := colly.NewCollector(colly.UserAgent(c.userAgent))
	col.SetRequestTimeout(c.timeout)

	col.OnRequest(func(r *colly.Request) {
		ctx := context.Background()
		if v := r.Ctx.GetAny("ctx"); v != nil {
			if reqCtx, ok := v.(context.Context); ok {
				ctx = reqCtx
			}
		}
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	return col
}

// politenessDelay sleeps for a uniform random duration from the configured
// range. It runs on every path that returns a usable response.
func (c *Client) politenessDelay(ctx context.Context) error {
	if c.delayMax <= 0 || c.delayMax < c.delayMin {
		return nil
	}
	d := c.delayMin
	if span := c.delayMax - c.delayMin; span > 0 {
		d += time.Duration(rand.Int63n(int64(span)))
	}
	if d <= 0 {
		return nil
	}
	return sleepWithContext(ctx, d)
}

func (c *Client) limiterFor(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.limiters[host]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Every(time.Second), 1)
	c.limiters[host] = l
	return l
}

func normalizeURL(rawURL string) (string, error) {
	if rawURL == "" {
		return "", errors.New("empty url")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	return u.String(), nil
}

func hostKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "default"
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
