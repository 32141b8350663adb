package overpass

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/poi-cli/internal/resilience"
)

// ClientOptions configures the Overpass client.
type ClientOptions struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// RateRPS limits how many queries per second are sent. The public
	// Overpass instances expect no more than ~1 rps from a single client.
	RateRPS float64
	Retry   resilience.RetryConfig
}

// Client submits Overpass QL queries over HTTP. Every request is gated by a
// rate limiter and wrapped in the retry policy; rate-limit and server errors
// are retried with backoff, other client errors fail immediately.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	opts       ClientOptions
}

// Result holds one successful query outcome: the verbatim response body and
// its decoded form.
type Result struct {
	Raw      []byte
	Response *Response
}

// NewClient creates an Overpass client with the given options.
func NewClient(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://overpass-api.de/api/interpreter"
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "poi-cli/1.0"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.RateRPS == 0 {
		opts.RateRPS = 1
	}
	transport := &http.Transport{
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Limit(opts.RateRPS), 1),
		opts:    opts,
	}
}

// Query submits one Overpass QL query and returns the raw body together with
// its decoded elements. The body is only returned once it parses as a valid
// Overpass response; a body that fails to parse is treated as transient and
// retried, the same as a 429 or 5xx status.
func (c *Client) Query(ctx context.Context, query string) (*Result, error) {
	retry := c.opts.Retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("overpass", "query")
	}

	return resilience.DoVal(ctx, retry, func(ctx context.Context) (*Result, error) {
		return c.doQuery(ctx, query)
	})
}

func (c *Client) doQuery(ctx context.Context, query string) (*Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "overpass: rate limiter wait")
	}

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "overpass: create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "overpass: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("overpass: http %d from %s", resp.StatusCode, c.opts.BaseURL)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			if resp.StatusCode == http.StatusTooManyRequests {
				zap.L().Warn("overpass rate limited, backing off")
			}
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "overpass: read body"), 0)
	}

	decoded, err := Decode(raw)
	if err != nil {
		return nil, resilience.NewTransientError(err, 0)
	}

	return &Result{Raw: raw, Response: decoded}, nil
}
