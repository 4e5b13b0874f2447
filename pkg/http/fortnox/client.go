// Package fortnox is a typed client for the Fortnox v3 API and its OAuth
// token endpoint. Every API request passes through a shared rate limiter and
// the retry policy the provider expects: 429 honors Retry-After, 5xx backs
// off linearly, anything else 4xx fails immediately.
package fortnox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/solvik/fortnox-sync/pkg/ratelimit"
	"github.com/solvik/fortnox-sync/pkg/utils"
)

const (
	DefaultAPIBaseURL  = "https://api.fortnox.se/3"
	DefaultAuthBaseURL = "https://apps.fortnox.se/oauth-v1"

	defaultMaxRetries = 5
	pageSize          = 100
)

// Options configures a Client.
type Options struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string

	// APIBaseURL and AuthBaseURL default to the production endpoints;
	// tests point them at a local server.
	APIBaseURL  string
	AuthBaseURL string

	Limiter    *ratelimit.Limiter
	HTTPClient *http.Client
	MaxRetries int

	// Sleep is the retry wait; tests replace it to observe backoff.
	Sleep func(ctx context.Context, d time.Duration) error

	// Debug dumps requests and responses to stdout.
	Debug bool
}

// Client talks to Fortnox. Construct one per process and share it; the
// limiter it carries is what keeps concurrent syncs inside the provider
// quota.
type Client struct {
	clientID     string
	clientSecret string
	redirectURI  string
	scopes       []string

	apiBase    string
	authBase   string
	limiter    *ratelimit.Limiter
	http       *http.Client
	maxRetries int
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewClient creates a Fortnox client.
func NewClient(opts Options) *Client {
	if opts.APIBaseURL == "" {
		opts.APIBaseURL = DefaultAPIBaseURL
	}
	if opts.AuthBaseURL == "" {
		opts.AuthBaseURL = DefaultAuthBaseURL
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.New(ratelimit.Options{})
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	if opts.Debug {
		transport := opts.HTTPClient.Transport
		if transport == nil {
			transport = http.DefaultTransport
		}
		opts.HTTPClient.Transport = utils.DebugRoundTripperWithUnderlying(transport)
	}

	return &Client{
		clientID:     opts.ClientID,
		clientSecret: opts.ClientSecret,
		redirectURI:  opts.RedirectURI,
		scopes:       opts.Scopes,
		apiBase:      opts.APIBaseURL,
		authBase:     opts.AuthBaseURL,
		limiter:      opts.Limiter,
		http:         opts.HTTPClient,
		maxRetries:   opts.MaxRetries,
		sleep:        opts.Sleep,
	}
}

// APIError is a non-2xx answer from the voucher API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("fortnox api error %d: %s", e.StatusCode, e.Body)
}

// getJSON performs a rate-limited GET with the retry policy and decodes the
// body into out.
func (c *Client) getJSON(ctx context.Context, url, accessToken string, out any) error {
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+accessToken)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("failed to parse response from %s: %w", url, err)
			}
			return nil

		case resp.StatusCode == http.StatusTooManyRequests:
			wait := retryAfter(resp.Header)
			if wait == 0 {
				wait = 5*time.Second*time.Duration(attempt) +
					time.Duration(rand.Intn(500))*time.Millisecond
			}
			log.Warn().Int("attempt", attempt).Dur("wait", wait).
				Str("url", url).Msg("Rate limited by Fortnox, backing off")
			if err := c.sleep(ctx, wait); err != nil {
				return err
			}

		case resp.StatusCode >= 500:
			wait := time.Second * time.Duration(attempt)
			log.Warn().Int("attempt", attempt).Int("status", resp.StatusCode).
				Str("url", url).Msg("Fortnox server error, retrying")
			if err := c.sleep(ctx, wait); err != nil {
				return err
			}

		default:
			return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
		}
	}
	return fmt.Errorf("giving up on %s after %d attempts", url, c.maxRetries)
}

func retryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	var seconds int
	if _, err := fmt.Sscanf(v, "%d", &seconds); err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
