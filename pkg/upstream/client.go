package upstream

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

// Config contains the astrology provider configuration.
type Config struct {
	// Name identifies the provider in logs and errors.
	Name string

	// BaseURL is the provider's scheme+host, e.g. "https://json.freeastrologyapi.com".
	BaseURL string

	// Credential is the API key. Never logged in full.
	Credential string

	// Style is the configured credential transport. Ignored when Discover
	// is set.
	Style AuthStyle

	// Discover enables the ordered auth-style fallback sequence instead of
	// treating Style as authoritative.
	Discover bool

	// MaxAttempts bounds the transient retry loop: total tries per style,
	// including the first. Default: 4.
	MaxAttempts int

	// RetryBaseDelay is the first backoff delay; subsequent delays grow
	// geometrically with jitter. Default: 250ms.
	RetryBaseDelay time.Duration

	// MaxRetryDelay caps a single backoff delay. Default: 3s.
	MaxRetryDelay time.Duration

	// Timeout is the per-request HTTP timeout. Default: 30s.
	Timeout time.Duration

	// Connection pool settings.
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
}

// Result is a successful upstream outcome plus the redacted attempt trace
// that produced it.
type Result struct {
	// Status is the upstream HTTP status (2xx).
	Status int

	// Body is the raw upstream body, JSON or binary.
	Body []byte

	// ContentType is the upstream Content-Type header.
	ContentType string

	// Attempts is the redacted trace, including the successful attempt.
	Attempts []Attempt
}

// Client dispatches requests to the astrology provider, handling credential
// transport, transient retry, and auth-style rotation.
type Client struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// NewClient creates a provider client. It fails fast when the base URL or
// credential is missing: there is no public default for either.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Name == "" {
		cfg.Name = "astro"
	}
	if cfg.BaseURL == "" {
		return nil, &ConfigError{Provider: cfg.Name, Field: "base_url", Message: "provider base URL is required"}
	}
	if !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://") {
		return nil, &ConfigError{Provider: cfg.Name, Field: "base_url", Message: "base URL must start with http:// or https://"}
	}
	if cfg.Credential == "" {
		return nil, &ConfigError{Provider: cfg.Name, Field: "api_key", Message: "API credential is required"}
	}

	if cfg.Style == (AuthStyle{}) {
		cfg.Style = HeaderKey("x-api-key")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 4
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 250 * time.Millisecond
	}
	if cfg.MaxRetryDelay <= 0 {
		cfg.MaxRetryDelay = 3 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = 100
	}
	if cfg.MaxIdleConnsPerHost <= 0 {
		cfg.MaxIdleConnsPerHost = 10
	}
	if cfg.IdleConnTimeout <= 0 {
		cfg.IdleConnTimeout = 90 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &Client{
		config: cfg,
		client: &http.Client{Transport: transport, Timeout: cfg.Timeout},
		logger: slog.Default().With("component", "upstream", "provider", cfg.Name),
	}, nil
}

// Post sends the canonical JSON body to baseURL+path and classifies the
// outcome.
//
// With an authoritative style exactly one credential transport is tried.
// In discovery mode the fixed DiscoveryOrder is walked until a response's
// status falls outside {400, 401, 403}; if every style lands in that set the
// returned *AuthError carries the last status/body and the full redacted
// trace.
//
// Transient failures (429, 5xx, network errors) are retried per style with
// bounded geometric backoff before any classification happens.
func (c *Client) Post(ctx context.Context, path string, body []byte) (*Result, error) {
	url := strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")

	styles := []AuthStyle{c.config.Style}
	if c.config.Discover {
		styles = DiscoveryOrder()
	}

	var attempts []Attempt
	var lastStatus int
	var lastBody []byte

	for i, style := range styles {
		status, respBody, contentType, attempt, err := c.tryStyle(ctx, url, body, style)
		attempts = append(attempts, attempt)

		if err != nil {
			// Transport-level failure: no status to rotate on.
			return nil, &TransportError{Provider: c.config.Name, Cause: err}
		}

		switch {
		case status >= 200 && status < 300:
			if i > 0 {
				c.logger.Info("auth style discovered",
					"style", style.String(),
					"rejected_styles", i,
				)
			}
			return &Result{
				Status:      status,
				Body:        respBody,
				ContentType: contentType,
				Attempts:    attempts,
			}, nil

		case isAuthShaped(status):
			lastStatus, lastBody = status, respBody
			if !c.config.Discover {
				// Authoritative style: a 4xx here is the provider's
				// answer, not a transport mismatch to rotate past.
				return nil, &TerminalError{
					Provider:    c.config.Name,
					Status:      status,
					Body:        respBody,
					ContentType: contentType,
				}
			}
			c.logger.Debug("auth style rejected",
				"style", style.String(),
				"status", status,
			)
			continue

		case status == http.StatusTooManyRequests || status >= 500:
			// Still failing after the bounded retry loop.
			return nil, &TransientError{
				Provider: c.config.Name,
				Status:   status,
				Body:     respBody,
				Attempts: attempts,
			}

		default:
			// Any other 4xx is terminal and passed through unchanged.
			return nil, &TerminalError{
				Provider:    c.config.Name,
				Status:      status,
				Body:        respBody,
				ContentType: contentType,
			}
		}
	}

	return nil, &AuthError{
		Provider: c.config.Name,
		Status:   lastStatus,
		Body:     lastBody,
		Attempts: attempts,
	}
}

// tryStyle performs the bounded transient-retry loop for one credential
// transport. It returns the final status and body even when that status is
// still 429/5xx after the last retry; the caller classifies it.
func (c *Client) tryStyle(ctx context.Context, url string, body []byte, style AuthStyle) (status int, respBody []byte, contentType string, attempt Attempt, err error) {
	start := time.Now()
	attempt = Attempt{Style: style.String()}

	var lastErr error
	for try := 1; try <= c.config.MaxAttempts; try++ {
		if try > 1 {
			attempt.Retries++
			delay := c.backoff(try - 1)
			c.logger.Debug("retrying upstream call",
				"style", style.String(),
				"try", try,
				"max_attempts", c.config.MaxAttempts,
				"delay", delay,
			)
			select {
			case <-ctx.Done():
				attempt.Err = ctx.Err().Error()
				attempt.Duration = time.Since(start)
				return 0, nil, "", attempt, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if reqErr != nil {
			attempt.Err = reqErr.Error()
			attempt.Duration = time.Since(start)
			return 0, nil, "", attempt, reqErr
		}
		req.Header.Set("Content-Type", "application/json")
		style.Apply(req, c.config.Credential)

		resp, doErr := c.client.Do(req)
		if doErr != nil {
			lastErr = doErr
			if ctx.Err() != nil {
				attempt.Err = ctx.Err().Error()
				attempt.Duration = time.Since(start)
				return 0, nil, "", attempt, ctx.Err()
			}
			c.logger.Warn("upstream call failed, will retry",
				"style", style.String(),
				"try", try,
				"error", doErr,
			)
			continue
		}

		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		attempt.Status = resp.StatusCode
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			status, respBody = resp.StatusCode, data
			contentType = resp.Header.Get("Content-Type")
			lastErr = nil
			continue
		}

		attempt.Duration = time.Since(start)
		return resp.StatusCode, data, resp.Header.Get("Content-Type"), attempt, nil
	}

	attempt.Duration = time.Since(start)
	if status != 0 {
		// Retries exhausted on 429/5xx: surface the last upstream answer.
		return status, respBody, contentType, attempt, nil
	}
	attempt.Err = lastErr.Error()
	return 0, nil, "", attempt, lastErr
}

// backoff computes the nth geometric delay with up to 25% jitter, capped at
// MaxRetryDelay.
func (c *Client) backoff(n int) time.Duration {
	delay := c.config.RetryBaseDelay << (n - 1)
	if delay > c.config.MaxRetryDelay {
		delay = c.config.MaxRetryDelay
	}
	if jitter := int64(delay / 4); jitter > 0 {
		delay += time.Duration(rand.Int63n(jitter))
	}
	if delay > c.config.MaxRetryDelay {
		delay = c.config.MaxRetryDelay
	}
	return delay
}

// isAuthShaped reports whether status looks like a credential-transport
// rejection. Providers have answered auth mismatches with any of these.
func isAuthShaped(status int) bool {
	return status == http.StatusBadRequest ||
		status == http.StatusUnauthorized ||
		status == http.StatusForbidden
}
