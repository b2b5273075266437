package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/nugget/bob-assistant/internal/config"
)

// DefaultMaxRetries is the number of completion attempts made when a
// provider keeps reporting rate limits.
const DefaultMaxRetries = 3

// maxSuggestedDelay caps a provider-suggested wait so a bogus hint
// cannot stall a request indefinitely.
const maxSuggestedDelay = 2 * time.Minute

var (
	// A "rate" match must start a word so that "generate" or
	// "separate" in an error message do not count.
	rateLimitPattern = regexp.MustCompile(`(?i)quota|\brate`)

	// Gemini embeds its suggestion as "Please retry in 38.2s" in the
	// message and as retryDelay:"38s" in the error details.
	retryInPattern    = regexp.MustCompile(`(?i)retry in\s+([0-9]+(?:\.[0-9]+)?)\s*s`)
	retryDelayPattern = regexp.MustCompile(`(?i)retry_?delay"?\s*[:=]\s*"?([0-9]+(?:\.[0-9]+)?)s`)
)

// IsRateLimit reports whether err looks like a provider quota or rate
// limit rejection.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return rateLimitPattern.MatchString(err.Error())
}

// SuggestedDelay extracts a provider-suggested retry delay from an
// error message. It returns 0 when there is none.
func SuggestedDelay(err error) time.Duration {
	if err == nil {
		return 0
	}
	msg := err.Error()
	for _, re := range []*regexp.Regexp{retryInPattern, retryDelayPattern} {
		m := re.FindStringSubmatch(msg)
		if m == nil {
			continue
		}
		secs, perr := strconv.ParseFloat(m[1], 64)
		if perr != nil || secs <= 0 {
			continue
		}
		d := time.Duration(secs * float64(time.Second))
		return min(d, maxSuggestedDelay)
	}
	return 0
}

// Backoff returns the wait before retrying after the given zero-based
// attempt failed: the provider's suggestion when present, otherwise
// 2^attempt seconds.
func Backoff(err error, attempt int) time.Duration {
	if d := SuggestedDelay(err); d > 0 {
		return d
	}
	return time.Duration(math.Pow(2, float64(attempt))) * time.Second
}

// RetryClient wraps a [Client] with bounded retries on rate-limit
// errors and optional client-side pacing.
type RetryClient struct {
	client     Client
	maxRetries int
	limiter    *rate.Limiter
	logger     *slog.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// RetryOption configures a [RetryClient].
type RetryOption func(*RetryClient)

// WithMaxRetries sets the total number of attempts. Values below one
// fall back to [DefaultMaxRetries].
func WithMaxRetries(n int) RetryOption {
	return func(r *RetryClient) {
		if n > 0 {
			r.maxRetries = n
		}
	}
}

// WithRequestsPerMinute paces completion calls across all requests
// sharing this client. Zero disables pacing.
func WithRequestsPerMinute(n int) RetryOption {
	return func(r *RetryClient) {
		if n > 0 {
			r.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
		}
	}
}

// WithRetryLogger sets the logger used for retry diagnostics.
func WithRetryLogger(l *slog.Logger) RetryOption {
	return func(r *RetryClient) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRetryClient wraps client.
func NewRetryClient(client Client, opts ...RetryOption) *RetryClient {
	r := &RetryClient{
		client:     client,
		maxRetries: DefaultMaxRetries,
		logger:     slog.Default(),
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the wrapped provider's name.
func (r *RetryClient) Name() string {
	return r.client.Name()
}

// Generate satisfies [Client] so a RetryClient can stand in wherever a
// plain provider is accepted.
func (r *RetryClient) Generate(ctx context.Context, prompt string) (string, error) {
	return r.Complete(ctx, prompt)
}

// Complete calls the provider, retrying rate-limit failures with
// exponential backoff up to the configured attempt count. Any other
// error is returned immediately. When every attempt is rate limited
// the returned error matches [ErrRateLimited].
func (r *RetryClient) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return "", fmt.Errorf("pace %s request: %w", r.client.Name(), err)
			}
		}

		r.logger.Log(ctx, config.LevelTrace, "completion request",
			"provider", r.client.Name(), "attempt", attempt+1, "prompt", prompt)

		text, err := r.client.Generate(ctx, prompt)
		if err == nil {
			r.logger.Log(ctx, config.LevelTrace, "completion response",
				"provider", r.client.Name(), "text", text)
			return text, nil
		}
		if !IsRateLimit(err) {
			return "", fmt.Errorf("%s completion: %w", r.client.Name(), err)
		}

		lastErr = err
		if attempt == r.maxRetries-1 {
			break
		}

		delay := Backoff(err, attempt)
		r.logger.Warn("completion rate limited, backing off",
			"provider", r.client.Name(),
			"attempt", attempt+1,
			"max_attempts", r.maxRetries,
			"delay", delay,
			"error", err,
		)
		if err := r.sleep(ctx, delay); err != nil {
			return "", fmt.Errorf("%s completion: %w", r.client.Name(), err)
		}
	}

	r.logger.Error("completion attempts exhausted",
		"provider", r.client.Name(), "attempts", r.maxRetries, "error", lastErr)
	return "", fmt.Errorf("%w after %d attempts: %w", ErrRateLimited, r.maxRetries, lastErr)
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
