// internal/retry/retry.go
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Config defines retry behavior with exponential backoff
type Config struct {
	MaxAttempts          int
	InitialBackoff       time.Duration
	MaxBackoff           time.Duration
	Multiplier           float64
	RetryableStatusCodes []int
}

// DefaultConfig returns the listing-page retry policy.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
		RetryableStatusCodes: []int{
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}

// Do runs fn until it succeeds, returns a non-retryable error, or the
// attempts are used up.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				log.Debug().Int("attempts", attempt+1).Msg("Retry succeeded")
			}
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !shouldRetry(err, cfg) {
			log.Debug().Err(err).Msg("Error is not retryable")
			return err
		}

		if attempt < cfg.MaxAttempts-1 {
			backoff := calculateBackoff(attempt, cfg)
			log.Debug().
				Int("attempt", attempt+1).
				Int("max_attempts", cfg.MaxAttempts).
				Dur("backoff", backoff).
				Err(err).
				Msg("Retrying after backoff")

			timer := time.NewTimer(backoff)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}
	}

	log.Warn().
		Int("attempts", cfg.MaxAttempts).
		Err(lastErr).
		Msg("Max retry attempts exceeded")

	return fmt.Errorf("operation failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}

// calculateBackoff is initialBackoff * multiplier^attempt, capped at MaxBackoff.
func calculateBackoff(attempt int, cfg Config) time.Duration {
	backoff := float64(cfg.InitialBackoff) * math.Pow(cfg.Multiplier, float64(attempt))
	if cfg.MaxBackoff > 0 && backoff > float64(cfg.MaxBackoff) {
		backoff = float64(cfg.MaxBackoff)
	}
	return time.Duration(backoff)
}

func shouldRetry(err error, cfg Config) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var sc StatusCoder
	if errors.As(err, &sc) {
		code := sc.GetStatusCode()
		for _, c := range cfg.RetryableStatusCodes {
			if code == c {
				return true
			}
		}
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) && timeout.Timeout() {
		return true
	}

	// Transport failures are worth another attempt.
	return true
}

// StatusCoder is implemented by errors that carry an HTTP status code.
type StatusCoder interface {
	GetStatusCode() int
}

// HTTPError represents an HTTP error with status code
type HTTPError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e HTTPError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.URL)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

// GetStatusCode implements StatusCoder.
func (e HTTPError) GetStatusCode() int {
	return e.StatusCode
}

// NewHTTPError creates a new HTTPError
func NewHTTPError(url string, statusCode int) HTTPError {
	return HTTPError{
		URL:        url,
		StatusCode: statusCode,
		Status:     http.StatusText(statusCode),
	}
}
