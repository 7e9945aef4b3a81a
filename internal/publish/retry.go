package publish

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	"github.com/bstardust/exif-analyzer/internal/logger"
	"github.com/minio/minio-go/v7"
)

// RetryConfig controls how often a report upload is attempted. Reports are
// few and small, so the defaults give up within a few seconds.
type RetryConfig struct {
	// Attempts is the total number of tries, including the first.
	Attempts int
	// Backoff is the wait after the first failure; it doubles per attempt.
	Backoff time.Duration
	// MaxBackoff caps a single wait.
	MaxBackoff time.Duration
}

// DefaultRetryConfig returns the retry behavior used for report uploads.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts:   3,
		Backoff:    250 * time.Millisecond,
		MaxBackoff: 2 * time.Second,
	}
}

// transientCodes are S3 error codes the server expects clients to retry.
var transientCodes = map[string]bool{
	"SlowDown":             true,
	"RequestTimeout":       true,
	"InternalError":        true,
	"ServiceUnavailable":   true,
	"RequestTimeTooSkewed": true,
}

// Transient reports whether err is worth another attempt: throttling and
// server side S3 failures, and network errors below the HTTP layer.
func Transient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return transientCodes[resp.Code] || resp.StatusCode >= http.StatusInternalServerError
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// wait returns the pause before attempt n (1-based retry count), with up to
// 20% jitter.
func (rc RetryConfig) wait(n int) time.Duration {
	d := rc.Backoff << (n - 1)
	if d <= 0 || d > rc.MaxBackoff {
		d = rc.MaxBackoff
	}
	return d - time.Duration(rand.Int64N(int64(d)/5+1))
}

// retry runs fn until it succeeds, fails permanently or runs out of attempts.
func retry(ctx context.Context, rc RetryConfig, operation string, fn func() error) error {
	attempts := max(rc.Attempts, 1)

	var err error
	for n := 0; n < attempts; n++ {
		if n > 0 {
			pause := rc.wait(n)
			logger.Debug("Retrying %s in %s after: %v", operation, pause, err)

			timer := time.NewTimer(pause)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("%s canceled: %w", operation, ctx.Err())
			case <-timer.C:
			}
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%s canceled: %w", operation, ctx.Err())
		}

		if err = fn(); err == nil {
			if n > 0 {
				logger.Info("Completed %s after %d retries", operation, n)
			}
			return nil
		}
		if !Transient(err) {
			return err
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, attempts, err)
}
