// Package marketplace contains the outbound adapters for the marketplaces a
// catalog is listed on. Each adapter owns its transport concerns: auth,
// pagination, response-size caps, and retry on transient failures.
package marketplace

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gearsync/backend/internal/domain/integration"
)

// maxResponseSize limits a response body read to prevent memory exhaustion
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// retryable reports whether a response status warrants another attempt.
func retryable(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}

// doWithRetry executes fn up to policy.MaxAttempts times, sleeping the
// policy's backoff between attempts. fn returns the response status code it
// observed (0 for transport errors) so retry decisions stay uniform across
// adapters.
func doWithRetry(ctx context.Context, policy integration.RetryPolicy, fn func() (int, error)) error {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		status, err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if status != 0 && !retryable(status) {
			return err
		}
		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(policy.Delay(attempt)):
		}
	}
	return lastErr
}

// statusError maps an HTTP error status to the matching domain sentinel.
func statusError(platform string, statusCode int) error {
	if statusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s", integration.ErrPlatformRateLimited, platform)
	}
	return fmt.Errorf("%w: %s HTTP %d", integration.ErrPlatformRequestFailed, platform, statusCode)
}

// fetchDetailedBatch hydrates listings concurrently through a DetailFetcher,
// bounded by the worker limit. Result order matches the input order; a
// failed fetch keeps its slot empty and contributes to the joined error.
func fetchDetailedBatch(ctx context.Context, fetcher integration.DetailFetcher, ids []string, workers int) ([]integration.RemoteListing, error) {
	if workers < 1 {
		workers = 1
	}

	listings := make([]integration.RemoteListing, len(ids))
	errs := make([]error, len(ids))

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			listing, err := fetcher.FetchDetailed(ctx, id)
			if err != nil {
				errs[i] = fmt.Errorf("listing %s: %w", id, err)
				return
			}
			listings[i] = listing
		}(i, id)
	}
	wg.Wait()

	return listings, errors.Join(errs...)
}
