package netutil

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"
)

// RetryPolicy bounds how often a request is retried and how long to wait
// between attempts. Backoff receives the zero-based attempt that just
// failed and the HTTP status (0 for transport errors).
type RetryPolicy struct {
	Attempts int
	Backoff  func(attempt, status int) time.Duration
}

// DefaultRetryPolicy waits 2^attempt seconds on 5xx and transport errors
// and five times that on 429, which stays under directory-API rate limits.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: 3,
		Backoff: func(attempt, status int) time.Duration {
			wait := time.Duration(1<<attempt) * time.Second
			if status == http.StatusTooManyRequests {
				wait *= 5
			}
			return wait
		},
	}
}

// Do sends the request produced by build, retrying 429s, 5xx responses and
// transport errors. Other statuses are returned to the caller, body open.
// build runs once per attempt so request bodies are fresh each time.
func (p RetryPolicy) Do(ctx context.Context, client *http.Client, build func() (*http.Request, error)) (*http.Response, error) {
	if client == nil {
		client = http.DefaultClient
	}
	var lastErr error
	for attempt := 0; attempt < p.Attempts; attempt++ {
		req, err := build()
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		resp, err := client.Do(req.WithContext(ctx))

		status := 0
		if err != nil {
			lastErr = err
		} else {
			status = resp.StatusCode
			if status != http.StatusTooManyRequests && status < 500 {
				return resp, nil
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("http %d: %s", status, http.StatusText(status))
		}

		if attempt+1 >= p.Attempts {
			break
		}
		wait := p.Backoff(attempt, status)
		log.Printf("[http] retry attempt=%d status=%d wait=%s url=%s", attempt+1, status, wait, req.URL)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", p.Attempts, lastErr)
}
