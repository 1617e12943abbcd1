// internal/common/http/client.go
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

var (
	ErrRequestFailed  = errors.New("REQUEST_FAILED")
	ErrRequestTimeout = errors.New("REQUEST_TIMEOUT")
)

// RequestFunc builds a fresh request for every attempt so the body can be
// re-read.
type RequestFunc func(ctx context.Context) (*http.Request, error)

type Client struct {
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
}

func NewClient(timeout time.Duration, maxRetries int) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: maxRetries,
		baseDelay:  100 * time.Millisecond,
	}
}

// WithBaseDelay overrides the first backoff step.
func (c *Client) WithBaseDelay(d time.Duration) *Client {
	c.baseDelay = d
	return c
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

// DoWithRetry sends the request until a 200 response arrives, retrying
// transport errors and non-OK statuses with exponential backoff. The caller
// owns the returned body.
func (c *Client) DoWithRetry(ctx context.Context, build RequestFunc) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.baseDelay * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrRequestTimeout, ctx.Err())
			}
		}

		req, err := build(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
		}

		resp, err := c.httpClient.Do(req)
		if ctx.Err() != nil || isTimeout(err) {
			if resp != nil {
				resp.Body.Close()
			}
			return nil, fmt.Errorf("%w: %v", ErrRequestTimeout, err)
		}
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode == http.StatusOK {
			return resp, nil
		}

		resp.Body.Close()
		lastErr = fmt.Errorf("status %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			break
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrRequestFailed, lastErr)
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
