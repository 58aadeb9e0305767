package health

import (
	"context"
	"net/http"
	"runtime"

	"github.com/go-faster/errors"
)

// GoroutineCountCheck reports unhealthy when the goroutine count exceeds
// the threshold, a cheap liveness signal for leaks.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(_ context.Context) error {
		count := runtime.NumGoroutine()
		if count > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", count, threshold)
		}
		return nil
	}
}

// HTTPReachableCheck reports unhealthy when a HEAD request to url fails or
// returns a 5xx. Used as a readiness probe for the commerce backend.
func HTTPReachableCheck(client *http.Client, url string) CheckFunc {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return errors.Wrap(err, "build request")
		}
		resp, err := client.Do(req)
		if err != nil {
			return errors.Wrap(err, "reach backend")
		}
		_ = resp.Body.Close()
		if resp.StatusCode >= 500 {
			return errors.Errorf("backend returned status %d", resp.StatusCode)
		}
		return nil
	}
}
