package httpclient

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/xerrors"
)

type Option struct {
	// RetryMax is the number of retries after the first attempt. Zero disables retries.
	RetryMax int
	// Timeout is the overall timeout of a single attempt. Zero means no timeout.
	Timeout time.Duration
}

// New returns a retryable HTTP client logging through slog.
func New(opt Option) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = max(opt.RetryMax, 0)
	client.Logger = slog.Default()
	client.RetryWaitMin = 1 * time.Second
	client.RetryWaitMax = 30 * time.Second
	client.Backoff = retryablehttp.LinearJitterBackoff
	client.HTTPClient.Timeout = opt.Timeout
	client.ResponseLogHook = func(_ retryablehttp.Logger, resp *http.Response) {
		if resp.StatusCode != http.StatusOK {
			slog.Warn("Unexpected http response", slog.String("url", resp.Request.URL.String()), slog.String("status", resp.Status))
		}
	}
	client.ErrorHandler = func(resp *http.Response, err error, numTries int) (*http.Response, error) {
		logger := slog.Default()
		if resp != nil {
			logger = slog.With(slog.String("url", resp.Request.URL.String()), slog.Int("status_code", resp.StatusCode),
				slog.Int("num_tries", numTries))
		}

		if err != nil {
			logger = logger.With(slog.String("error", err.Error()))
			logger.Error("HTTP request failed")
			return resp, xerrors.Errorf("HTTP request failed after %d attempt(s): %w", numTries, err)
		}

		// Hand the last response back so callers can report its status.
		return resp, nil
	}
	return client
}
