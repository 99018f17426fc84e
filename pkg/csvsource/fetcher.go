package csvsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrFetchFailed is returned when the storage URL does not yield the CSV body
	ErrFetchFailed = errors.New("csv fetch failed")
)

// Fetcher retrieves the full CSV text behind a storage URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetcherConfig holds HTTP fetcher settings.
type FetcherConfig struct {
	Timeout time.Duration `yaml:"timeout" default:"30s"`
}

type httpFetcher struct {
	log        logrus.FieldLogger
	httpClient *http.Client
	timeout    time.Duration
}

// NewFetcher creates an HTTP fetcher for stored CSV files.
func NewFetcher(log logrus.FieldLogger, cfg *FetcherConfig) Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &httpFetcher{
		log:        log.WithField("component", "csv-fetcher"),
		httpClient: &http.Client{},
		timeout:    timeout,
	}
}

func (f *httpFetcher) Fetch(ctx context.Context, url string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	// The active file is re-fetched every tick; never serve a cached body.
	req.Header.Set("Cache-Control", "no-store")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrFetchFailed, err.Error())
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			f.log.WithError(closeErr).Debug("Failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w (status %d)", ErrFetchFailed, resp.StatusCode)
	}

	return string(body), nil
}
