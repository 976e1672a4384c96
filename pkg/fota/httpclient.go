package fota

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/fota-tools/fotactl/pkg/errors"
)

// HTTPClient streams images over plain HTTP GET requests.
type HTTPClient struct {
	hc           *http.Client
	scheme       string
	fragmentSize int
}

// NewHTTPClient builds a download client for the given scheme, "http" or
// "https".
func NewHTTPClient(scheme string, fragmentSize int) *HTTPClient {
	return &HTTPClient{
		hc:           &http.Client{},
		scheme:       scheme,
		fragmentSize: fragmentSize,
	}
}

// Start issues the GET and streams the body on its own goroutine. A
// connect failure or a non-200 answer fails the start itself; everything
// later arrives as events.
func (c *HTTPClient) Start(ctx context.Context, host, path string, sink io.Writer, notify NotifyFunc) error {
	url := fmt.Sprintf("%s://%s/%s", c.scheme, host, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "build download request")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return errors.Wrap(err, "connect to download host")
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return fmt.Errorf("download host returned %s", resp.Status)
	}

	slog.Info("download_started", "url", url, "content_length", resp.ContentLength)

	go func() {
		defer resp.Body.Close()
		pump(ctx, resp.Body, resp.ContentLength, c.fragmentSize, sink, notify)
	}()
	return nil
}
