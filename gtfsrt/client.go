package gtfsrt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Client fetches raw GTFS-RT protobuf bytes from HTTP URLs or local file paths.
type Client struct {
	httpClient *http.Client
	keyHeader  string
	apiKey     string
}

// NewClient creates a client. A zero timeout leaves requests bounded only by their context.
// When keyHeader is set every request carries the API key in that header.
func NewClient(timeout time.Duration, keyHeader, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		keyHeader:  keyHeader,
		apiKey:     apiKey,
	}
}

// Fetch returns the raw feed at urlOrPath. apiKey overrides the client's configured key.
// Returns nil if urlOrPath is empty (allows optional feeds).
func (c *Client) Fetch(ctx context.Context, urlOrPath, apiKey string) ([]byte, error) {
	if urlOrPath == "" {
		return nil, nil
	}

	if !strings.HasPrefix(urlOrPath, "http://") && !strings.HasPrefix(urlOrPath, "https://") {
		return os.ReadFile(urlOrPath)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlOrPath, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", urlOrPath, err)
	}
	if apiKey == "" {
		apiKey = c.apiKey
	}
	if c.keyHeader != "" && apiKey != "" {
		req.Header.Set(c.keyHeader, apiKey)
	}
	req.Header.Set("Accept", "application/x-protobuf")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", urlOrPath, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, urlOrPath)
	}

	return io.ReadAll(resp.Body)
}

// FetchBoth fetches the vehicle positions and trip updates feeds.
// Empty URLs are skipped and return nil for that feed.
func (c *Client) FetchBoth(ctx context.Context, vehiclePositionsURL, tripUpdatesURL, apiKey string) ([]byte, []byte, error) {
	vp, err := c.Fetch(ctx, vehiclePositionsURL, apiKey)
	if err != nil {
		return nil, nil, fmt.Errorf("vehicle positions: %w", err)
	}

	tu, err := c.Fetch(ctx, tripUpdatesURL, apiKey)
	if err != nil {
		return nil, nil, fmt.Errorf("trip updates: %w", err)
	}

	return vp, tu, nil
}
