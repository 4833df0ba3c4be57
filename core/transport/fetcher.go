package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"race-telemetry/core/reconcile"
)

const (
	snapshotPath = "/api/data"
	catalogPath  = "/api/car-database"

	maxBodyBytes = 8 << 20
)

// Fetcher resolves pull refreshes from the timing server.
type Fetcher interface {
	FetchSnapshot(ctx context.Context) (*reconcile.FullSnapshot, error)
	FetchCatalog(ctx context.Context) (*reconcile.CatalogUpdate, error)
}

// HTTPFetcher pulls snapshots and the car database over HTTP.
type HTTPFetcher struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPFetcher creates a fetcher for baseURL. A zero timeout means 10s.
func NewHTTPFetcher(baseURL, apiKey string, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// FetchSnapshot retrieves the authoritative standings.
func (f *HTTPFetcher) FetchSnapshot(ctx context.Context) (*reconcile.FullSnapshot, error) {
	body, err := f.get(ctx, snapshotPath)
	if err != nil {
		return nil, err
	}
	return DecodeSnapshot(body)
}

// FetchCatalog retrieves the full car database.
func (f *HTTPFetcher) FetchCatalog(ctx context.Context) (*reconcile.CatalogUpdate, error) {
	body, err := f.get(ctx, catalogPath)
	if err != nil {
		return nil, err
	}
	return DecodeCatalog(body, true)
}

func (f *HTTPFetcher) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if f.apiKey != "" {
		req.Header.Set("X-API-Key", f.apiKey)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", reconcile.ErrTransportFault, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: GET %s: status %d", reconcile.ErrTransportFault, path, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", reconcile.ErrTransportFault, path, err)
	}
	return body, nil
}
