package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ppiankov/parcelscore/internal/model"
	"github.com/ppiankov/parcelscore/internal/util"
)

// HTTPOptions configures outbound requests of HTTP adapters
type HTTPOptions struct {
	UserAgent  string
	MaxBytes   int64
	APIKey     string
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// HTTPAdapter fetches a category's record as JSON from a configured endpoint.
// Coordinates are passed as query parameters: lat, lng, radius, and
// address/fips when present.
type HTTPAdapter struct {
	category   model.Category
	endpoint   *url.URL
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	apiKey     string
}

// NewHTTPAdapter creates an adapter for category backed by endpoint.
// The client carries no timeout of its own; the caller's context bounds each call.
func NewHTTPAdapter(category model.Category, endpoint string, opts HTTPOptions) (*HTTPAdapter, error) {
	if model.NewRecord(category) == nil {
		return nil, fmt.Errorf("unknown category %q", category)
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint for %s: %w", category, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("endpoint for %s must be http or https, got %q", category, endpoint)
	}

	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 2_000_000
	}

	return &HTTPAdapter{
		category: category,
		endpoint: u,
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(opts.HTTPProxy, opts.HTTPSProxy, opts.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: opts.UserAgent,
		maxBytes:  maxBytes,
		apiKey:    opts.APIKey,
	}, nil
}

// Category implements Adapter
func (a *HTTPAdapter) Category() model.Category { return a.category }

// Fetch implements Adapter
func (a *HTTPAdapter) Fetch(ctx context.Context, q Query) (model.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.requestURL(q), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}
	req.Header.Set("Accept", "application/json")
	if a.apiKey != "" {
		req.Header.Set("X-API-Key", a.apiKey)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	// Read body with size limit
	body, err := io.ReadAll(io.LimitReader(resp.Body, a.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	record := model.NewRecord(a.category)
	if err := json.Unmarshal(body, record); err != nil {
		return nil, fmt.Errorf("decode %s record: %w", a.category, err)
	}

	return record, nil
}

// requestURL appends the query parameters to the configured endpoint
func (a *HTTPAdapter) requestURL(q Query) string {
	u := *a.endpoint
	params := u.Query()
	params.Set("lat", strconv.FormatFloat(q.Lat, 'f', -1, 64))
	params.Set("lng", strconv.FormatFloat(q.Lng, 'f', -1, 64))
	params.Set("radius", strconv.Itoa(q.Radius))
	if q.Address != "" {
		params.Set("address", q.Address)
	}
	if q.FIPSCode != "" {
		params.Set("fips", q.FIPSCode)
	}
	u.RawQuery = params.Encode()
	return u.String()
}
