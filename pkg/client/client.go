// Package client provides the HTTP page fetcher for the data.gov.in
// Agmarknet resource: one bounded request per call, server-side filters
// only, no retries.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/agritrack/agmarknet-client/pkg/query"
	"github.com/agritrack/agmarknet-client/pkg/ratelimit"
	"github.com/agritrack/agmarknet-client/pkg/record"
)

// Prometheus metrics for page fetch operations.
var (
	mandiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mandi_requests_total",
		Help: "Total page requests by outcome status",
	}, []string{"status"})

	mandiRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mandi_request_duration_seconds",
		Help:    "Page request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	})

	mandiErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mandi_errors_total",
		Help: "Total fetch errors by class",
	}, []string{"class"})

	mandiRecordsFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mandi_records_fetched_total",
		Help: "Total raw records fetched across all pages",
	})
)

const (
	// DefaultBaseURL is the data.gov.in API host.
	DefaultBaseURL = "https://api.data.gov.in"

	// ResourcePath identifies the Agmarknet daily market price resource.
	ResourcePath = "/resource/9ef84268-d588-465a-a308-a864a43d0070"

	// DefaultPageSize is the number of records requested per page.
	DefaultPageSize = 1000
)

// Client fetches single pages from the Agmarknet resource.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// APIKey is the data.gov.in access credential (REQUIRED).
	APIKey string

	// BaseURL overrides the API host, mainly for tests.
	BaseURL string

	// PageSize is the records-per-page limit sent with each request.
	PageSize int

	// UserAgent header sent with each request.
	UserAgent string

	// Timeout per page request.
	Timeout time.Duration

	// Limiter optionally caps concurrent in-flight page requests.
	Limiter *ratelimit.Limiter
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:    apiKey,
		BaseURL:   DefaultBaseURL,
		PageSize:  DefaultPageSize,
		UserAgent: "agmarknet-client/0.1.0",
		Timeout:   30 * time.Second,
	}
}

// New creates a new Agmarknet client. The API key is a hard precondition:
// no request is ever attempted without it.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := log.With().Str("component", "mandi-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: logger,
	}, nil
}

// PageSize returns the configured records-per-page limit.
func (c *Client) PageSize() int {
	return c.config.PageSize
}

// pageEnvelope is the wire shape of one page response. Records stays raw so
// an absent container can be told apart from an empty one; Total stays raw
// because the API serializes it as either a number or a string.
type pageEnvelope struct {
	Records json.RawMessage `json:"records"`
	Total   json.RawMessage `json:"total"`
	Message string          `json:"message"`
}

// FetchPage performs exactly one page request at the given offset with the
// filter's server-expressible fields bound. Date bounds are never sent; the
// API cannot filter on them. The returned batch carries the server-declared
// total for the API-side filters, or -1 when none was declared.
func (c *Client) FetchPage(ctx context.Context, f query.Filter, offset int) (record.Batch, error) {
	if c.config.Limiter != nil {
		if err := c.config.Limiter.Acquire(ctx); err != nil {
			return record.Batch{}, &TransportError{Err: err}
		}
		defer c.config.Limiter.Release()
	}

	startTime := time.Now()
	defer func() {
		mandiRequestDuration.Observe(time.Since(startTime).Seconds())
	}()

	req, err := c.buildRequest(ctx, f, offset)
	if err != nil {
		return record.Batch{}, fmt.Errorf("create request: %w", err)
	}

	c.logger.Debug().
		Int("offset", offset).
		Int("limit", c.config.PageSize).
		Str("filter", f.String()).
		Msg("Executing page request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Int("offset", offset).Msg("Page request failed")
		mandiErrorsTotal.WithLabelValues(string(ErrorClassTransport)).Inc()
		mandiRequestsTotal.WithLabelValues("network_error").Inc()
		return record.Batch{}, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	mandiRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Int("offset", offset).
			Msg("Page request returned non-success status")
		mandiErrorsTotal.WithLabelValues(string(ErrorClassTransport)).Inc()
		return record.Batch{}, &TransportError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		mandiErrorsTotal.WithLabelValues(string(ErrorClassTransport)).Inc()
		return record.Batch{}, &TransportError{Err: err}
	}

	batch, err := decodePage(body)
	if err != nil {
		c.logger.Warn().Err(err).Int("offset", offset).Msg("Malformed page response")
		mandiErrorsTotal.WithLabelValues(string(ErrorClassProtocol)).Inc()
		return record.Batch{}, err
	}

	mandiRecordsFetched.Add(float64(len(batch.Records)))

	c.logger.Debug().
		Int("offset", offset).
		Int("records", len(batch.Records)).
		Int("total", batch.Total).
		Msg("Page fetched")

	return batch, nil
}

// buildRequest assembles the resource URL with paging and filter params.
func (c *Client) buildRequest(ctx context.Context, f query.Filter, offset int) (*http.Request, error) {
	u, err := url.Parse(c.config.BaseURL + ResourcePath)
	if err != nil {
		return nil, err
	}

	q := u.Query()
	q.Set("api-key", c.config.APIKey)
	q.Set("format", "json")
	q.Set("limit", strconv.Itoa(c.config.PageSize))
	q.Set("offset", strconv.Itoa(offset))
	if f.Commodity != "" {
		q.Set("filters[commodity]", f.Commodity)
	}
	if f.State != "" {
		q.Set("filters[state]", f.State)
	}
	if f.District != "" {
		q.Set("filters[district]", f.District)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// decodePage parses one page body into a batch. A response without the
// records container is a protocol failure, not an empty page.
func decodePage(body []byte) (record.Batch, error) {
	var env pageEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return record.Batch{}, &ProtocolError{Message: "malformed JSON response", Err: err}
	}

	if env.Records == nil {
		msg := "records key not found in response"
		if env.Message != "" {
			msg = fmt.Sprintf("%s (api message: %s)", msg, env.Message)
		}
		return record.Batch{}, &ProtocolError{Message: msg}
	}

	var rawRecords []map[string]any
	if err := json.Unmarshal(env.Records, &rawRecords); err != nil {
		return record.Batch{}, &ProtocolError{Message: "records container is not an array", Err: err}
	}

	records := make([]record.Record, 0, len(rawRecords))
	for _, raw := range rawRecords {
		rec := make(record.Record, len(raw))
		for k, v := range raw {
			rec[k] = stringifyField(v)
		}
		records = append(records, rec)
	}

	return record.Batch{
		Records: records,
		Total:   parseTotal(env.Total),
	}, nil
}

// stringifyField flattens a JSON field value to the string form the rest of
// the engine works with.
func stringifyField(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

// parseTotal extracts the server-declared match count, which arrives as
// either a JSON number or a quoted string. Returns -1 when absent or
// unusable.
func parseTotal(raw json.RawMessage) int {
	if raw == nil {
		return -1
	}
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return -1
	}
	return n
}
