package solarapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	PowerFlowPath            = "/solar_api/v1/GetPowerFlowRealtimeData.fcgi"
	InverterInfoPath         = "/solar_api/v1/GetInverterInfo.cgi"
	DefaultDeviceCatalogPath = "/solar_api/DeviceDB.json"

	DefaultTimeout  = 2 * time.Second
	DefaultCacheTTL = 1 * time.Second

	ENDPOINT_POWER_FLOW    = "powerflow"
	ENDPOINT_INVERTER_INFO = "inverterinfo"
	ENDPOINT_DEVICE_DB     = "devicedb"
)

// Client talks to the Solar API of a single datamanager. It is safe for
// concurrent use: concurrent calls for the same URL share one HTTP request
// and completed responses are kept for a short TTL.
type Client struct {
	baseURL     string
	catalogPath string
	timeout     time.Duration
	cacheTTL    time.Duration
	httpClient  *http.Client
	registerer  prometheus.Registerer
	logger      *zap.Logger

	inflight singleflight.Group
	cache    *responseCache
	metrics  *clientMetrics
}

type Option func(*Client)

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithCacheTTL sets how long a completed response is reused. Zero disables the cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.cacheTTL = ttl
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithDeviceCatalogPath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.catalogPath = path
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Client) {
		c.registerer = reg
	}
}

func NewClient(host string, opts ...Option) *Client {
	c := &Client{
		baseURL:     baseURL(host),
		catalogPath: DefaultDeviceCatalogPath,
		timeout:     DefaultTimeout,
		httpClient:  &http.Client{},
		logger:      zap.NewNop(),
		cacheTTL:    DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.cache = newResponseCache(c.cacheTTL)
	c.logger = c.logger.With(zap.String("inverter", c.baseURL))
	c.metrics = newClientMetrics(promauto.With(c.registerer))
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) GetPowerFlow(ctx context.Context) (*PowerFlowResponse, error) {
	return get[PowerFlowResponse](ctx, c, ENDPOINT_POWER_FLOW, PowerFlowPath)
}

func (c *Client) GetInverterInfo(ctx context.Context) (*InverterInfoResponse, error) {
	return get[InverterInfoResponse](ctx, c, ENDPOINT_INVERTER_INFO, InverterInfoPath)
}

func (c *Client) GetDeviceCatalog(ctx context.Context) (*DeviceCatalog, error) {
	return get[DeviceCatalog](ctx, c, ENDPOINT_DEVICE_DB, c.catalogPath)
}

// get serves url from the cache when possible, otherwise joins (or starts) the
// in-flight request for url. The shared request is bounded by the client
// timeout and is not cancelled when ctx is.
func get[T any](ctx context.Context, c *Client, endpoint, path string) (*T, error) {
	url := c.baseURL + path

	if cached, ok := c.cache.get(url); ok {
		c.metrics.cacheHits.WithLabelValues(endpoint).Inc()
		return cached.(*T), nil
	}

	ch := c.inflight.DoChan(url, func() (any, error) {
		payload, err := fetch[T](c, endpoint, url)
		if err != nil {
			return nil, err
		}
		c.cache.put(url, payload)
		return payload, nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.metrics.shared.WithLabelValues(endpoint).Inc()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*T), nil
	case <-ctx.Done():
		c.logger.Debug("solarapi: caller gave up waiting", zap.String("endpoint", endpoint), zap.Error(ctx.Err()))
		return nil, fmt.Errorf("solarapi: %s: %w", endpoint, ctx.Err())
	}
}

func fetch[T any](c *Client, endpoint, url string) (*T, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, c.failed(endpoint, fmt.Errorf("solarapi: failed to create request for %s: %w", url, err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.failed(endpoint, fmt.Errorf("solarapi: failed to fetch %s: %w", url, err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.failed(endpoint, fmt.Errorf("solarapi: unexpected status code %d from %s", resp.StatusCode, url))
	}

	var payload T
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, c.failed(endpoint, fmt.Errorf("solarapi: failed to decode JSON from %s: %w", url, err))
	}
	if s, ok := any(&payload).(apiStatus); ok {
		if err := s.statusError(); err != nil {
			return nil, c.failed(endpoint, fmt.Errorf("solarapi: %s: %w", url, err))
		}
	}

	c.metrics.requests.WithLabelValues(endpoint, "ok").Inc()
	c.logger.Debug("solarapi: fetched", zap.String("endpoint", endpoint))
	return &payload, nil
}

func (c *Client) failed(endpoint string, err error) error {
	c.metrics.requests.WithLabelValues(endpoint, "error").Inc()
	c.logger.Error("solarapi: request failed", zap.String("endpoint", endpoint), zap.Error(err))
	return err
}

func baseURL(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if strings.Contains(host, "://") {
		return host
	}
	return "http://" + host
}

type clientMetrics struct {
	requests  *prometheus.CounterVec
	cacheHits *prometheus.CounterVec
	shared    *prometheus.CounterVec
}

func newClientMetrics(factory promauto.Factory) *clientMetrics {
	return &clientMetrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "froniuslights_inverter_requests_total",
			Help: "HTTP requests sent to the inverter, by endpoint and result",
		}, []string{"endpoint", "result"}),
		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "froniuslights_inverter_cache_hits_total",
			Help: "Calls served from the response cache without a network round-trip",
		}, []string{"endpoint"}),
		shared: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "froniuslights_inverter_shared_requests_total",
			Help: "Calls that received the result of an in-flight request shared with other callers",
		}, []string{"endpoint"}),
	}
}
