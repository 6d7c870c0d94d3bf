package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jogardn/fireworks-storefront/internal/circuitbreaker"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultProductTimeout = 30 * time.Second
	DefaultTimeout        = 10 * time.Second

	maxBodyBytes = 32 << 20
)

// Breaker groups, one per backend concern.
const (
	GroupCatalog   = "catalog"
	GroupPayment   = "payment"
	GroupLocations = "locations"
	GroupContact   = "contact"
	GroupOrders    = "orders"
	GroupTracking  = "tracking"
)

type Options struct {
	BaseURL        string
	ProductTimeout time.Duration
	DefaultTimeout time.Duration
	// Transport defaults to http.DefaultTransport; it is always wrapped
	// with OpenTelemetry instrumentation.
	Transport http.RoundTripper
	Breakers  *circuitbreaker.Manager
}

// Client talks to the retailer's public API.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	breakers       *circuitbreaker.Manager
	productTimeout time.Duration
	defaultTimeout time.Duration
	logger         *logrus.Logger
}

func NewClient(opts Options, logger *logrus.Logger) *Client {
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if opts.ProductTimeout <= 0 {
		opts.ProductTimeout = DefaultProductTimeout
	}
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = DefaultTimeout
	}
	if opts.Breakers == nil {
		opts.Breakers = circuitbreaker.NewManager(circuitbreaker.Config{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
			MaxRequests: 1,
			IsFailure:   IsOutage,
		}, logger)
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(transport),
		},
		breakers:       opts.Breakers,
		productTimeout: opts.ProductTimeout,
		defaultTimeout: opts.DefaultTimeout,
		logger:         logger,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Breakers() *circuitbreaker.Manager {
	return c.breakers
}

type call struct {
	group   string
	method  string
	path    string
	query   url.Values
	body    interface{}
	timeout time.Duration
}

func (c *Client) do(ctx context.Context, req call) (Envelope, error) {
	if req.timeout <= 0 {
		req.timeout = c.defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, req.timeout)
	defer cancel()

	var env Envelope
	breaker := c.breakers.Breaker(req.group)
	err := breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		env, err = c.roundTrip(ctx, req)
		if err != nil {
			return err
		}
		return env.Err()
	})
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"method": req.method,
			"path":   req.path,
			"group":  req.group,
		}).WithError(err).Warn("Backend request failed")
		return env, err
	}
	return env, nil
}

func (c *Client) roundTrip(ctx context.Context, req call) (Envelope, error) {
	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		jsonData, err := json.Marshal(req.body)
		if err != nil {
			return Envelope{}, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Envelope{}, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Envelope{}, classifyTransportError(ctx, err)
	}

	c.logger.WithFields(logrus.Fields{
		"method":   req.method,
		"path":     req.path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).Milliseconds(),
	}).Debug("Backend response received")

	return DecodeEnvelope(resp.StatusCode, raw)
}

func classifyTransportError(ctx context.Context, err error) error {
	var netErr net.Error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}

func (c *Client) get(ctx context.Context, group, path string, query url.Values, timeout time.Duration) (Envelope, error) {
	return c.do(ctx, call{group: group, method: http.MethodGet, path: path, query: query, timeout: timeout})
}

func (c *Client) post(ctx context.Context, group, path string, body interface{}) (Envelope, error) {
	return c.do(ctx, call{group: group, method: http.MethodPost, path: path, body: body})
}
