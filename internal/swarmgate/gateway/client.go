// Package gateway implements the HTTP client for the swarm_connect
// gateway: six storage operations plus a reachability probe, with
// per-attempt timeouts, bounded retries and a circuit breaker.
package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/datafund/swarmgate/pkg/utils/json"
)

const (
	// MaxUploadSize is the hard cap on upload payloads, enforced before
	// any network attempt.
	MaxUploadSize = 4096

	// Stamp depth bounds accepted by the gateway.
	MinStampDepth = 16
	MaxStampDepth = 255

	// maxResponseBytes bounds how much of a gateway response is read.
	maxResponseBytes = 4 << 20
)

// Config carries the immutable per-process gateway settings. Load once at
// startup and pass to NewClient; every field is read-only afterwards.
type Config struct {
	// BaseURL of the gateway, e.g. "https://provenance-gateway.datafund.io".
	BaseURL string
	// Timeout applies per attempt, not per call. Total wall clock for an
	// operation is bounded by Timeout*(retries+1) plus backoff.
	Timeout   time.Duration
	Retry     RetryPolicy
	UserAgent string
}

// Client talks to a single gateway instance. Safe for concurrent use: all
// state is immutable after construction except the connection pool and the
// breaker, which synchronize internally.
type Client struct {
	baseURL   string
	timeout   time.Duration
	policy    RetryPolicy
	userAgent string
	http      *http.Client
	breaker   *gobreaker.CircuitBreaker[*httpResult]
}

type httpResult struct {
	status int
	body   []byte
}

// NewClient builds a gateway client. httpClient may be nil; pass one in
// tests to intercept the transport. Per-attempt timeouts come from cfg,
// not from the http.Client.
func NewClient(cfg *Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		timeout:   cfg.Timeout,
		policy:    cfg.Retry,
		userAgent: cfg.UserAgent,
		http:      httpClient,
		breaker: gobreaker.NewCircuitBreaker[*httpResult](gobreaker.Settings{
			Name:     "swarm-gateway",
			Interval: 60 * time.Second,
			Timeout:  30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 5
			},
		}),
	}
}

// BaseURL returns the configured gateway base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// PurchaseStamp buys a new postage stamp. label is optional.
func (c *Client) PurchaseStamp(ctx context.Context, amount int64, depth int, label string) (*Stamp, error) {
	const op = "purchase_stamp"
	if amount <= 0 {
		return nil, errorf(KindInvalidArgument, op, "amount must be a positive integer, got %d", amount)
	}
	if depth < MinStampDepth || depth > MaxStampDepth {
		return nil, errorf(KindInvalidArgument, op, "depth must be between %d and %d, got %d", MinStampDepth, MaxStampDepth, depth)
	}

	body := purchaseRequest{Amount: amount, Depth: depth, Label: label}
	res, err := c.do(ctx, op, http.MethodPost, "/api/v1/stamps", body, classMutating)
	if err != nil {
		return nil, err
	}

	var env stampEnvelope
	if err := json.Unmarshal(res.body, &env); err != nil {
		return nil, errorf(KindUpstreamError, op, "malformed gateway response")
	}
	st := env.Stamp
	// Some gateway versions answer with {batchID, message} only.
	if st.Amount == 0 {
		st.Amount = amount
	}
	if st.Depth == 0 {
		st.Depth = depth
	}
	if st.Label == "" {
		st.Label = label
	}
	return &st, nil
}

// GetStampStatus fetches a stamp with its utilization data.
func (c *Client) GetStampStatus(ctx context.Context, stampID string) (*Stamp, error) {
	const op = "get_stamp_status"
	if strings.TrimSpace(stampID) == "" {
		return nil, errorf(KindInvalidArgument, op, "stamp_id must not be empty")
	}

	res, err := c.do(ctx, op, http.MethodGet, "/api/v1/stamps/"+stampID, nil, classIdempotent)
	if err != nil {
		return nil, err
	}

	var st Stamp
	if err := json.Unmarshal(res.body, &st); err != nil {
		return nil, errorf(KindUpstreamError, op, "malformed gateway response")
	}
	return &st, nil
}

// ListStamps returns all stamps in gateway order.
func (c *Client) ListStamps(ctx context.Context) ([]Stamp, error) {
	const op = "list_stamps"

	res, err := c.do(ctx, op, http.MethodGet, "/api/v1/stamps", nil, classIdempotent)
	if err != nil {
		return nil, err
	}

	var list stampListResponse
	if err := json.Unmarshal(res.body, &list); err != nil {
		return nil, errorf(KindUpstreamError, op, "malformed gateway response")
	}
	return list.Stamps, nil
}

// ExtendStamp tops up an existing stamp with an additional amount.
func (c *Client) ExtendStamp(ctx context.Context, stampID string, amount int64) (*Stamp, error) {
	const op = "extend_stamp"
	if strings.TrimSpace(stampID) == "" {
		return nil, errorf(KindInvalidArgument, op, "stamp_id must not be empty")
	}
	if amount <= 0 {
		return nil, errorf(KindInvalidArgument, op, "amount must be a positive integer, got %d", amount)
	}

	body := extendRequest{Amount: amount}
	res, err := c.do(ctx, op, http.MethodPatch, "/api/v1/stamps/"+stampID+"/extend", body, classMutating)
	if err != nil {
		return nil, err
	}

	var env stampEnvelope
	if err := json.Unmarshal(res.body, &env); err != nil {
		return nil, errorf(KindUpstreamError, op, "malformed gateway response")
	}
	st := env.Stamp
	if st.Identifier() == "" {
		st.BatchID = stampID
	}
	return &st, nil
}

// UploadData stores a payload of at most MaxUploadSize bytes under the
// given stamp and returns the content reference.
func (c *Client) UploadData(ctx context.Context, data []byte, stampID, contentType string) (string, error) {
	const op = "upload_data"
	if len(data) > MaxUploadSize {
		return "", errorf(KindPayloadTooLarge, op, "payload is %d bytes, limit is %d", len(data), MaxUploadSize)
	}
	if len(data) == 0 {
		return "", errorf(KindInvalidArgument, op, "data must not be empty")
	}
	if strings.TrimSpace(stampID) == "" {
		return "", errorf(KindInvalidArgument, op, "stamp_id must not be empty")
	}

	body := uploadRequest{Data: string(data), StampID: stampID, ContentType: contentType}
	res, err := c.do(ctx, op, http.MethodPost, "/api/v1/data", body, classMutating)
	if err != nil {
		return "", err
	}

	var up uploadResponse
	if err := json.Unmarshal(res.body, &up); err != nil || up.Reference == "" {
		return "", errorf(KindUpstreamError, op, "malformed gateway response")
	}
	return up.Reference, nil
}

// DownloadData fetches the raw bytes stored under a content reference.
func (c *Client) DownloadData(ctx context.Context, reference string) ([]byte, error) {
	const op = "download_data"
	if strings.TrimSpace(reference) == "" {
		return nil, errorf(KindInvalidArgument, op, "reference must not be empty")
	}

	res, err := c.do(ctx, op, http.MethodGet, "/api/v1/data/"+reference, nil, classIdempotent)
	if err != nil {
		return nil, err
	}
	return res.body, nil
}

// Health probes gateway reachability with a single attempt and no
// retries. A down gateway is a report, not an error.
func (c *Client) Health(ctx context.Context) (*HealthReport, error) {
	const op = "health_check"

	start := time.Now()
	_, err := c.attempt(ctx, op, http.MethodGet, "/health", nil)
	latency := float64(time.Since(start).Microseconds()) / 1000.0

	report := &HealthReport{
		GatewayURL: c.baseURL,
		LatencyMS:  latency,
	}
	if err != nil {
		report.Status = "down"
		report.Detail = MessageOf(err)
		return report, nil
	}
	report.Status = "up"
	return report, nil
}

// do runs one logical operation: marshal, then attempt with retries per
// the policy. The last observed error is returned once the budget is
// spent or the policy stops the loop.
func (c *Client) do(ctx context.Context, op, method, path string, body any, class idempotencyClass) (*httpResult, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, errorf(KindInvalidArgument, op, "request not serializable")
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.policy.Attempts(); attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, c.policy.Backoff(attempt)); err != nil {
				break
			}
		}

		res, err := c.attempt(ctx, op, method, path, payload)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
		if !c.policy.Allows(class, err) {
			break
		}
	}
	return nil, lastErr
}

// attempt performs a single request/response cycle through the breaker
// and maps the outcome onto the error taxonomy.
func (c *Client) attempt(ctx context.Context, op, method, path string, payload []byte) (*httpResult, error) {
	res, err := c.breaker.Execute(func() (*httpResult, error) {
		return c.roundTrip(ctx, method, path, payload)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &Error{Kind: KindGatewayUnavailable, Op: op, Message: "gateway circuit open", cause: err}
		}
		return nil, &Error{Kind: KindGatewayUnavailable, Op: op, Message: "gateway unreachable", cause: err}
	}

	switch {
	case res.status >= 200 && res.status < 300:
		return res, nil
	case res.status == http.StatusBadRequest:
		return nil, &Error{Kind: KindInvalidArgument, Op: op, Message: bodyMessage(res.body, "gateway rejected the request"), status: res.status}
	case res.status == http.StatusNotFound:
		return nil, &Error{Kind: KindNotFound, Op: op, Message: bodyMessage(res.body, "not found"), status: res.status}
	case res.status == http.StatusRequestEntityTooLarge:
		return nil, &Error{Kind: KindPayloadTooLarge, Op: op, Message: bodyMessage(res.body, "payload too large"), status: res.status}
	case res.status >= 500:
		return nil, &Error{Kind: KindGatewayUnavailable, Op: op, Message: fmt.Sprintf("gateway returned status %d", res.status), status: res.status}
	default:
		return nil, &Error{Kind: KindUpstreamError, Op: op, Message: bodyMessage(res.body, fmt.Sprintf("unexpected gateway status %d", res.status)), status: res.status}
	}
}

// roundTrip issues the HTTP request with the per-attempt timeout. It
// returns raw transport errors so the breaker counts them as failures.
func (c *Client) roundTrip(ctx context.Context, method, path string, payload []byte) (*httpResult, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	return &httpResult{status: resp.StatusCode, body: b}, nil
}

// bodyMessage extracts display-safe text from a gateway error body.
func bodyMessage(body []byte, fallback string) string {
	var gm gatewayMessage
	if err := json.Unmarshal(body, &gm); err == nil {
		if gm.Detail != "" {
			return truncate(gm.Detail, 256)
		}
		if gm.Message != "" {
			return truncate(gm.Message, 256)
		}
	}
	return fallback
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
