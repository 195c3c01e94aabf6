// Package client is the Go SDK of the KeyIP docket REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

const Version = "0.2.0"

const (
	apiPrefix         = "/api/v1"
	userIDHeader      = "X-User-ID"
	requestIDHeader   = "X-Request-ID"
	idempotencyHeader = "Idempotency-Key"
)

// ErrInvalidConfig is returned by NewClient for an unusable base URL.
var ErrInvalidConfig = errors.New("keydocket: invalid client configuration")

// Logger defines the logging interface used by the Client
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debugf(format string, args ...interface{}) {}
func (noopLogger) Infof(format string, args ...interface{})  {}
func (noopLogger) Errorf(format string, args ...interface{}) {}

// Client is the docket SDK client. It is safe for concurrent use.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	userID       string
	userAgent    string
	logger       Logger
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration

	tasks        *TasksClient
	tasksOnce    sync.Once
	assets       *AssetsClient
	assetsOnce   sync.Once
	accruals     *AccrualsClient
	accrualsOnce sync.Once
	calendar     *CalendarClient
	calendarOnce sync.Once
}

// APIError is a non-2xx answer of the API.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	RequestID  string `json:"request_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("keydocket: %s (HTTP %d): %s [request_id=%s]", e.Code, e.StatusCode, e.Message, e.RequestID)
}

func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func (e *APIError) IsConflict() bool {
	return e.StatusCode == http.StatusConflict
}

func (e *APIError) IsValidation() bool {
	return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
}

func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// NewClient creates a client for the API served at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, ErrInvalidConfig
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid baseURL: %v", ErrInvalidConfig, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("%w: baseURL scheme must be http or https", ErrInvalidConfig)
	}

	c := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		userAgent:    fmt.Sprintf("keydocket-go-sdk/%s", Version),
		logger:       &noopLogger{},
		retryMax:     3,
		retryWaitMin: 500 * time.Millisecond,
		retryWaitMax: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Tasks returns the tasks sub-client.
func (c *Client) Tasks() *TasksClient {
	c.tasksOnce.Do(func() {
		c.tasks = &TasksClient{client: c}
	})
	return c.tasks
}

// Assets returns the assets sub-client.
func (c *Client) Assets() *AssetsClient {
	c.assetsOnce.Do(func() {
		c.assets = &AssetsClient{client: c}
	})
	return c.assets
}

// Accruals returns the accruals sub-client.
func (c *Client) Accruals() *AccrualsClient {
	c.accrualsOnce.Do(func() {
		c.accruals = &AccrualsClient{client: c}
	})
	return c.accruals
}

// Calendar returns the calendar sub-client.
func (c *Client) Calendar() *CalendarClient {
	c.calendarOnce.Do(func() {
		c.calendar = &CalendarClient{client: c}
	})
	return c.calendar
}

// ─────────────────────────────────────────────────────────────────────────────
// Transport
// ─────────────────────────────────────────────────────────────────────────────

type request struct {
	method  string
	path    string
	query   url.Values
	body    interface{}
	headers map[string]string
}

type response struct {
	status int
	header http.Header
	body   []byte
}

// retryable reports whether a failed method may be sent again. POST and
// PATCH are never repeated.
func retryable(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// send performs req, retrying network errors and 5xx answers of retryable
// methods with exponential backoff.
func (c *Client) send(ctx context.Context, req request) (*response, error) {
	path := req.path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	fullURL := c.baseURL + path
	if len(req.query) > 0 {
		fullURL += "?" + req.query.Encode()
	}

	var payload []byte
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = b
	}

	var out *response
	op := func() error {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		httpReq, err := http.NewRequestWithContext(ctx, req.method, fullURL, bodyReader)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}

		requestID := uuid.New().String()
		if payload != nil {
			httpReq.Header.Set("Content-Type", "application/json")
		}
		httpReq.Header.Set("Accept", "application/json")
		httpReq.Header.Set("User-Agent", c.userAgent)
		httpReq.Header.Set(requestIDHeader, requestID)
		if c.userID != "" {
			httpReq.Header.Set(userIDHeader, c.userID)
		}
		for k, v := range req.headers {
			httpReq.Header.Set(k, v)
		}

		start := time.Now()
		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			c.logger.Errorf("request failed: %v", err)
			if ctx.Err() != nil || !retryable(req.method) {
				return backoff.Permanent(err)
			}
			return err
		}
		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to read response body: %w", err))
		}
		c.logger.Debugf("%s %s %d (%v)", req.method, path, resp.StatusCode, time.Since(start))

		if resp.StatusCode >= 400 {
			apiErr := decodeAPIError(resp.StatusCode, requestID, respBody)
			if apiErr.IsServerError() && retryable(req.method) {
				return apiErr
			}
			return backoff.Permanent(apiErr)
		}
		out = &response{status: resp.StatusCode, header: resp.Header, body: respBody}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryWaitMin
	policy.MaxInterval = c.retryWaitMax
	policy.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.retryMax)), ctx)

	notify := func(err error, wait time.Duration) {
		c.logger.Debugf("retrying %s %s after %v: %v", req.method, path, wait, err)
	}
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeAPIError(status int, requestID string, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, RequestID: requestID}
	if len(body) == 0 {
		return apiErr
	}
	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil {
		apiErr.Code = errResp.Code
		apiErr.Message = errResp.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}

// do sends a JSON request and decodes the JSON answer into result.
func (c *Client) do(ctx context.Context, req request, result interface{}) error {
	resp, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	if result != nil && len(resp.body) > 0 {
		if err := json.Unmarshal(resp.body, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, result interface{}) error {
	return c.do(ctx, request{method: http.MethodGet, path: path, query: query}, result)
}

func (c *Client) post(ctx context.Context, path string, body interface{}, result interface{}) error {
	return c.do(ctx, request{method: http.MethodPost, path: path, body: body}, result)
}

func (c *Client) put(ctx context.Context, path string, body interface{}, result interface{}) error {
	return c.do(ctx, request{method: http.MethodPut, path: path, body: body}, result)
}

func (c *Client) patch(ctx context.Context, path string, body interface{}, result interface{}) error {
	return c.do(ctx, request{method: http.MethodPatch, path: path, body: body}, result)
}

func (c *Client) delete(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, request{method: http.MethodDelete, path: path}, result)
}

// apiPath joins escaped path segments under the API prefix.
func apiPath(segments ...string) string {
	var sb strings.Builder
	sb.WriteString(apiPrefix)
	for _, s := range segments {
		sb.WriteByte('/')
		sb.WriteString(url.PathEscape(s))
	}
	return sb.String()
}

//Personal.AI order the ending
