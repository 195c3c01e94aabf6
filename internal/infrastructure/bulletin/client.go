// Package bulletin is the HTTP client of the trademark bulletin service.
package bulletin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/turtacn/KeyIP-Docket/internal/application/tasking"
	"github.com/turtacn/KeyIP-Docket/internal/config"
	"github.com/turtacn/KeyIP-Docket/internal/domain/asset"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

const (
	apiKeyHeader = "X-API-Key"
	maxBodyBytes = 1 << 20
)

// Client reads bulletin entries over HTTP. Server errors and transport
// failures are retried with exponential backoff; 4xx answers are not.
type Client struct {
	base     *url.URL
	apiKey   string
	http     *http.Client
	retryMax int
	logger   logging.Logger
}

var _ tasking.BulletinSource = (*Client)(nil)

// NewClient builds a client for cfg.BaseURL.
func NewClient(cfg config.BulletinConfig, log logging.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New(errors.ErrCodeValidation, "bulletin base_url is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "invalid bulletin base_url")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	retryMax := cfg.RetryMax
	if retryMax < 0 {
		retryMax = 0
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Client{
		base:     base,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: timeout},
		retryMax: retryMax,
		logger:   log.Named("bulletin"),
	}, nil
}

// FetchBulletin reads GET bulletins/{id}.
func (c *Client) FetchBulletin(ctx context.Context, bulletinID string) (*asset.Bulletin, error) {
	id := strings.TrimSpace(bulletinID)
	if id == "" {
		return nil, errors.InvalidParam("bulletin id is required")
	}
	var b asset.Bulletin
	status, err := c.get(ctx, "bulletins/"+id, nil, &b)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, errors.Newf(errors.ErrCodeBulletinNotFound, "bulletin entry %s not found", id)
	}
	return &b, nil
}

type searchResponse struct {
	Items []asset.Bulletin `json:"items"`
}

// FindByApplicationNumber reads GET bulletins?application_number=. The
// first item wins when the service returns several.
func (c *Client) FindByApplicationNumber(ctx context.Context, applicationNumber string) (*asset.Bulletin, error) {
	no := strings.TrimSpace(applicationNumber)
	if no == "" {
		return nil, errors.InvalidParam("application number is required")
	}
	var resp searchResponse
	status, err := c.get(ctx, "bulletins", url.Values{"application_number": {no}}, &resp)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound || len(resp.Items) == 0 {
		return nil, errors.Newf(errors.ErrCodeBulletinNotFound, "no bulletin entry for application %s", no)
	}
	return &resp.Items[0], nil
}

// get decodes a 200 answer into dest. A 404 is returned as a status with no
// error so callers can name the missing entry.
func (c *Client) get(ctx context.Context, path string, query url.Values, dest interface{}) (int, error) {
	u := c.base.ResolveReference(&url.URL{Path: path})
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var status int
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set(apiKeyHeader, c.apiKey)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return err
		}
		status = resp.StatusCode
		switch {
		case status == http.StatusOK:
			if err := json.Unmarshal(body, dest); err != nil {
				return backoff.Permanent(errors.Wrap(err, errors.ErrCodeSerialization, "invalid bulletin response"))
			}
			return nil
		case status == http.StatusNotFound:
			return nil
		case status >= 500 || status == http.StatusTooManyRequests:
			return fmt.Errorf("bulletin service answered %d", status)
		default:
			return backoff.Permanent(fmt.Errorf("bulletin service answered %d: %s", status, strings.TrimSpace(string(body))))
		}
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxInterval = 2 * time.Second
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.retryMax)), ctx)
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("bulletin request failed, retrying",
			logging.String("path", path),
			logging.Duration("wait", wait),
			logging.Err(err))
	}
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		if errors.GetCode(err) != errors.CodeUnknown {
			return status, err
		}
		return status, errors.Wrap(err, errors.ErrCodeBulletinUnavailable, "bulletin service unavailable")
	}
	return status, nil
}

//Personal.AI order the ending
