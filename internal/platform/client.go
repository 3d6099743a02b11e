package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Remote object statuses understood by the orchestration logic.
const (
	StatusActive = "ACTIVE"
	StatusPaused = "PAUSED"
)

// Credentials carry per-owner platform access, resolved by the credential
// store and passed on every call.
type Credentials struct {
	AccessToken string
	AdAccountID string
}

// Client issues HTTP calls to the remote ads platform and retries throttled
// requests with exponential backoff. Backoff state is per-call, not shared.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration

	// sleep is injectable so tests run without wall-clock waits.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(baseURL string, maxRetries int, baseDelay, maxDelay time.Duration, log *zap.Logger) *Client {
	if maxRetries <= 0 {
		maxRetries = 5
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	if maxDelay <= 0 {
		maxDelay = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log:        log,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   maxDelay,
		sleep:      sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// backoffDelay computes the wait before retrying attempt: min(cap, base*2^attempt).
func (c *Client) backoffDelay(attempt int) time.Duration {
	d := c.baseDelay << uint(attempt)
	if d > c.maxDelay || d <= 0 {
		d = c.maxDelay
	}
	return d
}

// do issues one logical request, retrying throttle responses with exponential
// backoff up to maxRetries. Non-throttle errors return immediately.
func (c *Client) do(ctx context.Context, method, path string, creds Credentials, params url.Values, body any, out any) error {
	for attempt := 0; ; attempt++ {
		err := c.once(ctx, method, path, creds, params, body, out)
		if err == nil {
			return nil
		}

		apiErr, ok := err.(*APIError)
		if !ok || !apiErr.IsThrottle() {
			return err
		}

		if attempt >= c.maxRetries {
			apiErr.Retryable = true
			c.log.Warn("platform throttle retries exhausted",
				zap.String("path", path),
				zap.Int("attempts", attempt+1),
			)
			return apiErr
		}

		wait := c.backoffDelay(attempt)
		c.log.Debug("platform throttled, backing off",
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
		)
		if serr := c.sleep(ctx, wait); serr != nil {
			return serr
		}
	}
}

func (c *Client) once(ctx context.Context, method, path string, creds Credentials, params url.Values, body any, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", creds.AccessToken)

	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, strings.TrimLeft(path, "/"), params.Encode())

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ads platform unavailable: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return parseAPIError(resp.StatusCode, data)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode platform response: %w", err)
		}
	}
	return nil
}

// parseAPIError decodes the platform error envelope {"error":{"message","code"}}.
func parseAPIError(status int, data []byte) *APIError {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
		} `json:"error"`
	}
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(data, &envelope); err == nil {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}

// ObjectStatus is the remote view of one object: the status last requested
// and the platform's computed effective status.
type ObjectStatus struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	EffectiveStatus string `json:"effective_status"`
}

// GetObjectStatus reads status and effective_status for a remote object.
func (c *Client) GetObjectStatus(ctx context.Context, creds Credentials, id string) (*ObjectStatus, error) {
	params := url.Values{}
	params.Set("fields", "id,status,effective_status")

	var status ObjectStatus
	if err := c.do(ctx, http.MethodGet, id, creds, params, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetObject reads arbitrary fields of a remote object.
func (c *Client) GetObject(ctx context.Context, creds Credentials, id string, fields []string) (map[string]any, error) {
	params := url.Values{}
	if len(fields) > 0 {
		params.Set("fields", strings.Join(fields, ","))
	}

	var obj map[string]any
	if err := c.do(ctx, http.MethodGet, id, creds, params, nil, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// UpdateObjectStatus sets the requested status of a remote object.
func (c *Client) UpdateObjectStatus(ctx context.Context, creds Credentials, id, status string) error {
	return c.do(ctx, http.MethodPost, id, creds, nil, map[string]any{"status": status}, nil)
}

// CreateObject creates a remote object in the parent's collection and returns
// the new object's id. Creation may be asynchronous on the platform side;
// callers poll readiness separately.
func (c *Client) CreateObject(ctx context.Context, creds Credentials, parent, collection string, payload map[string]any) (string, error) {
	var result struct {
		ID string `json:"id"`
	}
	path := fmt.Sprintf("%s/%s", parent, collection)
	if err := c.do(ctx, http.MethodPost, path, creds, nil, payload, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", fmt.Errorf("platform returned empty id for %s", path)
	}
	return result.ID, nil
}
