package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"langteacher/config"
	apierrors "langteacher/errors"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Client talks to the language teacher backend. The base origin is fixed for
// the lifetime of the client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func New(cfg *config.Config, logger *zap.Logger) *Client {
	// A zero timeout leaves timing to the context and the transport defaults.
	return NewWithHTTPClient(cfg.APIBaseURL, &http.Client{Timeout: cfg.RequestTimeout}, logger)
}

func NewWithHTTPClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// BaseURL returns the origin every request is sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do performs exactly one HTTP exchange. On success the body is decoded into
// out (skipped when out is nil); every failure is an *apierrors.APIError.
func (c *Client) do(ctx context.Context, r *request, out interface{}) error {
	var body io.Reader
	var contentType string
	if r.body != nil {
		var err error
		body, contentType, err = r.body.encode()
		if err != nil {
			return apierrors.NewInvalidInput("%v", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.url(c.baseURL), body)
	if err != nil {
		return apierrors.NewInvalidInput("create request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", jsonContentType)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("API request failed",
			zap.String("method", r.method),
			zap.String("path", r.path),
			zap.Error(err))
		return apierrors.NewTransportError(err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return apierrors.NewTransportError(fmt.Errorf("read response: %w", err))
	}

	latency := time.Since(start)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := errorMessage(bodyBytes, resp.StatusCode, r.fallbackMessage())
		c.logger.Warn("API returned error status",
			zap.String("method", r.method),
			zap.String("path", r.path),
			zap.Int("status", resp.StatusCode),
			zap.String("detail", message),
			zap.Duration("latency", latency))
		return apierrors.NewStatusError(resp.StatusCode, message)
	}

	c.logger.Debug("API call completed",
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", latency))

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return apierrors.NewDecodeError(err)
	}
	return nil
}

// errorMessage extracts the user facing message from a failure body.
func errorMessage(body []byte, status int, fallback string) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return fallback
	}
	detail := gjson.GetBytes(body, "detail")
	switch {
	case detail.Type == gjson.String && detail.Str != "":
		return detail.Str
	case detail.IsArray():
		// FastAPI validation errors: [{"loc": [...], "msg": "...", ...}]
		if msg := detail.Get("0.msg"); msg.Type == gjson.String && msg.Str != "" {
			return msg.Str
		}
	}
	return fmt.Sprintf("HTTP error %d", status)
}

// call decodes a success body into a fresh T.
func call[T any](ctx context.Context, c *Client, r *request) (*T, error) {
	var out T
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// list is call for collection endpoints; a null body yields an empty slice.
func list[T any](ctx context.Context, c *Client, r *request) ([]T, error) {
	var out []T
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func requireID(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return apierrors.NewInvalidInput("%s id is required", kind)
	}
	return nil
}
