package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/me/schedview/pkg/model"
	"golang.org/x/time/rate"
)

// Config configures a scheduler service client.
type Config struct {
	BaseURL           string        // e.g. "http://localhost:8080"
	Timeout           time.Duration // per-request timeout; 0 means DefaultTimeout
	RequestsPerSecond float64       // outbound throttle; 0 disables it
	Burst             int
}

// DefaultTimeout is the request timeout used when Config.Timeout is zero.
const DefaultTimeout = 5 * time.Second

// Client is an HTTP client for the scheduler service. It keeps no scheduler
// state: every method is one request and one response.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// New creates a scheduler service client.
func New(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "client"),
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return c
}

// HTTPClient exposes the underlying http.Client, mainly for tests.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// BaseURL returns the service URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Reply is a successful response: the server message and the decoded data.
type Reply[T any] struct {
	Message string
	Data    T
}

// call performs one round trip and decodes the envelope data into a T.
func call[T any](ctx context.Context, c *Client, method, path string, body any) (*Reply[T], error) {
	var reply Reply[T]
	msg, err := c.do(ctx, method, path, body, &reply.Data)
	if err != nil {
		return nil, err
	}
	reply.Message = msg
	return &reply, nil
}

// do performs an HTTP request and unwraps the {code, message, data} envelope.
// out may be nil when the data field is ignored.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", &TransportError{Message: ClassifyStatus(0), Err: err}
		}
	}

	url := c.baseURL + path
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return "", fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
		c.logger.Debug("HTTP request body", "body", string(data))
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	reqID := "req_" + uuid.New().String()[:8]
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("HTTP request", "method", method, "url", url, "request_id", reqID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Message: ClassifyStatus(0), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Status: resp.StatusCode, Message: ClassifyStatus(resp.StatusCode), Err: err}
	}

	c.logger.Debug("HTTP response", "status", resp.StatusCode, "body", string(respBody), "request_id", reqID)

	success := resp.StatusCode >= 200 && resp.StatusCode < 300

	env, err := decodeEnvelope(respBody)
	if err != nil {
		if success {
			// A 2xx without an envelope is a malformed response.
			return "", &TransportError{Status: resp.StatusCode, Message: ClassifyStatus(0), Err: fmt.Errorf("parse response: %w", err)}
		}
		return "", newStatusError(resp.StatusCode, respBody)
	}

	if !env.OK() {
		return env.Message, env.Err()
	}
	if !success {
		// An error status carrying a success envelope is not a usable answer.
		return "", newStatusError(resp.StatusCode, respBody)
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return "", &TransportError{Status: resp.StatusCode, Message: ClassifyStatus(0), Err: fmt.Errorf("decode data: %w", err)}
		}
	}
	return env.Message, nil
}

// errNoEnvelope is returned for JSON bodies without a "code" field, such
// as null or {}.
var errNoEnvelope = errors.New("response is not a {code, message, data} envelope")

// decodeEnvelope parses body as an envelope. The code field is required.
func decodeEnvelope(body []byte) (model.RawResponse, error) {
	var env struct {
		Code    *int            `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return model.RawResponse{}, err
	}
	if env.Code == nil {
		return model.RawResponse{}, errNoEnvelope
	}
	return model.RawResponse{Code: *env.Code, Message: env.Message, Data: env.Data}, nil
}
