package bankapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service selects which base URL a request is sent to.
type Service int

const (
	AuthService Service = iota
	BankService
)

func (s Service) String() string {
	switch s {
	case AuthService:
		return "auth"
	case BankService:
		return "bank"
	}
	return fmt.Sprintf("service(%d)", int(s))
}

// Request describes one call to a remote service.
type Request struct {
	Service Service
	Method  string
	Path    string
	Token   string // bearer token; omitted from headers when empty
	Body    any    // JSON-encoded when non-nil
}

// Response is a completed HTTP exchange, whatever its status code.
type Response struct {
	StatusCode int
	Body       []byte
	RequestID  string
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client issues JSON requests against the authentication and banking services.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     *slog.Logger
}

// NewClient creates a new API client with the given configuration.
func NewClient(config Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		config: config,
		logger: logger.With("component", "bankapi"),
	}
}

// Config returns the client configuration.
func (c *Client) Config() Config {
	return c.config
}

func (c *Client) baseURL(s Service) (string, error) {
	switch s {
	case AuthService:
		return strings.TrimRight(c.config.AuthURL, "/"), nil
	case BankService:
		return strings.TrimRight(c.config.BankURL, "/"), nil
	}
	return "", fmt.Errorf("unknown service %v", s)
}

// Send performs a single HTTP request. Non-2xx answers are returned as a
// Response with a nil error; only transport faults produce an error, and
// those are always *NetworkError. No retries are attempted.
func (c *Client) Send(ctx context.Context, req Request) (*Response, error) {
	base, err := c.baseURL(req.Service)
	if err != nil {
		return nil, err
	}
	url := base + "/" + strings.TrimLeft(req.Path, "/")
	reqID := uuid.New().String()
	logger := c.logger.With("method", req.Method, "url", url, "request_id", reqID)

	var bodyReader io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", reqID)
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", BearerHeader(req.Token))
	}

	logger.Debug("HTTP request", "service", req.Service.String())
	start := time.Now()

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		logger.Debug("HTTP transport failure", "error", err)
		return nil, &NetworkError{Method: req.Method, URL: url, Err: err}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &NetworkError{Method: req.Method, URL: url, Err: fmt.Errorf("read response: %w", err)}
	}

	logger.Debug("HTTP response", "status", httpResp.StatusCode, "duration", time.Since(start).String())

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       respBody,
		RequestID:  reqID,
	}, nil
}

// BearerHeader returns the Authorization header value for token.
func BearerHeader(token string) string {
	return "Bearer " + token
}

// decodeBody unmarshals a JSON response body into T. An empty body yields
// the zero value.
func decodeBody[T any](resp *Response) (T, error) {
	var result T
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return result, fmt.Errorf("unmarshal response (status %d): %w", resp.StatusCode, err)
	}
	return result, nil
}
