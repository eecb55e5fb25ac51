// Package remote executes nodes on the workflow backend over HTTP.
//
// The service contract is a single endpoint:
//
//	POST {base}/api/workflows/run-node
//	{"node": {...}, "context": {...}}  ->  {"success": bool, "output": any, "error": string}
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aretw0/weft/internal/logging"
	"github.com/aretw0/weft/pkg/domain"
	json "github.com/goccy/go-json"
)

// RunNodePath is the endpoint path relative to the base URL.
const RunNodePath = "/api/workflows/run-node"

// DefaultTimeout bounds a single node execution. LLM nodes are slow.
const DefaultTimeout = 2 * time.Minute

// maxBody caps how much of a response is read.
const maxBody = 16 << 20

const snippetRunes = 200

// ErrUnexpectedStatus is returned for non-2xx answers without a decodable body.
var ErrUnexpectedStatus = errors.New("unexpected status from execution service")

// Client implements ports.NodeExecutor against the execution service.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	headers http.Header
	logger  *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. A nil client is ignored.
// The client is used as given; the timeout is applied per request.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithTimeout bounds each node execution, including reading the answer.
// Zero or negative disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.timeout = d
	}
}

// WithHeader adds a header to every request (for example an API key).
func WithHeader(key, value string) Option {
	return func(cl *Client) {
		cl.headers.Add(key, value)
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// New creates a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		timeout: DefaultTimeout,
		headers: make(http.Header),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type runNodeResponse struct {
	Success bool   `json:"success"`
	Output  any    `json:"output"`
	Error   string `json:"error"`
}

// Execute posts the node and its context and decodes the service answer.
func (c *Client) Execute(ctx context.Context, req domain.ExecutionRequest) (domain.ExecutionResponse, error) {
	if req.Context == nil {
		req.Context = map[string]any{}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return domain.ExecutionResponse{}, fmt.Errorf("failed to encode request: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+RunNodePath, bytes.NewReader(body))
	if err != nil {
		return domain.ExecutionResponse{}, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for k, vs := range c.headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return domain.ExecutionResponse{}, fmt.Errorf("execution service unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return domain.ExecutionResponse{}, fmt.Errorf("failed to read response: %w", err)
	}
	c.logger.Debug("run-node answered", "node_id", req.Node.ID, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	var decoded runNodeResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return domain.ExecutionResponse{}, fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, snippet(raw))
		}
		return domain.ExecutionResponse{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if !decoded.Success && decoded.Error == "" && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		decoded.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	return domain.ExecutionResponse{Success: decoded.Success, Output: decoded.Output, Error: decoded.Error}, nil
}

// snippet shortens an error body to snippetRunes runes.
func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if utf8.RuneCountInString(s) <= snippetRunes {
		return s
	}
	return string([]rune(s)[:snippetRunes]) + "..."
}
