// Package api is the HTTP client for the CaseStudy AI backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/casestudy-ai/cli/config"
	"github.com/casestudy-ai/cli/internal/apierr"
)

const (
	queryPath  = "/api/query"
	healthPath = "/health"
	uploadPath = "/api/upload"

	// RequestIDHeader carries a fresh id on every outbound request
	RequestIDHeader = "X-Request-ID"
)

const (
	timeoutMessage       = "Request timeout - the server took too long to respond"
	uploadTimeoutMessage = "Upload timeout - file may be too large or connection is slow"
	networkMessage       = "Network error - please check your connection and ensure the backend is running"
)

var errEmptyBody = errors.New("empty response body")

// Timeouts bounds each operation; there are no retries
type Timeouts struct {
	Query  time.Duration
	Health time.Duration
	Upload time.Duration
}

// DefaultTimeouts returns 30s for query and health, 300s for uploads
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Query:  30 * time.Second,
		Health: 30 * time.Second,
		Upload: 300 * time.Second,
	}
}

// Client wraps the backend query API
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeouts   Timeouts
	logger     *zap.Logger
	transport  http.RoundTripper
}

// Option configures a Client
type Option func(*Client)

// WithTimeouts overrides the per-operation deadlines
func WithTimeouts(t Timeouts) Option {
	return func(c *Client) {
		c.timeouts = t
	}
}

// WithLogger sets the logger used for outbound request logs
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTransport replaces the underlying round tripper
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.transport = rt
	}
}

// NewClient creates a new backend client
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		timeouts:  DefaultTimeouts(),
		logger:    zap.NewNop(),
		transport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(c)
	}

	// Deadlines come from per-call contexts so uploads can outlive queries
	c.httpClient = &http.Client{
		Transport: &logTransport{transport: c.transport, logger: c.logger},
	}
	return c
}

// NewFromConfig creates a client from the api config section
func NewFromConfig(cfg config.APIConfig, logger *zap.Logger) *Client {
	return NewClient(cfg.BaseURL,
		WithLogger(logger),
		WithTimeouts(Timeouts{
			Query:  cfg.QueryTimeout,
			Health: cfg.HealthTimeout,
			Upload: cfg.UploadTimeout,
		}),
	)
}

// BaseURL returns the backend address
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Query asks the backend a question
func (c *Client) Query(ctx context.Context, question string) (*Answer, error) {
	jsonData, err := json.Marshal(QueryRequest{Question: question})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var answer Answer
	err = c.do(ctx, call{
		method:      http.MethodPost,
		path:        queryPath,
		body:        bytes.NewReader(jsonData),
		contentType: "application/json",
		timeout:     c.timeouts.Query,
		timeoutMsg:  timeoutMessage,
	}, &answer)
	if err != nil {
		return nil, err
	}

	if answer.Citations == nil {
		answer.Citations = []Citation{}
	}
	return &answer, nil
}

// Health checks backend status
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	err := c.do(ctx, call{
		method:     http.MethodGet,
		path:       healthPath,
		timeout:    c.timeouts.Health,
		timeoutMsg: timeoutMessage,
	}, &status)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// Upload sends one document as the multipart field "file". The body is
// streamed, so memory use does not grow with the file size.
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader) (*UploadResult, error) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	written := make(chan error, 1)
	go func() {
		err := writeForm(writer, filename, content)
		pw.CloseWithError(err)
		written <- err
	}()

	var result UploadResult
	err := c.do(ctx, call{
		method:      http.MethodPost,
		path:        uploadPath,
		body:        pr,
		contentType: writer.FormDataContentType(),
		timeout:     c.timeouts.Upload,
		timeoutMsg:  uploadTimeoutMessage,
	}, &result)

	// Unblocks the writer if the request ended before the body was read
	pr.Close()
	if werr := <-written; werr != nil && !errors.Is(werr, io.ErrClosedPipe) {
		return nil, werr
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func writeForm(writer *multipart.Writer, filename string, content io.Reader) error {
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("write file content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}
	return nil
}

// UploadFile uploads a local file under its base name
func (c *Client) UploadFile(ctx context.Context, path string) (*UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	return c.Upload(ctx, filepath.Base(path), f)
}

type call struct {
	method      string
	path        string
	body        io.Reader
	contentType string
	timeout     time.Duration
	timeoutMsg  string
}

func (c *Client) do(ctx context.Context, cl call, out any) error {
	ctx, cancel := context.WithTimeout(ctx, cl.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, cl.body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransport(ctx, err, cl.timeoutMsg)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyTransport(ctx, err, cl.timeoutMsg)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apierr.HTTP(resp.StatusCode, detailMessage(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return apierr.Parse(resp.StatusCode, err)
	}
	// Valid JSON that carries no fields would otherwise decode as an empty success
	if trimmed := bytes.TrimSpace(data); bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("{}")) {
		return apierr.Parse(resp.StatusCode, errEmptyBody)
	}
	return nil
}

func classifyTransport(ctx context.Context, err error, timeoutMsg string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apierr.Timeout(err, timeoutMsg)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apierr.Timeout(err, timeoutMsg)
	}
	return apierr.Network(err, networkMessage)
}

// detailMessage extracts {"detail": "..."} from an error body
func detailMessage(data []byte) string {
	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if detail, ok := body.Detail.(string); ok {
		return detail
	}
	return ""
}
