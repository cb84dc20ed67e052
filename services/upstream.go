// ABOUTME: HTTP client for the upstream drive REST API
// ABOUTME: Attaches the session bearer token and normalizes every response into a Result

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oganilir/drive-bff/logger"
	"github.com/oganilir/drive-bff/metrics"
)

// maxUpstreamBody caps how much of an upstream response is read
const maxUpstreamBody = 10 << 20

// Operation describes one forwarded call.
type Operation struct {
	Name   string // operation name for logs and metrics
	Method string
	Path   string // relative to the upstream base URL
	Query  url.Values

	// Body is JSON-encoded when set. Raw is sent unchanged with ContentType
	// (multipart passthrough) and takes precedence over Body.
	Body        any
	Raw         io.Reader
	ContentType string

	// DefaultMessage is used when an upstream error carries no message
	DefaultMessage string
}

// Result is the normalized upstream response.
type Result struct {
	Success bool
	Status  int // upstream HTTP status
	Message string
	Data    json.RawMessage
	// UpstreamStatus is the body-level status string ("success"/"error"), if any
	UpstreamStatus string
	// IsUnauthenticated marks a rejected token; callers must route it to the
	// auto-logout flow instead of showing the error.
	IsUnauthenticated bool
}

// UpstreamClient forwards operations to the drive API.
type UpstreamClient struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	metrics *metrics.Metrics
}

// NewUpstreamClient creates a client for baseURL. Every call is bounded by timeout.
func NewUpstreamClient(baseURL string, timeout time.Duration) *UpstreamClient {
	return &UpstreamClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		client: &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		},
	}
}

// SetHTTPClient allows overriding the HTTP client (useful for testing)
func (c *UpstreamClient) SetHTTPClient(client *http.Client) {
	c.client = client
}

// SetMetrics enables per-operation metrics
func (c *UpstreamClient) SetMetrics(m *metrics.Metrics) {
	c.metrics = m
}

// UseProxy routes upstream connections through an SSH+SOCKS5 jump host.
func (c *UpstreamClient) UseProxy(allProxy string) error {
	dial, err := newSOCKS5DialContextFunc(allProxy)
	if err != nil {
		return err
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dial
	c.client = &http.Client{Transport: transport}
	return nil
}

// Forward sends op with token as bearer (omitted when empty) and normalizes
// the response. Transport failures and non-JSON bodies are returned as
// errors wrapping ErrUpstreamTimeout, ErrUpstreamUnavailable or
// ErrInvalidUpstreamResponse; everything else is a Result.
func (c *UpstreamClient) Forward(ctx context.Context, op Operation, token string) (*Result, error) {
	start := time.Now()
	result, err := c.forward(ctx, op, token)
	c.metrics.ObserveUpstream(op.Name, outcome(result, err), time.Since(start))

	switch {
	case err != nil:
		slog.Error("Upstream call failed", "operation", op.Name, "path", op.Path, "error", err)
	case result.IsUnauthenticated:
		slog.Info("Upstream rejected session token", "operation", op.Name, "token", logger.TokenPreview(token))
	case !result.Success:
		slog.Warn("Upstream returned error", "operation", op.Name, "status", result.Status, "message", result.Message)
	default:
		slog.Debug("Upstream call succeeded", "operation", op.Name, "status", result.Status)
	}
	return result, err
}

func (c *UpstreamClient) forward(ctx context.Context, op Operation, token string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, contentType, err := op.body()
	if err != nil {
		return nil, fmt.Errorf("%s: encoding request: %w", op.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, op.Method, c.url(op), body)
	if err != nil {
		return nil, fmt.Errorf("%s: creating request: %w", op.Name, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, transportError(ctx, op, err)
	}
	defer resp.Body.Close()

	jsonBody := isJSON(resp.Header.Get("Content-Type"))

	// HTTP 401 wins over whatever the body says
	if resp.StatusCode == http.StatusUnauthorized {
		result := &Result{Status: resp.StatusCode, Message: "Unauthenticated.", IsUnauthenticated: true}
		if jsonBody {
			if raw, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody)); err == nil {
				if env, err := parseEnvelope(raw); err == nil && env.message != "" {
					result.Message = env.message
				}
			}
		}
		return result, nil
	}

	if resp.StatusCode == http.StatusNoContent {
		return &Result{Success: true, Status: resp.StatusCode}, nil
	}

	if !jsonBody {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxUpstreamBody))
		return nil, fmt.Errorf("%s: status %d with content type %q: %w",
			op.Name, resp.StatusCode, resp.Header.Get("Content-Type"), ErrInvalidUpstreamResponse)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return nil, transportError(ctx, op, err)
	}

	env, err := parseEnvelope(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", op.Name, err, ErrInvalidUpstreamResponse)
	}

	result := &Result{
		Status:         resp.StatusCode,
		Message:        env.message,
		Data:           env.data,
		UpstreamStatus: env.status,
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if env.message == "Unauthenticated." || env.message == "Unauthenticated" {
			result.IsUnauthenticated = true
			return result, nil
		}
		if result.Message == "" {
			result.Message = op.DefaultMessage
		}
		return result, nil
	}

	result.Success = true
	return result, nil
}

func (c *UpstreamClient) url(op Operation) string {
	u := c.baseURL + "/" + strings.TrimLeft(op.Path, "/")
	if len(op.Query) > 0 {
		u += "?" + op.Query.Encode()
	}
	return u
}

func (op Operation) body() (io.Reader, string, error) {
	if op.Raw != nil {
		return op.Raw, op.ContentType, nil
	}
	if op.Body == nil {
		return nil, "", nil
	}
	encoded, err := json.Marshal(op.Body)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(encoded), "application/json", nil
}

func transportError(ctx context.Context, op Operation, err error) error {
	var netErr net.Error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%s: %v: %w", op.Name, err, ErrUpstreamTimeout)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op.Name, err)
	}
	return fmt.Errorf("%s: %v: %w", op.Name, err, ErrUpstreamUnavailable)
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// envelope is the parsed upstream body. Bodies shaped {status, message, data}
// are unwrapped; any other JSON becomes data as-is.
type envelope struct {
	status  string
	message string
	data    json.RawMessage
}

func parseEnvelope(raw []byte) (*envelope, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("empty body")
	}
	if !json.Valid(raw) {
		return nil, errors.New("malformed JSON body")
	}

	env := &envelope{data: json.RawMessage(raw)}

	var fields map[string]json.RawMessage
	if raw[0] != '{' || json.Unmarshal(raw, &fields) != nil {
		return env, nil
	}

	if msg, ok := fields["message"]; ok {
		var s string
		if json.Unmarshal(msg, &s) == nil {
			env.message = s
		}
	}
	if status, ok := fields["status"]; ok {
		var s string
		if json.Unmarshal(status, &s) == nil {
			env.status = s
		}
	}
	if data, ok := fields["data"]; ok {
		env.data = data
	}
	return env, nil
}

func outcome(result *Result, err error) string {
	switch {
	case errors.Is(err, ErrUpstreamTimeout):
		return metrics.OutcomeTimeout
	case errors.Is(err, ErrInvalidUpstreamResponse):
		return metrics.OutcomeInvalidResponse
	case err != nil:
		return metrics.OutcomeUnavailable
	case result.IsUnauthenticated:
		return metrics.OutcomeUnauthenticated
	case !result.Success:
		return metrics.OutcomeUpstreamError
	default:
		return metrics.OutcomeSuccess
	}
}
