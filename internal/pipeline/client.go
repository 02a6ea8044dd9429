package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/abelbrown/viral/internal/logging"
)

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 8 << 20

// Client talks to the pipeline service. Safe for concurrent use.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewClient creates a client for the service at baseURL.
// A zero timeout leaves requests unbounded (the pipeline can take minutes
// when it scrapes live data). minInterval spaces out consecutive runs; zero
// disables the limiter.
func NewClient(baseURL string, timeout, minInterval time.Duration) *Client {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// BaseURL returns the service root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Run issues POST /api/run and decodes the result.
// Returned errors are *ValidationError, *TransportError or *PipelineError.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	if err := req.Validate(); err != nil {
		return RunResult{}, err
	}
	if req.Keywords == nil {
		req.Keywords = []string{}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return RunResult{}, &TransportError{Op: "rate limiter", Err: err}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return RunResult{}, &TransportError{Op: "marshal request", Err: err}
	}

	logging.Debug("pipeline run request", "niche", req.Niche, "posts", req.NumPosts, "mock", req.UseMock)
	start := time.Now()

	respBody, status, err := c.do(ctx, http.MethodPost, "/api/run", body)
	if err != nil {
		return RunResult{}, err
	}

	if status < 200 || status > 299 {
		logging.Error("pipeline error", "status", status, "body", truncate(string(respBody), 512))
		return RunResult{}, &PipelineError{Status: status, Detail: parseDetail(respBody)}
	}

	var result RunResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		logging.Error("pipeline response not JSON", "err", err, "body", truncate(string(respBody), 512))
		return RunResult{}, &TransportError{Op: "parse response", Err: err}
	}

	logging.Debug("pipeline run response",
		"analyses", len(result.Analyses),
		"generated", len(result.GeneratedPosts),
		"run_id", result.RunID,
		"elapsed", time.Since(start))

	return result, nil
}

// Health checks GET / on the service.
func (c *Client) Health(ctx context.Context) error {
	body, status, err := c.do(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return &PipelineError{Status: status, Detail: parseDetail(body)}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, &TransportError{Op: "create request", Err: err}
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, &TransportError{Op: "request cancelled", Err: ctx.Err()}
		}
		logging.Warn("pipeline request failed", "method", method, "path", path, "err", err)
		return nil, 0, &TransportError{Op: "request failed", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, &TransportError{Op: "read response", Err: err}
	}
	return respBody, resp.StatusCode, nil
}

// parseDetail pulls a string "detail" out of an error body. FastAPI-style
// validation errors carry an array there; those yield "".
func parseDetail(body []byte) string {
	var errBody struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &errBody); err != nil || len(errBody.Detail) == 0 {
		return ""
	}
	var detail string
	if err := json.Unmarshal(errBody.Detail, &detail); err != nil {
		return ""
	}
	return detail
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
