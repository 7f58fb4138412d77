package meetingmcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"
)

// DefaultHTTPTimeout defines the timeout used by clients created without a
// custom http.Client. It is intentionally short to avoid hanging network calls.
const DefaultHTTPTimeout = 15 * time.Second

// HeaderAPIKey is the credential header expected by the server.
const HeaderAPIKey = "x-api-key"

// Client wraps the HTTP interactions with the MeetingMCP REST API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	apiKey     string
}

// ToolDescriptor mirrors the capability metadata exposed by the host.
type ToolDescriptor struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Capability   string            `json:"capability"`
	Description  string            `json:"description"`
	Parameters   map[string]string `json:"parameters,omitempty"`
	RequiresAuth bool              `json:"requires_auth,omitempty"`
}

// Outcome is the uniform result of a single tool dispatch.
type Outcome struct {
	Status  string         `json:"status"`
	Payload map[string]any `json:"payload,omitempty"`
	Message string         `json:"message,omitempty"`
}

// PipelineResult is the aggregated result of an orchestrated run.
type PipelineResult struct {
	Intent   string             `json:"intent"`
	Results  map[string]Outcome `json:"results"`
	Degraded bool               `json:"degraded"`
}

// JobSubmission is the payload for creating an asynchronous job.
type JobSubmission struct {
	ID        string         `json:"id,omitempty"`
	Message   string         `json:"message"`
	MeetingID string         `json:"meeting_id,omitempty"`
	Params    map[string]any `json:"params,omitempty"`
}

// PipelineRecord is the persisted outcome of a finished job.
type PipelineRecord struct {
	Intent       string `json:"intent"`
	Summary      string `json:"summary"`
	Payload      string `json:"payload"`
	Observations string `json:"observations"`
}

// Job describes the server-side state of a queued meeting job.
type Job struct {
	ID         string          `json:"id"`
	Message    string          `json:"message"`
	MeetingID  string          `json:"meeting_id,omitempty"`
	Params     map[string]any  `json:"params,omitempty"`
	Status     string          `json:"status"`
	Attempts   int             `json:"attempts"`
	MaxRetries int             `json:"max_retries"`
	LastError  string          `json:"last_error,omitempty"`
	ErrorCode  string          `json:"error_code,omitempty"`
	Result     *PipelineRecord `json:"result,omitempty"`
	CreatedAt  int64           `json:"created_at"`
	UpdatedAt  int64           `json:"updated_at"`
}

// JobStats aggregates job counts by status.
type JobStats struct {
	Total           int64 `json:"total"`
	Pending         int64 `json:"pending"`
	Running         int64 `json:"running"`
	Succeeded       int64 `json:"succeeded"`
	Failed          int64 `json:"failed"`
	OldestUpdatedAt int64 `json:"oldest_updated_at"`
	NewestUpdatedAt int64 `json:"newest_updated_at"`
}

// APIError represents server side validation or internal errors.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("meetingmcp api error (%d): %s", e.StatusCode, e.Message)
}

// NewClient instantiates a client for the MeetingMCP API. When httpClient is
// nil, a default client with a sensible timeout is used. apiKey may be empty
// when the server runs in open mode.
func NewClient(rawURL, apiKey string, httpClient *http.Client) (*Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &Client{baseURL: parsed, httpClient: httpClient, apiKey: apiKey}, nil
}

// Tools fetches the capability catalogue of the host.
func (c *Client) Tools(ctx context.Context) ([]ToolDescriptor, error) {
	var response struct {
		Tools []ToolDescriptor `json:"tools"`
	}
	if err := c.get(ctx, "/mcp/tools", &response); err != nil {
		return nil, err
	}
	return response.Tools, nil
}

// toolEndpoints maps tool identifiers to their dispatch endpoints.
var toolEndpoints = map[string]string{
	"transcript":    "/mcp/transcript",
	"summarization": "/mcp/summarize",
	"risk":          "/mcp/risk",
	"jira":          "/mcp/jira",
	"notification":  "/mcp/notify",
	"calendar":      "/mcp/calendar",
}

// RunTool dispatches a single tool call.
func (c *Client) RunTool(ctx context.Context, toolID string, params map[string]any) (Outcome, error) {
	endpoint, ok := toolEndpoints[toolID]
	if !ok {
		return Outcome{}, fmt.Errorf("unknown tool: %s", toolID)
	}
	var outcome Outcome
	if err := c.post(ctx, endpoint, params, &outcome); err != nil {
		// Failed tool runs are reported in-band: the server encodes the
		// outcome in the error response body.
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
			var failed Outcome
			if jsonErr := json.Unmarshal([]byte(apiErr.Message), &failed); jsonErr == nil && failed.Status != "" {
				return failed, nil
			}
		}
		return Outcome{}, err
	}
	return outcome, nil
}

// Orchestrate runs an intent-routed pipeline synchronously.
func (c *Client) Orchestrate(ctx context.Context, message string, params map[string]any) (PipelineResult, error) {
	request := struct {
		Message string         `json:"message"`
		Params  map[string]any `json:"params,omitempty"`
	}{Message: message, Params: params}

	var result PipelineResult
	if err := c.post(ctx, "/mcp/orchestrate", request, &result); err != nil {
		return PipelineResult{}, err
	}
	return result, nil
}

// SubmitJob enqueues an asynchronous meeting job.
func (c *Client) SubmitJob(ctx context.Context, submission JobSubmission) (Job, error) {
	var j Job
	if err := c.post(ctx, "/api/v1/jobs", submission, &j); err != nil {
		return Job{}, err
	}
	return j, nil
}

// GetJob fetches a job by identifier.
func (c *Client) GetJob(ctx context.Context, jobID string) (Job, error) {
	var j Job
	if err := c.get(ctx, "/api/v1/jobs/"+url.PathEscape(jobID), &j); err != nil {
		return Job{}, err
	}
	return j, nil
}

// ListJobs returns jobs filtered by status and free-text query. Empty
// arguments are omitted from the request.
func (c *Client) ListJobs(ctx context.Context, status, query string, limit int) ([]Job, error) {
	values := url.Values{}
	if status != "" {
		values.Set("status", status)
	}
	if query != "" {
		values.Set("q", query)
	}
	if limit > 0 {
		values.Set("limit", fmt.Sprintf("%d", limit))
	}
	endpoint := "/api/v1/jobs"
	if encoded := values.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var response struct {
		Jobs []Job `json:"jobs"`
	}
	if err := c.get(ctx, endpoint, &response); err != nil {
		return nil, err
	}
	return response.Jobs, nil
}

// JobStats returns aggregated job counts.
func (c *Client) JobStats(ctx context.Context) (JobStats, error) {
	var stats JobStats
	if err := c.get(ctx, "/api/v1/jobs/stats", &stats); err != nil {
		return JobStats{}, err
	}
	return stats, nil
}

// WaitForJob polls until the job reaches a terminal status or the context is
// cancelled.
func (c *Client) WaitForJob(ctx context.Context, jobID string, interval time.Duration) (Job, error) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		j, err := c.GetJob(ctx, jobID)
		if err != nil {
			return Job{}, err
		}
		if j.Status == "succeeded" || j.Status == "failed" {
			return j, nil
		}
		select {
		case <-ctx.Done():
			return Job{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) post(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	rel := &url.URL{Path: path.Join(c.baseURL.Path, parsed.Path), RawQuery: parsed.RawQuery}
	u := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set(HeaderAPIKey, c.apiKey)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, readErr := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if readErr != nil {
			return fmt.Errorf("read error response: %w", readErr)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(bytes.TrimSpace(data))}
	}

	if out == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
