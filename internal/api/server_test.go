package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"MeetingMCP/internal/a2a"
	"MeetingMCP/internal/auth"
	"MeetingMCP/internal/host"
	"MeetingMCP/internal/job"
	"MeetingMCP/internal/orchestrator"
	"MeetingMCP/internal/tool"
)

func testServer(t *testing.T, key string) (*Server, *job.Service) {
	t.Helper()

	h := host.New()
	for _, candidate := range []tool.Tool{
		tool.NewTranscriptTool(),
		tool.NewRiskTool(nil, false),
		tool.NewJiraTool(nil),
		tool.NewNotificationTool(nil),
	} {
		if err := h.Register(candidate); err != nil {
			t.Fatalf("register tool: %v", err)
		}
	}

	jobs := job.NewService(job.NewMemoryStore(), job.NewMemoryQueue(16), 3)
	t.Cleanup(func() { _ = jobs.Close() })

	var authService *auth.Service
	if key != "" {
		authService = auth.NewService(key)
	}
	return NewServer(":0", h, orchestrator.New(h), jobs, authService), jobs
}

func TestToolEndpointDispatch(t *testing.T) {
	server, _ := testServer(t, "")

	body := `{"data": ["Um, okay [00:01] Alice: we shipped the beta."]}`
	req := httptest.NewRequest(http.MethodPost, "/mcp/transcript", strings.NewReader(body))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}
	var outcome tool.Outcome
	if err := json.Unmarshal(rec.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if outcome.Status != tool.StatusSuccess {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	processed, ok := outcome.Payload["processed"].([]any)
	if !ok || len(processed) == 0 {
		t.Fatalf("payload should contain processed chunks: %+v", outcome.Payload)
	}
	if text, _ := processed[0].(string); strings.Contains(text, "um") {
		t.Fatalf("fillers should be stripped: %q", text)
	}
}

func TestToolEndpointFailureStatus(t *testing.T) {
	server, _ := testServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/mcp/transcript", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("missing input should map to 422, got %d", rec.Code)
	}
}

func TestOrchestrateEndpoint(t *testing.T) {
	server, _ := testServer(t, "")

	body := `{"message": "detect risk in the sync", "params": {"transcripts": ["Bob: the migration is blocked on access."]}}`
	req := httptest.NewRequest(http.MethodPost, "/mcp/orchestrate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}
	var result struct {
		Intent  string                  `json:"intent"`
		Results map[string]tool.Outcome `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Intent != string(orchestrator.IntentRisk) {
		t.Fatalf("unexpected intent: %s", result.Intent)
	}
	if _, ok := result.Results["risk"]; !ok {
		t.Fatalf("risk stage missing: %+v", result.Results)
	}
}

func TestOrchestrateEndpointValidation(t *testing.T) {
	server, _ := testServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/mcp/orchestrate", strings.NewReader(`{"message": "  "}`))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty message should be rejected, got %d", rec.Code)
	}
}

func TestA2AEndpoint(t *testing.T) {
	server, _ := testServer(t, "")

	body := `{
		"message_id": "m-1",
		"role": "client",
		"parts": [
			{"kind": "text", "text": "detect risk in the sync"},
			{"kind": "json", "data": {"transcripts": ["Bob: the migration is blocked on access."]}}
		]
	}`
	req := httptest.NewRequest(http.MethodPost, "/mcp/a2a", strings.NewReader(body))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}
	var reply a2a.Message
	if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if reply.Role != a2a.RoleAgent {
		t.Fatalf("unexpected role: %s", reply.Role)
	}
	if len(reply.All(a2a.KindResult)) == 0 {
		t.Fatalf("reply should carry result parts: %+v", reply.Parts)
	}
	meta, ok := reply.FirstData(a2a.KindJSON)
	if !ok || meta["intent"] != string(orchestrator.IntentRisk) {
		t.Fatalf("intent metadata missing: %+v", meta)
	}

	empty := httptest.NewRequest(http.MethodPost, "/mcp/a2a", strings.NewReader(`{"role": "client", "parts": []}`))
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, empty)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("envelope without instruction should 400, got %d", rec.Code)
	}
}

func TestJobLifecycleEndpoints(t *testing.T) {
	server, jobs := testServer(t, "")

	submit := httptest.NewRequest(http.MethodPost, "/api/v1/jobs",
		strings.NewReader(`{"message": "summarize the sync", "meeting_id": "weekly-sync"}`))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, submit)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("unexpected submit status: %d body=%s", rec.Code, rec.Body.String())
	}

	var submitted job.Job
	if err := json.Unmarshal(rec.Body.Bytes(), &submitted); err != nil {
		t.Fatalf("decode submitted job: %v", err)
	}
	if submitted.Status != job.StatusPending {
		t.Fatalf("unexpected status: %s", submitted.Status)
	}

	detail := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+submitted.ID, nil)
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, detail)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected detail status: %d", rec.Code)
	}

	missing := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/does-not-exist", nil)
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, missing)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing job should 404, got %d", rec.Code)
	}

	list := httptest.NewRequest(http.MethodGet, "/api/v1/jobs?status=pending", nil)
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, list)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected list status: %d", rec.Code)
	}
	var listed struct {
		Jobs []*job.Job `json:"jobs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed.Jobs) != 1 {
		t.Fatalf("expected 1 pending job, got %d", len(listed.Jobs))
	}

	stats := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/stats", nil)
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, stats)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected stats status: %d", rec.Code)
	}
	var jobStats job.JobStats
	if err := json.Unmarshal(rec.Body.Bytes(), &jobStats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if jobStats.Total != 1 || jobStats.Pending != 1 {
		t.Fatalf("unexpected stats: %+v", jobStats)
	}

	// 幂等提交返回已有作业。
	resubmit := httptest.NewRequest(http.MethodPost, "/api/v1/jobs",
		strings.NewReader(`{"id": "`+submitted.ID+`", "message": "different"}`))
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, resubmit)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("resubmit status: %d", rec.Code)
	}
	var again job.Job
	if err := json.Unmarshal(rec.Body.Bytes(), &again); err != nil {
		t.Fatalf("decode resubmitted: %v", err)
	}
	if again.Message != "summarize the sync" {
		t.Fatalf("resubmission should return existing job, got %q", again.Message)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := jobs.Get(ctx, submitted.ID); err != nil {
		t.Fatalf("job should exist in store: %v", err)
	}
}

func TestSubmitJobValidation(t *testing.T) {
	server, _ := testServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", strings.NewReader(`{"message": ""}`))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty message should 400, got %d", rec.Code)
	}
}

func TestAPIKeyGuard(t *testing.T) {
	server, _ := testServer(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/mcp/tools", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("request without key should 401, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/mcp/tools", nil)
	req.Header.Set(auth.HeaderAPIKey, "secret")
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("request with key should pass, got %d", rec.Code)
	}
}
