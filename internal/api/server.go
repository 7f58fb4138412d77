package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"MeetingMCP/internal/a2a"
	"MeetingMCP/internal/auth"
	"MeetingMCP/internal/host"
	"MeetingMCP/internal/job"
	"MeetingMCP/internal/observability/metrics"
	"MeetingMCP/internal/orchestrator"
	"MeetingMCP/internal/tool"
)

// sessionOwner 是 HTTP 入口为每次工具调用创建的临时会话归属。
const sessionOwner = "http-client"

// Server 负责暴露 REST 接口，供外部驱动会议处理流水线。
type Server struct {
	addr         string
	host         *host.Host
	orchestrator *orchestrator.Orchestrator
	jobs         *job.Service
	auth         *auth.Service
}

// NewServer 构造 API 服务实例。
func NewServer(addr string, h *host.Host, o *orchestrator.Orchestrator, jobs *job.Service, authService *auth.Service) *Server {
	return &Server{addr: addr, host: h, orchestrator: o, jobs: jobs, auth: authService}
}

// Start 启动 HTTP 服务，直到上下文取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           withContext(ctx, s.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Handler 组装全部路由，供测试直接使用。
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp/tools", s.instrument("mcp_tools", s.handleTools))
	mux.HandleFunc("/mcp/transcript", s.instrument("mcp_transcript", s.toolHandler("transcript")))
	mux.HandleFunc("/mcp/summarize", s.instrument("mcp_summarize", s.toolHandler("summarization")))
	mux.HandleFunc("/mcp/risk", s.instrument("mcp_risk", s.toolHandler("risk")))
	mux.HandleFunc("/mcp/jira", s.instrument("mcp_jira", s.toolHandler("jira")))
	mux.HandleFunc("/mcp/notify", s.instrument("mcp_notify", s.toolHandler("notification")))
	mux.HandleFunc("/mcp/calendar", s.instrument("mcp_calendar", s.toolHandler("calendar")))
	mux.HandleFunc("/mcp/orchestrate", s.instrument("mcp_orchestrate", s.handleOrchestrate))
	mux.HandleFunc("/mcp/a2a", s.instrument("mcp_a2a", s.handleA2A))
	mux.HandleFunc("/api/v1/jobs", s.instrument("jobs", s.handleJobs))
	mux.HandleFunc("/api/v1/jobs/stats", s.instrument("job_stats", s.handleJobStats))
	mux.HandleFunc("/api/v1/jobs/", s.instrument("job_get", s.handleJobByID))
	mux.Handle("/metrics", metrics.Handler())

	if s.auth != nil {
		return s.auth.Middleware(auth.MiddlewareConfig{})(mux)
	}
	return mux
}

func (s *Server) instrument(name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		mw := &metricsWriter{ResponseWriter: w, status: http.StatusOK}
		next(mw, r)
		metrics.ObserveHTTPRequest(name, r.Method, mw.status, time.Since(started))
	}
}

type metricsWriter struct {
	http.ResponseWriter
	status int
}

func (w *metricsWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持 GET", http.StatusMethodNotAllowed)
		return
	}
	if s.host == nil {
		http.Error(w, "宿主未初始化", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": s.host.Tools()})
}

// toolHandler 把一次 HTTP 请求翻译成单个工具的会话内调用。
func (s *Server) toolHandler(toolID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "仅支持 POST", http.StatusMethodNotAllowed)
			return
		}
		if s.host == nil {
			http.Error(w, "宿主未初始化", http.StatusServiceUnavailable)
			return
		}

		params, err := decodeParams(r)
		if err != nil {
			http.Error(w, "请求体解析失败", http.StatusBadRequest)
			return
		}

		session := s.host.CreateSession(sessionOwner)
		defer s.host.EndSession(session.ID)

		outcome := s.host.Execute(r.Context(), session.ID, toolID, normalizeParams(params))
		writeJSON(w, statusFor(outcome), outcome)
	}
}

type orchestrateRequest struct {
	Message string         `json:"message"`
	Params  map[string]any `json:"params"`
}

func (s *Server) handleOrchestrate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "仅支持 POST", http.StatusMethodNotAllowed)
		return
	}
	if s.orchestrator == nil {
		http.Error(w, "编排器未初始化", http.StatusServiceUnavailable)
		return
	}

	var req orchestrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "请求体解析失败", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "message 不能为空", http.StatusBadRequest)
		return
	}

	result := s.orchestrator.Orchestrate(r.Context(), req.Message, normalizeParams(req.Params))
	writeJSON(w, http.StatusOK, result)
}

// handleA2A 以消息信封协议执行编排：请求与响应都是带类型载荷的信封。
func (s *Server) handleA2A(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "仅支持 POST", http.StatusMethodNotAllowed)
		return
	}
	if s.orchestrator == nil {
		http.Error(w, "编排器未初始化", http.StatusServiceUnavailable)
		return
	}

	var msg a2a.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "请求体解析失败", http.StatusBadRequest)
		return
	}

	reply, err := s.orchestrator.OrchestrateEnvelope(r.Context(), &msg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleSubmitJob(w, r)
	case http.MethodGet:
		s.handleListJobs(w, r)
	default:
		http.Error(w, "仅支持 GET/POST", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	if s.jobs == nil {
		http.Error(w, "作业服务未初始化", http.StatusServiceUnavailable)
		return
	}

	var req job.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "请求体解析失败", http.StatusBadRequest)
		return
	}
	req.Params = normalizeParams(req.Params)

	submitted, err := s.jobs.Submit(r.Context(), req)
	if err != nil {
		if job.IsJobError(err, job.CodeJobConflict) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		status := http.StatusInternalServerError
		if strings.Contains(err.Error(), string(job.CodeJobValidation)) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusAccepted, submitted)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if s.jobs == nil {
		http.Error(w, "作业服务未初始化", http.StatusServiceUnavailable)
		return
	}

	opts := listOptionsFromQuery(r)
	jobs, err := s.jobs.List(r.Context(), opts...)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func (s *Server) handleJobStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持 GET", http.StatusMethodNotAllowed)
		return
	}
	if s.jobs == nil {
		http.Error(w, "作业服务未初始化", http.StatusServiceUnavailable)
		return
	}

	stats, err := s.jobs.Stats(r.Context(), listOptionsFromQuery(r)...)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleJobByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持 GET", http.StatusMethodNotAllowed)
		return
	}
	if s.jobs == nil {
		http.Error(w, "作业服务未初始化", http.StatusServiceUnavailable)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "作业 ID 无效", http.StatusBadRequest)
		return
	}

	j, err := s.jobs.Get(r.Context(), id)
	if err != nil {
		if job.IsJobError(err, job.CodeJobNotFound) {
			http.Error(w, "作业不存在", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func listOptionsFromQuery(r *http.Request) []job.ListOption {
	query := r.URL.Query()
	opts := make([]job.ListOption, 0, 4)
	if raw := query.Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			opts = append(opts, job.WithLimit(parsed))
		}
	}
	if raw := query.Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			opts = append(opts, job.WithOffset(parsed))
		}
	}
	if raw := query.Get("status"); raw != "" {
		statuses := make([]job.Status, 0, 2)
		for _, candidate := range strings.Split(raw, ",") {
			status := job.Status(strings.TrimSpace(candidate))
			if job.IsValidStatus(status) {
				statuses = append(statuses, status)
			}
		}
		if len(statuses) > 0 {
			opts = append(opts, job.WithStatuses(statuses...))
		}
	}
	if raw := query.Get("q"); raw != "" {
		opts = append(opts, job.WithQuery(raw))
	}
	return opts
}

func decodeParams(r *http.Request) (map[string]any, error) {
	var params map[string]any
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&params); err != nil {
		return nil, err
	}
	return params, nil
}

// normalizeParams 统一客户端常见的参数别名，降低集成成本。
func normalizeParams(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	aliases := map[string]string{
		"data":                  "transcripts",
		"processed_transcripts": "processed",
		"items":                 "action_items",
		"meeting":               "meeting_id",
	}
	for from, to := range aliases {
		if value, ok := params[from]; ok {
			if _, exists := params[to]; !exists {
				params[to] = value
			}
		}
	}
	return params
}

func statusFor(outcome tool.Outcome) int {
	switch outcome.Status {
	case tool.StatusError:
		if code, ok := outcome.Payload["code"].(string); ok && code == "TOOL_NOT_FOUND" {
			return http.StatusNotFound
		}
		return http.StatusUnprocessableEntity
	default:
		return http.StatusOK
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// withContext 确保请求处理能够感知根上下文取消。
func withContext(ctx context.Context, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-ctx.Done():
			http.Error(w, "服务已关闭", http.StatusServiceUnavailable)
			return
		default:
		}
		handler.ServeHTTP(w, r)
	})
}
