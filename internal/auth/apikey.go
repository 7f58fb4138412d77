package auth

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	loggerpkg "MeetingMCP/pkg/logger"
)

// HeaderAPIKey 是客户端携带凭证的请求头。
const HeaderAPIKey = "x-api-key"

// Service 校验请求携带的 API key。key 为空时服务开放访问。
type Service struct {
	key   string
	audit *slog.Logger
}

// NewService 构造认证服务。
func NewService(key string) *Service {
	return &Service{key: key}
}

// WithAuditLogger 指定审计日志输出，默认为全局审计日志。
func (s *Service) WithAuditLogger(logger *slog.Logger) *Service {
	if s != nil {
		s.audit = logger
	}
	return s
}

// Enabled 返回是否启用了凭证校验。
func (s *Service) Enabled() bool {
	return s != nil && s.key != ""
}

// Verify 校验单个 key。
func (s *Service) Verify(candidate string) bool {
	if !s.Enabled() {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(s.key), []byte(candidate)) == 1
}

// MiddlewareConfig 配置认证中间件的行为。
type MiddlewareConfig struct {
	// AuditEvent 指定记录审计日志时使用的事件名称，默认为请求路径。
	AuditEvent string
}

// Middleware 返回一个 HTTP 中间件，校验 API key 并记录审计日志。
func (s *Service) Middleware(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := loggerpkg.Audit()
			if s != nil && s.audit != nil {
				logger = s.audit
			}
			if !s.Verify(r.Header.Get(HeaderAPIKey)) {
				status := http.StatusUnauthorized
				http.Error(w, http.StatusText(status), status)
				logger.Warn("access_denied",
					"path", r.URL.Path,
					"method", r.Method,
					"status", status,
				)
				return
			}
			start := time.Now()
			aw := &auditWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(aw, r)
			event := cfg.AuditEvent
			if event == "" {
				event = r.URL.Path
			}
			logger.Info("api_request",
				"event", event,
				"method", r.Method,
				"path", r.URL.Path,
				"status", aw.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// auditWriter 包装 http.ResponseWriter 以捕获响应状态码。
type auditWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader 捕获响应状态码并调用底层的 WriteHeader 方法。
func (w *auditWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
