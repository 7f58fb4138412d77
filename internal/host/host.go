package host

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	xerrors "MeetingMCP/internal/errors"
	"MeetingMCP/internal/observability/metrics"
	"MeetingMCP/internal/tool"
	"MeetingMCP/pkg/logger"
)

// Session 是一次客户端接入的上下文。
type Session struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}

// Host 维护工具注册表与会话，把调用分发给具体工具。
// 所有方法都可以并发使用。
type Host struct {
	mu       sync.RWMutex
	tools    map[string]tool.Tool
	sessions map[string]Session
}

// New 创建空的工具宿主。
func New() *Host {
	return &Host{
		tools:    make(map[string]tool.Tool),
		sessions: make(map[string]Session),
	}
}

// Register 注册一个工具，标识冲突时返回错误。
func (h *Host) Register(t tool.Tool) error {
	desc := t.Describe()
	if desc.ID == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "工具缺少标识")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.tools[desc.ID]; exists {
		return xerrors.New(xerrors.CodeConflict, fmt.Sprintf("工具 %s 已注册", desc.ID))
	}
	h.tools[desc.ID] = t
	return nil
}

// Tools 按标识排序返回所有工具描述。
func (h *Host) Tools() []tool.Descriptor {
	h.mu.RLock()
	defer h.mu.RUnlock()

	descriptors := make([]tool.Descriptor, 0, len(h.tools))
	for _, t := range h.tools {
		descriptors = append(descriptors, t.Describe())
	}
	sort.Slice(descriptors, func(i, j int) bool {
		return descriptors[i].ID < descriptors[j].ID
	})
	return descriptors
}

// Lookup 查找工具。
func (h *Host) Lookup(toolID string) (tool.Tool, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	t, ok := h.tools[toolID]
	return t, ok
}

// CreateSession 为调用方创建会话。
func (h *Host) CreateSession(owner string) Session {
	session := Session{
		ID:        uuid.NewString(),
		Owner:     owner,
		CreatedAt: time.Now(),
	}

	h.mu.Lock()
	h.sessions[session.ID] = session
	h.mu.Unlock()

	logger.Audit().Info("会话创建",
		"event", "session_created",
		"session_id", session.ID,
		"owner", owner,
	)
	return session
}

// EndSession 结束会话，会话不存在时返回 false。
func (h *Host) EndSession(sessionID string) bool {
	h.mu.Lock()
	_, ok := h.sessions[sessionID]
	if ok {
		delete(h.sessions, sessionID)
	}
	h.mu.Unlock()

	if ok {
		logger.Audit().Info("会话结束",
			"event", "session_ended",
			"session_id", sessionID,
		)
	}
	return ok
}

// SessionCount 返回当前活跃会话数。
func (h *Host) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Execute 在指定会话下分发一次工具调用。
// 工具不存在或会话无效都以错误 Outcome 返回，不会向上抛异常；
// 工具内部 panic 也在这里兜底。
func (h *Host) Execute(ctx context.Context, sessionID, toolID string, params map[string]any) tool.Outcome {
	h.mu.RLock()
	_, sessionOK := h.sessions[sessionID]
	t, toolOK := h.tools[toolID]
	h.mu.RUnlock()

	if !sessionOK {
		return tool.Errorf("会话不存在: %s", sessionID)
	}
	if !toolOK {
		logger.L().Warn("请求了未注册的工具",
			"session_id", sessionID,
			"tool_id", toolID,
		)
		return tool.Outcome{
			Status:  tool.StatusError,
			Message: fmt.Sprintf("tool not found: %s", toolID),
			Payload: map[string]any{"code": string(xerrors.CodeToolNotFound)},
		}
	}

	started := time.Now()
	outcome := safeExecute(ctx, t, params)
	metrics.ObserveToolExecution(toolID, string(outcome.Status), time.Since(started))

	logger.Audit().Info("工具调用",
		"event", "tool_executed",
		"session_id", sessionID,
		"tool_id", toolID,
		"status", string(outcome.Status),
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return outcome
}

func safeExecute(ctx context.Context, t tool.Tool, params map[string]any) (outcome tool.Outcome) {
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.L().Error("工具执行 panic",
				"tool_id", t.Describe().ID,
				"panic", recovered,
			)
			outcome = tool.Errorf("工具内部异常: %v", recovered)
		}
	}()
	return t.Execute(ctx, params)
}
