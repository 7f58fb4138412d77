package tool

import (
	"context"
	"fmt"
)

// Status 是工具执行结果的状态。
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// Descriptor 描述工具的标识与参数约定，供客户端做能力发现。
type Descriptor struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Capability   string            `json:"capability"`
	Description  string            `json:"description"`
	Parameters   map[string]string `json:"parameters,omitempty"`
	RequiresAuth bool              `json:"requires_auth,omitempty"`
}

// Outcome 是工具的统一返回。工具不通过 error 上抛业务失败，
// 而是在 Outcome 里标注状态，让编排层决定是否继续。
type Outcome struct {
	Status  Status         `json:"status"`
	Payload map[string]any `json:"payload,omitempty"`
	Message string         `json:"message,omitempty"`
}

// Tool 是宿主可分发的执行单元。Execute 的实现不应 panic，
// 宿主侧仍会兜底 recover。
type Tool interface {
	Describe() Descriptor
	Execute(ctx context.Context, params map[string]any) Outcome
}

// Success 构造成功结果。
func Success(payload map[string]any) Outcome {
	return Outcome{Status: StatusSuccess, Payload: payload}
}

// Skipped 构造跳过结果，payload 允许为空。
func Skipped(message string, payload map[string]any) Outcome {
	return Outcome{Status: StatusSkipped, Payload: payload, Message: message}
}

// Errorf 构造失败结果。
func Errorf(format string, args ...any) Outcome {
	return Outcome{Status: StatusError, Message: fmt.Sprintf(format, args...)}
}
