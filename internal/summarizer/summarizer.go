package summarizer

import "context"

// Result 是一次摘要调用的结构化输出。ActionItems 允许结构化条目
// 与纯文本条目混合，保持上游模型输出的原始形态。
type Result struct {
	Summary           string   `json:"summary"`
	ActionItems       []any    `json:"action_items"`
	Decisions         []string `json:"decisions,omitempty"`
	Risks             []string `json:"risks,omitempty"`
	FollowUpQuestions []string `json:"follow_up_questions,omitempty"`
	Mode              string   `json:"mode,omitempty"`
	TranscriptLength  int      `json:"transcript_length,omitempty"`
}

// Backend 是摘要后端的统一抽象。实现方不保证部分成功：
// 失败时返回错误，由上层选择器降级到下一个后端。
type Backend interface {
	Summarize(ctx context.Context, chunks []string) (*Result, error)
}
