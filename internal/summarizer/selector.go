package summarizer

import (
	"context"
	"strings"

	xerrors "MeetingMCP/internal/errors"
	"MeetingMCP/pkg/logger"
)

// 摘要模式。auto 优先本地模型，失败后退到远端模型，再退到摘录。
const (
	ModeAuto    = "auto"
	ModeBart    = "bart"
	ModeMistral = "mistral"
	ModeExcerpt = "excerpt"
)

const (
	excerptLimit     = 300
	emptySummaryText = "No summary generated."
)

// Selector 按模式在多个后端之间选择，逐级降级直到产出结果。
// Summarize 不返回错误：所有后端都失败时退化为转写摘录。
type Selector struct {
	mode    string
	bart    *Holder
	mistral *Holder
}

// NewSelector 创建摘要选择器。后端容器允许为 nil，视为该后端不可用。
func NewSelector(mode string, bart, mistral *Holder) *Selector {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		mode = ModeAuto
	}
	return &Selector{mode: mode, bart: bart, mistral: mistral}
}

// Summarize 依据配置的模式执行降级链：
// bart 模式: bart -> 摘录；mistral 模式: mistral -> bart -> 摘录；
// 其余(auto): bart -> mistral -> 摘录。
func (s *Selector) Summarize(ctx context.Context, mode string, chunks []string) *Result {
	resolved := strings.ToLower(strings.TrimSpace(mode))
	if resolved == "" {
		resolved = s.mode
	}

	var chain []string
	switch resolved {
	case ModeBart:
		chain = []string{ModeBart}
	case ModeMistral:
		chain = []string{ModeMistral, ModeBart}
	default:
		chain = []string{ModeBart, ModeMistral}
	}

	fullTranscript := strings.Join(chunks, "\n")

	for _, name := range chain {
		result, err := s.tryBackend(ctx, name, chunks)
		if err != nil {
			logger.L().Warn("摘要后端失败，降级到下一个",
				"backend", name,
				"error", err,
			)
			continue
		}
		return finalize(result, name, fullTranscript)
	}

	// 所有后端失败时返回转写摘录，保证调用方总能拿到结果。
	return finalize(&Result{Summary: excerpt(fullTranscript)}, ModeExcerpt, fullTranscript)
}

func (s *Selector) tryBackend(ctx context.Context, name string, chunks []string) (*Result, error) {
	var holder *Holder
	switch name {
	case ModeBart:
		holder = s.bart
	case ModeMistral:
		holder = s.mistral
	}
	if holder == nil {
		return nil, errBackendUnavailable(name)
	}
	backend, err := holder.Get()
	if err != nil {
		return nil, err
	}
	if backend == nil {
		return nil, errBackendUnavailable(name)
	}
	return backend.Summarize(ctx, chunks)
}

func finalize(result *Result, mode, fullTranscript string) *Result {
	if strings.TrimSpace(result.Summary) == "" {
		result.Summary = emptySummaryText
	}
	result.Mode = mode
	result.TranscriptLength = len(fullTranscript)
	return result
}

func errBackendUnavailable(name string) error {
	return xerrors.New(xerrors.CodeBackendUnavailable, "摘要后端不可用: "+name)
}

func excerpt(fullTranscript string) string {
	if len(fullTranscript) <= excerptLimit {
		return fullTranscript
	}
	return fullTranscript[:excerptLimit] + "..."
}
