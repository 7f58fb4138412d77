package tool

import (
	"context"

	"MeetingMCP/internal/summarizer"
)

// SummarizationTool 调用摘要选择器，对转写分片产出结构化摘要。
type SummarizationTool struct {
	selector *summarizer.Selector
}

var _ Tool = (*SummarizationTool)(nil)

// NewSummarizationTool 创建摘要工具。
func NewSummarizationTool(selector *summarizer.Selector) *SummarizationTool {
	return &SummarizationTool{selector: selector}
}

func (t *SummarizationTool) Describe() Descriptor {
	return Descriptor{
		ID:          "summarization",
		Name:        "Meeting Summarizer",
		Capability:  "summarize",
		Description: "对预处理后的转写分片生成摘要与行动项",
		Parameters: map[string]string{
			"processed_transcripts": "转写分片列表，别名 processed",
			"mode":                  "摘要模式 auto/bart/mistral，别名 summarizer",
		},
	}
}

func (t *SummarizationTool) Execute(ctx context.Context, params map[string]any) Outcome {
	chunks := StringsParam(params, "processed_transcripts", "processed")
	if len(chunks) == 0 {
		return Errorf("缺少 processed_transcripts 参数")
	}
	if t.selector == nil {
		return Errorf("摘要选择器未初始化")
	}

	mode, _ := StringParam(params, "mode", "summarizer")
	result := t.selector.Summarize(ctx, mode, chunks)

	return Success(map[string]any{
		"summary":             result.Summary,
		"action_items":        result.ActionItems,
		"decisions":           result.Decisions,
		"risks":               result.Risks,
		"follow_up_questions": result.FollowUpQuestions,
		"mode":                result.Mode,
		"transcript_length":   result.TranscriptLength,
	})
}
