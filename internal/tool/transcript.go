package tool

import (
	"context"

	"MeetingMCP/internal/transcript"
)

// TranscriptTool 清洗原始会议转写并切分为下游可消费的分片。
type TranscriptTool struct{}

var _ Tool = (*TranscriptTool)(nil)

// NewTranscriptTool 创建转写预处理工具。
func NewTranscriptTool() *TranscriptTool {
	return &TranscriptTool{}
}

func (t *TranscriptTool) Describe() Descriptor {
	return Descriptor{
		ID:          "transcript",
		Name:        "Transcript Preprocessor",
		Capability:  "preprocess",
		Description: "清洗会议转写文本并按词数切分",
		Parameters: map[string]string{
			"transcripts": "原始转写列表，别名 data",
			"chunk_size":  "分片词数上限，默认 1500",
		},
	}
}

func (t *TranscriptTool) Execute(ctx context.Context, params map[string]any) Outcome {
	raw := StringsParam(params, "transcripts", "data")
	if len(raw) == 0 {
		return Errorf("缺少 transcripts 参数")
	}
	chunkSize, _ := IntParam(params, "chunk_size")

	processed, debug := transcript.Process(raw, chunkSize)
	return Success(map[string]any{
		"processed": processed,
		"debug":     debug,
	})
}
