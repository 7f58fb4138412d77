package orchestrator

import (
	"context"
	"strings"

	"MeetingMCP/internal/extract"
	"MeetingMCP/internal/host"
	"MeetingMCP/internal/tool"
	"MeetingMCP/pkg/logger"
)

// PipelineResult 是一次编排的汇总结果，Results 以工具标识为键。
// Degraded 表示流水线里有阶段失败，后续阶段在缺少该阶段产出的
// 情况下继续执行。
type PipelineResult struct {
	Intent   Intent                  `json:"intent"`
	Results  map[string]tool.Outcome `json:"results"`
	Degraded bool                    `json:"degraded,omitempty"`
}

// Orchestrator 把自然语言指令翻译为工具流水线并驱动宿主执行。
type Orchestrator struct {
	host *host.Host
}

// New 创建编排器。
func New(h *host.Host) *Orchestrator {
	return &Orchestrator{host: h}
}

// pipelineFor 给出各意图对应的工具链。阶段顺序即数据依赖顺序。
func pipelineFor(intent Intent) []string {
	switch intent {
	case IntentPreprocess:
		return []string{"transcript"}
	case IntentSummarize:
		return []string{"transcript", "summarization"}
	case IntentRisk:
		return []string{"transcript", "summarization", "risk"}
	case IntentJira:
		return []string{"transcript", "summarization", "jira"}
	case IntentNotify:
		return []string{"notification"}
	default:
		return []string{"transcript", "summarization", "risk", "jira", "notification"}
	}
}

// Orchestrate 识别意图并执行对应流水线。单个阶段失败不会中断
// 编排：失败结果原样记录，后续阶段基于既有参数继续，整体标记为降级。
// Orchestrate 自身不返回错误，调用方通过各阶段的 Outcome 判断结果。
func (o *Orchestrator) Orchestrate(ctx context.Context, message string, params map[string]any) *PipelineResult {
	intent := DetectIntent(message)

	working := make(map[string]any, len(params)+4)
	for key, value := range params {
		working[key] = value
	}
	resolveMeeting(message, working)

	session := o.host.CreateSession("orchestrator")
	defer o.host.EndSession(session.ID)

	result := &PipelineResult{
		Intent:  intent,
		Results: make(map[string]tool.Outcome),
	}

	for _, toolID := range pipelineFor(intent) {
		prepareStage(toolID, working)

		outcome := o.host.Execute(ctx, session.ID, toolID, working)
		result.Results[toolID] = outcome

		if outcome.Status == tool.StatusError {
			result.Degraded = true
			logger.L().Warn("流水线阶段失败，继续执行后续阶段",
				"intent", string(intent),
				"tool_id", toolID,
				"message", outcome.Message,
			)
			continue
		}
		mergeOutputs(toolID, outcome, working)
	}
	return result
}

// resolveMeeting 在没有显式 meeting_id 时，从指令里解析已知会议名。
func resolveMeeting(message string, working map[string]any) {
	if _, ok := tool.StringParam(working, "meeting_id", "meeting"); ok {
		return
	}
	known := tool.StringsParam(working, "known_meetings")
	if resolved, ok := ResolveEntity(message, known); ok {
		working["meeting_id"] = resolved
	}
}

// prepareStage 在进入阶段前补齐可推导的输入。
func prepareStage(toolID string, working map[string]any) {
	if toolID != "jira" {
		return
	}
	if len(tool.ListParam(working, "action_items", "items", "tasks")) > 0 {
		return
	}
	// 摘要没有产出行动项时，退回句子打分从转写里直接提取。
	chunks := tool.StringsParam(working, "processed_transcripts", "processed")
	if len(chunks) == 0 {
		return
	}
	extracted := extract.Tasks(strings.Join(chunks, "\n"), 0, 0)
	if len(extracted) == 0 {
		return
	}
	items := make([]any, 0, len(extracted))
	for _, item := range extracted {
		items = append(items, map[string]any{
			"summary":    item.Title,
			"owner":      item.Owner,
			"due":        item.Due,
			"confidence": item.Confidence,
		})
	}
	working["action_items"] = items
}

// mergeOutputs 把阶段产出写回工作参数，供后续阶段消费。
func mergeOutputs(toolID string, outcome tool.Outcome, working map[string]any) {
	switch toolID {
	case "transcript":
		if processed, ok := outcome.Payload["processed"].([]string); ok {
			working["processed_transcripts"] = processed
		}
	case "summarization":
		working["summary"] = outcome.Payload
		if items, ok := outcome.Payload["action_items"].([]any); ok && len(items) > 0 {
			working["action_items"] = items
			working["tasks"] = items
		}
	case "risk":
		if risks, ok := outcome.Payload["risks"].([]any); ok {
			working["risks"] = risks
		}
	}
}
