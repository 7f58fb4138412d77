package orchestrator

import (
	"context"

	"MeetingMCP/internal/a2a"
	xerrors "MeetingMCP/internal/errors"
	"MeetingMCP/internal/tool"
)

// OrchestrateEnvelope 以消息信封为边界执行一次编排：从客户端信封中
// 取出指令与参数，编排完成后把结果装回代理信封。指令取第一个文本
// 载荷，参数取第一个 JSON 载荷，会议标识载荷在参数缺省时生效。
func (o *Orchestrator) OrchestrateEnvelope(ctx context.Context, msg *a2a.Message) (*a2a.Message, error) {
	message, ok := msg.FirstText(a2a.KindText)
	if !ok || message == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "信封缺少文本指令载荷")
	}

	params := make(map[string]any)
	if data, ok := msg.FirstData(a2a.KindJSON); ok {
		for key, value := range data {
			params[key] = value
		}
	}
	if meetingID, ok := msg.FirstText(a2a.KindMeetingID); ok && meetingID != "" {
		if _, present := params["meeting_id"]; !present {
			params["meeting_id"] = meetingID
		}
	}

	result := o.Orchestrate(ctx, message, params)
	return envelopeFromResult(result), nil
}

// envelopeFromResult 把流水线结果展开为代理信封：摘要与行动项
// 作为独立的类型化载荷追加，每个阶段的完整产出保留在 result 载荷里，
// 消费方按需取首个或聚合全部。
func envelopeFromResult(result *PipelineResult) *a2a.Message {
	reply := a2a.New(a2a.RoleAgent)

	if outcome, ok := result.Results["summarization"]; ok && outcome.Status == tool.StatusSuccess {
		if summary, ok := outcome.Payload["summary"].(string); ok && summary != "" {
			reply.AddTextPart(a2a.KindSummary, summary)
		}
		if items, ok := outcome.Payload["action_items"].([]any); ok {
			for _, item := range items {
				switch value := item.(type) {
				case map[string]any:
					reply.AddDataPart(a2a.KindTask, value)
				case string:
					reply.AddTextPart(a2a.KindTask, value)
				}
			}
		}
	}

	for toolID, outcome := range result.Results {
		reply.AddDataPart(a2a.KindResult, map[string]any{
			"tool_id": toolID,
			"status":  string(outcome.Status),
			"payload": outcome.Payload,
			"message": outcome.Message,
		})
	}

	reply.AddDataPart(a2a.KindJSON, map[string]any{
		"intent":   string(result.Intent),
		"degraded": result.Degraded,
	})
	return reply
}
