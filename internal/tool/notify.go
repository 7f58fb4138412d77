package tool

import (
	"context"
	"fmt"
	"time"

	"MeetingMCP/pkg/logger"
)

// TextPoster 是发送文本通知所需的最小能力。
type TextPoster interface {
	Post(ctx context.Context, text string) error
}

// NotificationTool 汇总会议结果并推送到通知渠道。
// 通知是尽力而为的：渠道未配置或推送失败都不算工具失败。
type NotificationTool struct {
	poster TextPoster
	now    func() time.Time
}

var _ Tool = (*NotificationTool)(nil)

// NewNotificationTool 创建通知工具。poster 为 nil 表示未配置渠道。
func NewNotificationTool(poster TextPoster) *NotificationTool {
	return &NotificationTool{poster: poster, now: time.Now}
}

func (t *NotificationTool) Describe() Descriptor {
	return Descriptor{
		ID:          "notification",
		Name:        "Meeting Notifier",
		Capability:  "notify",
		Description: "汇总会议结果并推送到 Slack 频道",
		Parameters: map[string]string{
			"meeting_id": "会议标识，别名 meeting",
			"summary":    "摘要文本或结构化摘要结果",
			"tasks":      "任务列表，别名 action_items",
			"risks":      "风险列表",
		},
	}
}

func (t *NotificationTool) Execute(ctx context.Context, params map[string]any) Outcome {
	meetingID, _ := StringParam(params, "meeting_id", "meeting")
	tasks := ListParam(params, "tasks", "action_items")
	risks := ListParam(params, "risks")

	summaryText := summaryAsText(params["summary"])
	payload := map[string]any{
		"meeting_id": meetingID,
		"summary":    summaryText,
		"num_tasks":  len(tasks),
		"risks":      risks,
		"timestamp":  t.now().UTC().Format(time.RFC3339),
	}

	notified := false
	if t.poster == nil {
		// 渠道未配置视为成功的空操作，只留日志。
		logger.L().Info("通知渠道未配置，跳过推送",
			"meeting_id", meetingID,
		)
		notified = true
	} else {
		text := fmt.Sprintf("Meeting %s summary: %s", meetingID, summaryText)
		if err := t.poster.Post(ctx, text); err != nil {
			logger.L().Warn("推送会议通知失败",
				"meeting_id", meetingID,
				"error", err,
			)
		} else {
			notified = true
		}
	}

	return Success(map[string]any{
		"payload":  payload,
		"notified": notified,
	})
}

func summaryAsText(summary any) string {
	switch v := summary.(type) {
	case string:
		return v
	case map[string]any:
		if text, ok := v["summary"].(string); ok {
			return text
		}
		return fmt.Sprintf("%v", v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
