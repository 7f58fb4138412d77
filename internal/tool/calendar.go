package tool

import (
	"context"

	"MeetingMCP/internal/clients"
)

// CalendarTool 代理日历服务的日程操作。
type CalendarTool struct {
	client *clients.CalendarClient
}

var _ Tool = (*CalendarTool)(nil)

// NewCalendarTool 创建日历工具。client 为 nil 表示未接入日历服务。
func NewCalendarTool(client *clients.CalendarClient) *CalendarTool {
	return &CalendarTool{client: client}
}

func (t *CalendarTool) Describe() Descriptor {
	return Descriptor{
		ID:          "calendar",
		Name:        "Calendar Connector",
		Capability:  "calendar",
		Description: "创建、查询会议日程与空闲时间",
		Parameters: map[string]string{
			"action":      "create/availability/fetch/list",
			"calendar_id": "覆盖默认日历",
			"event":       "create 动作的日程内容",
			"event_id":    "fetch 动作的日程标识",
			"start":       "availability 的时间窗起点",
			"end":         "availability 的时间窗终点",
		},
	}
}

func (t *CalendarTool) Execute(ctx context.Context, params map[string]any) Outcome {
	if t.client == nil {
		return Skipped("日历服务未配置", nil)
	}

	action, ok := StringParam(params, "action")
	if !ok {
		return Errorf("缺少 action 参数")
	}
	calendarID, _ := StringParam(params, "calendar_id")

	switch action {
	case "create":
		event, ok := MapParam(params, "event")
		if !ok {
			return Errorf("create 动作缺少 event 参数")
		}
		resp, err := t.client.CreateEvent(ctx, calendarID, event)
		if err != nil {
			return Errorf("创建日程失败: %v", err)
		}
		return Success(map[string]any{"event": resp})
	case "availability":
		start, _ := StringParam(params, "start")
		end, _ := StringParam(params, "end")
		resp, err := t.client.Availability(ctx, calendarID, start, end)
		if err != nil {
			return Errorf("查询空闲时间失败: %v", err)
		}
		return Success(map[string]any{"availability": resp})
	case "fetch":
		eventID, ok := StringParam(params, "event_id")
		if !ok {
			return Errorf("fetch 动作缺少 event_id 参数")
		}
		resp, err := t.client.FetchEvent(ctx, calendarID, eventID)
		if err != nil {
			return Errorf("读取日程失败: %v", err)
		}
		return Success(map[string]any{"event": resp})
	case "list":
		resp, err := t.client.ListEvents(ctx, calendarID)
		if err != nil {
			return Errorf("列出日程失败: %v", err)
		}
		return Success(map[string]any{"events": resp})
	default:
		return Errorf("不支持的日历动作: %s", action)
	}
}
