package tool

import (
	"context"

	"MeetingMCP/internal/risk"
)

// RiskTool 对会议摘要与任务做启发式风险识别，
// 并按配置附带 Jira 项目状态扫描。
type RiskTool struct {
	searcher        risk.Searcher
	scanJiraDefault bool
}

var _ Tool = (*RiskTool)(nil)

// NewRiskTool 创建风险识别工具。searcher 为 nil 时只做本地启发式分析。
func NewRiskTool(searcher risk.Searcher, scanJiraDefault bool) *RiskTool {
	return &RiskTool{searcher: searcher, scanJiraDefault: scanJiraDefault}
}

func (t *RiskTool) Describe() Descriptor {
	return Descriptor{
		ID:          "risk",
		Name:        "Risk Detector",
		Capability:  "detect_risk",
		Description: "识别会议内容与 Jira 项目状态中的风险",
		Parameters: map[string]string{
			"meeting_id":   "会议标识，别名 meeting",
			"summary":      "摘要文本或结构化摘要结果",
			"tasks":        "任务列表，别名 action_items",
			"include_jira": "是否附带 Jira 扫描，缺省取服务端配置",
			"days_stale":   "停滞判定天数，默认 7",
		},
	}
}

func (t *RiskTool) Execute(ctx context.Context, params map[string]any) Outcome {
	meetingID, _ := StringParam(params, "meeting_id", "meeting")
	summary := params["summary"]
	tasks := ListParam(params, "tasks", "action_items", "items")

	summaryRisks := risk.Detect(meetingID, summary, tasks)

	includeJira := t.scanJiraDefault && t.searcher != nil
	if explicit, ok := BoolParam(params, "include_jira"); ok {
		includeJira = explicit && t.searcher != nil
	}

	var jiraRisks []risk.JiraRisk
	if includeJira {
		staleDays, _ := IntParam(params, "days_stale")
		jiraRisks = risk.ScanJira(ctx, t.searcher, staleDays)
	}

	merged := make([]any, 0, len(summaryRisks)+len(jiraRisks))
	for _, r := range summaryRisks {
		merged = append(merged, r)
	}
	for _, r := range jiraRisks {
		merged = append(merged, r)
	}

	return Success(map[string]any{
		"risks":         merged,
		"summary_risks": summaryRisks,
		"jira_risks":    jiraRisks,
	})
}
