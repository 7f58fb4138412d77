package risk

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"MeetingMCP/internal/clients"
	"MeetingMCP/pkg/logger"
)

// Risk 是从会议内容推断出的风险条目。
type Risk struct {
	ID          string `json:"id"`
	MeetingID   string `json:"meeting_id"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

// JiraRisk 是从 Jira 项目状态扫描出的风险条目。
type JiraRisk struct {
	Type        string `json:"type"`
	Key         string `json:"key"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Source      string `json:"source"`
	DueDate     string `json:"due_date,omitempty"`
	LastUpdated string `json:"last_updated,omitempty"`
	Priority    string `json:"priority,omitempty"`
}

// riskTerms 出现在摘要里即提示潜在延期或阻塞。
var riskTerms = []string{
	"delay", "delayed", "blocked", "blocking", "pending",
	"cannot", "error", "risk", "concern", "issue",
}

// manyTasksThreshold 之上的任务量提示范围或产能风险。
const manyTasksThreshold = 5

func genID() string {
	return "risk_" + uuid.NewString()[:8]
}

func blockerList(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		var out []string
		for _, item := range v {
			if text, ok := item.(string); ok {
				out = append(out, text)
			}
		}
		return out
	default:
		return nil
	}
}

// Detect 基于摘要与任务列表做启发式风险识别，每条风险都带上
// 所属会议标识。summary 允许是纯文本或带 risks 列表的结构化结果。
func Detect(meetingID string, summary any, tasks []any) []Risk {
	var risks []Risk

	summaryText := ""
	switch v := summary.(type) {
	case string:
		summaryText = v
	case map[string]any:
		if text, ok := v["summary"].(string); ok {
			summaryText = text
		}
		for _, blocker := range blockerList(v["risks"]) {
			if strings.TrimSpace(blocker) == "" {
				continue
			}
			risks = append(risks, Risk{
				ID:          genID(),
				MeetingID:   meetingID,
				Severity:    "high",
				Description: blocker,
				Source:      "summary",
			})
		}
	}

	lowered := strings.ToLower(summaryText)
	for _, term := range riskTerms {
		if strings.Contains(lowered, term) {
			risks = append(risks, Risk{
				ID:          genID(),
				MeetingID:   meetingID,
				Severity:    "medium",
				Description: "Detected terms indicating potential delay, blockage or concern.",
				Source:      "summary",
			})
			break
		}
	}

	if len(tasks) > manyTasksThreshold {
		risks = append(risks, Risk{
			ID:          genID(),
			MeetingID:   meetingID,
			Severity:    "medium",
			Description: "Many tasks created in a single meeting; review capacity and scope.",
			Source:      "tasks",
		})
	}

	if len(risks) == 0 {
		risks = append(risks, Risk{
			ID:          genID(),
			MeetingID:   meetingID,
			Severity:    "low",
			Description: "No immediate risks detected.",
			Source:      "analysis",
		})
	}
	return risks
}

// Searcher 是 Jira 扫描所需的最小查询能力。
type Searcher interface {
	Search(ctx context.Context, jql string, maxResults int) ([]clients.JiraIssue, error)
	ProjectKey() string
}

// DefaultStaleDays 之内没有更新的 Issue 视为停滞。
const DefaultStaleDays = 7

type jqlQuery struct {
	kind        string
	jql         string
	description string
}

// ScanJira 对 Jira 项目执行一组状态查询，把逾期、无人认领、
// 被阻塞、缺截止时间、长期未更新、最高优先级的 Issue 汇总为风险。
// 单个查询失败只记录日志，不影响其他查询。
func ScanJira(ctx context.Context, searcher Searcher, staleDays int) []JiraRisk {
	if searcher == nil {
		return nil
	}
	if staleDays <= 0 {
		staleDays = DefaultStaleDays
	}
	project := searcher.ProjectKey()
	staleBefore := time.Now().AddDate(0, 0, -staleDays).Format("2006-01-02")

	queries := []jqlQuery{
		{
			kind:        "overdue",
			jql:         fmt.Sprintf("project = %s AND duedate <= now() AND statusCategory != Done", project),
			description: "Issue is past its due date and not done.",
		},
		{
			kind:        "unassigned",
			jql:         fmt.Sprintf("project = %s AND assignee is EMPTY AND statusCategory != Done", project),
			description: "Issue has no assignee.",
		},
		{
			kind:        "blocked",
			jql:         fmt.Sprintf("project = %s AND (flagged = Impediment OR status = Blocked)", project),
			description: "Issue is flagged as blocked.",
		},
		{
			kind:        "no_due_date",
			jql:         fmt.Sprintf("project = %s AND duedate is EMPTY AND statusCategory != Done", project),
			description: "Issue has no due date.",
		},
		{
			kind:        "stale",
			jql:         fmt.Sprintf("project = %s AND updated <= %q AND statusCategory != Done", project, staleBefore),
			description: fmt.Sprintf("Issue has not been updated for %d days or more.", staleDays),
		},
		{
			kind:        "high_priority",
			jql:         fmt.Sprintf("project = %s AND priority = Highest AND statusCategory != Done", project),
			description: "Issue carries the highest priority.",
		},
	}

	var risks []JiraRisk
	for _, query := range queries {
		issues, err := searcher.Search(ctx, query.jql, 0)
		if err != nil {
			logger.L().Warn("Jira 风险查询失败",
				"kind", query.kind,
				"error", err,
			)
			continue
		}
		for _, issue := range issues {
			risks = append(risks, JiraRisk{
				Type:        query.kind,
				Key:         issue.Key,
				Summary:     issue.Fields.Summary,
				Description: query.description,
				Source:      "jira",
				DueDate:     issue.Fields.DueDate,
				LastUpdated: issue.Fields.Updated,
				Priority:    issue.Fields.Priority.Name,
			})
		}
	}
	return risks
}
