package tool

import (
	"context"
	"fmt"
	"strings"

	"MeetingMCP/internal/clients"
	"MeetingMCP/pkg/logger"
)

// IssueCreator 是创建 Jira Issue 所需的最小能力。
type IssueCreator interface {
	CreateIssue(ctx context.Context, summary, description, issueType string) (string, error)
}

// JiraTool 把会议行动项逐条落为 Jira Issue。
// 单条失败不影响其余条目，每条都有独立的状态与原因。
type JiraTool struct {
	creator IssueCreator
}

var _ Tool = (*JiraTool)(nil)
var _ IssueCreator = (*clients.JiraClient)(nil)

// NewJiraTool 创建 Jira 工具。creator 为 nil 表示未配置凭证。
func NewJiraTool(creator IssueCreator) *JiraTool {
	return &JiraTool{creator: creator}
}

func (t *JiraTool) Describe() Descriptor {
	return Descriptor{
		ID:           "jira",
		Name:         "Jira Issue Creator",
		Capability:   "create_issue",
		Description:  "把会议行动项创建为 Jira Issue",
		RequiresAuth: true,
		Parameters: map[string]string{
			"action_items": "行动项列表，别名 items/tasks",
		},
	}
}

func (t *JiraTool) Execute(ctx context.Context, params map[string]any) Outcome {
	items := ListParam(params, "action_items", "items", "tasks")
	if len(items) == 0 {
		return Errorf("缺少 action_items 参数")
	}

	if t.creator == nil {
		results := make([]map[string]any, 0, len(items))
		for _, item := range items {
			entry := itemEntry(item)
			entry["jira_issue_key"] = nil
			entry["status"] = "skipped"
			entry["reason"] = "jira credentials missing"
			results = append(results, entry)
		}
		return Skipped("Jira 凭证未配置", map[string]any{"created_tasks": results})
	}

	created := 0
	results := make([]map[string]any, 0, len(items))
	for _, item := range items {
		entry := itemEntry(item)
		title, _ := entry["title"].(string)
		owner, _ := entry["owner"].(string)
		due, _ := entry["due"].(string)
		issueType := itemIssueType(item)

		key, err := t.creator.CreateIssue(ctx, title, issueDescription(owner, due), issueType)
		if err != nil {
			logger.L().Warn("创建 Jira Issue 失败",
				"title", title,
				"error", err,
			)
			entry["jira_issue_key"] = nil
			entry["status"] = "error"
			entry["reason"] = err.Error()
		} else {
			entry["jira_issue_key"] = key
			entry["status"] = "created"
			created++
		}
		results = append(results, entry)
	}

	return Success(map[string]any{
		"created_tasks": results,
		"created":       created,
	})
}

// itemEntry 把一条行动项规整为 title/owner/due 三元组。
// 结构化条目按别名取值，纯文本条目整体作为标题。
func itemEntry(item any) map[string]any {
	entry := map[string]any{"title": "", "owner": "", "due": ""}
	switch v := item.(type) {
	case map[string]any:
		if title, ok := StringParam(v, "summary", "task", "title"); ok {
			entry["title"] = title
		} else {
			entry["title"] = fmt.Sprintf("%v", v)
		}
		if owner, ok := StringParam(v, "owner", "assignee", "assigned_to"); ok {
			entry["owner"] = owner
		}
		if due, ok := StringParam(v, "due", "deadline", "due_date"); ok {
			entry["due"] = due
		}
	case string:
		entry["title"] = v
	default:
		entry["title"] = fmt.Sprintf("%v", item)
	}
	return entry
}

func itemIssueType(item any) string {
	if m, ok := item.(map[string]any); ok {
		if issueType, ok := StringParam(m, "issue_type", "issuetype"); ok {
			return issueType
		}
	}
	return "Task"
}

func issueDescription(owner, due string) string {
	if strings.TrimSpace(owner) == "" {
		owner = "Unassigned"
	}
	if strings.TrimSpace(due) == "" {
		due = "Unspecified"
	}
	return fmt.Sprintf("Created from meeting. Owner: %s\nDue: %s", owner, due)
}
