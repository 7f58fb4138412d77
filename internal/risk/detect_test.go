package risk

import (
	"context"
	"errors"
	"strings"
	"testing"

	"MeetingMCP/internal/clients"
)

func TestDetectBlockersFromStructuredSummary(t *testing.T) {
	summary := map[string]any{
		"summary": "release planning",
		"risks":   []any{"vendor contract unsigned", ""},
	}
	risks := Detect("weekly-sync", summary, nil)

	high := 0
	for _, r := range risks {
		if r.MeetingID != "weekly-sync" {
			t.Fatalf("every risk must carry the meeting id: %+v", r)
		}
		if r.Severity == "high" {
			high++
			if r.Source != "summary" {
				t.Fatalf("blocker source must be summary, got %q", r.Source)
			}
		}
	}
	if high != 1 {
		t.Fatalf("expected 1 high risk, got %d: %+v", high, risks)
	}
}

func TestDetectRiskTermsOnce(t *testing.T) {
	risks := Detect("m1", "the rollout is delayed and blocked on infra", nil)
	medium := 0
	for _, r := range risks {
		if r.Severity == "medium" {
			medium++
		}
	}
	// 多个命中词只产生一条风险。
	if medium != 1 {
		t.Fatalf("expected exactly 1 medium risk, got %d", medium)
	}
}

func TestDetectManyTasks(t *testing.T) {
	tasks := make([]any, 6)
	risks := Detect("m1", "all fine here", tasks)

	found := false
	for _, r := range risks {
		if r.Source == "tasks" {
			found = true
			if !strings.Contains(r.Description, "capacity") {
				t.Fatalf("unexpected description: %q", r.Description)
			}
		}
	}
	if !found {
		t.Fatalf("expected a task volume risk: %+v", risks)
	}
}

func TestDetectNoRisksFallback(t *testing.T) {
	risks := Detect("retro", "short status sync", nil)
	if len(risks) != 1 {
		t.Fatalf("expected single fallback risk, got %d", len(risks))
	}
	if risks[0].Severity != "low" || risks[0].Source != "analysis" {
		t.Fatalf("unexpected fallback risk: %+v", risks[0])
	}
	if risks[0].MeetingID != "retro" {
		t.Fatalf("fallback risk must carry the meeting id: %+v", risks[0])
	}
	if risks[0].ID == "" || !strings.HasPrefix(risks[0].ID, "risk_") {
		t.Fatalf("risk ids must carry the risk_ prefix: %q", risks[0].ID)
	}
}

type stubSearcher struct {
	issues  map[string][]clients.JiraIssue
	failAll bool
	queries []string
}

func (s *stubSearcher) Search(ctx context.Context, jql string, maxResults int) ([]clients.JiraIssue, error) {
	s.queries = append(s.queries, jql)
	if s.failAll {
		return nil, errors.New("jira unreachable")
	}
	for marker, issues := range s.issues {
		if strings.Contains(jql, marker) {
			return issues, nil
		}
	}
	return nil, nil
}

func (s *stubSearcher) ProjectKey() string { return "MEET" }

func TestScanJiraCollectsIssues(t *testing.T) {
	overdue := clients.JiraIssue{Key: "MEET-1"}
	overdue.Fields.Summary = "fix checkout flow"
	overdue.Fields.DueDate = "2026-08-01"

	searcher := &stubSearcher{
		issues: map[string][]clients.JiraIssue{
			"duedate <= now()": {overdue},
		},
	}
	risks := ScanJira(context.Background(), searcher, 0)

	if len(searcher.queries) != 6 {
		t.Fatalf("expected 6 jql queries, got %d", len(searcher.queries))
	}
	if len(risks) != 1 {
		t.Fatalf("expected 1 risk, got %d: %+v", len(risks), risks)
	}
	r := risks[0]
	if r.Type != "overdue" || r.Key != "MEET-1" || r.Source != "jira" {
		t.Fatalf("unexpected risk: %+v", r)
	}
	if r.DueDate != "2026-08-01" {
		t.Fatalf("due date must carry over: %+v", r)
	}
}

func TestScanJiraToleratesQueryFailures(t *testing.T) {
	searcher := &stubSearcher{failAll: true}
	risks := ScanJira(context.Background(), searcher, 7)
	if len(searcher.queries) != 6 {
		t.Fatalf("all queries must still run, got %d", len(searcher.queries))
	}
	if len(risks) != 0 {
		t.Fatalf("expected no risks on failure, got %+v", risks)
	}
}

func TestScanJiraNilSearcher(t *testing.T) {
	if risks := ScanJira(context.Background(), nil, 7); risks != nil {
		t.Fatalf("nil searcher must produce no risks, got %+v", risks)
	}
}
