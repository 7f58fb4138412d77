package tool

import (
	"context"
	"testing"

	"MeetingMCP/internal/clients"
	"MeetingMCP/internal/risk"
)

type stubSearcher struct {
	calls int
}

func (s *stubSearcher) Search(ctx context.Context, jql string, maxResults int) ([]clients.JiraIssue, error) {
	s.calls++
	return nil, nil
}

func (s *stubSearcher) ProjectKey() string { return "MEET" }

func TestRiskToolLocalHeuristicsOnly(t *testing.T) {
	rt := NewRiskTool(nil, false)
	outcome := rt.Execute(context.Background(), map[string]any{
		"summary": "the rollout is blocked on infra",
	})
	if outcome.Status != StatusSuccess {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	merged, ok := outcome.Payload["risks"].([]any)
	if !ok || len(merged) == 0 {
		t.Fatalf("expected merged risks, got %+v", outcome.Payload)
	}
}

func TestRiskToolThreadsMeetingID(t *testing.T) {
	rt := NewRiskTool(nil, false)
	outcome := rt.Execute(context.Background(), map[string]any{
		"meeting": "weekly-sync",
		"summary": "the rollout is blocked on infra",
	})
	if outcome.Status != StatusSuccess {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	summaryRisks, ok := outcome.Payload["summary_risks"].([]risk.Risk)
	if !ok || len(summaryRisks) == 0 {
		t.Fatalf("expected summary risks, got %+v", outcome.Payload)
	}
	for _, r := range summaryRisks {
		if r.MeetingID != "weekly-sync" {
			t.Fatalf("meeting id must reach every risk: %+v", r)
		}
	}
}

func TestRiskToolJiraScanDefault(t *testing.T) {
	searcher := &stubSearcher{}
	rt := NewRiskTool(searcher, true)
	rt.Execute(context.Background(), map[string]any{"summary": "fine"})
	if searcher.calls != 6 {
		t.Fatalf("expected 6 jira queries, got %d", searcher.calls)
	}
}

func TestRiskToolIncludeJiraOverride(t *testing.T) {
	searcher := &stubSearcher{}
	rt := NewRiskTool(searcher, true)
	rt.Execute(context.Background(), map[string]any{
		"summary":      "fine",
		"include_jira": false,
	})
	if searcher.calls != 0 {
		t.Fatalf("explicit include_jira=false must skip the scan, got %d calls", searcher.calls)
	}
}
