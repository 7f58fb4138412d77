package orchestrator

import (
	"context"
	"testing"

	"MeetingMCP/internal/host"
	"MeetingMCP/internal/tool"
)

func TestDetectIntentOrderedRules(t *testing.T) {
	cases := []struct {
		message string
		intent  Intent
	}{
		{"please summarize the weekly sync", IntentSummarize},
		{"detect risk in the launch plan", IntentRisk},
		{"create jira tickets for these items", IntentJira},
		{"createissue for the migration", IntentJira},
		{"notify team about the outcome", IntentNotify},
		{"send notification to the channel", IntentNotify},
		{"preprocess the raw recording", IntentPreprocess},
		{"handle the standup end to end", IntentFull},
		// summarize 规则先于 risk 规则。
		{"summarize and flag any risk", IntentSummarize},
	}
	for _, tc := range cases {
		if got := DetectIntent(tc.message); got != tc.intent {
			t.Fatalf("DetectIntent(%q) = %s, want %s", tc.message, got, tc.intent)
		}
	}
}

func TestResolveEntityStages(t *testing.T) {
	candidates := []string{"weekly-sync", "q3-planning", "retro"}

	if got, ok := ResolveEntity(`summarize "q3-planning" please`, candidates); !ok || got != "q3-planning" {
		t.Fatalf("quoted resolution failed: %q ok=%v", got, ok)
	}
	if got, ok := ResolveEntity("summarize the meeting weekly-sync", candidates); !ok || got != "weekly-sync" {
		t.Fatalf("tail phrase resolution failed: %q ok=%v", got, ok)
	}
	if got, ok := ResolveEntity("anything about retro yesterday", candidates); !ok || got != "retro" {
		t.Fatalf("overlap resolution failed: %q ok=%v", got, ok)
	}
	if _, ok := ResolveEntity("completely unrelated text", candidates); ok {
		t.Fatalf("unrelated text must not resolve")
	}
	if _, ok := ResolveEntity("anything", nil); ok {
		t.Fatalf("no candidates must not resolve")
	}
}

type recordedCall struct {
	toolID string
	params map[string]any
}

type pipelineTool struct {
	id      string
	outcome tool.Outcome
	calls   *[]recordedCall
}

func (p *pipelineTool) Describe() tool.Descriptor {
	return tool.Descriptor{ID: p.id}
}

func (p *pipelineTool) Execute(ctx context.Context, params map[string]any) tool.Outcome {
	copied := make(map[string]any, len(params))
	for k, v := range params {
		copied[k] = v
	}
	*p.calls = append(*p.calls, recordedCall{toolID: p.id, params: copied})
	return p.outcome
}

func buildHost(t *testing.T, calls *[]recordedCall, outcomes map[string]tool.Outcome) *host.Host {
	t.Helper()
	h := host.New()
	for _, id := range []string{"transcript", "summarization", "risk", "jira", "notification"} {
		outcome, ok := outcomes[id]
		if !ok {
			outcome = tool.Success(map[string]any{})
		}
		if err := h.Register(&pipelineTool{id: id, outcome: outcome, calls: calls}); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}
	return h
}

func TestOrchestrateSummarizePipesChunks(t *testing.T) {
	var calls []recordedCall
	outcomes := map[string]tool.Outcome{
		"transcript": tool.Success(map[string]any{
			"processed": []string{"cleaned chunk"},
		}),
		"summarization": tool.Success(map[string]any{
			"summary":      "all good",
			"action_items": []any{},
		}),
	}
	h := buildHost(t, &calls, outcomes)

	result := New(h).Orchestrate(context.Background(), "summarize the sync", map[string]any{
		"transcripts": []any{"Alice: hello"},
	})

	if result.Intent != IntentSummarize {
		t.Fatalf("unexpected intent: %s", result.Intent)
	}
	if len(calls) != 2 || calls[0].toolID != "transcript" || calls[1].toolID != "summarization" {
		t.Fatalf("unexpected call order: %+v", calls)
	}
	piped, ok := calls[1].params["processed_transcripts"].([]string)
	if !ok || len(piped) != 1 || piped[0] != "cleaned chunk" {
		t.Fatalf("transcript output must pipe into summarization: %+v", calls[1].params)
	}
	if result.Degraded {
		t.Fatalf("successful pipeline must not be degraded")
	}
}

func TestOrchestrateDegradedContinuation(t *testing.T) {
	var calls []recordedCall
	outcomes := map[string]tool.Outcome{
		"summarization": tool.Errorf("backend down"),
		"risk": tool.Success(map[string]any{
			"risks": []any{"something"},
		}),
	}
	h := buildHost(t, &calls, outcomes)

	result := New(h).Orchestrate(context.Background(), "detect risk now", map[string]any{
		"transcripts": []any{"Alice: the release is delayed"},
	})

	if !result.Degraded {
		t.Fatalf("failed stage must mark the pipeline degraded")
	}
	if result.Results["summarization"].Status != tool.StatusError {
		t.Fatalf("failed outcome must be recorded: %+v", result.Results["summarization"])
	}
	if result.Results["risk"].Status != tool.StatusSuccess {
		t.Fatalf("later stages must still run: %+v", result.Results)
	}
}

func TestOrchestrateRecordsEveryStage(t *testing.T) {
	var calls []recordedCall
	h := buildHost(t, &calls, nil)

	// 没有任何输入时阶段也要执行并记录，缺输入由工具自己报告。
	result := New(h).Orchestrate(context.Background(), "handle the standup end to end", nil)

	pipeline := []string{"transcript", "summarization", "risk", "jira", "notification"}
	if len(calls) != len(pipeline) {
		t.Fatalf("every stage must execute, got %+v", calls)
	}
	for _, toolID := range pipeline {
		if _, ok := result.Results[toolID]; !ok {
			t.Fatalf("stage %s missing from results: %+v", toolID, result.Results)
		}
	}
}

func TestOrchestrateJiraFallsBackToSentenceExtraction(t *testing.T) {
	var calls []recordedCall
	outcomes := map[string]tool.Outcome{
		"transcript": tool.Success(map[string]any{
			"processed": []string{"alice will fix the index by friday."},
		}),
		"summarization": tool.Success(map[string]any{
			"summary":      "short sync",
			"action_items": []any{},
		}),
	}
	h := buildHost(t, &calls, outcomes)

	New(h).Orchestrate(context.Background(), "create jira for the sync", map[string]any{
		"transcripts": []any{"raw"},
	})

	var jiraCall *recordedCall
	for i := range calls {
		if calls[i].toolID == "jira" {
			jiraCall = &calls[i]
		}
	}
	if jiraCall == nil {
		t.Fatalf("jira stage must run: %+v", calls)
	}
	items, ok := jiraCall.params["action_items"].([]any)
	if !ok || len(items) == 0 {
		t.Fatalf("action items must be derived from sentences: %+v", jiraCall.params)
	}
}

func TestOrchestrateNotifyOnly(t *testing.T) {
	var calls []recordedCall
	h := buildHost(t, &calls, nil)

	result := New(h).Orchestrate(context.Background(), "notify team", map[string]any{
		"meeting_id": "weekly-sync",
		"summary":    "done",
	})

	if len(calls) != 1 || calls[0].toolID != "notification" {
		t.Fatalf("notify intent must only run notification: %+v", calls)
	}
	if result.Intent != IntentNotify {
		t.Fatalf("unexpected intent: %s", result.Intent)
	}
}

func TestOrchestrateResolvesMeetingFromMessage(t *testing.T) {
	var calls []recordedCall
	h := buildHost(t, &calls, nil)

	New(h).Orchestrate(context.Background(), `notify team about "weekly-sync"`, map[string]any{
		"known_meetings": []any{"weekly-sync", "retro"},
		"summary":        "done",
	})

	if len(calls) != 1 {
		t.Fatalf("expected one call, got %+v", calls)
	}
	if calls[0].params["meeting_id"] != "weekly-sync" {
		t.Fatalf("meeting must resolve from the message: %+v", calls[0].params)
	}
}
