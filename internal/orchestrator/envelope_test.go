package orchestrator

import (
	"context"
	"testing"

	"MeetingMCP/internal/a2a"
	xerrors "MeetingMCP/internal/errors"
	"MeetingMCP/internal/tool"
)

func TestOrchestrateEnvelopeRoundTrip(t *testing.T) {
	var calls []recordedCall
	outcomes := map[string]tool.Outcome{
		"transcript": tool.Success(map[string]any{
			"processed": []string{"cleaned chunk"},
		}),
		"summarization": tool.Success(map[string]any{
			"summary": "release is on track",
			"action_items": []any{
				map[string]any{"summary": "Fix login bug", "owner": "Bob"},
				"follow up with legal",
			},
		}),
	}
	h := buildHost(t, &calls, outcomes)

	msg := a2a.New(a2a.RoleClient).
		AddText("summarize the sync").
		AddJSON(map[string]any{"transcripts": []any{"Alice: hello"}}).
		AddTextPart(a2a.KindMeetingID, "weekly-sync")

	reply, err := New(h).OrchestrateEnvelope(context.Background(), msg)
	if err != nil {
		t.Fatalf("OrchestrateEnvelope: %v", err)
	}
	if reply.Role != a2a.RoleAgent {
		t.Fatalf("reply role = %s, want agent", reply.Role)
	}
	if calls[0].params["meeting_id"] != "weekly-sync" {
		t.Fatalf("meeting part must feed params: %+v", calls[0].params)
	}

	if summary, ok := reply.FirstText(a2a.KindSummary); !ok || summary != "release is on track" {
		t.Fatalf("summary part missing: %q ok=%v", summary, ok)
	}
	tasks := reply.All(a2a.KindTask)
	if len(tasks) != 2 {
		t.Fatalf("expected 2 task parts, got %+v", tasks)
	}
	if tasks[0].Data["summary"] != "Fix login bug" || tasks[1].Text != "follow up with legal" {
		t.Fatalf("task parts must keep structured and text forms: %+v", tasks)
	}
	if results := reply.All(a2a.KindResult); len(results) != 2 {
		t.Fatalf("expected one result part per stage, got %+v", results)
	}
	meta, ok := reply.FirstData(a2a.KindJSON)
	if !ok || meta["intent"] != string(IntentSummarize) {
		t.Fatalf("intent metadata missing: %+v", meta)
	}
}

func TestOrchestrateEnvelopeRequiresInstruction(t *testing.T) {
	var calls []recordedCall
	h := buildHost(t, &calls, nil)

	msg := a2a.New(a2a.RoleClient).AddJSON(map[string]any{"summary": "done"})
	if _, err := New(h).OrchestrateEnvelope(context.Background(), msg); xerrors.CodeOf(err) != xerrors.CodeInvalidArgument {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}
