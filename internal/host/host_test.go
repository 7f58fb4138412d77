package host

import (
	"context"
	"testing"

	"MeetingMCP/internal/tool"
)

type stubTool struct {
	id      string
	outcome tool.Outcome
	panics  bool
}

func (s *stubTool) Describe() tool.Descriptor {
	return tool.Descriptor{ID: s.id, Name: s.id}
}

func (s *stubTool) Execute(ctx context.Context, params map[string]any) tool.Outcome {
	if s.panics {
		panic("tool exploded")
	}
	return s.outcome
}

func TestHostRegisterConflict(t *testing.T) {
	h := New()
	if err := h.Register(&stubTool{id: "echo"}); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if err := h.Register(&stubTool{id: "echo"}); err == nil {
		t.Fatalf("duplicate registration must fail")
	}
}

func TestHostToolsSorted(t *testing.T) {
	h := New()
	for _, id := range []string{"zeta", "alpha", "mid"} {
		if err := h.Register(&stubTool{id: id}); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}
	descriptors := h.Tools()
	if len(descriptors) != 3 {
		t.Fatalf("expected 3 descriptors, got %d", len(descriptors))
	}
	if descriptors[0].ID != "alpha" || descriptors[2].ID != "zeta" {
		t.Fatalf("descriptors must be sorted: %+v", descriptors)
	}
}

func TestHostSessionLifecycle(t *testing.T) {
	h := New()
	session := h.CreateSession("http-client")
	if session.ID == "" || session.Owner != "http-client" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if h.SessionCount() != 1 {
		t.Fatalf("expected 1 session, got %d", h.SessionCount())
	}
	if !h.EndSession(session.ID) {
		t.Fatalf("ending a live session must succeed")
	}
	if h.EndSession(session.ID) {
		t.Fatalf("ending twice must fail")
	}
}

func TestHostExecuteDispatch(t *testing.T) {
	h := New()
	want := tool.Success(map[string]any{"echo": true})
	if err := h.Register(&stubTool{id: "echo", outcome: want}); err != nil {
		t.Fatalf("register: %v", err)
	}
	session := h.CreateSession("test")

	outcome := h.Execute(context.Background(), session.ID, "echo", nil)
	if outcome.Status != tool.StatusSuccess || outcome.Payload["echo"] != true {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}

func TestHostExecuteUnknownTool(t *testing.T) {
	h := New()
	session := h.CreateSession("test")

	outcome := h.Execute(context.Background(), session.ID, "missing", nil)
	if outcome.Status != tool.StatusError {
		t.Fatalf("expected error outcome, got %+v", outcome)
	}
	if outcome.Payload["code"] != "TOOL_NOT_FOUND" {
		t.Fatalf("expected tool not found code, got %+v", outcome.Payload)
	}
}

func TestHostExecuteInvalidSession(t *testing.T) {
	h := New()
	if err := h.Register(&stubTool{id: "echo"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	outcome := h.Execute(context.Background(), "nope", "echo", nil)
	if outcome.Status != tool.StatusError {
		t.Fatalf("expected error outcome, got %+v", outcome)
	}
}

func TestHostExecuteRecoversPanic(t *testing.T) {
	h := New()
	if err := h.Register(&stubTool{id: "boom", panics: true}); err != nil {
		t.Fatalf("register: %v", err)
	}
	session := h.CreateSession("test")

	outcome := h.Execute(context.Background(), session.ID, "boom", nil)
	if outcome.Status != tool.StatusError {
		t.Fatalf("panic must surface as error outcome, got %+v", outcome)
	}
}
