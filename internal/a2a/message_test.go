package a2a

import (
	"testing"
)

func TestMessagePartsPreserveOrder(t *testing.T) {
	msg := New(RoleAgent)
	msg.AddTextPart(KindSummary, "first summary")
	msg.AddText("plain text")
	msg.AddTextPart(KindSummary, "second summary")
	msg.AddDataPart(KindResult, map[string]any{"notified": true})

	if msg.ID == "" {
		t.Fatalf("expected a generated message id")
	}
	if len(msg.Parts) != 4 {
		t.Fatalf("expected 4 parts, got %d", len(msg.Parts))
	}

	first, ok := msg.FirstText(KindSummary)
	if !ok || first != "first summary" {
		t.Fatalf("expected first summary part, got %q ok=%v", first, ok)
	}

	all := msg.All(KindSummary)
	if len(all) != 2 {
		t.Fatalf("expected 2 summary parts, got %d", len(all))
	}
	if all[0].Text != "first summary" || all[1].Text != "second summary" {
		t.Fatalf("summary parts out of order: %+v", all)
	}
}

func TestMessageUniqueIDs(t *testing.T) {
	a := New(RoleClient)
	b := New(RoleClient)
	if a.ID == b.ID {
		t.Fatalf("expected distinct message ids, both were %s", a.ID)
	}
}

func TestMessageUnknownKindSkipped(t *testing.T) {
	msg := New(RoleAgent)
	msg.Add(Part{Kind: PartKind("hologram"), Text: "future payload"})
	msg.AddTextPart(KindMeetingID, "m-1")

	if _, ok := msg.First(PartKind("hologram")); ok {
		t.Fatalf("unknown kinds must not be consumable")
	}
	if parts := msg.All(PartKind("hologram")); parts != nil {
		t.Fatalf("unknown kinds must aggregate to nil, got %+v", parts)
	}

	id, ok := msg.FirstText(KindMeetingID)
	if !ok || id != "m-1" {
		t.Fatalf("known kinds must still resolve, got %q ok=%v", id, ok)
	}
}

func TestMessageFirstDataMissing(t *testing.T) {
	msg := New(RoleClient)
	msg.AddText("only text")
	if _, ok := msg.FirstData(KindJSON); ok {
		t.Fatalf("expected no json part")
	}
}
