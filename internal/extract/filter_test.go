package extract

import (
	"reflect"
	"testing"
)

func TestValidSummaryItem(t *testing.T) {
	valid := []string{
		"Release slipped one week",
		"1. Review the migration plan",
	}
	for _, item := range valid {
		if !ValidSummaryItem(item) {
			t.Fatalf("expected %q to be valid", item)
		}
	}

	invalid := []string{
		"", "   ", "-", "point 1", "Point 2", "point1",
		"<summary bullet 1>", "<summary bullet 2>", "point 7 follow up",
		"<anything in brackets>",
		// 尖括号夹在正文中间的模板回显同样要被拒绝。
		"Review the <task> item before release",
		"Assign <owner> by <deadline>",
	}
	for _, item := range invalid {
		if ValidSummaryItem(item) {
			t.Fatalf("expected %q to be rejected", item)
		}
	}
}

func TestValidActionItem(t *testing.T) {
	if ValidActionItem(map[string]any{"summary": "<task>", "owner": ""}) {
		t.Fatalf("placeholder action item must be rejected")
	}
	if !ValidActionItem(map[string]any{"summary": "Fix login bug", "owner": "Bob"}) {
		t.Fatalf("real action item must be kept")
	}
	if ValidActionItem(map[string]any{}) {
		t.Fatalf("empty action item must be rejected")
	}
	if ValidActionItem("<owner>") {
		t.Fatalf("placeholder string must be rejected")
	}
	if !ValidActionItem("Schedule the retro") {
		t.Fatalf("real string item must be kept")
	}
	if ValidActionItem(nil) {
		t.Fatalf("nil item must be rejected")
	}
}

func TestDedupStringsKeepsFirstForm(t *testing.T) {
	got := DedupStrings([]string{"Ship the beta", "  ship the beta  ", "Plan Q4"})
	want := []string{"Ship the beta", "Plan Q4"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected dedup result: %v", got)
	}
}

func TestDedupItemsStructuredFingerprint(t *testing.T) {
	// 键顺序不同的同一对象视为重复。
	items := []any{
		map[string]any{"task": "Fix bug", "owner": "Bob"},
		map[string]any{"owner": "Bob", "task": "Fix bug"},
		"follow up with legal",
		"Follow up with legal",
		map[string]any{"task": "Fix bug", "owner": "Carol"},
	}
	got := DedupItems(items)
	if len(got) != 3 {
		t.Fatalf("expected 3 unique items, got %d: %v", len(got), got)
	}
	if got[1] != "follow up with legal" {
		t.Fatalf("first occurrence must win: %v", got[1])
	}
}

func TestDedupItemsIdempotent(t *testing.T) {
	items := []any{
		map[string]any{"task": "Fix bug"},
		"review docs",
		map[string]any{"task": "Fix bug"},
	}
	once := DedupItems(items)
	twice := DedupItems(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("dedup must be idempotent: %v vs %v", once, twice)
	}
}
