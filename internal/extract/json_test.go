package extract

import (
	stdErrors "errors"
	"testing"

	xerrors "MeetingMCP/internal/errors"
)

func TestLastJSONObjectPicksFinalObject(t *testing.T) {
	text := "Here is the format: {\"summary\": [\"<summary bullet 1>\"]}\n" +
		"And the real answer:\n{\"summary\": [\"ship the beta\"], \"action_items\": []}"

	candidate, ok := LastJSONObject(text)
	if !ok {
		t.Fatalf("expected to find a json object")
	}
	if candidate != `{"summary": ["ship the beta"], "action_items": []}` {
		t.Fatalf("unexpected candidate: %s", candidate)
	}
}

func TestLastJSONObjectSkipsStrayClosingBrace(t *testing.T) {
	text := "} noise before {\"key\": \"value\"} trailing prose"
	candidate, ok := LastJSONObject(text)
	if !ok || candidate != `{"key": "value"}` {
		t.Fatalf("unexpected candidate: %q ok=%v", candidate, ok)
	}
}

func TestLastJSONObjectHandlesNesting(t *testing.T) {
	text := `result: {"outer": {"inner": [1, 2]}, "done": true}`
	candidate, ok := LastJSONObject(text)
	if !ok || candidate != `{"outer": {"inner": [1, 2]}, "done": true}` {
		t.Fatalf("unexpected candidate: %q ok=%v", candidate, ok)
	}
}

func TestRepairSingleQuotesAndTrailingComma(t *testing.T) {
	repaired := Repair(`{'summary': ['x',]}`)
	if repaired != `{"summary": ["x"]}` {
		t.Fatalf("unexpected repair output: %s", repaired)
	}
}

func TestRepairKeepsApostrophes(t *testing.T) {
	// 双引号占多数时，单引号视为正文中的撇号，不做替换。
	input := `{"note": "it's Bob's task"}`
	if repaired := Repair(input); repaired != input {
		t.Fatalf("apostrophes must survive repair: %s", repaired)
	}
}

func TestParseObjectFailureCode(t *testing.T) {
	_, err := ParseObject("no structured payload here")
	if err == nil {
		t.Fatalf("expected an error")
	}
	if xerrors.CodeOf(err) != xerrors.CodeExtractionFailure {
		t.Fatalf("expected extraction failure code, got %s", xerrors.CodeOf(err))
	}

	var typed *xerrors.Error
	if !stdErrors.As(err, &typed) {
		t.Fatalf("expected a typed error, got %T", err)
	}
}

func TestParseObjectRecoversLooseOutput(t *testing.T) {
	parsed, err := ParseObject("```json\n{'summary': ['review rollout',], 'action_items': [],}\n```")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	summary, ok := parsed["summary"].([]any)
	if !ok || len(summary) != 1 || summary[0] != "review rollout" {
		t.Fatalf("unexpected summary: %+v", parsed["summary"])
	}
}
