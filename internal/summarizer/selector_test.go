package summarizer

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubBackend struct {
	result *Result
	err    error
	calls  int
}

func (s *stubBackend) Summarize(ctx context.Context, chunks []string) (*Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func holderFor(backend Backend) *Holder {
	return NewHolder(func() (Backend, error) { return backend, nil })
}

func TestSelectorAutoPrefersLocalBackend(t *testing.T) {
	local := &stubBackend{result: &Result{Summary: "local summary"}}
	remote := &stubBackend{result: &Result{Summary: "remote summary"}}
	selector := NewSelector(ModeAuto, holderFor(local), holderFor(remote))

	result := selector.Summarize(context.Background(), "", []string{"chunk one", "chunk two"})
	if result.Summary != "local summary" {
		t.Fatalf("expected local summary, got %q", result.Summary)
	}
	if result.Mode != ModeBart {
		t.Fatalf("expected bart mode, got %q", result.Mode)
	}
	if remote.calls != 0 {
		t.Fatalf("remote backend must not be called, got %d calls", remote.calls)
	}
	if result.TranscriptLength != len("chunk one\nchunk two") {
		t.Fatalf("unexpected transcript length %d", result.TranscriptLength)
	}
}

func TestSelectorAutoFallsBackToRemote(t *testing.T) {
	local := &stubBackend{err: errors.New("model missing")}
	remote := &stubBackend{result: &Result{Summary: "remote summary"}}
	selector := NewSelector(ModeAuto, holderFor(local), holderFor(remote))

	result := selector.Summarize(context.Background(), "", []string{"chunk"})
	if result.Summary != "remote summary" || result.Mode != ModeMistral {
		t.Fatalf("expected remote fallback, got %+v", result)
	}
}

func TestSelectorMistralModeFallsBackToLocal(t *testing.T) {
	local := &stubBackend{result: &Result{Summary: "local summary"}}
	remote := &stubBackend{err: errors.New("api down")}
	selector := NewSelector(ModeMistral, holderFor(local), holderFor(remote))

	result := selector.Summarize(context.Background(), "", []string{"chunk"})
	if result.Summary != "local summary" || result.Mode != ModeBart {
		t.Fatalf("expected local fallback, got %+v", result)
	}
	if remote.calls != 1 {
		t.Fatalf("remote backend should be attempted first, got %d calls", remote.calls)
	}
}

func TestSelectorExcerptWhenAllBackendsFail(t *testing.T) {
	local := &stubBackend{err: errors.New("model missing")}
	remote := &stubBackend{err: errors.New("api down")}
	selector := NewSelector(ModeAuto, holderFor(local), holderFor(remote))

	long := strings.Repeat("w", 400)
	result := selector.Summarize(context.Background(), "", []string{long})
	if result.Mode != ModeExcerpt {
		t.Fatalf("expected excerpt mode, got %q", result.Mode)
	}
	if len(result.Summary) != excerptLimit+3 || !strings.HasSuffix(result.Summary, "...") {
		t.Fatalf("unexpected excerpt: %d chars", len(result.Summary))
	}
}

func TestSelectorBartModeSkipsRemote(t *testing.T) {
	remote := &stubBackend{result: &Result{Summary: "remote summary"}}
	selector := NewSelector(ModeBart, nil, holderFor(remote))

	result := selector.Summarize(context.Background(), "", []string{"short chunk"})
	if result.Mode != ModeExcerpt {
		t.Fatalf("bart mode must not reach remote backend, got %q", result.Mode)
	}
	if result.Summary != "short chunk" {
		t.Fatalf("short transcript excerpt must be verbatim, got %q", result.Summary)
	}
	if remote.calls != 0 {
		t.Fatalf("remote backend must stay untouched, got %d calls", remote.calls)
	}
}

func TestSelectorRequestModeOverride(t *testing.T) {
	local := &stubBackend{result: &Result{Summary: "local summary"}}
	remote := &stubBackend{result: &Result{Summary: "remote summary"}}
	selector := NewSelector(ModeBart, holderFor(local), holderFor(remote))

	result := selector.Summarize(context.Background(), ModeMistral, []string{"chunk"})
	if result.Summary != "remote summary" || result.Mode != ModeMistral {
		t.Fatalf("per-request mode must win, got %+v", result)
	}
}

func TestSelectorEmptySummaryPlaceholder(t *testing.T) {
	local := &stubBackend{result: &Result{Summary: "   "}}
	selector := NewSelector(ModeBart, holderFor(local), nil)

	result := selector.Summarize(context.Background(), "", []string{"chunk"})
	if result.Summary != emptySummaryText {
		t.Fatalf("expected placeholder summary, got %q", result.Summary)
	}
}

func TestHolderCachesBuildError(t *testing.T) {
	builds := 0
	holder := NewHolder(func() (Backend, error) {
		builds++
		return nil, errors.New("init failed")
	})
	if _, err := holder.Get(); err == nil {
		t.Fatalf("expected build error")
	}
	if _, err := holder.Get(); err == nil {
		t.Fatalf("expected cached build error")
	}
	if builds != 1 {
		t.Fatalf("build must run once, ran %d times", builds)
	}
}
