package job

import (
	"context"
	stdErrors "errors"
	"testing"

	xerrors "MeetingMCP/internal/errors"
)

type failingProducer struct {
	err error
}

func (p *failingProducer) Publish(context.Context, string) error { return p.err }
func (p *failingProducer) Close() error                          { return nil }

func TestServiceSubmitValidation(t *testing.T) {
	service := NewService(NewMemoryStore(), NewMemoryQueue(4), 3)
	if _, err := service.Submit(context.Background(), SubmitRequest{Message: "   "}); err == nil {
		t.Fatal("expected validation error for empty message")
	} else if xerrors.CodeOf(err) != CodeJobValidation {
		t.Fatalf("unexpected error code: %s", xerrors.CodeOf(err))
	}
}

func TestServiceSubmitIdempotent(t *testing.T) {
	ctx := context.Background()
	service := NewService(NewMemoryStore(), NewMemoryQueue(4), 3)

	first, err := service.Submit(ctx, SubmitRequest{ID: "fixed", Message: "summarize the sync"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	second, err := service.Submit(ctx, SubmitRequest{ID: "fixed", Message: "another message"})
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if second.ID != first.ID || second.Message != first.Message {
		t.Fatalf("resubmission should return the existing job, got %+v", second)
	}
}

func TestServiceSubmitPublishFailure(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	producer := &failingProducer{err: stdErrors.New("broker down")}
	service := NewService(store, producer, 3)

	_, err := service.Submit(ctx, SubmitRequest{Message: "summarize the sync"})
	if err == nil {
		t.Fatal("expected publish error")
	}
	if xerrors.CodeOf(err) != CodeJobPublish {
		t.Fatalf("unexpected error code: %s", xerrors.CodeOf(err))
	}

	jobs, listErr := store.List(ctx, ListOptions{})
	if listErr != nil {
		t.Fatalf("list: %v", listErr)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	if jobs[0].Status != StatusFailed {
		t.Fatalf("job should be marked failed after publish failure, got %s", jobs[0].Status)
	}
	if jobs[0].Attempts < jobs[0].MaxRetries {
		t.Fatalf("publish failure should be terminal, attempts=%d max=%d", jobs[0].Attempts, jobs[0].MaxRetries)
	}
}

func TestServiceSubmitCarriesMeetingAndParams(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	service := NewService(store, NewMemoryQueue(4), 3)

	submitted, err := service.Submit(ctx, SubmitRequest{
		Message:   "detect risk for the roadmap review",
		MeetingID: "roadmap-review",
		Params:    map[string]any{"transcripts": []string{"alice: we are blocked on the migration"}},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	stored, err := service.Get(ctx, submitted.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.MeetingID != "roadmap-review" {
		t.Fatalf("unexpected meeting id: %s", stored.MeetingID)
	}
	if _, ok := stored.Params["transcripts"]; !ok {
		t.Fatal("params should carry transcripts")
	}
	if stored.Status != StatusPending {
		t.Fatalf("new job should be pending, got %s", stored.Status)
	}
}
