package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"MeetingMCP/sdk/go/meetingmcp"
)

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp/orchestrate", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(meetingmcp.PipelineResult{
			Intent: "summarize",
			Results: map[string]meetingmcp.Outcome{
				"summarization": {Status: "success", Payload: map[string]any{"summary": "shipped the beta"}},
			},
		})
	})
	mux.HandleFunc("/api/v1/jobs", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			w.WriteHeader(http.StatusAccepted)
			_ = json.NewEncoder(w).Encode(meetingmcp.Job{ID: "job-demo", Status: "pending"})
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/v1/jobs/job-demo", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(meetingmcp.Job{
			ID:     "job-demo",
			Status: "succeeded",
			Result: &meetingmcp.PipelineRecord{Intent: "summarize", Summary: "shipped the beta"},
		})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := meetingmcp.NewClient(srv.URL, "demo-key", srv.Client())
	if err != nil {
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := client.Orchestrate(ctx, "summarize the weekly sync", map[string]any{
		"transcripts": []string{"Alice: we shipped the beta."},
	})
	if err != nil {
		panic(err)
	}
	fmt.Printf("orchestrated intent=%s stages=%d\n", result.Intent, len(result.Results))

	submitted, err := client.SubmitJob(ctx, meetingmcp.JobSubmission{Message: "summarize the weekly sync"})
	if err != nil {
		panic(err)
	}
	fmt.Printf("submitted job %s (status=%s)\n", submitted.ID, submitted.Status)

	finished, err := client.WaitForJob(ctx, submitted.ID, 100*time.Millisecond)
	if err != nil {
		panic(err)
	}
	fmt.Printf("job %s finished with summary=%q\n", finished.ID, finished.Result.Summary)
}
