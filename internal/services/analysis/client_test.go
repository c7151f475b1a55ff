package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
	}
	opts = append(opts, WithSleeper(func(time.Duration) {}))
	return NewClient(cfg, opts...)
}

func completionBody(content string) string {
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	}
	encoded, _ := json.Marshal(payload)
	return string(encoded)
}

func TestSummarizeSendsTranscriptAndReturnsContent(t *testing.T) {
	var gotBody chatCompletionRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing auth header")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(completionBody("A short summary.")))
	})

	got, err := client.Summarize(context.Background(), "spk_0: hello")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if got != "A short summary." {
		t.Fatalf("unexpected summary: %q", got)
	}
	if gotBody.Model != "test-model" {
		t.Fatalf("unexpected model: %q", gotBody.Model)
	}
	if len(gotBody.Messages) != 1 || !strings.Contains(gotBody.Messages[0].Content, "spk_0: hello") {
		t.Fatalf("prompt missing transcript: %#v", gotBody.Messages)
	}
}

func TestExtractActionItemsPrompt(t *testing.T) {
	var gotBody chatCompletionRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(completionBody("- Follow up with Bob")))
	})

	got, err := client.ExtractActionItems(context.Background(), "spk_0: follow up")
	if err != nil {
		t.Fatalf("ExtractActionItems failed: %v", err)
	}
	if got != "- Follow up with Bob" {
		t.Fatalf("unexpected action items: %q", got)
	}
	if !strings.Contains(gotBody.Messages[0].Content, "action items") {
		t.Fatalf("expected action-item prompt, got %q", gotBody.Messages[0].Content)
	}
}

func TestCompleteRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:0", Model: "m"})
	if _, err := client.Summarize(context.Background(), "text"); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestRetriesOnServerError(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "upstream busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(completionBody("recovered")))
	})

	got, err := client.Summarize(context.Background(), "text")
	if err != nil {
		t.Fatalf("Summarize failed after retries: %v", err)
	}
	if got != "recovered" || calls != 3 {
		t.Fatalf("got %q after %d calls", got, calls)
	}
}

func TestDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad request", http.StatusBadRequest)
	})

	if _, err := client.Summarize(context.Background(), "text"); err == nil {
		t.Fatal("expected error for http 400")
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestAPIErrorPayloadSurfaces(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"model offline"}}`))
	})

	_, err := client.Summarize(context.Background(), "text")
	if err == nil || !strings.Contains(err.Error(), "model offline") {
		t.Fatalf("expected api error to surface, got %v", err)
	}
}

func TestEmptyContentIsNotRetried(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"choices":[{"message":{"content":""}}]}`))
	})

	_, err := client.Summarize(context.Background(), "text")
	if err == nil || !strings.Contains(err.Error(), "empty content") {
		t.Fatalf("expected empty content error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("empty content is not retryable, got %d calls", calls)
	}
}
