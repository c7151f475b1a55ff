package daemon_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"scribed/internal/api"
	"scribed/internal/daemon"
	"scribed/internal/processor"
	"scribed/internal/remap"
	"scribed/internal/services/transcribe"
	"scribed/internal/session"
	"scribed/internal/testsupport"
)

type scriptedTranscriber struct {
	jobRef string
	result transcribe.PollResult
}

func (s *scriptedTranscriber) Submit(ctx context.Context, audioLocation string) (string, error) {
	return s.jobRef, nil
}

func (s *scriptedTranscriber) Poll(ctx context.Context, jobRef string) (transcribe.PollResult, error) {
	return s.result, nil
}

type scriptedAnalyzer struct {
	summary     string
	actionItems string
}

func (s *scriptedAnalyzer) Summarize(ctx context.Context, transcript string) (string, error) {
	return s.summary, nil
}

func (s *scriptedAnalyzer) ExtractActionItems(ctx context.Context, transcript string) (string, error) {
	return s.actionItems, nil
}

func startDaemon(t *testing.T) (*daemon.Daemon, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	transcriber := &scriptedTranscriber{
		jobRef: "job-1",
		result: transcribe.PollResult{
			Status: transcribe.JobSucceeded,
			Segments: []transcribe.Segment{
				{SpeakerLabel: "spk_0", Text: "hello"},
				{SpeakerLabel: "spk_1", Text: "hi"},
			},
		},
	}
	analyzer := &scriptedAnalyzer{summary: "A summary.", actionItems: "- Item"}
	proc := processor.New(store, transcriber, analyzer, nil)
	svc := api.NewSessionService(store, proc, remap.New(store, nil))

	d, err := daemon.New(cfg, store, svc, nil, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(d.Stop)
	return d, "http://" + d.APIAddr()
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, _ := json.Marshal(payload)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	_, base := startDaemon(t)

	resp := postJSON(t, base+"/api/sessions", api.CreateSessionRequest{Filename: "weekly-sync.mp3"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	created := decode[api.SessionView](t, resp)
	if created.Status != "uploading" || created.Title != "Weekly Sync" {
		t.Fatalf("unexpected created session: %#v", created)
	}

	processURL := fmt.Sprintf("%s/api/sessions/%s/process", base, created.ID)
	want := []string{"transcribing", "analyzing", "completed"}
	for _, expected := range want {
		resp := postJSON(t, processURL, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("process status = %d", resp.StatusCode)
		}
		view := decode[api.SessionView](t, resp)
		if view.Status != expected {
			t.Fatalf("status = %q, want %q", view.Status, expected)
		}
	}

	resp, err := http.Get(fmt.Sprintf("%s/api/sessions/%s", base, created.ID))
	if err != nil {
		t.Fatalf("GET session: %v", err)
	}
	final := decode[api.SessionView](t, resp)
	if final.Summary != "A summary." || final.ActionItems != "- Item" {
		t.Fatalf("artifacts missing: %#v", final)
	}
	if final.Transcript != "spk_0: hello\nspk_1: hi" {
		t.Fatalf("unexpected transcript: %q", final.Transcript)
	}
}

func TestSpeakerEndpoints(t *testing.T) {
	_, base := startDaemon(t)

	resp := postJSON(t, base+"/api/sessions", api.CreateSessionRequest{Filename: "standup.mp3"})
	created := decode[api.SessionView](t, resp)

	processURL := fmt.Sprintf("%s/api/sessions/%s/process", base, created.ID)
	for i := 0; i < 3; i++ {
		decode[api.SessionView](t, postJSON(t, processURL, nil))
	}

	speakersURL := fmt.Sprintf("%s/api/sessions/%s/speakers", base, created.ID)
	resp, err := http.Get(speakersURL)
	if err != nil {
		t.Fatalf("GET speakers: %v", err)
	}
	speakers := decode[api.SpeakersView](t, resp)
	if len(speakers.Labels) != 2 {
		t.Fatalf("unexpected labels: %v", speakers.Labels)
	}

	body, _ := json.Marshal(api.ApplyMappingRequest{Mapping: map[string]string{"spk_0": "Alice"}})
	req, _ := http.NewRequest(http.MethodPatch, speakersURL, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	patchResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PATCH speakers: %v", err)
	}
	if patchResp.StatusCode != http.StatusOK {
		t.Fatalf("patch status = %d", patchResp.StatusCode)
	}
	view := decode[api.SessionView](t, patchResp)
	if view.Transcript != "Alice: hello\nspk_1: hi" {
		t.Fatalf("unexpected transcript after mapping: %q", view.Transcript)
	}
}

func TestSpeakersBeforeTranscriptionConflicts(t *testing.T) {
	_, base := startDaemon(t)

	resp := postJSON(t, base+"/api/sessions", api.CreateSessionRequest{Filename: "fresh.mp3"})
	created := decode[api.SessionView](t, resp)

	speakersURL := fmt.Sprintf("%s/api/sessions/%s/speakers", base, created.ID)
	getResp, err := http.Get(speakersURL)
	if err != nil {
		t.Fatalf("GET speakers: %v", err)
	}
	defer getResp.Body.Close()
	if getResp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", getResp.StatusCode)
	}
}

func TestUnknownSessionReturns404(t *testing.T) {
	_, base := startDaemon(t)

	resp, err := http.Get(base + "/api/sessions/missing")
	if err != nil {
		t.Fatalf("GET session: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestDeleteSessionOverHTTP(t *testing.T) {
	_, base := startDaemon(t)

	resp := postJSON(t, base+"/api/sessions", api.CreateSessionRequest{Filename: "doomed.mp3"})
	created := decode[api.SessionView](t, resp)

	req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/sessions/%s", base, created.ID), nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE session: %v", err)
	}
	defer delResp.Body.Close()
	if delResp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", delResp.StatusCode)
	}

	getResp, err := http.Get(fmt.Sprintf("%s/api/sessions/%s", base, created.ID))
	if err != nil {
		t.Fatalf("GET session: %v", err)
	}
	defer getResp.Body.Close()
	if getResp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", getResp.StatusCode)
	}
}

func TestStatusEndpoint(t *testing.T) {
	_, base := startDaemon(t)

	postJSON(t, base+"/api/sessions", api.CreateSessionRequest{Filename: "one.mp3"})

	resp, err := http.Get(base + "/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	status := decode[api.StatusResponse](t, resp)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.Counts[string(session.StatusUploading)] != 1 {
		t.Fatalf("unexpected counts: %v", status.Counts)
	}
}

func TestCreateRequiresFilenameOverHTTP(t *testing.T) {
	_, base := startDaemon(t)

	resp := postJSON(t, base+"/api/sessions", api.CreateSessionRequest{Title: "No File"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestListRejectsUnknownStatusFilter(t *testing.T) {
	_, base := startDaemon(t)

	resp, err := http.Get(base + "/api/sessions?status=bogus")
	if err != nil {
		t.Fatalf("GET sessions: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	payload := decode[map[string]string](t, resp)
	msg := payload["error"]
	if !strings.Contains(msg, `"bogus"`) {
		t.Fatalf("offending value missing from %q", msg)
	}
	for _, status := range session.AllStatuses() {
		if !strings.Contains(msg, string(status)) {
			t.Fatalf("status %s missing from %q", status, msg)
		}
	}
}
