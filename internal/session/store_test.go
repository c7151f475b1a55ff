package session_test

import (
	"context"
	"reflect"
	"testing"

	"scribed/internal/session"
	"scribed/internal/testsupport"
)

func TestCreateAndGet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	sess, err := store.Create(ctx, session.NewSessionParams{
		Title:         "Weekly Sync",
		Filename:      "sync.mp3",
		AudioLocation: "audio/sync.mp3",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if sess.ID == "" {
		t.Fatal("expected session ID to be assigned")
	}
	if sess.Status != session.StatusUploading {
		t.Fatalf("expected uploading status, got %s", sess.Status)
	}
	if sess.CreatedAt.IsZero() || sess.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}

	fetched, err := store.GetByID(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.Title != "Weekly Sync" || fetched.AudioLocation != "audio/sync.mp3" {
		t.Fatalf("unexpected fetched session: %#v", fetched)
	}
}

func TestCreateRequiresTitleAndFilename(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if _, err := store.Create(ctx, session.NewSessionParams{Filename: "a.mp3"}); err == nil {
		t.Fatal("expected error for missing title")
	}
	if _, err := store.Create(ctx, session.NewSessionParams{Title: "No File"}); err == nil {
		t.Fatal("expected error for missing filename")
	}
}

func TestGetByIDMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	sess, err := store.GetByID(context.Background(), "no-such-id")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if sess != nil {
		t.Fatalf("expected nil for missing session, got %#v", sess)
	}
}

func TestUpdateRoundTripsAllColumns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	sess := testsupport.NewSession(t, store, "Standup", "standup.wav")

	sess.Status = session.StatusCompleted
	sess.JobRef = "job-42"
	sess.RawSegments = []session.Segment{
		{SpeakerLabel: "spk_0", Text: "hello"},
		{SpeakerLabel: "spk_1", Text: "hi"},
	}
	sess.SpeakerMapping = map[string]string{"spk_0": "Alice"}
	sess.Transcript = "Alice: hello\nspk_1: hi"
	sess.Summary = "Greeting exchange."
	sess.ActionItems = "None."
	if err := store.Update(ctx, sess); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != session.StatusCompleted || fetched.JobRef != "job-42" {
		t.Fatalf("unexpected status/job ref: %#v", fetched)
	}
	if !reflect.DeepEqual(fetched.RawSegments, sess.RawSegments) {
		t.Fatalf("segments round trip mismatch: %#v", fetched.RawSegments)
	}
	if !reflect.DeepEqual(fetched.SpeakerMapping, sess.SpeakerMapping) {
		t.Fatalf("mapping round trip mismatch: %#v", fetched.SpeakerMapping)
	}
	if fetched.Transcript != sess.Transcript || fetched.Summary != sess.Summary || fetched.ActionItems != sess.ActionItems {
		t.Fatalf("artifact round trip mismatch: %#v", fetched)
	}
}

func TestUpdateMissingSessionFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ghost := &session.Session{ID: "ghost", Title: "x", Filename: "x", Status: session.StatusUploading}
	if err := store.Update(context.Background(), ghost); err == nil {
		t.Fatal("expected error updating missing session")
	}
}

func TestListNewestFirstAndStatusFilter(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first := testsupport.NewSession(t, store, "First", "a.mp3")
	second := testsupport.NewSession(t, store, "Second", "b.mp3")

	second.Status = session.StatusTranscribing
	if err := store.Update(ctx, second); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(all))
	}

	transcribing, err := store.List(ctx, session.StatusTranscribing)
	if err != nil {
		t.Fatalf("List filtered failed: %v", err)
	}
	if len(transcribing) != 1 || transcribing[0].ID != second.ID {
		t.Fatalf("unexpected filter result: %#v", transcribing)
	}

	_ = first
}

func TestListActiveExcludesTerminal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	active := testsupport.NewSession(t, store, "Active", "a.mp3")
	done := testsupport.NewSession(t, store, "Done", "b.mp3")
	failed := testsupport.NewSession(t, store, "Failed", "c.mp3")

	done.Status = session.StatusCompleted
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	failed.SetFailed("unsupported codec")
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := store.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != active.ID {
		t.Fatalf("unexpected active sessions: %#v", got)
	}
}

func TestRemoveIsUnconditional(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	sess := testsupport.NewSession(t, store, "Doomed", "d.mp3")
	sess.Status = session.StatusTranscribing
	sess.JobRef = "job-in-flight"
	if err := store.Update(ctx, sess); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	removed, err := store.Remove(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if !removed {
		t.Fatal("expected removal to report true")
	}

	again, err := store.Remove(ctx, sess.ID)
	if err != nil {
		t.Fatalf("second Remove failed: %v", err)
	}
	if again {
		t.Fatal("expected second removal to report false")
	}
}

func TestStatsGroupsByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewSession(t, store, "One", "1.mp3")
	done := testsupport.NewSession(t, store, "Two", "2.mp3")
	done.Status = session.StatusCompleted
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[session.StatusUploading] != 1 || stats[session.StatusCompleted] != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
}

func TestCheckHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if err := store.CheckHealth(context.Background()); err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
}
