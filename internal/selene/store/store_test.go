package store_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/bdobrica/selene/internal/selene/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "selene-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp db file: %v", err)
	}
	f.Close()

	s, err := store.New(f.Name())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func TestWriteAndReadMessageLog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entry := &store.MessageLogEntry{
		Timestamp:    time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		TraceID:      "t_abc",
		ProcessingID: "proc-1",
		UpdateID:     101,
		MessageID:    900,
		ChatID:       -500,
		UserID:       7,
		ChatType:     "private",
		DetectedLang: sql.NullString{String: "es", Valid: true},
		Outcome:      "ok",
		LatencyMS:    230,
	}
	if err := s.WriteMessageLog(ctx, entry); err != nil {
		t.Fatalf("WriteMessageLog: %v", err)
	}

	failed := &store.MessageLogEntry{
		Timestamp:    time.Date(2026, 3, 10, 12, 1, 0, 0, time.UTC),
		TraceID:      "t_def",
		ProcessingID: "proc-2",
		UpdateID:     102,
		MessageID:    901,
		ChatID:       -500,
		UserID:       7,
		ChatType:     "private",
		Outcome:      "failed",
		FailureKind:  sql.NullString{String: "generation", Valid: true},
		ErrorMessage: sql.NullString{String: "generate reply: model overloaded", Valid: true},
		LatencyMS:    1500,
	}
	if err := s.WriteMessageLog(ctx, failed); err != nil {
		t.Fatalf("WriteMessageLog(failed): %v", err)
	}

	entries, err := s.RecentMessages(ctx, 10)
	if err != nil {
		t.Fatalf("RecentMessages: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	// Newest first.
	if entries[0].ProcessingID != "proc-2" {
		t.Errorf("first entry = %q, want proc-2", entries[0].ProcessingID)
	}
	if entries[0].Outcome != "failed" || entries[0].FailureKind.String != "generation" {
		t.Errorf("failed entry = %+v", entries[0])
	}
	if entries[1].DetectedLang.String != "es" {
		t.Errorf("detected lang = %+v", entries[1].DetectedLang)
	}

	n, err := s.MessageCount(ctx)
	if err != nil {
		t.Fatalf("MessageCount: %v", err)
	}
	if n != 2 {
		t.Errorf("MessageCount = %d, want 2", n)
	}
}

func TestRecentMessagesLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		e := &store.MessageLogEntry{
			Timestamp:    time.Date(2026, 3, 10, 12, i, 0, 0, time.UTC),
			TraceID:      "t",
			ProcessingID: "p",
			UpdateID:     int64(i),
			MessageID:    int64(i),
			ChatID:       1,
			UserID:       1,
			ChatType:     "group",
			Outcome:      "ok",
		}
		if err := s.WriteMessageLog(ctx, e); err != nil {
			t.Fatalf("WriteMessageLog: %v", err)
		}
	}

	entries, err := s.RecentMessages(ctx, 3)
	if err != nil {
		t.Fatalf("RecentMessages: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].UpdateID != 4 {
		t.Errorf("newest entry update_id = %d, want 4", entries[0].UpdateID)
	}
}

func TestStoreReopenIsIdempotent(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "selene-test-*.db")
	if err != nil {
		t.Fatalf("temp db: %v", err)
	}
	f.Close()

	s1, err := store.New(f.Name())
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	s1.Close()

	// Migrations must not re-run against an up-to-date schema.
	s2, err := store.New(f.Name())
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	s2.Close()
}
