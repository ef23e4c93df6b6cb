package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// MessageLogEntry is one processed-message record in the diagnostics log.
type MessageLogEntry struct {
	ID           int64
	Timestamp    time.Time
	TraceID      string
	ProcessingID string
	UpdateID     int64
	MessageID    int64
	ChatID       int64
	UserID       int64
	ChatType     string
	DetectedLang sql.NullString
	Outcome      string // "ok" or "failed"
	FailureKind  sql.NullString
	ErrorMessage sql.NullString
	LatencyMS    int64
}

// WriteMessageLog records the outcome of one pipeline run.
func (s *Store) WriteMessageLog(ctx context.Context, e *MessageLogEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO message_log (ts, trace_id, processing_id, update_id, message_id,
			chat_id, user_id, chat_type, detected_lang, outcome, failure_kind,
			error_message, latency_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.Timestamp, e.TraceID, e.ProcessingID, e.UpdateID, e.MessageID,
		e.ChatID, e.UserID, e.ChatType, e.DetectedLang, e.Outcome, e.FailureKind,
		e.ErrorMessage, e.LatencyMS)

	if err != nil {
		return fmt.Errorf("failed to write message log: %w", err)
	}
	return nil
}

// RecentMessages retrieves the most recent message log entries, newest first.
func (s *Store) RecentMessages(ctx context.Context, limit int) ([]*MessageLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, trace_id, processing_id, update_id, message_id,
			chat_id, user_id, chat_type, detected_lang, outcome, failure_kind,
			error_message, latency_ms
		FROM message_log
		ORDER BY ts DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query message log: %w", err)
	}
	defer rows.Close()

	var entries []*MessageLogEntry
	for rows.Next() {
		var e MessageLogEntry
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.TraceID, &e.ProcessingID,
			&e.UpdateID, &e.MessageID, &e.ChatID, &e.UserID, &e.ChatType,
			&e.DetectedLang, &e.Outcome, &e.FailureKind, &e.ErrorMessage,
			&e.LatencyMS); err != nil {
			return nil, fmt.Errorf("failed to scan message log entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// MessageCount returns the total number of logged messages.
func (s *Store) MessageCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM message_log").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count message log: %w", err)
	}
	return n, nil
}
