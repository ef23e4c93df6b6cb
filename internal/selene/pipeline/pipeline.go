// Package pipeline implements Selene's per-message processing: dedup the
// incoming event, fold it into the sender's context window, build a
// pivot-language prompt from window + current message, generate a reply and
// translate it back into the language of the ongoing conversation.
package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/bdobrica/selene/common/trace"
	"github.com/bdobrica/selene/internal/selene/llm"
	"github.com/bdobrica/selene/internal/selene/memory"
	"github.com/bdobrica/selene/internal/selene/observability"
	"github.com/bdobrica/selene/internal/selene/store"
	"github.com/bdobrica/selene/internal/selene/translate"
)

// FallbackReply is the fixed user-visible reply sent when any pipeline step
// fails. Translation and generation failures are indistinguishable to the
// user; the logs and the message log carry the distinction.
const FallbackReply = "Oops! Something went wrong."

// FailureKind classifies where in the pipeline a message failed. The kinds
// map to identical user-visible behaviour but distinct diagnostics.
type FailureKind string

const (
	FailureTranslation FailureKind = "translation"
	FailureGeneration  FailureKind = "generation"
	FailureDelivery    FailureKind = "delivery"
	FailureInternal    FailureKind = "internal"
)

// ReplySender delivers a reply to the chat the message came from.
type ReplySender interface {
	SendReply(ctx context.Context, chatID int64, text string, replyToMessageID int64) error
}

// Pipeline processes accepted transport events one at a time. The transport
// delivers events serially; the pipeline's own state (sequence mark, context
// buffer, counters) is nevertheless safe under concurrent delivery.
type Pipeline struct {
	buffer     *memory.Buffer
	translator translate.Provider
	generator  llm.Generator
	sender     ReplySender
	journal    *store.Store // optional, nil disables the message log
	guard      *SequenceGuard

	processed atomic.Int64
	failed    atomic.Int64
}

// New creates a Pipeline. journal may be nil, in which case no message log
// is written.
func New(buffer *memory.Buffer, translator translate.Provider, generator llm.Generator, sender ReplySender, journal *store.Store) *Pipeline {
	return &Pipeline{
		buffer:     buffer,
		translator: translator,
		generator:  generator,
		sender:     sender,
		journal:    journal,
		guard:      NewSequenceGuard(),
	}
}

// Stats returns the number of messages that reached a terminal state and how
// many of those failed.
func (p *Pipeline) Stats() (processed, failed int64) {
	return p.processed.Load(), p.failed.Load()
}

// Handle runs one event through the pipeline to a terminal state. It never
// returns an error: failures are converted into the fallback reply and
// logged, so the transport loop can always move on to the next event.
func (p *Pipeline) Handle(ctx context.Context, ev Event) {
	// Events without a message body are ignored silently; they are not
	// errors and must not advance the sequence mark.
	if strings.TrimSpace(ev.Text) == "" {
		return
	}

	// The mark is committed before any work: a message that fails later is
	// dropped, not retried.
	if !p.guard.Accept(ev.UpdateID) {
		slog.Debug("pipeline: stale or duplicate event dropped",
			"update_id", ev.UpdateID, "user_id", ev.Sender.ID)
		return
	}

	traceID := trace.GenerateID()
	ctx = trace.WithTraceID(ctx, traceID)
	procID := uuid.New().String()
	started := time.Now()

	logger := slog.With("trace_id", traceID, "processing_id", procID,
		"update_id", ev.UpdateID, "user_id", ev.Sender.ID, "chat_id", ev.ChatID)
	logger.Debug("pipeline: processing message", "chat_type", ev.ChatType)

	lang, kind, err := p.process(ctx, ev)
	if err != nil {
		p.failed.Add(1)
		p.processed.Add(1)
		logger.Error("pipeline: message failed",
			"failure_kind", string(kind), "err", err, "lang", lang)

		// Best-effort fallback; if delivery itself is broken there is
		// nothing more to send.
		if kind != FailureDelivery {
			if sendErr := p.sender.SendReply(ctx, ev.ChatID, FallbackReply, ev.MessageID); sendErr != nil {
				logger.Error("pipeline: fallback reply delivery failed", "err", sendErr)
			}
		}
		p.writeJournal(ctx, ev, traceID, procID, lang, string(kind), err, started)
		return
	}

	p.processed.Add(1)
	logger.Info("pipeline: reply delivered",
		"lang", lang, "latency_ms", time.Since(started).Milliseconds())
	p.writeJournal(ctx, ev, traceID, procID, lang, "", nil, started)
}

// process runs steps 3–9 of the message state machine and reports the first
// failure with its kind. The returned language code is whatever had been
// detected by the time of the failure.
func (p *Pipeline) process(ctx context.Context, ev Event) (string, FailureKind, error) {
	p.buffer.Record(ev.Sender.ID, ev.Text)

	// The snapshot includes the message just recorded, so the history sent
	// for translation always ends with the current turn.
	history := p.buffer.Snapshot(ev.Sender.ID)

	translatedHistory, lang, err := p.translator.ToPivot(ctx, history)
	if err != nil {
		return "", FailureTranslation, fmt.Errorf("translate history: %w", err)
	}

	// The current message is translated a second time on its own. The
	// language detected from the full history is authoritative for the
	// back-translation: the reply should match the ongoing conversation,
	// not necessarily the latest message.
	translatedMessage, _, err := p.translator.ToPivot(ctx, ev.Text)
	if err != nil {
		return lang, FailureTranslation, fmt.Errorf("translate message: %w", err)
	}

	if ev.ReplyTo != nil {
		translatedMessage = fmt.Sprintf("%s (Reply from %s (@%s), ID: %d)",
			translatedMessage, ev.ReplyTo.DisplayName, ev.ReplyTo.Handle, ev.ReplyTo.ID)
	}

	finalMessage := fmt.Sprintf("User %s (@%s, ID: %d): %s",
		ev.Sender.DisplayName, ev.Sender.Handle, ev.Sender.ID, translatedMessage)

	prompt := fmt.Sprintf("Our Last Chat(used for to remember): %s\n\nMy new Message: %s",
		translatedHistory, finalMessage)

	generated, err := p.generator.Generate(ctx, prompt)
	if err != nil {
		return lang, FailureGeneration, fmt.Errorf("generate reply: %w", err)
	}

	reply, err := p.translator.FromPivot(ctx, generated, lang)
	if err != nil {
		return lang, FailureTranslation, fmt.Errorf("translate reply: %w", err)
	}

	if err := p.sender.SendReply(ctx, ev.ChatID, reply, ev.MessageID); err != nil {
		return lang, FailureDelivery, fmt.Errorf("send reply: %w", err)
	}

	return lang, "", nil
}

// writeJournal records the terminal state in the message log, when enabled.
func (p *Pipeline) writeJournal(ctx context.Context, ev Event, traceID, procID, lang, failureKind string, procErr error, started time.Time) {
	if p.journal == nil {
		return
	}

	entry := &store.MessageLogEntry{
		Timestamp:    started,
		TraceID:      traceID,
		ProcessingID: procID,
		UpdateID:     ev.UpdateID,
		MessageID:    ev.MessageID,
		ChatID:       ev.ChatID,
		UserID:       ev.Sender.ID,
		ChatType:     ev.ChatType,
		Outcome:      "ok",
		LatencyMS:    time.Since(started).Milliseconds(),
	}
	if lang != "" {
		entry.DetectedLang = sql.NullString{String: lang, Valid: true}
	}
	if procErr != nil {
		entry.Outcome = "failed"
		entry.FailureKind = sql.NullString{String: failureKind, Valid: true}
		entry.ErrorMessage = sql.NullString{String: procErr.Error(), Valid: true}
	}

	if err := p.journal.WriteMessageLog(ctx, entry); err != nil {
		observability.WithTrace(ctx).Warn("pipeline: failed to write message log", "err", err)
	}
}
