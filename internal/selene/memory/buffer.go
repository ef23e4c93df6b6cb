// Package memory implements the per-user conversation context window for
// Selene. Each user gets a bounded buffer of their recent messages; the
// buffer is what gives the generation service conversational memory without
// any persistence — everything here lives and dies with the process.
package memory

import (
	"strings"
	"sync"
	"time"
)

// Config holds configuration for the context Buffer.
type Config struct {
	// MaxAge is how long an entry may stay in a user's buffer. Entries older
	// than this (relative to the most recent Record call) are dropped.
	// Default: 1 hour.
	MaxAge time.Duration

	// MaxChars is the total text-length budget per user. When the sum of
	// retained entry lengths exceeds it, the oldest entries are dropped until
	// the buffer fits. A single oversized newest entry is always retained.
	// Default: 1000.
	MaxChars int
}

// DefaultConfig returns a Config with the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxAge:   time.Hour,
		MaxChars: 1000,
	}
}

// Entry is a single recorded message. Immutable once created.
type Entry struct {
	Text       string    // message text as received
	RecordedAt time.Time // when the message was recorded
}

// Buffer is the process-wide registry of per-user context windows.
// A user's window is created lazily on their first message and is never
// destroyed; eviction only removes entries. It is safe for concurrent use.
type Buffer struct {
	mu     sync.Mutex
	config Config
	users  map[int64][]Entry
}

// NewBuffer creates a Buffer with the given configuration. Zero-valued
// limits are replaced by the documented defaults.
func NewBuffer(cfg Config) *Buffer {
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultConfig().MaxAge
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = DefaultConfig().MaxChars
	}
	return &Buffer{
		config: cfg,
		users:  make(map[int64][]Entry),
	}
}

// Record appends text to the user's context window and then re-establishes
// the retention invariants: first every entry older than MaxAge is dropped,
// then oldest entries are dropped until the total length fits MaxChars.
// Record cannot fail — an arbitrarily long message is retained alone even
// when it exceeds the budget by itself, because eviction only ever removes
// older entries.
func (b *Buffer) Record(userID int64, text string) {
	b.recordAt(userID, text, time.Now())
}

// recordAt is the time-injectable core of Record (for testing).
func (b *Buffer) recordAt(userID int64, text string, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := append(b.users[userID], Entry{Text: text, RecordedAt: now})

	// Age eviction runs before size eviction so stale content is purged even
	// when the buffer is under the character budget.
	for len(entries) > 0 && now.Sub(entries[0].RecordedAt) > b.config.MaxAge {
		entries = entries[1:]
	}

	total := 0
	for _, e := range entries {
		total += len(e.Text)
	}
	for len(entries) > 1 && total > b.config.MaxChars {
		total -= len(entries[0].Text)
		entries = entries[1:]
	}

	b.users[userID] = entries
}

// Snapshot returns the user's retained texts joined with single spaces,
// oldest first. Returns the empty string for users with no context yet.
// Snapshot never mutates the buffer.
func (b *Buffer) Snapshot(userID int64) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := b.users[userID]
	if len(entries) == 0 {
		return ""
	}

	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Text
	}
	return strings.Join(texts, " ")
}

// Len reports how many entries the user's window currently retains.
func (b *Buffer) Len(userID int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.users[userID])
}
