// Package trigger decides which incoming messages are handed to the
// pipeline. Private chats always qualify; in group chats the bot only
// responds when it is addressed — by keyword, by @-mention, or by a reply
// to one of its own messages.
package trigger

import (
	"strings"

	"github.com/bdobrica/selene/internal/selene/pipeline"
)

// Policy holds the group-chat addressing rules.
type Policy struct {
	// Keywords are matched as case-insensitive substrings of the message.
	Keywords []string
	// BotHandle is the bot's username without the leading "@".
	BotHandle string
}

// NewPolicy normalizes keywords (lowercased, trimmed, empties dropped) so
// ShouldProcess can match without re-normalizing per message.
func NewPolicy(keywords []string, botHandle string) *Policy {
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if t := strings.ToLower(strings.TrimSpace(kw)); t != "" {
			normalized = append(normalized, t)
		}
	}
	return &Policy{
		Keywords:  normalized,
		BotHandle: strings.TrimPrefix(strings.ToLower(botHandle), "@"),
	}
}

// ShouldProcess reports whether the event should reach the pipeline.
func (p *Policy) ShouldProcess(ev pipeline.Event) bool {
	if ev.ChatType == pipeline.ChatTypePrivate {
		return true
	}

	text := strings.ToLower(ev.Text)
	for _, kw := range p.Keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}

	if p.BotHandle != "" && strings.Contains(text, "@"+p.BotHandle) {
		return true
	}

	return ev.ReplyToBot
}
