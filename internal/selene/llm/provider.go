// Package llm provides the generation bridge: given an assembled
// pivot-language prompt, produce the bot's reply text.
//
// The bridge is a single synchronous call per user message. There is no
// internal retry — any failure surfaces to the pipeline, which converts it
// into the user-visible fallback reply.
package llm

import "context"

// Generator produces a reply for an assembled prompt.
//
// Implementations must be safe for concurrent use from multiple goroutines.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
