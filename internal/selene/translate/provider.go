// Package translate provides the translation bridge between the chat
// language and the pivot language the generation service is prompted in.
//
// All text is normalized into the pivot language (English by default)
// before it reaches the generation service, and the reply is translated
// back into the language detected from the conversation history. The
// bridge never retries: failures surface to the pipeline, which owns the
// user-visible fallback behaviour.
package translate

import "context"

// DefaultPivot is the pivot language code used when none is configured.
const DefaultPivot = "en"

// Provider translates text to and from the pivot language.
//
// Implementations must be safe for concurrent use from multiple goroutines.
type Provider interface {
	// ToPivot detects the language of text and translates it into the pivot
	// language. It returns the pivot-language text and the detected language
	// code. Empty or whitespace-only input is a pass-through: the pivot code
	// is returned with empty text and no service call is made.
	ToPivot(ctx context.Context, text string) (pivotText, langCode string, err error)

	// FromPivot translates pivot-language text into the target language.
	// When langCode equals the pivot language this is the identity and no
	// service call is made.
	FromPivot(ctx context.Context, pivotText, langCode string) (string, error)
}
