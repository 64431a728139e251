// Package provider contains the clients for the external cloud services the
// bot delegates heavy computation to. Every collaborator is an interface so
// the dialog router and response assembler can be exercised with fakes.
package provider

import "context"

// Turn is one prior exchange entry passed to the generator.
type Turn struct {
	Role string
	Text string
}

// Generation is the structured two-field result the generator is asked to
// produce. Suggestions may be empty.
type Generation struct {
	Text        string
	Suggestions []string
}

// Generator produces a structured text answer from a system prompt, the
// user's text, optional grounding context and rolling history.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userText, contextText string, history []Turn, displayName string) (Generation, error)
}

// Vision extracts plain text from an image (OCR).
type Vision interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// VisionLanguage answers a free-form prompt about an image.
type VisionLanguage interface {
	Describe(ctx context.Context, prompt string, image []byte) (string, error)
}

// Speech converts between audio and text.
type Speech interface {
	ToText(ctx context.Context, audio []byte) (string, error)
	ToSpeech(ctx context.Context, text string) ([]byte, error)
}

// WebSource is one citation attached to a generative search answer.
type WebSource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Used  bool   `json:"used"`
}

// WebSearchResult is the generative web-search answer with its sources.
type WebSearchResult struct {
	Answer  string
	Sources []WebSource
}

// WebSearch runs a generative search over the public web.
type WebSearch interface {
	Search(ctx context.Context, query string) (*WebSearchResult, error)
}
