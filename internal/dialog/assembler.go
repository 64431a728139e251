// Package dialog turns inbound events into outbound replies. The router owns
// the state machine, the assembler owns the retrieval-grounded answer path.
// Neither knows anything about Telegram.
package dialog

import (
	"context"
	"log"

	"github.com/takelab/metodist/internal/config"
	"github.com/takelab/metodist/internal/corpus"
	"github.com/takelab/metodist/internal/provider"
	"github.com/takelab/metodist/internal/session"
)

// Answer is one assembled Q&A reply before transport formatting.
type Answer struct {
	Text        string
	Suggestions []string
	SourceTitle string
	SourceSlug  string
}

// Assembler builds grounded answers: retrieval, persona choice, context
// layering, history bookkeeping.
type Assembler struct {
	engine *corpus.Engine
	gen    provider.Generator
	cfg    config.DialogConfig
}

func NewAssembler(engine *corpus.Engine, gen provider.Generator, cfg config.DialogConfig) *Assembler {
	return &Assembler{engine: engine, gen: gen, cfg: cfg}
}

// BuildAnswer runs the full Q&A pipeline for one free-text query and records
// the exchange in the session. A generator failure degrades to a fixed
// fallback text with no suggestions; the caller never sees an error.
func (a *Assembler) BuildAnswer(ctx context.Context, sess *session.Session, displayName, query string) Answer {
	smallTalk := isSmallTalk(query, a.cfg.SmallTalkMaxWords)

	var excerpt string
	var meta map[string]any
	if !smallTalk {
		excerpt, meta = a.engine.Search(query)
	}

	// Recognized-media context rides along even for small talk, layered
	// above the knowledge-base excerpt so the model reads the photo first.
	contextText := excerpt
	if excerpt != "" {
		contextText = "БАЗА ЗНАНИЙ:\n" + excerpt
	}
	if sess.LastRecognizedText != "" {
		media := "КОНТЕКСТ ИЗ ФОТО:\n" + sess.LastRecognizedText
		if contextText != "" {
			contextText = media + "\n\n" + contextText
		} else {
			contextText = media
		}
	}

	// The knowledge persona is only safe when an excerpt grounds it.
	prompt := chitChatPrompt
	if excerpt != "" {
		prompt = systemPrompt
	}

	history := make([]provider.Turn, 0, len(sess.History))
	for _, t := range sess.History {
		history = append(history, provider.Turn{Role: t.Role, Text: t.Text})
	}

	gen, err := a.gen.Generate(ctx, prompt, query, contextText, history, displayName)
	if err != nil {
		log.Printf("[dialog] generation failed: %v", err)
		gen = provider.Generation{Text: fallbackText}
	}

	sess.AppendExchange(query, gen.Text, a.cfg.HistoryLimit)
	sess.LastQuery = query
	sess.LastSuggestions = gen.Suggestions

	ans := Answer{
		Text:        CleanHTML(gen.Text),
		Suggestions: gen.Suggestions,
	}
	if meta != nil {
		if title, ok := meta["title"].(string); ok {
			ans.SourceTitle = title
		}
		if slug, ok := meta["slug"].(string); ok {
			ans.SourceSlug = slug
		}
	}
	return ans
}

// GenerateWith runs the generator under an arbitrary persona with no
// retrieval and no history bookkeeping. Used for one-shot tasks such as OCR
// cleanup, idea structuring and creative drafting.
func (a *Assembler) GenerateWith(ctx context.Context, prompt, userText, contextText string) string {
	gen, err := a.gen.Generate(ctx, prompt, userText, contextText, nil, "")
	if err != nil {
		log.Printf("[dialog] generation failed: %v", err)
		return fallbackText
	}
	return CleanHTML(gen.Text)
}
