package corpus

import (
	"log"
	"strings"

	"github.com/takelab/metodist/internal/config"
)

// synonyms expands domain jargon to the canonical phrasing used in the
// corpus. A deterministic substitution pass, applied before tokenizing.
var synonyms = map[string]string{
	"методичка":      "методическое издание пособие",
	"методички":      "методические издания пособия",
	"нмо":            "научно-методический отдел",
	"бд":             "база данных",
	"комплектование": "комплектование фондов",
}

// Engine scores the corpus against a query with a keyword-overlap scorer.
// A linear scan is intentional: at tens to low hundreds of documents an
// inverted index buys nothing.
type Engine struct {
	store *Store
	cfg   config.DialogConfig
}

func NewEngine(store *Store, cfg config.DialogConfig) *Engine {
	return &Engine{store: store, cfg: cfg}
}

// Search returns the best-matching document's excerpt and metadata, or
// ("", nil) when nothing scores above zero. Callers must treat the empty
// result as "no source" and never attribute an answer to a document.
func (e *Engine) Search(query string) (string, map[string]any) {
	normalized := strings.ToLower(query)
	for slang, official := range synonyms {
		normalized = strings.ReplaceAll(normalized, slang, official)
	}

	words := make(map[string]struct{})
	for _, w := range strings.Fields(normalized) {
		words[w] = struct{}{}
	}

	docs := e.store.Documents()

	var best *Document
	maxScore := 0

	for i := range docs {
		doc := &docs[i]
		score := e.scoreDocument(doc, words)
		// Strict comparison keeps the first encountered document on ties,
		// deterministic for a fixed corpus order.
		if score > maxScore {
			maxScore = score
			best = doc
		}
	}

	if best == nil || maxScore == 0 {
		return "", nil
	}

	log.Printf("[corpus] matched %q (score %d)", best.Title(), maxScore)

	// Limit is in characters, not bytes: the corpus is mostly Cyrillic.
	excerpt := best.Content
	if runes := []rune(excerpt); len(runes) > e.cfg.ExcerptLimit {
		excerpt = string(runes[:e.cfg.ExcerptLimit])
	}
	return excerpt, best.Metadata
}

func (e *Engine) scoreDocument(doc *Document, words map[string]struct{}) int {
	body := strings.ToLower(doc.Content)
	title := strings.ToLower(doc.Title())

	score := 0
	for w := range words {
		// Short words are too noisy to score.
		if len([]rune(w)) < e.cfg.MinScoreWordLen {
			continue
		}
		if strings.Contains(title, w) {
			score += e.cfg.TitleWeight
		}
		count := strings.Count(body, w)
		if count > e.cfg.OccurrenceCap {
			count = e.cfg.OccurrenceCap
		}
		score += count
	}
	return score
}
