package dialog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/takelab/metodist/internal/provider"
)

const (
	// messageLimit is the hard Telegram cap for a single text message.
	messageLimit = 4096
	// messageChunk is the target size of each piece when a long answer
	// has to be split.
	messageChunk = 4000
)

var (
	brTag      = regexp.MustCompile(`(?i)<br\s*/?>`)
	doctypeTag = regexp.MustCompile(`(?i)<!DOCTYPE[^>]*>`)
	blockTags  = regexp.MustCompile(`(?i)</?(p|div|table|tr|td|th|tbody|thead|html|head|body)[^>]*>`)
	boldMark   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	citeMark   = regexp.MustCompile(`\[\d+\]`)
)

// CleanHTML strips block-level markup a model tends to emit and keeps only
// the inline tags Telegram accepts. Markdown bold is rewritten to <b>.
func CleanHTML(text string) string {
	text = brTag.ReplaceAllString(text, "\n")
	text = doctypeTag.ReplaceAllString(text, "")
	text = blockTags.ReplaceAllString(text, "")
	text = boldMark.ReplaceAllString(text, "<b>$1</b>")
	return strings.TrimSpace(text)
}

// FormatWebSearchResult renders a generative search answer with its used
// sources as a numbered link list. Inline citation markers like [3] are
// dropped because the numbering below replaces them.
func FormatWebSearchResult(answer string, sources []provider.WebSource) string {
	answer = citeMark.ReplaceAllString(answer, "")
	answer = CleanHTML(answer)

	var lines []string
	for _, line := range strings.Split(answer, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
			line = "• " + strings.TrimSpace(trimmed[2:])
		}
		lines = append(lines, line)
	}

	var b strings.Builder
	b.WriteString("🌐 <b>Результат поиска:</b>\n\n")
	b.WriteString(strings.Join(lines, "\n"))

	n := 0
	for _, src := range sources {
		if !src.Used || src.URL == "" {
			continue
		}
		if n == 0 {
			b.WriteString("\n\n<b>Источники:</b>")
		}
		n++
		title := src.Title
		if title == "" {
			title = src.URL
		}
		fmt.Fprintf(&b, "\n%d. <a href=\"%s\">%s</a>", n, src.URL, title)
	}
	return b.String()
}

// SplitMessage cuts text into pieces that fit under the Telegram limit.
// Pieces break on a newline when one falls inside the window, then on a
// space, and only mid-word as a last resort. A short text comes back as a
// single piece untouched.
func SplitMessage(text string) []string {
	runes := []rune(text)
	if len(runes) <= messageLimit {
		return []string{text}
	}

	var parts []string
	for len(runes) > 0 {
		if len(runes) <= messageChunk {
			parts = append(parts, strings.TrimSpace(string(runes)))
			break
		}
		cut := messageChunk
		window := runes[:messageChunk]
		if i := lastIndexRune(window, '\n'); i > 0 {
			cut = i
		} else if i := lastIndexRune(window, ' '); i > 0 {
			cut = i
		}
		part := strings.TrimSpace(string(runes[:cut]))
		if part != "" {
			parts = append(parts, part)
		}
		runes = runes[cut:]
		for len(runes) > 0 && (runes[0] == '\n' || runes[0] == ' ') {
			runes = runes[1:]
		}
	}
	return parts
}

func lastIndexRune(rs []rune, r rune) int {
	for i := len(rs) - 1; i >= 0; i-- {
		if rs[i] == r {
			return i
		}
	}
	return -1
}
