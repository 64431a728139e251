package dialog

import (
	"strings"
	"testing"

	"github.com/takelab/metodist/internal/provider"
)

func TestCleanHTML(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"обычный текст", "обычный текст"},
		{"строка<br>перенос", "строка\nперенос"},
		{"строка<br />перенос", "строка\nперенос"},
		{"<p>абзац</p>", "абзац"},
		{"<div class=\"x\">блок</div>", "блок"},
		{"**жирный**", "<b>жирный</b>"},
		{"<!DOCTYPE html>текст", "текст"},
		{"<b>остаётся</b> и <i>это</i>", "<b>остаётся</b> и <i>это</i>"},
	}

	for _, tt := range tests {
		if got := CleanHTML(tt.input); got != tt.want {
			t.Errorf("CleanHTML(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatWebSearchResult(t *testing.T) {
	result := FormatWebSearchResult("Ответ [1] по теме.\n- первый пункт\n- второй пункт", []provider.WebSource{
		{Title: "Минкультуры", URL: "https://culture.gov.ru", Used: true},
		{Title: "Не использован", URL: "https://example.com", Used: false},
	})

	if strings.Contains(result, "[1]") {
		t.Error("inline citation markers must be stripped")
	}
	if !strings.Contains(result, "• первый пункт") {
		t.Error("dash bullets must become • bullets")
	}
	if !strings.Contains(result, `<a href="https://culture.gov.ru">Минкультуры</a>`) {
		t.Error("used sources must appear as numbered links")
	}
	if strings.Contains(result, "example.com") {
		t.Error("unused sources must not be listed")
	}
}

func TestFormatWebSearchResult_NoUsedSources(t *testing.T) {
	result := FormatWebSearchResult("Ответ.", []provider.WebSource{
		{Title: "x", URL: "https://example.com", Used: false},
	})
	if strings.Contains(result, "Источники") {
		t.Error("sources header must be omitted when nothing was used")
	}
}

func TestSplitMessage_ShortPassesThrough(t *testing.T) {
	parts := SplitMessage("короткое сообщение")
	if len(parts) != 1 || parts[0] != "короткое сообщение" {
		t.Errorf("parts = %#v", parts)
	}
}

func TestSplitMessage_LongSplitsUnderLimit(t *testing.T) {
	line := strings.Repeat("слово ", 200) // ~1200 runes per line
	text := strings.Join([]string{line, line, line, line, line}, "\n")

	parts := SplitMessage(text)
	if len(parts) < 2 {
		t.Fatalf("expected a split, got %d part(s)", len(parts))
	}
	for i, part := range parts {
		if n := len([]rune(part)); n > messageChunk {
			t.Errorf("part %d has %d runes, limit %d", i, n, messageChunk)
		}
		if part == "" {
			t.Errorf("part %d is empty", i)
		}
	}
	// Nothing is lost: the glued parts contain every word.
	joined := strings.Join(parts, " ")
	if strings.Count(joined, "слово") != 1000 {
		t.Errorf("word count = %d, want 1000", strings.Count(joined, "слово"))
	}
}

func TestSplitMessage_PrefersNewlineBoundary(t *testing.T) {
	first := strings.Repeat("а", 3000)
	second := strings.Repeat("б", 3000)
	parts := SplitMessage(first + "\n" + second)

	if len(parts) != 2 {
		t.Fatalf("parts = %d, want 2", len(parts))
	}
	if strings.Contains(parts[0], "б") {
		t.Error("first part must end at the newline boundary")
	}
}

func TestIsSmallTalk(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Привет", true},
		{"Спасибо большое", true},
		{"кто ты", true},
		{"Как оформить методическое пособие по краеведению", false},
		{"привет расскажи про комплектование фондов библиотеки подробно", false}, // too long
	}
	for _, tt := range tests {
		if got := isSmallTalk(tt.text, 6); got != tt.want {
			t.Errorf("isSmallTalk(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
