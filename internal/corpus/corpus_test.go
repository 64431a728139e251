package corpus

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/takelab/metodist/internal/config"
)

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func loadedStore(t *testing.T, docs map[string]string) *Store {
	t.Helper()
	dir := t.TempDir()
	for name, content := range docs {
		writeDoc(t, dir, name, content)
	}
	s := NewStore(dir)
	if err := s.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s
}

func dialogDefaults() config.DialogConfig {
	return config.DefaultConfig().Dialog
}

func TestStoreLoad_FrontMatter(t *testing.T) {
	s := loadedStore(t, map[string]string{
		"guide.md": "---\ntitle: Правила оформления\nslug: guide\nfile_name: guide.pdf\n---\nТекст документа.",
	})

	if s.Count() != 1 {
		t.Fatalf("Count = %d, want 1", s.Count())
	}
	doc := s.Documents()[0]
	if doc.Title() != "Правила оформления" {
		t.Errorf("Title = %q", doc.Title())
	}
	if doc.Content != "Текст документа." {
		t.Errorf("Content = %q", doc.Content)
	}
	name, ok := s.FilenameBySlug("guide")
	if !ok || name != "guide.pdf" {
		t.Errorf("FilenameBySlug = %q, %v", name, ok)
	}
}

func TestStoreLoad_MalformedFrontMatter(t *testing.T) {
	s := loadedStore(t, map[string]string{
		"broken.md": "---\ntitle: [unclosed\n---\nТело остаётся доступным.",
	})

	if s.Count() != 1 {
		t.Fatalf("Count = %d, want 1", s.Count())
	}
	doc := s.Documents()[0]
	if doc.Title() != "" {
		t.Errorf("Title = %q, want empty for broken front matter", doc.Title())
	}
	if doc.Content != "Тело остаётся доступным." {
		t.Errorf("Content = %q", doc.Content)
	}
}

func TestStoreLoad_SlugRequiresFileName(t *testing.T) {
	s := loadedStore(t, map[string]string{
		"nofile.md": "---\ntitle: Без файла\nslug: nofile\n---\nТекст.",
	})

	if _, ok := s.FilenameBySlug("nofile"); ok {
		t.Error("slug without file_name must not be downloadable")
	}
}

func TestStoreLoad_IgnoresNonMarkdown(t *testing.T) {
	s := loadedStore(t, map[string]string{
		"doc.md":    "---\ntitle: Документ\n---\nТекст.",
		"notes.txt": "не считается",
	})
	if s.Count() != 1 {
		t.Errorf("Count = %d, want 1", s.Count())
	}
}

func TestSearch_ShortWordsScoreNothing(t *testing.T) {
	s := loadedStore(t, map[string]string{
		"doc.md": "---\ntitle: Фонды\n---\nкто это был и что он там",
	})
	e := NewEngine(s, dialogDefaults())

	excerpt, meta := e.Search("кто ты")
	if excerpt != "" || meta != nil {
		t.Errorf("Search = %q, %v; want empty result", excerpt, meta)
	}
}

func TestSearch_TitleOutweighsBody(t *testing.T) {
	body := strings.Repeat("комплектование ", 20)
	s := loadedStore(t, map[string]string{
		"a.md": "---\ntitle: Про статистику\n---\n" + body,
		"b.md": "---\ntitle: Комплектование фондов\n---\nкороткий текст про комплектование",
	})
	e := NewEngine(s, dialogDefaults())

	_, meta := e.Search("комплектование")
	if meta == nil {
		t.Fatal("expected a match")
	}
	// Body occurrences cap at 5; the title hit adds 10 on top.
	if title, _ := meta["title"].(string); title != "Комплектование фондов" {
		t.Errorf("matched %q, want title match to win", title)
	}
}

func TestSearch_TieKeepsFirstDocument(t *testing.T) {
	s := loadedStore(t, map[string]string{
		"a.md": "---\ntitle: Первый\n---\nкомплектование",
		"b.md": "---\ntitle: Второй\n---\nкомплектование",
	})
	e := NewEngine(s, dialogDefaults())

	_, meta := e.Search("комплектование")
	if meta == nil {
		t.Fatal("expected a match")
	}
	if title, _ := meta["title"].(string); title != "Первый" {
		t.Errorf("matched %q, want the first document on a tie", title)
	}
}

func TestSearch_SynonymExpansion(t *testing.T) {
	s := loadedStore(t, map[string]string{
		"doc.md": "---\ntitle: Оформление\n---\nметодическое издание готовится по шаблону",
	})
	e := NewEngine(s, dialogDefaults())

	excerpt, _ := e.Search("методичка")
	if excerpt == "" {
		t.Error("synonym expansion should reach the canonical phrasing")
	}
}

func TestSearch_ExcerptTruncatedByRunes(t *testing.T) {
	cfg := dialogDefaults()
	cfg.ExcerptLimit = 10
	s := loadedStore(t, map[string]string{
		"doc.md": "---\ntitle: Фонды\n---\nкомплектование фондов идёт круглый год без перерыва",
	})
	e := NewEngine(s, cfg)

	excerpt, _ := e.Search("комплектование")
	if got := len([]rune(excerpt)); got != 10 {
		t.Errorf("excerpt length = %d runes, want 10", got)
	}
}
