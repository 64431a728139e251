package corpus

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Document is one knowledge-base entry: a markdown body plus its front
// matter. Documents are immutable after load; Reload replaces the whole set.
type Document struct {
	Content  string
	Metadata map[string]any
	Filename string
}

func (d Document) Title() string {
	if t, ok := d.Metadata["title"]; ok {
		return fmt.Sprint(t)
	}
	return ""
}

func (d Document) Slug() string {
	if s, ok := d.Metadata["slug"].(string); ok {
		return s
	}
	return ""
}

// Store holds the corpus loaded from a directory of front-matter-tagged
// markdown files. Reads see a consistent snapshot; Reload swaps the whole
// set under the lock (reload is rare, a coarse swap is enough).
type Store struct {
	dir string

	mu      sync.RWMutex
	docs    []Document
	slugMap map[string]string // slug -> downloadable source filename
}

func NewStore(dir string) *Store {
	return &Store{dir: dir, slugMap: make(map[string]string)}
}

// Load reads every *.md file in the corpus directory. A file with broken
// front matter still loads with empty metadata; only unreadable files are
// skipped. The previous snapshot stays visible until the new one is ready.
func (s *Store) Load() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read corpus dir: %w", err)
	}

	docs := make([]Document, 0, len(entries))
	slugMap := make(map[string]string)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("[corpus] read %s failed: %v", entry.Name(), err)
			continue
		}

		metadata, body := splitFrontMatter(string(data), entry.Name())
		doc := Document{Content: body, Metadata: metadata, Filename: entry.Name()}

		// Only documents declaring both a slug and a source file are
		// downloadable.
		slug, _ := metadata["slug"].(string)
		fileName, _ := metadata["file_name"].(string)
		if slug != "" && fileName != "" {
			slugMap[slug] = fileName
		}

		docs = append(docs, doc)
	}

	s.mu.Lock()
	s.docs = docs
	s.slugMap = slugMap
	s.mu.Unlock()

	log.Printf("[corpus] loaded %d documents, %d slug entries", len(docs), len(slugMap))
	return nil
}

func splitFrontMatter(content, name string) (map[string]any, string) {
	parts := make([]string, 0, 3)
	for _, p := range strings.Split(content, "---") {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 {
		return map[string]any{}, strings.TrimSpace(content)
	}

	body := strings.TrimSpace(strings.Join(parts[1:], "---"))

	metadata := map[string]any{}
	if err := yaml.Unmarshal([]byte(parts[0]), &metadata); err != nil {
		log.Printf("[corpus] front matter in %s: %v", name, err)
		return map[string]any{}, body
	}
	return metadata, body
}

// Documents returns the current snapshot. The slice must not be mutated.
func (s *Store) Documents() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// FilenameBySlug resolves a document slug to its downloadable source file.
func (s *Store) FilenameBySlug(slug string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.slugMap[slug]
	return name, ok
}
