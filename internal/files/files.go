// Package files resolves "send me the file about X" requests against a
// small static index of downloadable documents.
package files

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Entry struct {
	Title    string   `json:"title"`
	Filename string   `json:"filename"`
	Keywords []string `json:"keywords"`
}

type Index struct {
	docsDir string
	entries []Entry
}

// Load reads the index; a missing index file yields an empty, working
// index rather than an error, since file lookup is an optional feature.
func Load(indexPath, docsDir string) (*Index, error) {
	idx := &Index{docsDir: docsDir}

	data, err := os.ReadFile(indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, fmt.Errorf("read file index: %w", err)
	}
	if err := json.Unmarshal(data, &idx.entries); err != nil {
		return nil, fmt.Errorf("parse file index: %w", err)
	}
	return idx, nil
}

// Find returns the entry with the most keyword hits for the query, or nil
// when not a single keyword matched.
func (i *Index) Find(query string) *Entry {
	queryLower := strings.ToLower(query)

	var best *Entry
	maxHits := 0
	for idx := range i.entries {
		hits := 0
		for _, kw := range i.entries[idx].Keywords {
			if strings.Contains(queryLower, strings.ToLower(kw)) {
				hits++
			}
		}
		if hits > maxHits {
			maxHits = hits
			best = &i.entries[idx]
		}
	}
	return best
}

func (i *Index) FullPath(filename string) string {
	return filepath.Join(i.docsDir, filename)
}

func (i *Index) Len() int {
	return len(i.entries)
}
