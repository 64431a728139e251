package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/takelab/metodist/internal/config"
)

const (
	searchEndpoint = "https://searchapi.api.cloud.yandex.net/v2/gen/search"
	searchTimeout  = 60 * time.Second
)

// searchHint steers the generative search toward official sources; it is a
// prompt suffix, not a filter.
const searchHint = " (отвечай, используя официальные источники, СМИ и нормативно-правовые акты РФ; по возможности избегай ссылок на соцсети)"

// GenSearch calls the generative web-search API.
type GenSearch struct {
	apiKey   string
	folderID string

	Endpoint string
	client   *http.Client
}

func NewGenSearch(cfg config.YandexConfig, client *http.Client) *GenSearch {
	if client == nil {
		client = &http.Client{Timeout: searchTimeout}
	}
	return &GenSearch{
		apiKey:   cfg.APIKey,
		folderID: cfg.FolderID,
		Endpoint: searchEndpoint,
		client:   client,
	}
}

type searchResponse []struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Sources []WebSource `json:"sources"`
}

func (g *GenSearch) Search(ctx context.Context, query string) (*WebSearchResult, error) {
	payload := map[string]any{
		"folderId": g.folderID,
		"messages": []map[string]string{
			{"role": "ROLE_USER", "content": query + searchHint},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Authorization", "Api-Key "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		log.Printf("[websearch] status %d: %s", resp.StatusCode, detail)
		return nil, fmt.Errorf("search status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if len(parsed) == 0 || parsed[0].Message.Content == "" {
		return nil, nil
	}

	return &WebSearchResult{
		Answer:  parsed[0].Message.Content,
		Sources: parsed[0].Sources,
	}, nil
}
