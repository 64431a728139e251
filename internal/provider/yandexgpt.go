package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/takelab/metodist/internal/config"
)

const (
	completionEndpoint = "https://llm.api.cloud.yandex.net/foundationModels/v1/completion"

	generateTimeout = 30 * time.Second
)

// jsonInstruction forces the model into the parseable two-field shape the
// assembler expects. Unparseable output degrades to a fallback, it never
// propagates.
const jsonInstruction = "ВАЖНО: Твой ответ ДОЛЖЕН БЫТЬ СТРОГО в формате JSON.\n" +
	"Используй HTML-теги <b></b> для жирного шрифта.\n" +
	"{\n" +
	"  \"text\": \"Текст ответа...\",\n" +
	"  \"suggestions\": [\"Подсказка 1\", \"Подсказка 2\"]\n" +
	"}\n"

// YandexGPT calls the native foundation-models completion endpoint.
type YandexGPT struct {
	apiKey      string
	modelURI    string
	temperature float64
	maxTokens   int

	// Endpoint is overridable for tests.
	Endpoint string
	client   *http.Client
}

func NewYandexGPT(cfg config.YandexConfig, client *http.Client) *YandexGPT {
	if client == nil {
		client = &http.Client{Timeout: generateTimeout}
	}
	return &YandexGPT{
		apiKey:      cfg.APIKey,
		modelURI:    fmt.Sprintf("gpt://%s/%s", cfg.FolderID, cfg.Model),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		Endpoint:    completionEndpoint,
		client:      client,
	}
}

type completionMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type completionRequest struct {
	ModelURI          string `json:"modelUri"`
	CompletionOptions struct {
		Stream      bool    `json:"stream"`
		Temperature float64 `json:"temperature"`
		MaxTokens   string  `json:"maxTokens"`
	} `json:"completionOptions"`
	Messages []completionMessage `json:"messages"`
}

type completionResponse struct {
	Result struct {
		Alternatives []struct {
			Message completionMessage `json:"message"`
		} `json:"alternatives"`
	} `json:"result"`
}

func (y *YandexGPT) Generate(ctx context.Context, systemPrompt, userText, contextText string, history []Turn, displayName string) (Generation, error) {
	if displayName == "" {
		displayName = "Пользователь"
	}

	finalSystem := fmt.Sprintf("%s\n\nПользователь: %s.\n\n%s", systemPrompt, displayName, jsonInstruction)

	messages := []completionMessage{{Role: "system", Text: finalSystem}}
	for _, turn := range history {
		messages = append(messages, completionMessage{Role: turn.Role, Text: turn.Text})
	}
	messages = append(messages, completionMessage{
		Role: "user",
		Text: fmt.Sprintf("Контекст:\n%s\n\nВопрос:\n%s", contextText, userText),
	})

	req := completionRequest{ModelURI: y.modelURI, Messages: messages}
	req.CompletionOptions.Temperature = y.temperature
	req.CompletionOptions.MaxTokens = strconv.Itoa(y.maxTokens)

	body, err := json.Marshal(req)
	if err != nil {
		return Generation{}, fmt.Errorf("marshal completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, y.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Generation{}, fmt.Errorf("build completion request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Api-Key "+y.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := y.client.Do(httpReq)
	if err != nil {
		return Generation{}, fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		log.Printf("[yandexgpt] status %d: %s", resp.StatusCode, payload)
		return Generation{}, fmt.Errorf("completion status %d", resp.StatusCode)
	}

	var parsed completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Generation{}, fmt.Errorf("decode completion response: %w", err)
	}
	if len(parsed.Result.Alternatives) == 0 {
		return Generation{}, fmt.Errorf("completion response has no alternatives")
	}

	return parseGeneration(parsed.Result.Alternatives[0].Message.Text)
}

// parseGeneration extracts the structured {text, suggestions} payload from
// the raw model output, tolerating markdown code fences around it.
func parseGeneration(raw string) (Generation, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.ReplaceAll(clean, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")

	var out struct {
		Text        string   `json:"text"`
		Suggestions []string `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return Generation{}, fmt.Errorf("parse generation payload: %w", err)
	}
	return Generation{Text: out.Text, Suggestions: out.Suggestions}, nil
}
