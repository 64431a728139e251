package provider

import (
	"context"
	"encoding/base64"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/takelab/metodist/internal/config"
)

// vlmBaseURL is the OpenAI-compatible endpoint serving the gallery models
// (Gemma and friends); the native completion endpoint does not take images.
const vlmBaseURL = "https://llm.api.cloud.yandex.net/v1"

const (
	vlmMaxTokens   = 2000
	vlmTemperature = 0.1
)

// GalleryVLM answers image prompts through the OpenAI-compatible chat
// completions API.
type GalleryVLM struct {
	client   *openai.Client
	modelURI string
}

func NewGalleryVLM(cfg config.YandexConfig) *GalleryVLM {
	return NewGalleryVLMWithBaseURL(cfg, vlmBaseURL)
}

// NewGalleryVLMWithBaseURL allows pointing the client at a test server.
func NewGalleryVLMWithBaseURL(cfg config.YandexConfig, baseURL string) *GalleryVLM {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = baseURL
	return &GalleryVLM{
		client:   openai.NewClientWithConfig(clientCfg),
		modelURI: fmt.Sprintf("gpt://%s/%s", cfg.FolderID, cfg.VisionModel),
	}
}

func (g *GalleryVLM) Describe(ctx context.Context, prompt string, image []byte) (string, error) {
	encoded := base64.StdEncoding.EncodeToString(image)

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.modelURI,
		MaxTokens:   vlmMaxTokens,
		Temperature: vlmTemperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: "data:image/jpeg;base64," + encoded,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("vlm completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("vlm response has no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
