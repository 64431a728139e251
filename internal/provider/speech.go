package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/takelab/metodist/internal/config"
)

const (
	sttEndpoint = "https://stt.api.cloud.yandex.net/speech/v1/stt:recognize"
	ttsEndpoint = "https://tts.api.cloud.yandex.net/speech/v1/tts:synthesize"

	sttTimeout = 30 * time.Second
	ttsTimeout = 60 * time.Second
)

// SpeechKit wraps the v1 speech API. Telegram voice clips arrive as OGG
// OPUS, which v1 accepts without transcoding.
type SpeechKit struct {
	apiKey   string
	folderID string
	voice    string

	STTEndpoint string
	TTSEndpoint string
	client      *http.Client
}

func NewSpeechKit(cfg config.YandexConfig, client *http.Client) *SpeechKit {
	if client == nil {
		client = &http.Client{Timeout: ttsTimeout}
	}
	return &SpeechKit{
		apiKey:      cfg.APIKey,
		folderID:    cfg.FolderID,
		voice:       cfg.Voice,
		STTEndpoint: sttEndpoint,
		TTSEndpoint: ttsEndpoint,
		client:      client,
	}
}

func (s *SpeechKit) ToText(ctx context.Context, audio []byte) (string, error) {
	params := url.Values{}
	params.Set("folderId", s.folderID)
	params.Set("lang", "ru-RU")
	params.Set("topic", "general")
	params.Set("format", "oggopus")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.STTEndpoint+"?"+params.Encode(), bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("build stt request: %w", err)
	}
	req.Header.Set("Authorization", "Api-Key "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("stt request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		log.Printf("[speech] stt status %d: %s", resp.StatusCode, detail)
		return "", fmt.Errorf("stt status %d", resp.StatusCode)
	}

	var parsed struct {
		Result string `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode stt response: %w", err)
	}
	return parsed.Result, nil
}

func (s *SpeechKit) ToSpeech(ctx context.Context, text string) ([]byte, error) {
	form := url.Values{}
	form.Set("folderId", s.folderID)
	form.Set("text", text)
	form.Set("voice", s.voice)
	form.Set("emotion", "good")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.TTSEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build tts request: %w", err)
	}
	req.Header.Set("Authorization", "Api-Key "+s.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		log.Printf("[speech] tts status %d: %s", resp.StatusCode, detail)
		return nil, fmt.Errorf("tts status %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read tts response: %w", err)
	}
	return audio, nil
}
