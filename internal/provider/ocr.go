package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/takelab/metodist/internal/config"
)

const (
	visionEndpoint = "https://vision.api.cloud.yandex.net/vision/v1/batchAnalyze"
	visionTimeout  = 30 * time.Second
)

// VisionOCR extracts printed text from images via the Vision batchAnalyze
// API.
type VisionOCR struct {
	apiKey   string
	folderID string

	Endpoint string
	client   *http.Client
}

func NewVisionOCR(cfg config.YandexConfig, client *http.Client) *VisionOCR {
	if client == nil {
		client = &http.Client{Timeout: visionTimeout}
	}
	return &VisionOCR{
		apiKey:   cfg.APIKey,
		folderID: cfg.FolderID,
		Endpoint: visionEndpoint,
		client:   client,
	}
}

type visionWord struct {
	Text string `json:"text"`
}

type visionLine struct {
	Words []visionWord `json:"words"`
}

type visionBlock struct {
	Lines []visionLine `json:"lines"`
}

type visionPage struct {
	Blocks []visionBlock `json:"blocks"`
}

type visionResponse struct {
	Results []struct {
		Results []struct {
			TextDetection *struct {
				Pages []visionPage `json:"pages"`
			} `json:"textDetection"`
		} `json:"results"`
	} `json:"results"`
}

func (v *VisionOCR) Recognize(ctx context.Context, image []byte) (string, error) {
	payload := map[string]any{
		"folderId": v.folderID,
		"analyze_specs": []map[string]any{{
			"content": base64.StdEncoding.EncodeToString(image),
			"features": []map[string]any{{
				"type": "TEXT_DETECTION",
				"text_detection_config": map[string]any{
					"language_codes": []string{"ru", "en"},
				},
			}},
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal vision request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build vision request: %w", err)
	}
	req.Header.Set("Authorization", "Api-Key "+v.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("vision request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		log.Printf("[ocr] status %d: %s", resp.StatusCode, detail)
		return "", fmt.Errorf("vision status %d", resp.StatusCode)
	}

	var parsed visionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode vision response: %w", err)
	}

	return flattenTextDetection(&parsed), nil
}

// flattenTextDetection walks pages -> blocks -> lines -> words, joining
// words into lines and separating blocks with a blank line. An image with
// no detected text yields an empty string, not an error.
func flattenTextDetection(resp *visionResponse) string {
	if len(resp.Results) == 0 || len(resp.Results[0].Results) == 0 {
		return ""
	}
	detection := resp.Results[0].Results[0].TextDetection
	if detection == nil {
		return ""
	}

	var lines []string
	for _, page := range detection.Pages {
		for _, block := range page.Blocks {
			for _, line := range block.Lines {
				words := make([]string, 0, len(line.Words))
				for _, w := range line.Words {
					words = append(words, w.Text)
				}
				lines = append(lines, strings.Join(words, " "))
			}
			lines = append(lines, "")
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
