package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	DefaultModel       = "yandexgpt/latest"
	DefaultVisionModel = "gemma-3-27b-it/latest"
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 2000
	DefaultVoice       = "filipp"

	// Dialog heuristics. The cutoffs are inherited tuning values and stay
	// configurable rather than hard-coded.
	DefaultHistoryLimit      = 6
	DefaultSmallTalkMaxWords = 6
	DefaultMinScoreWordLen   = 4
	DefaultOccurrenceCap     = 5
	DefaultTitleWeight       = 10
	DefaultExcerptLimit      = 3000
	DefaultRecognizedTextCap = 3500
	DefaultMaxAudioSize      = 1 << 20
	DefaultCorpusReloadExpr  = "0 0 4 * * *"
)

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Yandex   YandexConfig   `json:"yandex"`
	Data     DataConfig     `json:"data"`
	Dialog   DialogConfig   `json:"dialog"`
}

type TelegramConfig struct {
	Token     string   `json:"token"`
	AdminID   int64    `json:"adminId"`
	AllowFrom []string `json:"allowFrom"`
	Proxy     string   `json:"proxy,omitempty"`
}

type YandexConfig struct {
	APIKey      string  `json:"apiKey"`
	FolderID    string  `json:"folderId"`
	Model       string  `json:"model"`
	VisionModel string  `json:"visionModel"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
	Voice       string  `json:"voice"`
}

type DataConfig struct {
	CorpusDir     string `json:"corpusDir"`
	PDFDir        string `json:"pdfDir"`
	DocumentsDir  string `json:"documentsDir"`
	FileIndexPath string `json:"fileIndexPath"`
	DBPath        string `json:"dbPath"`
}

type DialogConfig struct {
	HistoryLimit      int    `json:"historyLimit"`
	SmallTalkMaxWords int    `json:"smallTalkMaxWords"`
	MinScoreWordLen   int    `json:"minScoreWordLen"`
	OccurrenceCap     int    `json:"occurrenceCap"`
	TitleWeight       int    `json:"titleWeight"`
	ExcerptLimit      int    `json:"excerptLimit"`
	RecognizedTextCap int    `json:"recognizedTextCap"`
	MaxAudioSize      int64  `json:"maxAudioSize"`
	CorpusReloadExpr  string `json:"corpusReloadExpr"`
}

func DefaultConfig() *Config {
	dir := ConfigDir()
	return &Config{
		Yandex: YandexConfig{
			Model:       DefaultModel,
			VisionModel: DefaultVisionModel,
			Temperature: DefaultTemperature,
			MaxTokens:   DefaultMaxTokens,
			Voice:       DefaultVoice,
		},
		Data: DataConfig{
			CorpusDir:     filepath.Join(dir, "data", "markdown"),
			PDFDir:        filepath.Join(dir, "data", "pdf"),
			DocumentsDir:  filepath.Join(dir, "data", "documents"),
			FileIndexPath: filepath.Join(dir, "data", "file_index.json"),
			DBPath:        filepath.Join(dir, "data", "users.db"),
		},
		Dialog: DialogConfig{
			HistoryLimit:      DefaultHistoryLimit,
			SmallTalkMaxWords: DefaultSmallTalkMaxWords,
			MinScoreWordLen:   DefaultMinScoreWordLen,
			OccurrenceCap:     DefaultOccurrenceCap,
			TitleWeight:       DefaultTitleWeight,
			ExcerptLimit:      DefaultExcerptLimit,
			RecognizedTextCap: DefaultRecognizedTextCap,
			MaxAudioSize:      DefaultMaxAudioSize,
			CorpusReloadExpr:  DefaultCorpusReloadExpr,
		},
	}
}

func ConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".metodist")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if token := os.Getenv("METODIST_BOT_TOKEN"); token != "" {
		cfg.Telegram.Token = token
	}
	if token := os.Getenv("BOT_TOKEN"); token != "" && cfg.Telegram.Token == "" {
		cfg.Telegram.Token = token
	}
	if key := os.Getenv("YANDEX_API_KEY"); key != "" {
		cfg.Yandex.APIKey = key
	}
	if folder := os.Getenv("YANDEX_FOLDER_ID"); folder != "" {
		cfg.Yandex.FolderID = folder
	}
	if admin := os.Getenv("METODIST_ADMIN_ID"); admin != "" {
		if parsed, err := strconv.ParseInt(admin, 10, 64); err == nil {
			cfg.Telegram.AdminID = parsed
		}
	}
	if admin := os.Getenv("ADMIN_ID"); admin != "" && cfg.Telegram.AdminID == 0 {
		if parsed, err := strconv.ParseInt(admin, 10, 64); err == nil {
			cfg.Telegram.AdminID = parsed
		}
	}
	if dir := os.Getenv("METODIST_DATA_DIR"); dir != "" {
		cfg.Data.CorpusDir = filepath.Join(dir, "markdown")
		cfg.Data.PDFDir = filepath.Join(dir, "pdf")
		cfg.Data.DocumentsDir = filepath.Join(dir, "documents")
		cfg.Data.FileIndexPath = filepath.Join(dir, "file_index.json")
		cfg.Data.DBPath = filepath.Join(dir, "users.db")
	}

	applyDialogDefaults(&cfg.Dialog)
	if cfg.Yandex.Model == "" {
		cfg.Yandex.Model = DefaultModel
	}
	if cfg.Yandex.VisionModel == "" {
		cfg.Yandex.VisionModel = DefaultVisionModel
	}
	if cfg.Yandex.MaxTokens <= 0 {
		cfg.Yandex.MaxTokens = DefaultMaxTokens
	}
	if cfg.Yandex.Temperature <= 0 {
		cfg.Yandex.Temperature = DefaultTemperature
	}
	if cfg.Yandex.Voice == "" {
		cfg.Yandex.Voice = DefaultVoice
	}

	return cfg, nil
}

func applyDialogDefaults(d *DialogConfig) {
	if d.HistoryLimit <= 0 {
		d.HistoryLimit = DefaultHistoryLimit
	}
	if d.SmallTalkMaxWords <= 0 {
		d.SmallTalkMaxWords = DefaultSmallTalkMaxWords
	}
	if d.MinScoreWordLen <= 0 {
		d.MinScoreWordLen = DefaultMinScoreWordLen
	}
	if d.OccurrenceCap <= 0 {
		d.OccurrenceCap = DefaultOccurrenceCap
	}
	if d.TitleWeight <= 0 {
		d.TitleWeight = DefaultTitleWeight
	}
	if d.ExcerptLimit <= 0 {
		d.ExcerptLimit = DefaultExcerptLimit
	}
	if d.RecognizedTextCap <= 0 {
		d.RecognizedTextCap = DefaultRecognizedTextCap
	}
	if d.MaxAudioSize <= 0 {
		d.MaxAudioSize = DefaultMaxAudioSize
	}
	if d.CorpusReloadExpr == "" {
		d.CorpusReloadExpr = DefaultCorpusReloadExpr
	}
}

// Validate reports the fatal-at-startup conditions. Serving without these
// credentials is pointless, so the caller aborts before any traffic.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required (METODIST_BOT_TOKEN)")
	}
	if c.Yandex.APIKey == "" {
		return fmt.Errorf("yandex api key is required (YANDEX_API_KEY)")
	}
	if c.Yandex.FolderID == "" {
		return fmt.Errorf("yandex folder id is required (YANDEX_FOLDER_ID)")
	}
	if c.Telegram.AdminID == 0 {
		return fmt.Errorf("admin chat id is required (METODIST_ADMIN_ID)")
	}
	return nil
}

func SaveConfig(cfg *Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(ConfigPath(), data, 0644)
}
