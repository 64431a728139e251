package channel

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/takelab/metodist/internal/bus"
	"github.com/takelab/metodist/internal/config"
)

const telegramChannelName = "telegram"

// TelegramBot interface for mocking telegram bot API
type TelegramBot interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetSelf() tgbotapi.User
	GetFile(config tgbotapi.FileConfig) (tgbotapi.File, error)
}

// tgBotWrapper wraps tgbotapi.BotAPI to implement TelegramBot interface
type tgBotWrapper struct {
	bot *tgbotapi.BotAPI
}

func (w *tgBotWrapper) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return w.bot.GetUpdatesChan(config)
}

func (w *tgBotWrapper) StopReceivingUpdates() {
	w.bot.StopReceivingUpdates()
}

func (w *tgBotWrapper) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return w.bot.Send(c)
}

func (w *tgBotWrapper) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return w.bot.Request(c)
}

func (w *tgBotWrapper) GetSelf() tgbotapi.User {
	return w.bot.Self
}

func (w *tgBotWrapper) GetFile(config tgbotapi.FileConfig) (tgbotapi.File, error) {
	return w.bot.GetFile(config)
}

// BotFactory creates TelegramBot instances (allows mocking)
type BotFactory func(token, apiEndpoint string, client *http.Client) (TelegramBot, error)

var defaultBotFactory BotFactory = func(token, apiEndpoint string, client *http.Client) (TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, apiEndpoint, client)
	if err != nil {
		return nil, err
	}
	return &tgBotWrapper{bot: bot}, nil
}

type TelegramChannel struct {
	BaseChannel
	token      string
	bot        TelegramBot
	proxy      string
	httpClient *http.Client
	cancel     context.CancelFunc
	botFactory BotFactory
}

func NewTelegramChannel(cfg config.TelegramConfig, b *bus.MessageBus) (*TelegramChannel, error) {
	return NewTelegramChannelWithFactory(cfg, b, defaultBotFactory)
}

// NewTelegramChannelWithFactory creates a TelegramChannel with custom bot factory (for testing)
func NewTelegramChannelWithFactory(cfg config.TelegramConfig, b *bus.MessageBus, factory BotFactory) (*TelegramChannel, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}

	ch := &TelegramChannel{
		BaseChannel: NewBaseChannel(telegramChannelName, b, cfg.AllowFrom),
		token:       cfg.Token,
		proxy:       cfg.Proxy,
		httpClient:  http.DefaultClient,
		botFactory:  factory,
	}
	return ch, nil
}

func (t *TelegramChannel) initBot() error {
	var client *http.Client
	if t.proxy != "" {
		proxyURL, err := url.Parse(t.proxy)
		if err != nil {
			return fmt.Errorf("parse proxy url: %w", err)
		}
		client = &http.Client{
			Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
		}
	} else {
		client = http.DefaultClient
	}
	t.httpClient = client

	bot, err := t.botFactory(t.token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return fmt.Errorf("create telegram bot: %w", err)
	}
	t.bot = bot
	log.Printf("[telegram] authorized as @%s", bot.GetSelf().UserName)
	return nil
}

func (t *TelegramChannel) Start(ctx context.Context) error {
	if err := t.initBot(); err != nil {
		return err
	}

	ctx, t.cancel = context.WithCancel(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case update := <-updates:
				switch {
				case update.CallbackQuery != nil:
					t.handleCallback(update.CallbackQuery)
				case update.Message != nil:
					t.handleMessage(update.Message)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Printf("[telegram] polling started")
	return nil
}

func (t *TelegramChannel) handleCallback(cb *tgbotapi.CallbackQuery) {
	// Acknowledge first so the client stops showing the spinner.
	if _, err := t.bot.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("[telegram] answer callback failed: %v", err)
	}

	if cb.Message == nil || cb.From == nil {
		return
	}
	senderID := strconv.FormatInt(cb.From.ID, 10)
	if !t.IsAllowed(senderID) {
		return
	}

	t.bus.Inbound <- bus.InboundMessage{
		Channel:   telegramChannelName,
		Kind:      bus.KindCallback,
		UserID:    cb.From.ID,
		ChatID:    cb.Message.Chat.ID,
		Username:  cb.From.UserName,
		FirstName: cb.From.FirstName,
		FullName:  fullName(cb.From),
		Callback:  cb.Data,
		MessageID: cb.Message.MessageID,
		Timestamp: time.Now(),
	}
}

func (t *TelegramChannel) handleMessage(msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	senderID := strconv.FormatInt(msg.From.ID, 10)
	if !t.IsAllowed(senderID) {
		log.Printf("[telegram] rejected message from %s (%s)", senderID, msg.From.UserName)
		return
	}

	in := bus.InboundMessage{
		Channel:   telegramChannelName,
		UserID:    msg.From.ID,
		ChatID:    msg.Chat.ID,
		Username:  msg.From.UserName,
		FirstName: msg.From.FirstName,
		FullName:  fullName(msg.From),
		MessageID: msg.MessageID,
		Timestamp: time.Unix(int64(msg.Date), 0),
	}
	if msg.ReplyToMessage != nil {
		in.ReplyToText = msg.ReplyToMessage.Text
	}

	switch {
	case msg.IsCommand():
		in.Kind = bus.KindCommand
		in.Command = msg.Command()
		in.Text = msg.CommandArguments()

	case msg.Voice != nil:
		in.Kind = bus.KindVoice
		in.MediaSize = int64(msg.Voice.FileSize)
		data, err := t.downloadFileData(msg.Voice.FileID)
		if err != nil {
			log.Printf("[telegram] download voice %s failed: %v", msg.Voice.FileID, err)
			return
		}
		in.Media = data

	case msg.Audio != nil:
		in.Kind = bus.KindAudio
		in.MediaSize = int64(msg.Audio.FileSize)
		data, err := t.downloadFileData(msg.Audio.FileID)
		if err != nil {
			log.Printf("[telegram] download audio %s failed: %v", msg.Audio.FileID, err)
			return
		}
		in.Media = data

	case len(msg.Photo) > 0:
		in.Kind = bus.KindPhoto
		in.Text = msg.Caption
		photo := msg.Photo[len(msg.Photo)-1]
		data, err := t.downloadFileData(photo.FileID)
		if err != nil {
			log.Printf("[telegram] download photo %s failed: %v", photo.FileID, err)
			return
		}
		in.Media = data
		in.MediaSize = int64(len(data))

	case msg.Text != "":
		in.Kind = bus.KindText
		in.Text = msg.Text

	default:
		return
	}

	t.bus.Inbound <- in
}

func fullName(u *tgbotapi.User) string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

func (t *TelegramChannel) downloadFileData(fileID string) ([]byte, error) {
	if t.bot == nil {
		return nil, fmt.Errorf("telegram bot not initialized")
	}

	file, err := t.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get telegram file: %w", err)
	}

	client := t.httpClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Get(file.Link(t.token))
	if err != nil {
		return nil, fmt.Errorf("download telegram file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download telegram file: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read telegram file body: %w", err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("telegram file is empty")
	}

	return data, nil
}

func (t *TelegramChannel) Stop() error {
	if t.cancel != nil {
		t.cancel()
	}
	if t.bot != nil {
		t.bot.StopReceivingUpdates()
	}
	log.Printf("[telegram] stopped")
	return nil
}

// SetBot sets the bot (for testing)
func (t *TelegramChannel) SetBot(bot TelegramBot) {
	t.bot = bot
}

func (t *TelegramChannel) Send(msg bus.OutboundMessage) error {
	if t.bot == nil {
		return fmt.Errorf("telegram bot not initialized")
	}

	switch {
	case len(msg.Voice) > 0:
		return t.sendVoice(msg)
	case len(msg.Photo) > 0:
		return t.sendPhoto(msg)
	case len(msg.Document) > 0 || msg.DocumentPath != "":
		return t.sendDocument(msg)
	}
	return t.sendText(msg)
}

func (t *TelegramChannel) sendVoice(msg bus.OutboundMessage) error {
	name := msg.VoiceName
	if name == "" {
		name = "voice.ogg"
	}
	voice := tgbotapi.NewVoice(msg.ChatID, tgbotapi.FileBytes{Name: name, Bytes: msg.Voice})
	if _, err := t.bot.Send(voice); err != nil {
		return fmt.Errorf("send telegram voice: %w", err)
	}
	return nil
}

func (t *TelegramChannel) sendPhoto(msg bus.OutboundMessage) error {
	name := msg.PhotoName
	if name == "" {
		name = "photo.png"
	}
	photo := tgbotapi.NewPhoto(msg.ChatID, tgbotapi.FileBytes{Name: name, Bytes: msg.Photo})
	photo.Caption = msg.Caption
	photo.ParseMode = tgbotapi.ModeHTML
	if markup := replyMarkup(msg); markup != nil {
		photo.ReplyMarkup = markup
	}
	if _, err := t.bot.Send(photo); err != nil {
		return fmt.Errorf("send telegram photo: %w", err)
	}
	return nil
}

func (t *TelegramChannel) sendDocument(msg bus.OutboundMessage) error {
	var file tgbotapi.RequestFileData
	if len(msg.Document) > 0 {
		name := msg.DocumentName
		if name == "" {
			name = "document"
		}
		file = tgbotapi.FileBytes{Name: name, Bytes: msg.Document}
	} else {
		file = tgbotapi.FilePath(msg.DocumentPath)
	}
	doc := tgbotapi.NewDocument(msg.ChatID, file)
	doc.Caption = msg.Caption
	doc.ParseMode = tgbotapi.ModeHTML
	if _, err := t.bot.Send(doc); err != nil {
		return fmt.Errorf("send telegram document: %w", err)
	}
	return nil
}

func (t *TelegramChannel) sendText(msg bus.OutboundMessage) error {
	chunks := chunkText(msg.Text)
	for i, chunk := range chunks {
		tgMsg := tgbotapi.NewMessage(msg.ChatID, chunk)
		tgMsg.ParseMode = tgbotapi.ModeHTML
		tgMsg.DisableWebPagePreview = msg.DisablePreview
		// Keyboard goes on the last piece only.
		if i == len(chunks)-1 {
			if markup := replyMarkup(msg); markup != nil {
				tgMsg.ReplyMarkup = markup
			}
		}
		if _, err := t.bot.Send(tgMsg); err != nil {
			// Retry without HTML parse mode
			tgMsg.ParseMode = ""
			if _, err2 := t.bot.Send(tgMsg); err2 != nil {
				return fmt.Errorf("send telegram message: %w", err2)
			}
		}
	}
	return nil
}

// chunkText splits a message that exceeds the Telegram limit, preferring a
// newline boundary. Counting runes keeps Cyrillic text from splitting
// mid-character.
func chunkText(content string) []string {
	const maxLen = 4000

	runes := []rune(content)
	if len(runes) <= maxLen {
		return []string{content}
	}

	var chunks []string
	for len(runes) > 0 {
		if len(runes) <= maxLen {
			chunks = append(chunks, string(runes))
			break
		}
		cut := maxLen
		if idx := strings.LastIndex(string(runes[:maxLen]), "\n"); idx > 0 {
			cut = len([]rune(string(runes[:maxLen])[:idx]))
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
		for len(runes) > 0 && runes[0] == '\n' {
			runes = runes[1:]
		}
	}
	return chunks
}
