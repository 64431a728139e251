// Package gateway wires the transports, the dialog state machine and the
// background jobs together and owns the process lifecycle.
package gateway

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/takelab/metodist/internal/bus"
	"github.com/takelab/metodist/internal/channel"
	"github.com/takelab/metodist/internal/config"
	"github.com/takelab/metodist/internal/corpus"
	"github.com/takelab/metodist/internal/dialog"
	"github.com/takelab/metodist/internal/files"
	"github.com/takelab/metodist/internal/provider"
	"github.com/takelab/metodist/internal/registry"
	"github.com/takelab/metodist/internal/session"
)

const busBufSize = 64

// Options for creating a Gateway
type Options struct {
	// ChannelManager overrides the default Telegram-only manager in tests.
	ChannelManager *channel.ChannelManager
	SignalChan     chan os.Signal
}

type Gateway struct {
	cfg      *config.Config
	bus      *bus.MessageBus
	router   *dialog.Router
	corpus   *corpus.Store
	users    *registry.Store
	channels *channel.ChannelManager
	cron     *cron.Cron

	signalChan chan os.Signal
}

func New(cfg *config.Config) (*Gateway, error) {
	return NewWithOptions(cfg, Options{})
}

func NewWithOptions(cfg *config.Config, opts Options) (*Gateway, error) {
	g := &Gateway{cfg: cfg}

	g.bus = bus.NewMessageBus(busBufSize)

	users, err := registry.NewStore(cfg.Data.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open user registry: %w", err)
	}
	g.users = users

	g.corpus = corpus.NewStore(cfg.Data.CorpusDir)
	if err := g.corpus.Load(); err != nil {
		log.Printf("[gateway] corpus load warning: %v", err)
	}
	log.Printf("[gateway] corpus loaded: %d documents", g.corpus.Count())

	fileIndex, err := files.Load(cfg.Data.FileIndexPath, cfg.Data.DocumentsDir)
	if err != nil {
		log.Printf("[gateway] file index warning: %v", err)
	}

	httpClient := http.DefaultClient
	generator := provider.NewYandexGPT(cfg.Yandex, httpClient)
	engine := corpus.NewEngine(g.corpus, cfg.Dialog)
	assembler := dialog.NewAssembler(engine, generator, cfg.Dialog)

	g.router = dialog.NewRouter(dialog.Deps{
		Sessions:    session.NewStore(),
		Assembler:   assembler,
		Corpus:      g.corpus,
		Users:       users,
		Files:       fileIndex,
		Speech:      provider.NewSpeechKit(cfg.Yandex, httpClient),
		OCR:         provider.NewVisionOCR(cfg.Yandex, httpClient),
		VLM:         provider.NewGalleryVLM(cfg.Yandex),
		Search:      provider.NewGenSearch(cfg.Yandex, httpClient),
		Dialog:      cfg.Dialog,
		Data:        cfg.Data,
		AdminChatID: cfg.Telegram.AdminID,
	})

	chMgr := opts.ChannelManager
	if chMgr == nil {
		chMgr, err = channel.NewChannelManager(cfg.Telegram, g.bus)
		if err != nil {
			_ = users.Close()
			return nil, fmt.Errorf("create channel manager: %w", err)
		}
	}
	g.channels = chMgr

	g.cron = cron.New(cron.WithSeconds())
	if _, err := g.cron.AddFunc(cfg.Dialog.CorpusReloadExpr, g.reloadCorpus); err != nil {
		_ = users.Close()
		return nil, fmt.Errorf("schedule corpus reload: %w", err)
	}

	g.signalChan = opts.SignalChan
	return g, nil
}

func (g *Gateway) reloadCorpus() {
	if err := g.corpus.Load(); err != nil {
		log.Printf("[gateway] corpus reload failed: %v", err)
		return
	}
	log.Printf("[gateway] corpus reloaded: %d documents", g.corpus.Count())
}

func (g *Gateway) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go g.bus.DispatchOutbound(ctx)

	if err := g.channels.StartAll(ctx); err != nil {
		return fmt.Errorf("start channels: %w", err)
	}
	log.Printf("[gateway] channels started: %v", g.channels.EnabledChannels())

	g.cron.Start()

	go g.processLoop(ctx)

	sigCh := g.signalChan
	if sigCh == nil {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	}
	<-sigCh

	log.Printf("[gateway] shutting down...")
	return g.Shutdown()
}

func (g *Gateway) processLoop(ctx context.Context) {
	for {
		select {
		case msg := <-g.bus.Inbound:
			log.Printf("[gateway] inbound %s from %s/%d: %s",
				msg.Kind, msg.Channel, msg.UserID, truncate(describeInbound(msg), 80))

			if msg.Kind == bus.KindCommand && msg.Command == "broadcast" {
				g.handleBroadcast(msg)
				continue
			}

			for _, out := range g.router.Handle(ctx, msg) {
				g.bus.Outbound <- out
			}
		case <-ctx.Done():
			return
		}
	}
}

// handleBroadcast fans a message out to every registered user over a direct
// channel send, so failures are visible and counted. One blocked user must
// not stop the rest.
func (g *Gateway) handleBroadcast(msg bus.InboundMessage) {
	reply := func(text string) {
		g.bus.Outbound <- bus.OutboundMessage{Channel: msg.Channel, ChatID: msg.ChatID, Text: text}
	}

	if msg.ChatID != g.cfg.Telegram.AdminID {
		reply("Эта команда доступна только администратору.")
		return
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		reply("Использование: /broadcast текст рассылки")
		return
	}

	ch, ok := g.channels.Get(msg.Channel)
	if !ok {
		reply("Канал недоступен.")
		return
	}

	ids, err := g.users.AllUserIDs()
	if err != nil {
		log.Printf("[gateway] broadcast: list users: %v", err)
		reply("Не удалось получить список пользователей.")
		return
	}

	delivered := 0
	for _, id := range ids {
		err := ch.Send(bus.OutboundMessage{
			Channel: msg.Channel,
			ChatID:  id,
			Text:    "📢 " + text,
		})
		if err != nil {
			log.Printf("[gateway] broadcast to %d failed: %v", id, err)
			continue
		}
		delivered++
	}

	reply(fmt.Sprintf("Рассылка завершена. Доставлено: %d из %d.", delivered, len(ids)))
}

func (g *Gateway) Shutdown() error {
	g.cron.Stop()
	if err := g.channels.StopAll(); err != nil {
		log.Printf("[gateway] stop channels: %v", err)
	}
	if err := g.users.Close(); err != nil {
		log.Printf("[gateway] close registry: %v", err)
	}
	log.Printf("[gateway] stopped")
	return nil
}

func describeInbound(msg bus.InboundMessage) string {
	switch msg.Kind {
	case bus.KindCommand:
		return "/" + msg.Command
	case bus.KindCallback:
		return msg.Callback
	case bus.KindText:
		return msg.Text
	}
	return fmt.Sprintf("%d bytes", len(msg.Media))
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
