package dialog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/takelab/metodist/internal/bus"
	"github.com/takelab/metodist/internal/config"
	"github.com/takelab/metodist/internal/corpus"
	"github.com/takelab/metodist/internal/files"
	"github.com/takelab/metodist/internal/provider"
	"github.com/takelab/metodist/internal/registry"
	"github.com/takelab/metodist/internal/session"
)

type genCall struct {
	systemPrompt string
	userText     string
	contextText  string
	history      []provider.Turn
}

type fakeGenerator struct {
	gen   provider.Generation
	err   error
	calls []genCall
}

func (f *fakeGenerator) Generate(ctx context.Context, systemPrompt, userText, contextText string, history []provider.Turn, displayName string) (provider.Generation, error) {
	f.calls = append(f.calls, genCall{systemPrompt, userText, contextText, history})
	return f.gen, f.err
}

type fakeSpeech struct {
	transcript string
	audio      []byte
	sttErr     error
	ttsErr     error
}

func (f *fakeSpeech) ToText(ctx context.Context, audio []byte) (string, error) {
	return f.transcript, f.sttErr
}

func (f *fakeSpeech) ToSpeech(ctx context.Context, text string) ([]byte, error) {
	return f.audio, f.ttsErr
}

type fakeVision struct {
	text string
	err  error
}

func (f *fakeVision) Recognize(ctx context.Context, image []byte) (string, error) {
	return f.text, f.err
}

type fakeVLM struct {
	text string
	err  error
}

func (f *fakeVLM) Describe(ctx context.Context, prompt string, image []byte) (string, error) {
	return f.text, f.err
}

type fakeSearch struct {
	result *provider.WebSearchResult
	err    error
}

func (f *fakeSearch) Search(ctx context.Context, query string) (*provider.WebSearchResult, error) {
	return f.result, f.err
}

type testEnv struct {
	router   *Router
	sessions *session.Store
	gen      *fakeGenerator
	speech   *fakeSpeech
	search   *fakeSearch
}

const adminChatID int64 = 900

func newTestEnv(t *testing.T, corpusDocs map[string]string) *testEnv {
	t.Helper()

	dir := t.TempDir()
	corpusDir := filepath.Join(dir, "markdown")
	if err := os.MkdirAll(corpusDir, 0755); err != nil {
		t.Fatal(err)
	}
	for name, content := range corpusDocs {
		if err := os.WriteFile(filepath.Join(corpusDir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	store := corpus.NewStore(corpusDir)
	if err := store.Load(); err != nil {
		t.Fatalf("load corpus: %v", err)
	}

	users, err := registry.NewStore(filepath.Join(dir, "users.db"))
	if err != nil {
		t.Fatalf("open registry: %v", err)
	}
	t.Cleanup(func() { users.Close() })

	idx, err := files.Load(filepath.Join(dir, "file_index.json"), filepath.Join(dir, "documents"))
	if err != nil {
		t.Fatalf("load file index: %v", err)
	}

	dialogCfg := config.DefaultConfig().Dialog
	gen := &fakeGenerator{gen: provider.Generation{Text: "ответ", Suggestions: []string{"Ещё вопрос"}}}
	speech := &fakeSpeech{transcript: "вопрос голосом", audio: []byte("ogg")}
	search := &fakeSearch{}

	engine := corpus.NewEngine(store, dialogCfg)
	sessions := session.NewStore()

	router := NewRouter(Deps{
		Sessions:    sessions,
		Assembler:   NewAssembler(engine, gen, dialogCfg),
		Corpus:      store,
		Users:       users,
		Files:       idx,
		Speech:      speech,
		OCR:         &fakeVision{text: "сырой текст"},
		VLM:         &fakeVLM{text: "описание снимка"},
		Search:      search,
		Dialog:      dialogCfg,
		Data:        config.DataConfig{PDFDir: filepath.Join(dir, "pdf")},
		AdminChatID: adminChatID,
	})

	return &testEnv{router: router, sessions: sessions, gen: gen, speech: speech, search: search}
}

func textMsg(chatID int64, text string) bus.InboundMessage {
	return bus.InboundMessage{
		Channel:   "telegram",
		Kind:      bus.KindText,
		UserID:    chatID,
		ChatID:    chatID,
		FirstName: "Анна",
		Text:      text,
	}
}

func callbackMsg(chatID int64, data string) bus.InboundMessage {
	return bus.InboundMessage{
		Channel:  "telegram",
		Kind:     bus.KindCallback,
		UserID:   chatID,
		ChatID:   chatID,
		Callback: data,
	}
}

// Assembler behavior.

func TestAssembler_SmallTalkSkipsRetrieval(t *testing.T) {
	env := newTestEnv(t, map[string]string{
		"doc.md": "---\ntitle: Приветствие новых сотрудников\n---\nпривет привет привет привет",
	})

	out := env.router.Handle(context.Background(), textMsg(1, "Привет"))
	if len(out) == 0 {
		t.Fatal("expected a reply")
	}
	call := env.gen.calls[0]
	if call.systemPrompt != chitChatPrompt {
		t.Error("small talk must use the conversational persona")
	}
	if call.contextText != "" {
		t.Errorf("small talk must skip retrieval, got context %q", call.contextText)
	}
}

func TestAssembler_SmallTalkKeepsMediaContext(t *testing.T) {
	env := newTestEnv(t, nil)
	sess := env.sessions.Get(1)
	sess.SetRecognizedText("текст с фотографии", 3500)

	env.router.Handle(context.Background(), textMsg(1, "Привет"))

	call := env.gen.calls[0]
	if !strings.Contains(call.contextText, "КОНТЕКСТ ИЗ ФОТО:") {
		t.Error("recognized media context must be injected even for small talk")
	}
	if call.systemPrompt != chitChatPrompt {
		t.Error("small talk persona must not change")
	}
}

func TestAssembler_GroundedAnswerUsesKnowledgePersona(t *testing.T) {
	env := newTestEnv(t, map[string]string{
		"doc.md": "---\ntitle: Комплектование фондов\nslug: fondy\nfile_name: fondy.pdf\n---\nПолное руководство по комплектованию фондов.",
	})

	out := env.router.Handle(context.Background(), textMsg(1, "Расскажи про комплектование фондов"))
	if len(out) == 0 {
		t.Fatal("expected a reply")
	}

	call := env.gen.calls[0]
	if call.systemPrompt != systemPrompt {
		t.Error("a grounded answer must use the knowledge persona")
	}
	if !strings.Contains(call.contextText, "БАЗА ЗНАНИЙ:") {
		t.Error("excerpt must be layered under the knowledge-base header")
	}

	last := out[len(out)-1]
	if !strings.Contains(last.Text, "Источник: Комплектование фондов") {
		t.Errorf("answer must carry source attribution, got %q", last.Text)
	}
	if last.SourceSlug != "fondy" {
		t.Errorf("SourceSlug = %q, want fondy", last.SourceSlug)
	}
	if last.Menu.Kind != bus.MenuSmart {
		t.Errorf("Menu = %q, want smart keyboard", last.Menu.Kind)
	}
}

func TestAssembler_GeneratorErrorFallsBack(t *testing.T) {
	env := newTestEnv(t, nil)
	env.gen.err = context.DeadlineExceeded
	env.gen.gen = provider.Generation{}

	out := env.router.Handle(context.Background(), textMsg(1, "Вопрос про оформление изданий"))
	if len(out) == 0 {
		t.Fatal("expected a reply")
	}
	if out[0].Text != fallbackText {
		t.Errorf("Text = %q, want fallback", out[0].Text)
	}
	if len(out[0].Suggestions) != 0 {
		t.Error("fallback reply must carry no suggestions")
	}
}

func TestAssembler_HistoryAccumulates(t *testing.T) {
	env := newTestEnv(t, nil)

	env.router.Handle(context.Background(), textMsg(1, "Первый вопрос про издания"))
	env.router.Handle(context.Background(), textMsg(1, "Второй вопрос про издания"))

	second := env.gen.calls[1]
	if len(second.history) != 2 {
		t.Fatalf("history length = %d, want 2", len(second.history))
	}
	if second.history[0].Text != "Первый вопрос про издания" {
		t.Errorf("history[0] = %q", second.history[0].Text)
	}
}

// Router state machine.

func TestRouter_FeedbackFlow(t *testing.T) {
	env := newTestEnv(t, nil)

	env.router.Handle(context.Background(), textMsg(5, labelFeedback))
	if env.sessions.Get(5).State != session.StateFeedback {
		t.Fatal("label must switch to feedback state")
	}

	out := env.router.Handle(context.Background(), textMsg(5, "У меня не открывается база"))
	if len(out) != 2 {
		t.Fatalf("replies = %d, want relay + confirmation", len(out))
	}
	relay := out[0]
	if relay.ChatID != adminChatID {
		t.Errorf("relay ChatID = %d, want admin %d", relay.ChatID, adminChatID)
	}
	if !strings.Contains(relay.Text, "ID: 5") {
		t.Error("relay must carry the author id for reply routing")
	}
	if !strings.Contains(relay.Text, "У меня не открывается база") {
		t.Error("relay must carry the original text")
	}
	if env.sessions.Get(5).State != session.StateMain {
		t.Error("feedback is terminal, state must return to main")
	}
}

func TestRouter_AdminReplyRelay(t *testing.T) {
	env := newTestEnv(t, nil)

	in := textMsg(adminChatID, "Починили, проверьте")
	in.ReplyToText = "✉️ Новое сообщение\nОт: Анна (@anna)\nID: 777\n\nтекст"

	out := env.router.Handle(context.Background(), in)
	if len(out) != 2 {
		t.Fatalf("replies = %d, want forward + confirmation", len(out))
	}
	if out[0].ChatID != 777 {
		t.Errorf("forward ChatID = %d, want 777", out[0].ChatID)
	}
	if !strings.Contains(out[0].Text, "Починили, проверьте") {
		t.Error("forward must carry the admin's text")
	}
}

func TestRouter_WebSearchFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	env.search.result = &provider.WebSearchResult{
		Answer: "Найденный ответ",
		Sources: []provider.WebSource{
			{Title: "Портал", URL: "https://gov.ru", Used: true},
		},
	}

	env.router.Handle(context.Background(), textMsg(2, labelWebSearch))
	out := env.router.Handle(context.Background(), textMsg(2, "статистика библиотек"))

	if len(out) == 0 {
		t.Fatal("expected a reply")
	}
	if !strings.Contains(out[0].Text, "Результат поиска") {
		t.Errorf("Text = %q", out[0].Text)
	}
	if !out[0].DisablePreview {
		t.Error("search results must disable link previews")
	}
	if env.sessions.Get(2).State != session.StateMain {
		t.Error("web search is terminal, state must return to main")
	}
}

func TestRouter_WebSearchError(t *testing.T) {
	env := newTestEnv(t, nil)
	env.search.err = context.DeadlineExceeded

	env.router.Handle(context.Background(), textMsg(2, labelWebSearch))
	out := env.router.Handle(context.Background(), textMsg(2, "запрос"))

	if len(out) != 1 || !strings.Contains(out[0].Text, "Не удалось выполнить поиск") {
		t.Errorf("out = %#v", out)
	}
	if env.sessions.Get(2).State != session.StateMain {
		t.Error("state must return to main even on failure")
	}
}

func TestRouter_QRGenerationFlow(t *testing.T) {
	env := newTestEnv(t, nil)

	env.router.Handle(context.Background(), callbackMsg(3, "generate_qr_start"))
	if env.sessions.Get(3).State != session.StateQRGen {
		t.Fatal("callback must enter QR generation state")
	}

	out := env.router.Handle(context.Background(), textMsg(3, "https://example.com"))
	if len(out) != 1 {
		t.Fatalf("replies = %d, want 1", len(out))
	}
	if len(out[0].Photo) == 0 {
		t.Error("QR reply must carry an image")
	}
	if env.sessions.Get(3).State != session.StateMain {
		t.Error("QR generation is terminal")
	}
}

func TestRouter_StaleSuggestion(t *testing.T) {
	env := newTestEnv(t, nil)

	out := env.router.Handle(context.Background(), callbackMsg(4, "ask_suggestion:9"))
	if len(out) != 1 || !strings.Contains(out[0].Text, "Подсказка устарела") {
		t.Errorf("out = %#v", out)
	}
	if len(env.gen.calls) != 0 {
		t.Error("an out-of-range suggestion must not reach the generator")
	}
}

func TestRouter_SuggestionFallsBackToStartupTopics(t *testing.T) {
	env := newTestEnv(t, nil)

	env.router.Handle(context.Background(), callbackMsg(4, "ask_suggestion:0"))
	if len(env.gen.calls) != 1 {
		t.Fatal("a valid startup suggestion must be answered")
	}
	if env.gen.calls[0].userText != startupSuggestions[0] {
		t.Errorf("userText = %q, want %q", env.gen.calls[0].userText, startupSuggestions[0])
	}
}

func TestRouter_RegenerateUsesLastQuery(t *testing.T) {
	env := newTestEnv(t, nil)

	env.router.Handle(context.Background(), textMsg(6, "Вопрос про оформление методических изданий"))
	env.router.Handle(context.Background(), callbackMsg(6, "regenerate"))

	if len(env.gen.calls) != 2 {
		t.Fatalf("generator calls = %d, want 2", len(env.gen.calls))
	}
	if env.gen.calls[1].userText != env.gen.calls[0].userText {
		t.Error("regenerate must replay the last query")
	}
}

func TestRouter_RegenerateWithoutQuery(t *testing.T) {
	env := newTestEnv(t, nil)

	out := env.router.Handle(context.Background(), callbackMsg(6, "regenerate"))
	if len(out) != 1 || !strings.Contains(out[0].Text, "Нет предыдущего запроса") {
		t.Errorf("out = %#v", out)
	}
}

func TestRouter_VoiceTooLarge(t *testing.T) {
	env := newTestEnv(t, nil)

	in := textMsg(7, "")
	in.Kind = bus.KindVoice
	in.MediaSize = 2 << 20

	out := env.router.Handle(context.Background(), in)
	if len(out) != 1 || !strings.Contains(out[0].Text, "слишком большой") {
		t.Errorf("out = %#v", out)
	}
}

func TestRouter_VoiceToTextEchoes(t *testing.T) {
	env := newTestEnv(t, nil)
	env.sessions.Get(7).Settings.VoiceMode = session.VoiceVoiceToText

	in := textMsg(7, "")
	in.Kind = bus.KindVoice
	in.Media = []byte("ogg")
	in.MediaSize = 100

	out := env.router.Handle(context.Background(), in)
	if len(out) != 1 || !strings.Contains(out[0].Text, "вопрос голосом") {
		t.Errorf("out = %#v", out)
	}
	if len(env.gen.calls) != 0 {
		t.Error("voice_to_text must not call the generator")
	}
}

func TestRouter_VoiceToVoiceAnswersWithAudio(t *testing.T) {
	env := newTestEnv(t, nil)
	env.sessions.Get(7).Settings.VoiceMode = session.VoiceVoiceToVoice

	in := textMsg(7, "")
	in.Kind = bus.KindVoice
	in.Media = []byte("ogg")
	in.MediaSize = 100

	out := env.router.Handle(context.Background(), in)
	if len(out) != 1 || len(out[0].Voice) == 0 {
		t.Errorf("out = %#v, want a voice reply", out)
	}
}

func TestRouter_AudioRecognitionStoresContext(t *testing.T) {
	env := newTestEnv(t, nil)

	env.router.Handle(context.Background(), callbackMsg(12, "enter_recognition_menu"))
	env.router.Handle(context.Background(), callbackMsg(12, "set_recog:audio"))

	in := textMsg(12, "")
	in.Kind = bus.KindVoice
	in.Media = []byte("ogg")
	in.MediaSize = 100

	out := env.router.Handle(context.Background(), in)
	if len(out) != 1 || !strings.Contains(out[0].Text, "Расшифровка") {
		t.Fatalf("out = %#v", out)
	}
	sess := env.sessions.Get(12)
	if sess.LastRecognizedText != "вопрос голосом" {
		t.Errorf("LastRecognizedText = %q, want the transcript kept as media context", sess.LastRecognizedText)
	}
}

func TestRouter_VoiceInFeedbackStateRelaysTranscript(t *testing.T) {
	env := newTestEnv(t, nil)
	env.sessions.Get(13).State = session.StateFeedback

	in := textMsg(13, "")
	in.Kind = bus.KindVoice
	in.Media = []byte("ogg")
	in.MediaSize = 100

	out := env.router.Handle(context.Background(), in)
	if len(out) != 2 {
		t.Fatalf("out = %#v, want relay and confirmation", out)
	}
	if out[0].ChatID != adminChatID || !strings.Contains(out[0].Text, "вопрос голосом") {
		t.Errorf("relay = %#v, want the transcript forwarded to admin", out[0])
	}
	if len(env.gen.calls) != 0 {
		t.Error("voice in feedback state must not reach the assistant")
	}
	if env.sessions.Get(13).State != session.StateMain {
		t.Error("feedback must return to main after the voice payload")
	}
}

func TestRouter_VoiceConsumedByCapturingStates(t *testing.T) {
	states := []session.State{
		session.StateFeedback,
		session.StateIdea,
		session.StateWebSearch,
		session.StateQRGen,
		session.StateCreative,
	}
	for _, st := range states {
		env := newTestEnv(t, nil)
		env.sessions.Get(14).State = st

		in := textMsg(14, "")
		in.Kind = bus.KindVoice
		in.Media = []byte("ogg")
		in.MediaSize = 100

		out := env.router.Handle(context.Background(), in)
		if len(out) == 0 {
			t.Errorf("state %q: voice must produce a reply", st)
		}
		if env.sessions.Get(14).LastQuery != "" {
			t.Errorf("state %q: voice payload was routed to general Q&A", st)
		}
	}
}

func TestRouter_RecognitionStateIsSticky(t *testing.T) {
	env := newTestEnv(t, nil)

	env.router.Handle(context.Background(), callbackMsg(8, "enter_recognition_menu"))
	sess := env.sessions.Get(8)
	if sess.State != session.StateRecognition {
		t.Fatal("callback must enter recognition state")
	}

	in := textMsg(8, "")
	in.Kind = bus.KindPhoto
	in.Media = []byte("jpg")

	out := env.router.Handle(context.Background(), in)
	if len(out) != 1 || !strings.Contains(out[0].Text, "Распознанный текст") {
		t.Errorf("out = %#v", out)
	}
	if sess.State != session.StateRecognition {
		t.Error("recognition must stay active after processing")
	}
	if sess.LastRecognizedText == "" {
		t.Error("recognized text must persist as media context")
	}
}

func TestRouter_PhotoIgnoredOutsideRecognition(t *testing.T) {
	env := newTestEnv(t, nil)

	in := textMsg(9, "")
	in.Kind = bus.KindPhoto
	in.Media = []byte("jpg")

	if out := env.router.Handle(context.Background(), in); out != nil {
		t.Errorf("out = %#v, want nil", out)
	}
}

func TestRouter_SetVoiceMode(t *testing.T) {
	env := newTestEnv(t, nil)

	env.router.Handle(context.Background(), callbackMsg(10, "set_voice_mode:voice_to_voice"))
	if got := env.sessions.Get(10).Settings.VoiceMode; got != session.VoiceVoiceToVoice {
		t.Errorf("VoiceMode = %q, want voice_to_voice", got)
	}
}

func TestRouter_CreativeRequiresGenre(t *testing.T) {
	env := newTestEnv(t, nil)

	env.router.Handle(context.Background(), textMsg(11, labelCreative))
	out := env.router.Handle(context.Background(), textMsg(11, "Открытие выставки"))
	if len(out) != 1 || !strings.Contains(out[0].Text, "выберите жанр") {
		t.Errorf("out = %#v", out)
	}

	env.router.Handle(context.Background(), callbackMsg(11, "creative:post"))
	out = env.router.Handle(context.Background(), textMsg(11, "Открытие выставки"))
	if len(out) == 0 || out[0].Text != "ответ" {
		t.Errorf("out = %#v, want a drafted text", out)
	}
	if env.sessions.Get(11).State != session.StateCreative {
		t.Error("creative mode must stay active between drafts")
	}
}

func TestRouter_GetPDFUnknownSlug(t *testing.T) {
	env := newTestEnv(t, nil)

	out := env.router.Handle(context.Background(), callbackMsg(12, "get_pdf:missing"))
	if len(out) != 1 || !strings.Contains(out[0].Text, "Файл не найден") {
		t.Errorf("out = %#v", out)
	}
}

func TestRouter_StartResetsSession(t *testing.T) {
	env := newTestEnv(t, nil)
	env.sessions.Get(13).State = session.StateFeedback

	in := textMsg(13, "")
	in.Kind = bus.KindCommand
	in.Command = "start"

	out := env.router.Handle(context.Background(), in)
	if len(out) != 2 {
		t.Fatalf("replies = %d, want greeting + topics", len(out))
	}
	if out[0].Menu.Kind != bus.MenuMain {
		t.Error("greeting must restore the main menu")
	}
	if len(out[1].Suggestions) == 0 {
		t.Error("topics message must carry startup suggestions")
	}
	if env.sessions.Get(13).State != session.StateMain {
		t.Error("start must reset the session state")
	}
}
