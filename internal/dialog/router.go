package dialog

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/takelab/metodist/internal/bus"
	"github.com/takelab/metodist/internal/config"
	"github.com/takelab/metodist/internal/corpus"
	"github.com/takelab/metodist/internal/files"
	"github.com/takelab/metodist/internal/media"
	"github.com/takelab/metodist/internal/provider"
	"github.com/takelab/metodist/internal/registry"
	"github.com/takelab/metodist/internal/session"
)

// adminReplyID extracts the target user id from a relayed feedback message
// the admin replied to.
var adminReplyID = regexp.MustCompile(`ID: (\d+)`)

var htmlTag = regexp.MustCompile(`<[^>]+>`)

// Deps are the collaborators the router needs. Everything external is an
// interface so tests can drop in fakes.
type Deps struct {
	Sessions  *session.Store
	Assembler *Assembler
	Corpus    *corpus.Store
	Users     *registry.Store
	Files     *files.Index
	Speech    provider.Speech
	OCR       provider.Vision
	VLM       provider.VisionLanguage
	Search    provider.WebSearch

	Dialog config.DialogConfig
	Data   config.DataConfig

	// AdminChatID receives feedback, ideas and error relays.
	AdminChatID int64
}

// Router is the per-chat dialog state machine. One inbound event maps to
// zero or more outbound messages; errors surface to the user as short
// notices, never as silence on a state-entering action.
type Router struct {
	d Deps

	textHandlers map[session.State]func(context.Context, *session.Session, bus.InboundMessage) []bus.OutboundMessage
}

func NewRouter(d Deps) *Router {
	r := &Router{d: d}
	r.textHandlers = map[session.State]func(context.Context, *session.Session, bus.InboundMessage) []bus.OutboundMessage{
		session.StateFeedback:  r.feedbackText,
		session.StateIdea:      r.ideaText,
		session.StateWebSearch: r.webSearchText,
		session.StateQRGen:     r.qrGenText,
		session.StateCreative:  r.creativeText,
	}
	return r
}

// Handle routes one inbound event through the state machine.
func (r *Router) Handle(ctx context.Context, in bus.InboundMessage) []bus.OutboundMessage {
	sess := r.d.Sessions.Get(in.ChatID)

	switch in.Kind {
	case bus.KindCommand:
		return r.handleCommand(ctx, sess, in)
	case bus.KindCallback:
		return r.handleCallback(ctx, sess, in)
	case bus.KindText:
		return r.handleText(ctx, sess, in)
	case bus.KindVoice, bus.KindAudio:
		return r.handleVoice(ctx, sess, in)
	case bus.KindPhoto:
		return r.handlePhoto(ctx, sess, in)
	}
	return nil
}

func (r *Router) reply(in bus.InboundMessage, text string) bus.OutboundMessage {
	return bus.OutboundMessage{Channel: in.Channel, ChatID: in.ChatID, Text: text}
}

func (r *Router) replyMenu(in bus.InboundMessage, text string, menu bus.Menu) bus.OutboundMessage {
	out := r.reply(in, text)
	out.Menu = menu
	return out
}

func (r *Router) handleCommand(ctx context.Context, sess *session.Session, in bus.InboundMessage) []bus.OutboundMessage {
	switch in.Command {
	case "start":
		if err := r.d.Users.AddUser(in.UserID, in.Username, in.FirstName, in.FullName); err != nil {
			log.Printf("[dialog] register user %d: %v", in.UserID, err)
		}
		r.d.Sessions.Reset(in.ChatID)

		name := in.FirstName
		if name == "" {
			name = "коллега"
		}
		greeting := fmt.Sprintf(
			"Здравствуйте, %s! 👋\nЯ — цифровой помощник научно-методического отдела Национальной библиотеки Республики Адыгея.\n\nЗадайте вопрос в свободной форме или воспользуйтесь меню.",
			name)

		welcome := r.replyMenu(in, greeting, bus.Menu{Kind: bus.MenuMain})
		topics := r.replyMenu(in, "С чего начнём? Вот популярные темы:", bus.Menu{Kind: bus.MenuSmart})
		topics.Suggestions = startupSuggestions
		return []bus.OutboundMessage{welcome, topics}
	}
	return nil
}

func (r *Router) handleText(ctx context.Context, sess *session.Session, in bus.InboundMessage) []bus.OutboundMessage {
	// Admin replies to relayed feedback go straight back to the author.
	if in.ChatID == r.d.AdminChatID && in.ReplyToText != "" {
		return r.adminRelay(in)
	}

	// Menu labels switch modes from any state.
	switch in.Text {
	case labelFeedback:
		sess.State = session.StateFeedback
		return []bus.OutboundMessage{r.reply(in, "✍️ Напишите ваше сообщение, и я передам его команде.")}
	case labelIdea:
		sess.State = session.StateIdea
		return []bus.OutboundMessage{r.reply(in, "💡 Опишите вашу идею или проблему. Я структурирую её и передам разработчикам.")}
	case labelWebSearch:
		sess.State = session.StateWebSearch
		return []bus.OutboundMessage{r.reply(in, "🌐 Введите запрос для поиска в сети:")}
	case labelSettings:
		sess.State = session.StateSettings
		menu := bus.Menu{Kind: bus.MenuSettings, Selected: string(sess.Settings.VoiceMode)}
		return []bus.OutboundMessage{r.replyMenu(in, "⚙️ <b>Параметры</b>\n\nВыберите режим голосового общения:", menu)}
	case labelCreative:
		sess.State = session.StateCreative
		sess.CreativeGenre = session.GenreNone
		menu := bus.Menu{Kind: bus.MenuCreative}
		return []bus.OutboundMessage{r.replyMenu(in, "✨ <b>Креативный режим</b>\n\nЧто будем создавать?", menu)}
	}

	if h, ok := r.textHandlers[sess.State]; ok {
		return h(ctx, sess, in)
	}

	switch sess.State {
	case session.StateMain, session.StateRecognition:
		return r.qaText(ctx, sess, in)
	}
	// Settings and other menu-driven states consume free text silently.
	return nil
}

func (r *Router) adminRelay(in bus.InboundMessage) []bus.OutboundMessage {
	m := adminReplyID.FindStringSubmatch(in.ReplyToText)
	if m == nil {
		return []bus.OutboundMessage{r.reply(in, "Не нашёл ID пользователя в сообщении, на которое вы ответили.")}
	}
	userID, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return []bus.OutboundMessage{r.reply(in, "Некорректный ID пользователя.")}
	}
	forwarded := bus.OutboundMessage{
		Channel: in.Channel,
		ChatID:  userID,
		Text:    "📩 <b>Ответ от администратора:</b>\n\n" + in.Text,
	}
	return []bus.OutboundMessage{forwarded, r.reply(in, "Отправлено. ✅")}
}

// qaText is the general Q&A path for free text in main and recognition
// states.
func (r *Router) qaText(ctx context.Context, sess *session.Session, in bus.InboundMessage) []bus.OutboundMessage {
	// A document request beats generation when the file index knows the file.
	if r.looksLikeFileRequest(in.Text) {
		if entry := r.d.Files.Find(in.Text); entry != nil {
			out := r.reply(in, "")
			out.DocumentPath = r.d.Files.FullPath(entry.Filename)
			out.DocumentName = entry.Filename
			out.Caption = "📄 <b>" + entry.Title + "</b>"
			return []bus.OutboundMessage{out}
		}
	}

	if sess.Settings.VoiceMode == session.VoiceTextPlayback {
		return r.speak(ctx, in, in.Text)
	}

	ans := r.d.Assembler.BuildAnswer(ctx, sess, r.displayName(in), in.Text)

	if sess.Settings.VoiceMode == session.VoiceTextToVoice {
		return r.speak(ctx, in, ans.Text)
	}
	return r.renderAnswer(in, ans)
}

func (r *Router) looksLikeFileRequest(text string) bool {
	if r.d.Files == nil || r.d.Files.Len() == 0 {
		return false
	}
	lower := strings.ToLower(text)
	for _, trigger := range fileRequestTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}

func (r *Router) displayName(in bus.InboundMessage) string {
	if user, err := r.d.Users.GetUser(in.UserID); err == nil && user != nil {
		return user.DisplayName()
	}
	return in.FirstName
}

// renderAnswer splits a long answer and attaches the smart keyboard to the
// last piece only.
func (r *Router) renderAnswer(in bus.InboundMessage, ans Answer) []bus.OutboundMessage {
	text := ans.Text
	if ans.SourceTitle != "" {
		text += "\n\n📚 <i>Источник: " + ans.SourceTitle + "</i>"
	}

	slug := ""
	if ans.SourceSlug != "" {
		if _, ok := r.d.Corpus.FilenameBySlug(ans.SourceSlug); ok {
			slug = ans.SourceSlug
		}
	}

	parts := SplitMessage(text)
	out := make([]bus.OutboundMessage, 0, len(parts))
	for i, part := range parts {
		msg := r.reply(in, part)
		if i == len(parts)-1 {
			msg.Menu = bus.Menu{Kind: bus.MenuSmart}
			msg.Suggestions = ans.Suggestions
			msg.SourceSlug = slug
		}
		out = append(out, msg)
	}
	return out
}

// speak converts text to a voice reply, degrading to plain text when
// synthesis fails.
func (r *Router) speak(ctx context.Context, in bus.InboundMessage, text string) []bus.OutboundMessage {
	plain := strings.TrimSpace(htmlTag.ReplaceAllString(text, ""))
	audio, err := r.d.Speech.ToSpeech(ctx, plain)
	if err != nil {
		log.Printf("[dialog] synthesis failed: %v", err)
		return []bus.OutboundMessage{r.reply(in, text)}
	}
	out := r.reply(in, "")
	out.Voice = audio
	out.VoiceName = "answer.ogg"
	return []bus.OutboundMessage{out}
}

func (r *Router) handleVoice(ctx context.Context, sess *session.Session, in bus.InboundMessage) []bus.OutboundMessage {
	if in.MediaSize > r.d.Dialog.MaxAudioSize {
		return []bus.OutboundMessage{r.reply(in, "⚠️ Файл слишком большой. Максимальный размер: 1 МБ.")}
	}

	// Capturing states consume the transcript as their payload, same as typed text.
	if h, ok := r.textHandlers[sess.State]; ok {
		transcript, err := r.d.Speech.ToText(ctx, in.Media)
		if err != nil {
			log.Printf("[dialog] transcription failed: %v", err)
			return []bus.OutboundMessage{r.reply(in, "Не удалось распознать речь. Попробуйте позже.")}
		}
		if transcript == "" {
			return []bus.OutboundMessage{r.reply(in, "Не удалось разобрать сообщение. Скажите ещё раз?")}
		}
		in.Text = transcript
		return h(ctx, sess, in)
	}

	if sess.State == session.StateRecognition {
		if sess.RecognitionTool != session.ToolAudio {
			return []bus.OutboundMessage{r.reply(in, "Выбран другой инструмент. Нажмите «Аудио» в меню распознавания.")}
		}
		transcript, err := r.d.Speech.ToText(ctx, in.Media)
		if err != nil {
			log.Printf("[dialog] transcription failed: %v", err)
			return []bus.OutboundMessage{r.reply(in, "Не удалось распознать аудио. Попробуйте позже.")}
		}
		if transcript == "" {
			return []bus.OutboundMessage{r.reply(in, "Речь в аудио не найдена.")}
		}
		sess.SetRecognizedText(transcript, r.d.Dialog.RecognizedTextCap)
		return []bus.OutboundMessage{r.reply(in, "🗣 <b>Расшифровка:</b>\n\n"+transcript)}
	}

	// Plain audio files outside recognition mode are not a query.
	if in.Kind == bus.KindAudio {
		return nil
	}

	transcript, err := r.d.Speech.ToText(ctx, in.Media)
	if err != nil {
		log.Printf("[dialog] transcription failed: %v", err)
		return []bus.OutboundMessage{r.reply(in, "Не удалось распознать речь. Попробуйте позже.")}
	}
	if transcript == "" {
		return []bus.OutboundMessage{r.reply(in, "Не удалось разобрать сообщение. Скажите ещё раз?")}
	}

	if sess.Settings.VoiceMode == session.VoiceVoiceToText {
		return []bus.OutboundMessage{r.reply(in, "🗣 <b>Вы сказали:</b>\n\n"+transcript)}
	}

	ans := r.d.Assembler.BuildAnswer(ctx, sess, r.displayName(in), transcript)
	if sess.Settings.VoiceMode == session.VoiceVoiceToVoice {
		return r.speak(ctx, in, ans.Text)
	}
	return r.renderAnswer(in, ans)
}

func (r *Router) handlePhoto(ctx context.Context, sess *session.Session, in bus.InboundMessage) []bus.OutboundMessage {
	if sess.State != session.StateRecognition {
		return nil
	}

	switch sess.RecognitionTool {
	case session.ToolSimpleText:
		raw, err := r.d.OCR.Recognize(ctx, in.Media)
		if err != nil {
			log.Printf("[dialog] ocr failed: %v", err)
			return []bus.OutboundMessage{r.reply(in, "Не удалось обработать изображение. Попробуйте позже.")}
		}
		if raw == "" {
			return []bus.OutboundMessage{r.reply(in, "Текст на изображении не найден.")}
		}
		clean := r.d.Assembler.GenerateWith(ctx, ocrCleanupPrompt, raw, "")
		sess.SetRecognizedText(clean, r.d.Dialog.RecognizedTextCap)
		return []bus.OutboundMessage{r.reply(in,
			"📝 <b>Распознанный текст:</b>\n\n"+clean+
				"\n\n<i>Текст сохранён. Можете задать по нему вопрос.</i>")}

	case session.ToolComplexDoc:
		text, err := r.d.VLM.Describe(ctx, vlmComplexPrompt, in.Media)
		if err != nil {
			log.Printf("[dialog] vlm failed: %v", err)
			return []bus.OutboundMessage{r.reply(in, "Не удалось обработать изображение. Попробуйте позже.")}
		}
		sess.SetRecognizedText(text, r.d.Dialog.RecognizedTextCap)
		name, payload := media.ExportRecognizedDocument(text, "Распознанный документ")
		out := r.reply(in, "")
		out.Document = payload
		out.DocumentName = name
		out.Caption = "📄 Документ распознан. Содержимое сохранено, можете задать по нему вопрос."
		return []bus.OutboundMessage{out}

	case session.ToolDescribe:
		text, err := r.d.VLM.Describe(ctx, vlmDescribePrompt, in.Media)
		if err != nil {
			log.Printf("[dialog] vlm failed: %v", err)
			return []bus.OutboundMessage{r.reply(in, "Не удалось обработать изображение. Попробуйте позже.")}
		}
		sess.SetRecognizedText(text, r.d.Dialog.RecognizedTextCap)
		return []bus.OutboundMessage{r.reply(in, CleanHTML(text))}

	case session.ToolQR:
		content, err := media.DecodeQR(in.Media)
		if err != nil {
			log.Printf("[dialog] qr decode failed: %v", err)
			return []bus.OutboundMessage{r.reply(in, "Не удалось обработать изображение. Попробуйте позже.")}
		}
		if content == "" {
			return []bus.OutboundMessage{r.reply(in, "QR-код на изображении не найден.")}
		}
		return []bus.OutboundMessage{r.reply(in, "🔗 <b>Содержимое QR-кода:</b>\n\n"+content)}

	case session.ToolAudio:
		return []bus.OutboundMessage{r.reply(in, "Выбран инструмент «Аудио». Пришлите голосовое сообщение или смените инструмент.")}
	}
	return nil
}

// State-capturing text handlers. Feedback, idea, web search and QR are
// terminal: one input, one result, back to main.

func (r *Router) feedbackText(ctx context.Context, sess *session.Session, in bus.InboundMessage) []bus.OutboundMessage {
	sess.State = session.StateMain

	relay := bus.OutboundMessage{
		Channel: in.Channel,
		ChatID:  r.d.AdminChatID,
		Text: fmt.Sprintf("✉️ <b>Новое сообщение</b>\nОт: %s (@%s)\nID: %d\n\n%s",
			r.displayName(in), in.Username, in.UserID, in.Text),
	}
	confirm := r.replyMenu(in, "Спасибо! Ваше сообщение передано команде. 🤝", bus.Menu{Kind: bus.MenuMain})
	return []bus.OutboundMessage{relay, confirm}
}

func (r *Router) ideaText(ctx context.Context, sess *session.Session, in bus.InboundMessage) []bus.OutboundMessage {
	sess.State = session.StateMain

	structured := r.d.Assembler.GenerateWith(ctx, ideaPrompt, in.Text, "")
	relay := bus.OutboundMessage{
		Channel: in.Channel,
		ChatID:  r.d.AdminChatID,
		Text: fmt.Sprintf("💡 <b>Новая идея</b>\nОт: %s (@%s)\nID: %d\n\n%s",
			r.displayName(in), in.Username, in.UserID, structured),
	}
	confirm := r.replyMenu(in, "Спасибо! Идея передана разработчикам. 🚀", bus.Menu{Kind: bus.MenuMain})
	return []bus.OutboundMessage{relay, confirm}
}

func (r *Router) webSearchText(ctx context.Context, sess *session.Session, in bus.InboundMessage) []bus.OutboundMessage {
	sess.State = session.StateMain

	result, err := r.d.Search.Search(ctx, in.Text)
	if err != nil {
		log.Printf("[dialog] web search failed: %v", err)
		return []bus.OutboundMessage{r.replyMenu(in, "Не удалось выполнить поиск. Попробуйте позже.", bus.Menu{Kind: bus.MenuMain})}
	}
	if result == nil || result.Answer == "" {
		return []bus.OutboundMessage{r.replyMenu(in, "По вашему запросу ничего не найдено.", bus.Menu{Kind: bus.MenuMain})}
	}

	parts := SplitMessage(FormatWebSearchResult(result.Answer, result.Sources))
	out := make([]bus.OutboundMessage, 0, len(parts))
	for i, part := range parts {
		msg := r.reply(in, part)
		msg.DisablePreview = true
		if i == len(parts)-1 {
			msg.Menu = bus.Menu{Kind: bus.MenuMain}
		}
		out = append(out, msg)
	}
	return out
}

func (r *Router) qrGenText(ctx context.Context, sess *session.Session, in bus.InboundMessage) []bus.OutboundMessage {
	sess.State = session.StateMain

	png, err := media.GenerateQR(in.Text)
	if err != nil {
		log.Printf("[dialog] qr generation failed: %v", err)
		return []bus.OutboundMessage{r.replyMenu(in, "Не удалось создать QR-код из этого текста.", bus.Menu{Kind: bus.MenuMain})}
	}
	out := r.reply(in, "")
	out.Photo = png
	out.PhotoName = "qr.png"
	out.Caption = "Готово! Ваш QR-код. ✅"
	out.Menu = bus.Menu{Kind: bus.MenuMain}
	return []bus.OutboundMessage{out}
}

func (r *Router) creativeText(ctx context.Context, sess *session.Session, in bus.InboundMessage) []bus.OutboundMessage {
	prompt, ok := creativePrompts[string(sess.CreativeGenre)]
	if !ok {
		menu := bus.Menu{Kind: bus.MenuCreative}
		return []bus.OutboundMessage{r.replyMenu(in, "Сначала выберите жанр:", menu)}
	}

	draft := r.d.Assembler.GenerateWith(ctx, prompt, in.Text, "")
	parts := SplitMessage(draft)
	out := make([]bus.OutboundMessage, 0, len(parts))
	for i, part := range parts {
		msg := r.reply(in, part)
		if i == len(parts)-1 {
			msg.Menu = bus.Menu{Kind: bus.MenuCreative}
		}
		out = append(out, msg)
	}
	return out
}

var voiceModes = map[string]session.VoiceMode{
	"text_to_text":   session.VoiceTextToText,
	"voice_to_text":  session.VoiceVoiceToText,
	"voice_to_voice": session.VoiceVoiceToVoice,
	"text_to_voice":  session.VoiceTextToVoice,
	"text_playback":  session.VoiceTextPlayback,
}

var recognitionTools = map[string]session.RecognitionTool{
	"simple":   session.ToolSimpleText,
	"complex":  session.ToolComplexDoc,
	"describe": session.ToolDescribe,
	"audio":    session.ToolAudio,
	"qr":       session.ToolQR,
}

func (r *Router) handleCallback(ctx context.Context, sess *session.Session, in bus.InboundMessage) []bus.OutboundMessage {
	data := in.Callback

	switch {
	case strings.HasPrefix(data, "ask_suggestion:"):
		suggestions := sess.LastSuggestions
		if len(suggestions) == 0 {
			suggestions = startupSuggestions
		}
		idx, err := strconv.Atoi(strings.TrimPrefix(data, "ask_suggestion:"))
		if err != nil || idx < 0 || idx >= len(suggestions) {
			return []bus.OutboundMessage{r.reply(in, "Подсказка устарела. Задайте вопрос текстом.")}
		}
		ans := r.d.Assembler.BuildAnswer(ctx, sess, r.displayName(in), suggestions[idx])
		return r.renderAnswer(in, ans)

	case data == "regenerate":
		if sess.LastQuery == "" {
			return []bus.OutboundMessage{r.reply(in, "Нет предыдущего запроса. Задайте вопрос текстом.")}
		}
		ans := r.d.Assembler.BuildAnswer(ctx, sess, r.displayName(in), sess.LastQuery)
		return r.renderAnswer(in, ans)

	case strings.HasPrefix(data, "get_pdf:"):
		slug := strings.TrimPrefix(data, "get_pdf:")
		filename, ok := r.d.Corpus.FilenameBySlug(slug)
		if !ok {
			return []bus.OutboundMessage{r.reply(in, "Файл не найден.")}
		}
		out := r.reply(in, "")
		out.DocumentPath = filepath.Join(r.d.Data.PDFDir, filename)
		out.DocumentName = filename
		return []bus.OutboundMessage{out}

	case strings.HasPrefix(data, "set_voice_mode:"):
		mode, ok := voiceModes[strings.TrimPrefix(data, "set_voice_mode:")]
		if !ok {
			return nil
		}
		sess.Settings.VoiceMode = mode
		menu := bus.Menu{Kind: bus.MenuSettings, Selected: string(mode)}
		return []bus.OutboundMessage{r.replyMenu(in, "Режим обновлён. ✅", menu)}

	case data == "close_settings":
		sess.State = session.StateMain
		return []bus.OutboundMessage{r.replyMenu(in, "Параметры сохранены.", bus.Menu{Kind: bus.MenuMain})}

	case data == "generate_qr_start":
		sess.State = session.StateQRGen
		return []bus.OutboundMessage{r.reply(in, "Отправьте текст или ссылку, и я превращу их в QR-код.")}

	case data == "enter_recognition_menu":
		sess.State = session.StateRecognition
		menu := bus.Menu{Kind: bus.MenuRecognition, Selected: string(sess.RecognitionTool)}
		return []bus.OutboundMessage{r.replyMenu(in, "🔍 <b>Режим распознавания</b>\n\nВыберите инструмент и пришлите фото или аудио:", menu)}

	case strings.HasPrefix(data, "set_recog:"):
		tool, ok := recognitionTools[strings.TrimPrefix(data, "set_recog:")]
		if !ok {
			return nil
		}
		sess.RecognitionTool = tool
		menu := bus.Menu{Kind: bus.MenuRecognition, Selected: string(tool)}
		return []bus.OutboundMessage{r.replyMenu(in, "Инструмент выбран. Пришлите материал для распознавания.", menu)}

	case data == "recog_help":
		return []bus.OutboundMessage{r.reply(in,
			"<b>Инструменты распознавания:</b>\n\n"+
				"📝 <b>Простой текст</b> — текст с фото документа.\n"+
				"📑 <b>Сложный документ</b> — таблицы и структура, результат файлом.\n"+
				"🖼 <b>Описание фото</b> — что изображено на снимке.\n"+
				"🎙 <b>Аудио</b> — расшифровка голосового сообщения.\n"+
				"🔳 <b>QR-код</b> — чтение QR с фото.\n\n"+
				"Режим остаётся активным, пока вы не выйдете.")}

	case data == "recog_exit":
		sess.State = session.StateMain
		return []bus.OutboundMessage{r.replyMenu(in, "Вы вернулись в основной режим.", bus.Menu{Kind: bus.MenuMain})}

	case data == "enter_creative_from_settings":
		sess.State = session.StateCreative
		sess.CreativeGenre = session.GenreNone
		return []bus.OutboundMessage{r.replyMenu(in, "✨ <b>Креативный режим</b>\n\nЧто будем создавать?", bus.Menu{Kind: bus.MenuCreative})}

	case strings.HasPrefix(data, "creative:"):
		genre := strings.TrimPrefix(data, "creative:")
		if genre == "exit" {
			sess.State = session.StateMain
			sess.CreativeGenre = session.GenreNone
			return []bus.OutboundMessage{r.replyMenu(in, "Вы вышли из креативного режима.", bus.Menu{Kind: bus.MenuMain})}
		}
		if _, ok := creativePrompts[genre]; !ok {
			return nil
		}
		sess.State = session.StateCreative
		sess.CreativeGenre = session.CreativeGenre(genre)
		return []bus.OutboundMessage{r.reply(in, "Жанр выбран. Опишите тему, и я подготовлю текст.")}
	}

	log.Printf("[dialog] unknown callback %q from chat %d", data, in.ChatID)
	return nil
}
