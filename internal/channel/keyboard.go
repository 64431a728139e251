package channel

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/takelab/metodist/internal/bus"
)

// mainMenuKeyboard is the persistent reply keyboard shown in the main mode.
func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("✍️ Написать нам"),
			tgbotapi.NewKeyboardButton("🌐 Поиск в сети"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("⚙️ Параметры"),
			tgbotapi.NewKeyboardButton("💡 Есть идея"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("✨ Креативный режим"),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

// smartKeyboard attaches follow-up suggestions, the source PDF button when a
// document backs the answer, and a regenerate button.
func smartKeyboard(suggestions []string, sourceSlug string) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, s := range suggestions {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💬 "+s, fmt.Sprintf("ask_suggestion:%d", i)),
		))
	}
	if sourceSlug != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📥 Скачать PDF", "get_pdf:"+sourceSlug),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔄 Ещё вариант", "regenerate"),
	))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

var voiceModeLabels = []struct {
	mode  string
	label string
}{
	{"text_to_text", "💬 Текст → Текст"},
	{"voice_to_text", "🎙 Голос → Текст"},
	{"voice_to_voice", "🔊 Голос → Голос"},
	{"text_to_voice", "📢 Текст → Голос"},
	{"text_playback", "🗣 Озвучить мой текст"},
}

func settingsKeyboard(selected string) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, vm := range voiceModeLabels {
		label := vm.label
		if vm.mode == selected {
			label = "✅ " + label
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "set_voice_mode:"+vm.mode),
		))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔍 Распознавание", "enter_recognition_menu"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔳 Создать QR-код", "generate_qr_start"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✨ Креативный режим", "enter_creative_from_settings"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Закрыть", "close_settings"),
		),
	)
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

var recognitionToolLabels = []struct {
	tool  string
	label string
}{
	{"simple", "📝 Простой текст"},
	{"complex", "📑 Сложный документ"},
	{"describe", "🖼 Описание фото"},
	{"audio", "🎙 Аудио"},
	{"qr", "🔳 QR-код"},
}

func recognitionKeyboard(selected string) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, rt := range recognitionToolLabels {
		label := rt.label
		if rt.tool == selected {
			label = "✅ " + label
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "set_recog:"+rt.tool),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("❓ Помощь", "recog_help"),
		tgbotapi.NewInlineKeyboardButtonData("🚪 Выйти", "recog_exit"),
	))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func creativeKeyboard() *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📣 Пост", "creative:post"),
			tgbotapi.NewInlineKeyboardButtonData("📰 Пресс-релиз", "creative:release"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📅 Анонс", "creative:announcement"),
			tgbotapi.NewInlineKeyboardButtonData("🪄 Свой вариант", "creative:custom"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚪 Выйти", "creative:exit"),
		),
	)
	return &kb
}

// replyMarkup maps a menu descriptor to the concrete Telegram keyboard.
// Returns nil when no keyboard should be attached.
func replyMarkup(msg bus.OutboundMessage) interface{} {
	switch msg.Menu.Kind {
	case bus.MenuMain:
		return mainMenuKeyboard()
	case bus.MenuSmart:
		return smartKeyboard(msg.Suggestions, msg.SourceSlug)
	case bus.MenuSettings:
		return settingsKeyboard(msg.Menu.Selected)
	case bus.MenuRecognition:
		return recognitionKeyboard(msg.Menu.Selected)
	case bus.MenuCreative:
		return creativeKeyboard()
	}
	return nil
}
