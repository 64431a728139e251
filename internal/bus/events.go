package bus

import (
	"strconv"
	"time"
)

type EventKind string

const (
	KindText     EventKind = "text"
	KindVoice    EventKind = "voice"
	KindAudio    EventKind = "audio"
	KindPhoto    EventKind = "photo"
	KindCallback EventKind = "callback"
	KindCommand  EventKind = "command"
)

type InboundMessage struct {
	Channel   string
	Kind      EventKind
	UserID    int64
	ChatID    int64
	Username  string
	FirstName string
	FullName  string
	Text      string
	Command   string
	Callback  string
	Media     []byte
	MediaSize int64
	MessageID int
	// ReplyToText is the text of the message this one replies to, when the
	// transport saw one. The admin reply relay reads the user id out of it.
	ReplyToText string
	Timestamp   time.Time
}

func (m *InboundMessage) SessionKey() string {
	return m.Channel + ":" + strconv.FormatInt(m.ChatID, 10)
}

// MenuKind selects which keyboard the transport renders under a reply.
// Rendering itself stays in the channel layer.
type MenuKind string

const (
	MenuNone        MenuKind = ""
	MenuMain        MenuKind = "main"
	MenuSmart       MenuKind = "smart"
	MenuSettings    MenuKind = "settings"
	MenuRecognition MenuKind = "recognition"
	MenuCreative    MenuKind = "creative"
)

type Menu struct {
	Kind     MenuKind
	Selected string // current voice mode or recognition tool, for checkmarks
}

type OutboundMessage struct {
	Channel        string
	ChatID         int64
	Text           string
	Menu           Menu
	Suggestions    []string
	SourceSlug     string
	DisablePreview bool

	Voice     []byte
	VoiceName string

	Photo     []byte
	PhotoName string

	Document     []byte
	DocumentPath string
	DocumentName string

	Caption string
}
