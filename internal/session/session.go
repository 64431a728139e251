package session

// State is the dialog mode a chat is currently in. Free-form input is
// consumed by the active state's handler before the general Q&A path.
type State string

const (
	StateMain        State = "main"
	StateWebSearch   State = "awaiting_web_search_query"
	StateFeedback    State = "awaiting_feedback"
	StateIdea        State = "awaiting_idea"
	StateSettings    State = "settings_menu"
	StateQRGen       State = "qr_generation_mode"
	StateCreative    State = "creative_mode"
	StateRecognition State = "recognition_mode"
)

// RecognitionTool is the sub-state of recognition_mode.
type RecognitionTool string

const (
	ToolSimpleText  RecognitionTool = "simple"
	ToolComplexDoc  RecognitionTool = "complex"
	ToolDescribe    RecognitionTool = "describe"
	ToolAudio       RecognitionTool = "audio"
	ToolQR          RecognitionTool = "qr"
)

// CreativeGenre is the sub-state of creative_mode; empty means no genre
// has been picked yet.
type CreativeGenre string

const (
	GenreNone         CreativeGenre = ""
	GenrePost         CreativeGenre = "post"
	GenreRelease      CreativeGenre = "release"
	GenreAnnouncement CreativeGenre = "announcement"
	GenreCustom       CreativeGenre = "custom"
)

// VoiceMode controls how text and voice inputs map to text and voice
// replies.
type VoiceMode string

const (
	VoiceTextToText   VoiceMode = "text_to_text"
	VoiceVoiceToText  VoiceMode = "voice_to_text"
	VoiceVoiceToVoice VoiceMode = "voice_to_voice"
	VoiceTextToVoice  VoiceMode = "text_to_voice"
	VoiceTextPlayback VoiceMode = "text_playback"
)

type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type Settings struct {
	VoiceMode VoiceMode `json:"voiceMode"`
}

// Session is the per-chat conversation memory. It is only ever mutated by
// the owning chat's updates, which the transport serializes, so the store's
// per-key swap is all the coordination needed.
type Session struct {
	State           State
	RecognitionTool RecognitionTool
	CreativeGenre   CreativeGenre

	History            []Turn
	LastRecognizedText string
	LastSuggestions    []string
	LastQuery          string
	Settings           Settings
}

func NewSession() *Session {
	return &Session{
		State:           StateMain,
		RecognitionTool: ToolSimpleText,
		Settings:        Settings{VoiceMode: VoiceTextToText},
	}
}

// AppendExchange records one user/assistant exchange, keeping at most
// limit entries of rolling history to bound prompt size.
func (s *Session) AppendExchange(userText, assistantText string, limit int) {
	s.History = append(s.History,
		Turn{Role: "user", Text: userText},
		Turn{Role: "assistant", Text: assistantText},
	)
	if len(s.History) > limit {
		s.History = s.History[len(s.History)-limit:]
	}
}

// SetRecognizedText stores recognized-media context, truncated to limit
// characters.
func (s *Session) SetRecognizedText(text string, limit int) {
	if runes := []rune(text); len(runes) > limit {
		text = string(runes[:limit])
	}
	s.LastRecognizedText = text
}
