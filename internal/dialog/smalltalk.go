package dialog

import "strings"

// smallTalkTriggers catch greetings, capability questions and thanks.
// Matching is substring based, so "приветствую" also counts.
var smallTalkTriggers = []string{
	"привет", "здравствуй", "добрый день", "добрый вечер", "хай",
	"кто ты", "что ты", "что умеешь", "твои функции", "о чем рассказать",
	"помощь", "справка", "спасибо", "благодарю", "пока",
}

// isSmallTalk reports whether the message is conversational rather than a
// knowledge question. Long messages never qualify regardless of wording.
func isSmallTalk(text string, maxWords int) bool {
	lower := strings.ToLower(text)
	if len(strings.Fields(lower)) >= maxWords {
		return false
	}
	for _, trigger := range smallTalkTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}
