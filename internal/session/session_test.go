package session

import (
	"fmt"
	"strings"
	"testing"
)

func TestNewSession_Defaults(t *testing.T) {
	s := NewSession()
	if s.State != StateMain {
		t.Errorf("State = %q, want %q", s.State, StateMain)
	}
	if s.RecognitionTool != ToolSimpleText {
		t.Errorf("RecognitionTool = %q, want %q", s.RecognitionTool, ToolSimpleText)
	}
	if s.Settings.VoiceMode != VoiceTextToText {
		t.Errorf("VoiceMode = %q, want %q", s.Settings.VoiceMode, VoiceTextToText)
	}
}

func TestAppendExchange_CapsHistory(t *testing.T) {
	s := NewSession()
	for i := 0; i < 10; i++ {
		s.AppendExchange(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i), 6)
	}

	if len(s.History) != 6 {
		t.Fatalf("history length = %d, want 6", len(s.History))
	}
	// The oldest entries roll off; the last exchange is always present.
	if s.History[0].Text != "q7" {
		t.Errorf("oldest kept = %q, want q7", s.History[0].Text)
	}
	if s.History[5].Text != "a9" {
		t.Errorf("newest = %q, want a9", s.History[5].Text)
	}
}

func TestSetRecognizedText_TruncatesRunes(t *testing.T) {
	s := NewSession()
	s.SetRecognizedText(strings.Repeat("ж", 100), 10)
	if got := len([]rune(s.LastRecognizedText)); got != 10 {
		t.Errorf("recognized text length = %d runes, want 10", got)
	}
}

func TestStore_GetCreatesOnce(t *testing.T) {
	store := NewStore()
	a := store.Get(42)
	b := store.Get(42)
	if a != b {
		t.Error("Get must return the same session for the same chat")
	}
	if store.Len() != 1 {
		t.Errorf("Len = %d, want 1", store.Len())
	}
}

func TestStore_ResetReplacesSession(t *testing.T) {
	store := NewStore()
	old := store.Get(42)
	old.State = StateFeedback

	fresh := store.Reset(42)
	if fresh == old {
		t.Error("Reset must create a new session")
	}
	if fresh.State != StateMain {
		t.Errorf("State after reset = %q, want %q", fresh.State, StateMain)
	}
}
