package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"
)

// fakeCompleter records the history it was handed and returns canned replies.
type fakeCompleter struct {
	lastHistory []Turn
	lastMessage string
	reply       string
	err         error
	calls       int
}

func (f *fakeCompleter) Complete(_ context.Context, history []Turn, userMessage string) (string, error) {
	f.calls++
	f.lastHistory = append([]Turn(nil), history...)
	f.lastMessage = userMessage
	if f.err != nil {
		return "", f.err
	}
	if f.reply != "" {
		return f.reply, nil
	}
	return "reply to: " + userMessage, nil
}

func TestBotChatCarriesHistoryAcrossTurns(t *testing.T) {
	completer := &fakeCompleter{}
	bot := NewBotService(completer, zap.NewNop())

	if _, err := bot.Chat(context.Background(), "alice", "first question"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := bot.Chat(context.Background(), "alice", "second question"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(completer.lastHistory) != 2 {
		t.Fatalf("expected 2 history turns on second call, got %d", len(completer.lastHistory))
	}
	if completer.lastHistory[0].Role != "user" || completer.lastHistory[0].Content != "first question" {
		t.Errorf("unexpected first turn: %+v", completer.lastHistory[0])
	}
	if completer.lastHistory[1].Role != "assistant" {
		t.Errorf("expected assistant turn second, got %+v", completer.lastHistory[1])
	}
}

func TestBotChatHistoriesAreIsolatedPerUser(t *testing.T) {
	completer := &fakeCompleter{}
	bot := NewBotService(completer, zap.NewNop())

	if _, err := bot.Chat(context.Background(), "alice", "alice asks"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := bot.Chat(context.Background(), "bob", "bob asks"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(completer.lastHistory) != 0 {
		t.Fatalf("bob's first chat must start with empty history, got %d turns", len(completer.lastHistory))
	}
}

func TestBotChatFallsBackOnProviderError(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("upstream down")}
	bot := NewBotService(completer, zap.NewNop())

	reply, err := bot.Chat(context.Background(), "alice", "hello?")
	if err != nil {
		t.Fatalf("provider errors must not surface: %v", err)
	}
	if reply != fallbackReply {
		t.Fatalf("expected fallback reply, got %q", reply)
	}

	// The failed exchange must not pollute the history.
	completer.err = nil
	if _, err := bot.Chat(context.Background(), "alice", "retry"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(completer.lastHistory) != 0 {
		t.Fatalf("expected empty history after a failed turn, got %d turns", len(completer.lastHistory))
	}
}

func TestBotChatRejectsEmptyMessage(t *testing.T) {
	bot := NewBotService(&fakeCompleter{}, zap.NewNop())

	if _, err := bot.Chat(context.Background(), "alice", "   "); !errors.Is(err, ErrEmptyBotMessage) {
		t.Fatalf("expected ErrEmptyBotMessage, got %v", err)
	}
}

func TestBotChatTrimsHistoryWindow(t *testing.T) {
	completer := &fakeCompleter{}
	bot := NewBotService(completer, zap.NewNop())

	for i := 0; i < maxBotHistoryTurns; i++ {
		if _, err := bot.Chat(context.Background(), "alice", fmt.Sprintf("question %d", i)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if _, err := bot.Chat(context.Background(), "alice", "one more"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(completer.lastHistory) != maxBotHistoryTurns {
		t.Fatalf("expected history capped at %d turns, got %d", maxBotHistoryTurns, len(completer.lastHistory))
	}
	// The window keeps the newest turns.
	newest := completer.lastHistory[len(completer.lastHistory)-2]
	if newest.Content != fmt.Sprintf("question %d", maxBotHistoryTurns-1) {
		t.Errorf("unexpected newest retained user turn: %+v", newest)
	}
}

func TestBotResetClearsHistory(t *testing.T) {
	completer := &fakeCompleter{}
	bot := NewBotService(completer, zap.NewNop())

	if _, err := bot.Chat(context.Background(), "alice", "remember this"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bot.Reset("alice")

	if _, err := bot.Chat(context.Background(), "alice", "fresh start"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(completer.lastHistory) != 0 {
		t.Fatalf("expected empty history after reset, got %d turns", len(completer.lastHistory))
	}
}
