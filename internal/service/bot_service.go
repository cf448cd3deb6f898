package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var ErrEmptyBotMessage = errors.New("message text is required")

// Turn is one exchange entry in a chatbot conversation.
type Turn struct {
	Role    string // "user" or "assistant"
	Content string
}

// Completer is the model provider port. Implementations send the turn
// history plus the new user message and return the assistant reply.
type Completer interface {
	Complete(ctx context.Context, history []Turn, userMessage string) (string, error)
}

const (
	// Keep the rolling window small; the bot is a sidebar feature and old
	// turns stop mattering quickly.
	maxBotHistoryTurns = 20

	fallbackReply = "Sorry, something went wrong."
)

// BotService runs the in-app chatbot. Each user gets an independent rolling
// history so replies stay coherent across a session.
type BotService interface {
	Chat(ctx context.Context, userID, message string) (string, error)
	Reset(userID string)
}

type botService struct {
	completer Completer
	logger    *zap.Logger

	mu        sync.Mutex
	histories map[string][]Turn
}

func NewBotService(completer Completer, logger *zap.Logger) BotService {
	return &botService{
		completer: completer,
		logger:    logger,
		histories: make(map[string][]Turn),
	}
}

// Chat sends the message with the user's history attached. Provider failures
// never surface to the caller as errors; the bot answers with a fallback
// line and the failed exchange is not recorded.
func (s *botService) Chat(ctx context.Context, userID, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyBotMessage
	}

	history := s.snapshot(userID)

	reply, err := s.completer.Complete(ctx, history, message)
	if err != nil {
		s.logger.Warn("bot completion failed", zap.String("user_id", userID), zap.Error(err))
		return fallbackReply, nil
	}

	s.record(userID, message, reply)
	return reply, nil
}

func (s *botService) Reset(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.histories, userID)
}

func (s *botService) snapshot(userID string) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.histories[userID]
	out := make([]Turn, len(history))
	copy(out, history)
	return out
}

func (s *botService) record(userID, message, reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.histories[userID],
		Turn{Role: "user", Content: message},
		Turn{Role: "assistant", Content: reply},
	)
	if len(history) > maxBotHistoryTurns {
		history = history[len(history)-maxBotHistoryTurns:]
	}
	s.histories[userID] = history
}
