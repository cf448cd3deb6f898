// Package provider holds model client adapters for the chatbot.
package provider

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/khushik17/wee-Chat/internal/service"
)

const (
	DefaultModel = anthropic.ModelClaude3_7SonnetLatest

	systemPrompt = "You are a helpful assistant that gives concise and polite answers."

	maxReplyTokens = 1024
)

// AnthropicCompleter satisfies service.Completer with the Anthropic Messages
// API. The client reads its API key from the environment.
type AnthropicCompleter struct {
	client *anthropic.Client
	model  anthropic.Model
}

var _ service.Completer = (*AnthropicCompleter)(nil)

func NewAnthropicCompleter(model anthropic.Model) *AnthropicCompleter {
	if model == "" {
		model = DefaultModel
	}
	c := anthropic.NewClient()
	return &AnthropicCompleter{client: &c, model: model}
}

func (a *AnthropicCompleter) Complete(ctx context.Context, history []service.Turn, userMessage string) (string, error) {
	conv := make([]anthropic.MessageParam, 0, len(history)+1)
	for _, t := range history {
		if t.Role == "assistant" {
			conv = append(conv, anthropic.NewAssistantMessage(anthropic.NewTextBlock(t.Content)))
		} else {
			conv = append(conv, anthropic.NewUserMessage(anthropic.NewTextBlock(t.Content)))
		}
	}
	conv = append(conv, anthropic.NewUserMessage(anthropic.NewTextBlock(userMessage)))

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: int64(maxReplyTokens),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: conv,
	})
	if err != nil {
		return "", err
	}

	var reply strings.Builder
	for _, block := range msg.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			reply.WriteString(text.Text)
		}
	}
	if reply.Len() == 0 {
		return "", errors.New("anthropic: empty completion")
	}
	return reply.String(), nil
}
