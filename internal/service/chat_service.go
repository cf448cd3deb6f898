package service

import (
	"context"
	"fmt"

	"github.com/khushik17/wee-Chat/internal/model"
	"github.com/khushik17/wee-Chat/internal/repo"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ChatService is the read side of the messaging core: history and
// recent-conversation views assembled from the store plus profile and meme
// metadata. It never mutates the conversation store.
type ChatService interface {
	// GetHistory returns the full message list between requester and
	// counterpart, each entry annotated with the sender's display name and,
	// for meme messages, the resolved meme. An empty slice (not an error) is
	// returned when no conversation exists yet.
	GetHistory(ctx context.Context, requester, counterpart string) ([]model.MessageView, error)

	// GetRecentConversations returns one summary per distinct counterpart,
	// most recently updated first.
	GetRecentConversations(ctx context.Context, requester string) ([]model.ConversationSummary, error)
}

type chatService struct {
	conversations repo.ConversationRepository
	users         repo.UserRepository
	memes         repo.MemeRepository
	logger        *zap.Logger
}

func NewChatService(conversations repo.ConversationRepository, users repo.UserRepository, memes repo.MemeRepository, logger *zap.Logger) ChatService {
	return &chatService{
		conversations: conversations,
		users:         users,
		memes:         memes,
		logger:        logger,
	}
}

func (s *chatService) GetHistory(ctx context.Context, requester, counterpart string) ([]model.MessageView, error) {
	conversation, err := s.conversations.FindByPair(ctx, requester, counterpart)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return []model.MessageView{}, nil
	}

	senders := make([]string, 0, 2)
	memeIDs := make([]primitive.ObjectID, 0)
	seenSenders := map[string]bool{}
	seenMemes := map[primitive.ObjectID]bool{}
	for _, msg := range conversation.Messages {
		if !seenSenders[msg.Sender] {
			seenSenders[msg.Sender] = true
			senders = append(senders, msg.Sender)
		}
		if msg.MemeID != nil && !seenMemes[*msg.MemeID] {
			seenMemes[*msg.MemeID] = true
			memeIDs = append(memeIDs, *msg.MemeID)
		}
	}

	users, err := s.users.FindManyByExternalIDs(ctx, senders)
	if err != nil {
		return nil, fmt.Errorf("resolve senders: %w", err)
	}
	memes, err := s.memes.FindManyByIDs(ctx, memeIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve memes: %w", err)
	}

	views := make([]model.MessageView, 0, len(conversation.Messages))
	for _, msg := range conversation.Messages {
		view := model.MessageView{
			MessageID: msg.MessageID,
			SenderID:  msg.Sender,
			Username:  users[msg.Sender].Username,
			Kind:      msg.Kind,
			Text:      msg.Content,
			CreatedAt: msg.CreatedAt,
		}
		if msg.MemeID != nil {
			if meme, ok := memes[*msg.MemeID]; ok {
				m := meme
				view.Meme = &m
			}
		}
		views = append(views, view)
	}

	return views, nil
}

func (s *chatService) GetRecentConversations(ctx context.Context, requester string) ([]model.ConversationSummary, error) {
	conversations, err := s.conversations.ListForUser(ctx, requester)
	if err != nil {
		return nil, err
	}

	// ListForUser is already newest-first; keep the first (most recently
	// updated) record per counterpart and drop any stale duplicates.
	summaries := make([]model.ConversationSummary, 0, len(conversations))
	counterparts := make([]string, 0, len(conversations))
	seen := map[string]bool{}
	kept := make([]model.Conversation, 0, len(conversations))
	for _, conv := range conversations {
		counterpart := conv.Counterpart(requester)
		if counterpart == "" || seen[counterpart] {
			continue
		}
		seen[counterpart] = true
		counterparts = append(counterparts, counterpart)
		kept = append(kept, conv)
	}

	users, err := s.users.FindManyByExternalIDs(ctx, counterparts)
	if err != nil {
		return nil, fmt.Errorf("resolve counterparts: %w", err)
	}

	for _, conv := range kept {
		counterpart := conv.Counterpart(requester)
		profile := users[counterpart]

		summary := model.ConversationSummary{
			UserID:         counterpart,
			Username:       profile.Username,
			ProfilePicture: profile.ProfilePicture,
			UpdatedAt:      conv.UpdatedAt,
		}
		if last := conv.LastMessage(); last != nil {
			summary.LastMessage = &model.MessageView{
				MessageID: last.MessageID,
				SenderID:  last.Sender,
				Kind:      last.Kind,
				Text:      last.Content,
				CreatedAt: last.CreatedAt,
			}
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}
