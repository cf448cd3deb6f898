package service

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/khushik17/wee-Chat/internal/model"
	"github.com/khushik17/wee-Chat/internal/repo"
)

var chatTestTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// Fakes embed the repository interfaces and implement only what the chat
// service touches; calling anything else panics, which is what we want.

type fakeConversationRepo struct {
	repo.ConversationRepository
	byPair map[string]*model.Conversation
	listed []model.Conversation
}

func (f *fakeConversationRepo) FindByPair(_ context.Context, a, b string) (*model.Conversation, error) {
	return f.byPair[model.PairKey(a, b)], nil
}

func (f *fakeConversationRepo) ListForUser(_ context.Context, _ string) ([]model.Conversation, error) {
	return f.listed, nil
}

type fakeUserRepo struct {
	repo.UserRepository
	users map[string]model.User
}

func (f *fakeUserRepo) FindManyByExternalIDs(_ context.Context, ids []string) (map[string]model.User, error) {
	out := make(map[string]model.User)
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

type fakeMemeRepo struct {
	repo.MemeRepository
	memes map[primitive.ObjectID]model.Meme
}

func (f *fakeMemeRepo) FindManyByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.Meme, error) {
	out := make(map[primitive.ObjectID]model.Meme)
	for _, id := range ids {
		if m, ok := f.memes[id]; ok {
			out[id] = m
		}
	}
	return out, nil
}

func newChatServiceForTest(conversations *fakeConversationRepo, users *fakeUserRepo, memes *fakeMemeRepo) ChatService {
	if users == nil {
		users = &fakeUserRepo{users: map[string]model.User{}}
	}
	if memes == nil {
		memes = &fakeMemeRepo{memes: map[primitive.ObjectID]model.Meme{}}
	}
	return NewChatService(conversations, users, memes, zap.NewNop())
}

func TestGetHistoryReturnsEmptyWhenNoConversation(t *testing.T) {
	svc := newChatServiceForTest(&fakeConversationRepo{byPair: map[string]*model.Conversation{}}, nil, nil)

	views, err := svc.GetHistory(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("no conversation must not be an error: %v", err)
	}
	if views == nil || len(views) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", views)
	}
}

func TestGetHistoryAnnotatesSendersAndMemes(t *testing.T) {
	memeID := primitive.NewObjectID()
	conv := &model.Conversation{
		PairKey:        model.PairKey("alice", "bob"),
		ParticipantIDs: []string{"alice", "bob"},
		Messages: []model.Message{
			{MessageID: "m1", Sender: "alice", Kind: model.MessageKindText, Content: "look at this", CreatedAt: chatTestTime},
			{MessageID: "m2", Sender: "bob", Kind: model.MessageKindMeme, MemeID: &memeID, CreatedAt: chatTestTime.Add(time.Second)},
		},
	}

	svc := newChatServiceForTest(
		&fakeConversationRepo{byPair: map[string]*model.Conversation{conv.PairKey: conv}},
		&fakeUserRepo{users: map[string]model.User{
			"alice": {ExternalID: "alice", Username: "Alice A"},
			"bob":   {ExternalID: "bob", Username: "Bob B"},
		}},
		&fakeMemeRepo{memes: map[primitive.ObjectID]model.Meme{
			memeID: {ID: memeID, Title: "classic", ImageURL: "https://img/1.png"},
		}},
	)

	views, err := svc.GetHistory(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(views))
	}

	if views[0].Username != "Alice A" || views[0].Text != "look at this" {
		t.Errorf("text message not annotated: %+v", views[0])
	}
	if views[1].Username != "Bob B" {
		t.Errorf("meme message sender not annotated: %+v", views[1])
	}
	if views[1].Meme == nil || views[1].Meme.Title != "classic" {
		t.Errorf("meme not resolved: %+v", views[1].Meme)
	}
}

func TestGetHistoryToleratesDanglingMemeRef(t *testing.T) {
	missing := primitive.NewObjectID()
	conv := &model.Conversation{
		PairKey:        model.PairKey("alice", "bob"),
		ParticipantIDs: []string{"alice", "bob"},
		Messages: []model.Message{
			{MessageID: "m1", Sender: "bob", Kind: model.MessageKindMeme, MemeID: &missing, CreatedAt: chatTestTime},
		},
	}

	svc := newChatServiceForTest(
		&fakeConversationRepo{byPair: map[string]*model.Conversation{conv.PairKey: conv}},
		&fakeUserRepo{users: map[string]model.User{"bob": {ExternalID: "bob", Username: "Bob B"}}},
		&fakeMemeRepo{memes: map[primitive.ObjectID]model.Meme{}},
	)

	views, err := svc.GetHistory(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(views) != 1 || views[0].Meme != nil {
		t.Fatalf("expected the message kept with nil meme, got %+v", views)
	}
}

func TestGetRecentConversationsDedupesCounterparts(t *testing.T) {
	newer := model.Conversation{
		ParticipantIDs: []string{"alice", "bob"},
		Messages: []model.Message{
			{MessageID: "m2", Sender: "bob", Kind: model.MessageKindText, Content: "newer", CreatedAt: chatTestTime},
		},
		UpdatedAt: chatTestTime,
	}
	stale := model.Conversation{
		ParticipantIDs: []string{"alice", "bob"},
		Messages: []model.Message{
			{MessageID: "m1", Sender: "alice", Kind: model.MessageKindText, Content: "older", CreatedAt: chatTestTime.Add(-time.Hour)},
		},
		UpdatedAt: chatTestTime.Add(-time.Hour),
	}
	carol := model.Conversation{
		ParticipantIDs: []string{"alice", "carol"},
		Messages: []model.Message{
			{MessageID: "m3", Sender: "carol", Kind: model.MessageKindText, Content: "hi", CreatedAt: chatTestTime.Add(-time.Minute)},
		},
		UpdatedAt: chatTestTime.Add(-time.Minute),
	}

	svc := newChatServiceForTest(
		// ListForUser is newest-first; a legacy duplicate pair document sits
		// behind the fresh one.
		&fakeConversationRepo{listed: []model.Conversation{newer, carol, stale}},
		&fakeUserRepo{users: map[string]model.User{
			"bob":   {ExternalID: "bob", Username: "Bob B", ProfilePicture: "bob.png"},
			"carol": {ExternalID: "carol", Username: "Carol C"},
		}},
		nil,
	)

	recent, err := svc.GetRecentConversations(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 summaries after dedupe, got %d", len(recent))
	}

	if recent[0].UserID != "bob" || recent[0].Username != "Bob B" {
		t.Errorf("unexpected first summary: %+v", recent[0])
	}
	if recent[0].LastMessage == nil || recent[0].LastMessage.Text != "newer" {
		t.Errorf("expected the newer conversation's last message, got %+v", recent[0].LastMessage)
	}
	if recent[1].UserID != "carol" {
		t.Errorf("unexpected second summary: %+v", recent[1])
	}
}
