package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/khushik17/wee-Chat/internal/cache"
	"github.com/khushik17/wee-Chat/internal/model"
	"github.com/khushik17/wee-Chat/internal/repo"
)

type fakeFeedRepo struct {
	repo.MemeRepository
	feed      []model.Meme
	feedCalls int
	liked     map[string][]string
}

func (f *fakeFeedRepo) Feed(_ context.Context, lastID string, limit int64) ([]model.Meme, error) {
	f.feedCalls++
	if int64(len(f.feed)) > limit {
		return f.feed[:limit], nil
	}
	return f.feed, nil
}

func (f *fakeFeedRepo) Like(_ context.Context, memeID, userID string) (*model.Meme, error) {
	if f.liked == nil {
		f.liked = map[string][]string{}
	}
	f.liked[memeID] = append(f.liked[memeID], userID)
	return &model.Meme{Likes: f.liked[memeID]}, nil
}

// memCache is an in-memory Cache for tests. TTLs are ignored.
type memCache struct {
	data map[string]string
	sets int
	dels int
}

func newMemCache() *memCache {
	return &memCache{data: map[string]string{}}
}

func (m *memCache) Get(_ context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (m *memCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.sets++
	m.data[key] = value
	return nil
}

func (m *memCache) Del(_ context.Context, keys ...string) (int64, error) {
	m.dels++
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

func (m *memCache) Ping(context.Context) error { return nil }
func (m *memCache) Close() error               { return nil }

func feedFixture(n int) []model.Meme {
	memes := make([]model.Meme, n)
	for i := range memes {
		memes[i] = model.Meme{ID: primitive.NewObjectID(), Title: "meme", ImageURL: "https://img/x.png"}
	}
	return memes
}

func TestFeedFirstPageServedFromCache(t *testing.T) {
	repo_ := &fakeFeedRepo{feed: feedFixture(10)}
	c := newMemCache()
	svc := NewMemeService(repo_, nil, c, zap.NewNop())

	if _, err := svc.Feed(context.Background(), "alice", "", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo_.feedCalls != 1 || c.sets != 1 {
		t.Fatalf("first call should hit the store and fill the cache: calls=%d sets=%d", repo_.feedCalls, c.sets)
	}

	if _, err := svc.Feed(context.Background(), "bob", "", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo_.feedCalls != 1 {
		t.Fatalf("second first-page call should be served from cache, store calls=%d", repo_.feedCalls)
	}
}

func TestFeedCursorPagesBypassCache(t *testing.T) {
	repo_ := &fakeFeedRepo{feed: feedFixture(5)}
	c := newMemCache()
	svc := NewMemeService(repo_, nil, c, zap.NewNop())

	if _, err := svc.Feed(context.Background(), "alice", primitive.NewObjectID().Hex(), 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.sets != 0 {
		t.Fatal("cursor pages must not populate the first-page cache")
	}
}

func TestFeedLikedProjectionIsPerViewer(t *testing.T) {
	memes := feedFixture(1)
	memes[0].Likes = []string{"alice"}
	svc := NewMemeService(&fakeFeedRepo{feed: memes}, nil, nil, zap.NewNop())

	forAlice, err := svc.Feed(context.Background(), "alice", "", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	forBob, err := svc.Feed(context.Background(), "bob", "", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !forAlice[0].Liked || forAlice[0].LikeCount != 1 {
		t.Errorf("alice should see her like: %+v", forAlice[0])
	}
	if forBob[0].Liked {
		t.Errorf("bob should not see the meme as liked: %+v", forBob[0])
	}
}

func TestLikeInvalidatesFeedCache(t *testing.T) {
	repo_ := &fakeFeedRepo{feed: feedFixture(3)}
	c := newMemCache()
	svc := NewMemeService(repo_, nil, c, zap.NewNop())

	if _, err := svc.Feed(context.Background(), "alice", "", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Like(context.Background(), "meme-1", "alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.dels != 1 {
		t.Fatalf("like must invalidate the cached first page, dels=%d", c.dels)
	}
}

func TestCommentRequiresText(t *testing.T) {
	svc := NewMemeService(&fakeFeedRepo{}, nil, nil, zap.NewNop())

	if _, err := svc.Comment(context.Background(), "meme-1", "alice", ""); !errors.Is(err, ErrInvalidComment) {
		t.Fatalf("expected ErrInvalidComment, got %v", err)
	}
}
