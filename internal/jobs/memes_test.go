package jobs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/khushik17/wee-Chat/internal/cache"
	"github.com/khushik17/wee-Chat/internal/model"
	"github.com/khushik17/wee-Chat/internal/repo"
)

func TestFetchParsesBatchResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"memes":[
			{"title":"one","url":"https://img/1.png","spoiler":false,"nsfw":false},
			{"title":"two","url":"https://img/2.png","spoiler":true,"nsfw":false},
			{"title":"broken","url":""}
		]}`))
	}))
	defer srv.Close()

	fetcher := NewMemeFetcher(srv.URL, zap.NewNop())
	memes, err := fetcher.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(memes) != 2 {
		t.Fatalf("expected 2 memes (entry without url dropped), got %d", len(memes))
	}
	if memes[0].ImageURL != "https://img/1.png" || memes[0].Title != "one" {
		t.Errorf("unexpected first meme: %+v", memes[0])
	}
	if !memes[1].Spoiler {
		t.Errorf("spoiler flag lost: %+v", memes[1])
	}
}

func TestFetchParsesSingleObjectResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"title":"solo","url":"https://img/solo.png","nsfw":true}`))
	}))
	defer srv.Close()

	fetcher := NewMemeFetcher(srv.URL, zap.NewNop())
	memes, err := fetcher.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(memes) != 1 || memes[0].ImageURL != "https://img/solo.png" || !memes[0].NSFW {
		t.Fatalf("unexpected memes: %+v", memes)
	}
}

func TestFetchRejectsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	fetcher := NewMemeFetcher(srv.URL, zap.NewNop())
	if _, err := fetcher.Fetch(context.Background()); err == nil {
		t.Fatal("expected an error for a non-200 upstream response")
	}
}

type fakeIngestRepo struct {
	repo.MemeRepository
	received []model.Meme
	inserted int
}

func (f *fakeIngestRepo) Ingest(_ context.Context, memes []model.Meme) (int, error) {
	f.received = memes
	return f.inserted, nil
}

type countingCache struct {
	cache.Cache
	dels int
}

func (c *countingCache) Del(_ context.Context, _ ...string) (int64, error) {
	c.dels++
	return 1, nil
}

func TestRefreshHandlerIngestsAndInvalidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"memes":[{"title":"one","url":"https://img/1.png"}]}`))
	}))
	defer srv.Close()

	repo_ := &fakeIngestRepo{inserted: 1}
	c := &countingCache{}
	handler := NewMemeRefreshHandler(NewMemeFetcher(srv.URL, zap.NewNop()), repo_, c, zap.NewNop())

	if err := handler.ProcessTask(context.Background(), NewMemeRefreshTask()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo_.received) != 1 {
		t.Fatalf("expected 1 meme handed to ingest, got %d", len(repo_.received))
	}
	if c.dels != 1 {
		t.Fatalf("expected the feed cache invalidated once, dels=%d", c.dels)
	}
}

func TestRefreshHandlerSkipsInvalidationWhenNothingNew(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"memes":[{"title":"seen","url":"https://img/1.png"}]}`))
	}))
	defer srv.Close()

	c := &countingCache{}
	handler := NewMemeRefreshHandler(NewMemeFetcher(srv.URL, zap.NewNop()), &fakeIngestRepo{inserted: 0}, c, zap.NewNop())

	if err := handler.ProcessTask(context.Background(), NewMemeRefreshTask()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.dels != 0 {
		t.Fatalf("no new memes means no invalidation, dels=%d", c.dels)
	}
}
