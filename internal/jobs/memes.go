// Package jobs holds background task definitions and their asynq wiring.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/khushik17/wee-Chat/internal/cache"
	"github.com/khushik17/wee-Chat/internal/model"
	"github.com/khushik17/wee-Chat/internal/repo"
)

// TypeMemeRefresh pulls a batch of memes from the upstream API and upserts
// them into the local feed.
const TypeMemeRefresh = "memes:refresh"

const (
	defaultMemeSourceURL = "https://meme-api.com/gimme/100"
	fetchTimeout         = 15 * time.Second

	// Back-to-back refresh requests collapse into one queued task.
	refreshUniqueTTL = 30 * time.Second
)

func NewMemeRefreshTask() *asynq.Task {
	return asynq.NewTask(TypeMemeRefresh, nil)
}

// memeAPIResponse covers both upstream shapes: a batch endpoint returning
// {"memes": [...]} and the single-meme endpoint returning one object at the
// top level.
type memeAPIResponse struct {
	Memes []memeAPIEntry `json:"memes"`
	memeAPIEntry
}

type memeAPIEntry struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Spoiler bool   `json:"spoiler"`
	NSFW    bool   `json:"nsfw"`
}

// MemeFetcher pulls meme batches from the upstream HTTP API.
type MemeFetcher struct {
	sourceURL string
	client    *http.Client
	logger    *zap.Logger
}

func NewMemeFetcher(sourceURL string, logger *zap.Logger) *MemeFetcher {
	if sourceURL == "" {
		sourceURL = defaultMemeSourceURL
	}
	return &MemeFetcher{
		sourceURL: sourceURL,
		client:    &http.Client{Timeout: fetchTimeout},
		logger:    logger,
	}
}

func (f *MemeFetcher) Fetch(ctx context.Context) ([]model.Meme, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("meme fetch: build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("meme fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("meme fetch: upstream returned %d", resp.StatusCode)
	}

	var body memeAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("meme fetch: decode response: %w", err)
	}

	entries := body.Memes
	if len(entries) == 0 && body.URL != "" {
		entries = []memeAPIEntry{body.memeAPIEntry}
	}

	memes := make([]model.Meme, 0, len(entries))
	for _, e := range entries {
		if e.URL == "" {
			continue
		}
		memes = append(memes, model.Meme{
			Title:    e.Title,
			ImageURL: e.URL,
			Spoiler:  e.Spoiler,
			NSFW:     e.NSFW,
		})
	}
	return memes, nil
}

// MemeRefreshHandler processes TypeMemeRefresh tasks.
type MemeRefreshHandler struct {
	fetcher   *MemeFetcher
	memes     repo.MemeRepository
	feedCache cache.Cache
	logger    *zap.Logger
}

func NewMemeRefreshHandler(fetcher *MemeFetcher, memes repo.MemeRepository, feedCache cache.Cache, logger *zap.Logger) *MemeRefreshHandler {
	return &MemeRefreshHandler{
		fetcher:   fetcher,
		memes:     memes,
		feedCache: feedCache,
		logger:    logger,
	}
}

func (h *MemeRefreshHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	memes, err := h.fetcher.Fetch(ctx)
	if err != nil {
		h.logger.Error("meme refresh fetch failed", zap.Error(err))
		return err
	}

	inserted, err := h.memes.Ingest(ctx, memes)
	if err != nil {
		h.logger.Error("meme refresh ingest failed", zap.Error(err))
		return err
	}

	if inserted > 0 && h.feedCache != nil {
		if _, err := h.feedCache.Del(ctx, cache.FeedFirstPageKey); err != nil {
			h.logger.Warn("feed cache invalidation failed after ingest", zap.Error(err))
		}
	}
	return nil
}
