package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/khushik17/wee-Chat/internal/cache"
	"github.com/khushik17/wee-Chat/internal/model"
	"github.com/khushik17/wee-Chat/internal/repo"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var ErrInvalidComment = errors.New("comment text is required")

const (
	feedCacheKey = cache.FeedFirstPageKey
	feedCacheTTL = 2 * time.Minute
)

// MemeService assembles the meme feed for a viewer and applies the social
// actions (like, unlike, comment, share).
type MemeService interface {
	Feed(ctx context.Context, viewerID, lastID string, limit int64) ([]model.MemeFeedItem, error)
	Like(ctx context.Context, memeID, userID string) (model.MemeFeedItem, error)
	Unlike(ctx context.Context, memeID, userID string) (model.MemeFeedItem, error)
	Comment(ctx context.Context, memeID, userID, text string) (*model.Meme, error)
	Share(ctx context.Context, senderID, receiverID, memeID string) (*model.Share, error)
	SharedWith(ctx context.Context, receiverID string) ([]model.ShareView, error)
}

type memeService struct {
	memes  repo.MemeRepository
	users  repo.UserRepository
	cache  cache.Cache
	logger *zap.Logger
}

func NewMemeService(memes repo.MemeRepository, users repo.UserRepository, feedCache cache.Cache, logger *zap.Logger) MemeService {
	return &memeService{
		memes:  memes,
		users:  users,
		cache:  feedCache,
		logger: logger,
	}
}

// Feed serves the first page from cache when possible; deeper cursor pages go
// straight to the store. The cached form is viewer-neutral, the liked
// projection is applied per request.
func (s *memeService) Feed(ctx context.Context, viewerID, lastID string, limit int64) ([]model.MemeFeedItem, error) {
	var memes []model.Meme
	var err error

	if firstPage := lastID == ""; firstPage {
		memes, err = s.cachedFirstPage(ctx, limit)
	} else {
		memes, err = s.memes.Feed(ctx, lastID, limit)
	}
	if err != nil {
		return nil, err
	}

	items := make([]model.MemeFeedItem, 0, len(memes))
	for _, m := range memes {
		items = append(items, m.ViewFor(viewerID))
	}
	return items, nil
}

func (s *memeService) cachedFirstPage(ctx context.Context, limit int64) ([]model.Meme, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, feedCacheKey); err == nil {
			var memes []model.Meme
			if json.Unmarshal([]byte(raw), &memes) == nil && int64(len(memes)) >= limit {
				return memes[:limit], nil
			}
		} else if !errors.Is(err, cache.ErrMiss) {
			// Degrade to the store on cache transport errors.
			s.logger.Warn("feed cache read failed", zap.Error(err))
		}
	}

	memes, err := s.memes.Feed(ctx, "", limit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(memes); err == nil {
			if err := s.cache.Set(ctx, feedCacheKey, string(raw), feedCacheTTL); err != nil {
				s.logger.Warn("feed cache write failed", zap.Error(err))
			}
		}
	}
	return memes, nil
}

func (s *memeService) invalidateFeed(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Del(ctx, feedCacheKey); err != nil {
		s.logger.Warn("feed cache invalidation failed", zap.Error(err))
	}
}

func (s *memeService) Like(ctx context.Context, memeID, userID string) (model.MemeFeedItem, error) {
	meme, err := s.memes.Like(ctx, memeID, userID)
	if err != nil {
		return model.MemeFeedItem{}, err
	}
	s.invalidateFeed(ctx)
	return meme.ViewFor(userID), nil
}

func (s *memeService) Unlike(ctx context.Context, memeID, userID string) (model.MemeFeedItem, error) {
	meme, err := s.memes.Unlike(ctx, memeID, userID)
	if err != nil {
		return model.MemeFeedItem{}, err
	}
	s.invalidateFeed(ctx)
	return meme.ViewFor(userID), nil
}

func (s *memeService) Comment(ctx context.Context, memeID, userID, text string) (*model.Meme, error) {
	if text == "" {
		return nil, ErrInvalidComment
	}

	meme, err := s.memes.AddComment(ctx, memeID, model.Comment{User: userID, Text: text})
	if err != nil {
		return nil, err
	}
	s.invalidateFeed(ctx)
	return meme, nil
}

func (s *memeService) Share(ctx context.Context, senderID, receiverID, memeID string) (*model.Share, error) {
	objectID, err := primitive.ObjectIDFromHex(memeID)
	if err != nil {
		return nil, fmt.Errorf("invalid meme id: %w", err)
	}

	// The meme must exist; a dangling share renders as nothing.
	if _, err := s.memes.FindByID(ctx, memeID); err != nil {
		return nil, err
	}

	return s.memes.CreateShare(ctx, model.Share{
		Sender:   senderID,
		Receiver: receiverID,
		MemeID:   objectID,
	})
}

func (s *memeService) SharedWith(ctx context.Context, receiverID string) ([]model.ShareView, error) {
	shares, err := s.memes.ListSharesForReceiver(ctx, receiverID)
	if err != nil {
		return nil, err
	}

	memeIDs := make([]primitive.ObjectID, 0, len(shares))
	senderIDs := make([]string, 0, len(shares))
	seenSenders := map[string]bool{}
	for _, share := range shares {
		memeIDs = append(memeIDs, share.MemeID)
		if !seenSenders[share.Sender] {
			seenSenders[share.Sender] = true
			senderIDs = append(senderIDs, share.Sender)
		}
	}

	memes, err := s.memes.FindManyByIDs(ctx, memeIDs)
	if err != nil {
		return nil, err
	}
	senders, err := s.users.FindManyByExternalIDs(ctx, senderIDs)
	if err != nil {
		return nil, err
	}

	views := make([]model.ShareView, 0, len(shares))
	for _, share := range shares {
		meme, ok := memes[share.MemeID]
		if !ok {
			continue
		}
		sender := senders[share.Sender]
		views = append(views, model.ShareView{
			ID: share.ID,
			Sender: model.UserRef{
				ExternalID:     share.Sender,
				Username:       sender.Username,
				ProfilePicture: sender.ProfilePicture,
			},
			Meme:   meme,
			SentAt: share.SentAt,
		})
	}
	return views, nil
}
