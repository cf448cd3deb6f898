package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/khushik17/wee-Chat/internal/db"
	"github.com/khushik17/wee-Chat/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var ErrMemeNotFound = errors.New("meme not found")

const defaultFeedLimit = 10

type memeRepository struct {
	memes  *db.Repository[model.Meme]
	shares *db.Repository[model.Share]
	logger *zap.Logger
}

// MemeRepository stores the meme feed, its social state, and share records.
type MemeRepository interface {
	// Feed returns up to limit memes newer-first, starting after the lastID
	// cursor when given.
	Feed(ctx context.Context, lastID string, limit int64) ([]model.Meme, error)

	FindByID(ctx context.Context, id string) (*model.Meme, error)

	// FindManyByIDs resolves meme references in bulk; missing ids are absent
	// from the result rather than an error.
	FindManyByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.Meme, error)

	// Like/Unlike use set semantics on the like array, so repeats are no-ops.
	Like(ctx context.Context, memeID, userID string) (*model.Meme, error)
	Unlike(ctx context.Context, memeID, userID string) (*model.Meme, error)

	AddComment(ctx context.Context, memeID string, comment model.Comment) (*model.Meme, error)

	// Ingest upserts memes keyed by image URL; existing entries keep their
	// social state. Returns how many documents were newly inserted.
	Ingest(ctx context.Context, memes []model.Meme) (int, error)

	CreateShare(ctx context.Context, share model.Share) (*model.Share, error)
	ListSharesForReceiver(ctx context.Context, receiverID string) ([]model.Share, error)
}

func NewMemeRepository(memes *db.Repository[model.Meme], shares *db.Repository[model.Share], logger *zap.Logger) MemeRepository {
	return &memeRepository{memes: memes, shares: shares, logger: logger}
}

func (r *memeRepository) Feed(ctx context.Context, lastID string, limit int64) ([]model.Meme, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	if limit <= 0 {
		limit = defaultFeedLimit
	}

	filter := db.NewFilter()
	if lastID != "" {
		objectID, err := primitive.ObjectIDFromHex(lastID)
		if err != nil {
			return nil, fmt.Errorf("invalid feed cursor: %w", err)
		}
		filter.Lt("_id", objectID)
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}).SetLimit(limit)
	memes, err := r.memes.FindAll(ctx, filter.Build(), opts)
	if err != nil {
		r.logger.Error("failed to query meme feed", zap.Error(err))
		return nil, fmt.Errorf("meme feed: %w", err)
	}
	return memes, nil
}

func (r *memeRepository) FindByID(ctx context.Context, id string) (*model.Meme, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	meme, err := r.memes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrMemeNotFound
		}
		return nil, fmt.Errorf("find meme: %w", err)
	}
	return meme, nil
}

func (r *memeRepository) FindManyByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.Meme, error) {
	if len(ids) == 0 {
		return map[primitive.ObjectID]model.Meme{}, nil
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	memes, err := r.memes.FindAll(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find memes: %w", err)
	}

	byID := make(map[primitive.ObjectID]model.Meme, len(memes))
	for _, m := range memes {
		byID[m.ID] = m
	}
	return byID, nil
}

func (r *memeRepository) Like(ctx context.Context, memeID, userID string) (*model.Meme, error) {
	return r.updateLikes(ctx, memeID, bson.M{"$addToSet": bson.M{"likes": userID}})
}

func (r *memeRepository) Unlike(ctx context.Context, memeID, userID string) (*model.Meme, error) {
	return r.updateLikes(ctx, memeID, bson.M{"$pull": bson.M{"likes": userID}})
}

func (r *memeRepository) updateLikes(ctx context.Context, memeID string, update bson.M) (*model.Meme, error) {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	result, err := r.memes.UpdateByID(ctx, memeID, update)
	if err != nil {
		r.logger.Error("failed to update meme likes", zap.String("meme_id", memeID), zap.Error(err))
		return nil, fmt.Errorf("update likes: %w", err)
	}
	if result.MatchedCount == 0 {
		return nil, ErrMemeNotFound
	}

	return r.FindByID(ctx, memeID)
}

func (r *memeRepository) AddComment(ctx context.Context, memeID string, comment model.Comment) (*model.Meme, error) {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}

	result, err := r.memes.UpdateByID(ctx, memeID, bson.M{"$push": bson.M{"comments": comment}})
	if err != nil {
		r.logger.Error("failed to add comment", zap.String("meme_id", memeID), zap.Error(err))
		return nil, fmt.Errorf("add comment: %w", err)
	}
	if result.MatchedCount == 0 {
		return nil, ErrMemeNotFound
	}

	return r.FindByID(ctx, memeID)
}

func (r *memeRepository) Ingest(ctx context.Context, memes []model.Meme) (int, error) {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout*3)
	defer cancel()

	inserted := 0
	for _, m := range memes {
		filter := db.NewFilter().Eq("image_url", m.ImageURL).Build()
		update := bson.M{"$setOnInsert": bson.M{
			"title":    m.Title,
			"spoiler":  m.Spoiler,
			"nsfw":     m.NSFW,
			"likes":    []string{},
			"comments": []model.Comment{},
		}}

		result, err := r.memes.UpsertOne(ctx, filter, update)
		if err != nil {
			// Skip the bad document, keep ingesting the rest.
			r.logger.Warn("skipping meme during ingest", zap.String("image_url", m.ImageURL), zap.Error(err))
			continue
		}
		if result.UpsertedCount > 0 {
			inserted++
		}
	}

	r.logger.Info("meme ingest complete", zap.Int("received", len(memes)), zap.Int("inserted", inserted))
	return inserted, nil
}

func (r *memeRepository) CreateShare(ctx context.Context, share model.Share) (*model.Share, error) {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	if share.SentAt.IsZero() {
		share.SentAt = time.Now().UTC()
	}

	result, err := r.shares.Create(ctx, share)
	if err != nil {
		r.logger.Error("failed to create share", zap.String("sender", share.Sender), zap.Error(err))
		return nil, fmt.Errorf("create share: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		share.ID = oid
	}
	return &share, nil
}

func (r *memeRepository) ListSharesForReceiver(ctx context.Context, receiverID string) ([]model.Share, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("receiver", receiverID).Build()
	shares, err := r.shares.FindAll(ctx, filter, findSortedBy("sent_at", true))
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	return shares, nil
}
