package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/khushik17/wee-Chat/internal/db"
	"github.com/khushik17/wee-Chat/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrInvalidParticipants = errors.New("invalid participants: both identities are required and must differ")
	ErrOperationTimeout    = errors.New("operation timeout exceeded")
)

const (
	defaultWriteTimeout = 5 * time.Second
	defaultReadTimeout  = 30 * time.Second

	maxRetries     = 3
	baseRetryDelay = 100 * time.Millisecond
	maxRetryDelay  = 2 * time.Second
)

type conversationRepository struct {
	conversations *db.Repository[model.Conversation]
	logger        *zap.Logger
}

// ConversationRepository is the durable store for two-party conversations.
// Lookups are symmetric in the participant pair; AppendMessage is the only
// mutation and is atomic with conversation creation.
type ConversationRepository interface {
	// FindByPair returns the conversation for the unordered pair, or (nil, nil)
	// when none exists yet.
	FindByPair(ctx context.Context, a, b string) (*model.Conversation, error)

	// AppendMessage appends msg to the pair's conversation, creating the
	// conversation with this message as its sole entry if it does not exist.
	// Returns the post-append conversation.
	AppendMessage(ctx context.Context, sender, receiver string, msg model.Message) (*model.Conversation, error)

	// ListForUser returns every conversation the identity participates in,
	// most recently updated first.
	ListForUser(ctx context.Context, identity string) ([]model.Conversation, error)
}

func NewConversationRepository(conversations *db.Repository[model.Conversation], logger *zap.Logger) ConversationRepository {
	return &conversationRepository{
		conversations: conversations,
		logger:        logger,
	}
}

func (r *conversationRepository) FindByPair(ctx context.Context, a, b string) (*model.Conversation, error) {
	if err := validatePair(a, b); err != nil {
		return nil, err
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("pair_key", model.PairKey(a, b)).Build()

	conversation, err := r.conversations.FindOne(ctx, filter)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		r.logger.Error("failed to fetch conversation",
			zap.String("pair_key", model.PairKey(a, b)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("find conversation: %w", err)
	}

	return conversation, nil
}

// AppendMessage is a single FindOneAndUpdate upsert keyed by the normalized
// pair. Concurrent first-messages between the same pair therefore land in one
// document instead of racing a read-then-write into two. The append is
// single-shot: retrying a $push after an ambiguous failure could duplicate the
// message, so transient errors surface to the caller instead.
func (r *conversationRepository) AppendMessage(ctx context.Context, sender, receiver string, msg model.Message) (*model.Conversation, error) {
	if err := validatePair(sender, receiver); err != nil {
		return nil, err
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	key := model.PairKey(sender, receiver)
	filter := db.NewFilter().Eq("pair_key", key).Build()
	update := bson.M{
		"$push": bson.M{"messages": msg},
		"$set":  bson.M{"updated_at": msg.CreatedAt},
		"$setOnInsert": bson.M{
			"participant_ids": []string{sender, receiver},
			"created_at":      msg.CreatedAt,
		},
	}

	conversation, err := r.conversations.FindOneAndUpsert(ctx, filter, update)
	if err != nil {
		r.logger.Error("failed to append message",
			zap.String("pair_key", key),
			zap.String("message_id", msg.MessageID),
			zap.Error(err),
		)
		return nil, handleWriteError(err)
	}

	r.logger.Debug("message appended",
		zap.String("pair_key", key),
		zap.String("message_id", msg.MessageID),
		zap.Int("conversation_len", len(conversation.Messages)),
	)

	return conversation, nil
}

func (r *conversationRepository) ListForUser(ctx context.Context, identity string) ([]model.Conversation, error) {
	if identity == "" {
		return nil, ErrInvalidParticipants
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("participant_ids", identity).Build()
	opts := findSortedBy("updated_at", true)

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := waitForRetry(ctx, attempt); err != nil {
				return nil, err
			}
			r.logger.Warn("retrying conversation list",
				zap.String("identity", identity),
				zap.Int("attempt", attempt+1),
			)
		}

		conversations, err := r.conversations.FindAll(ctx, filter, opts)
		if err == nil {
			return conversations, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			break
		}
	}

	if errors.Is(lastErr, context.DeadlineExceeded) {
		return nil, ErrOperationTimeout
	}
	r.logger.Error("failed to list conversations", zap.String("identity", identity), zap.Error(lastErr))
	return nil, fmt.Errorf("list conversations: %w", lastErr)
}

func validatePair(a, b string) error {
	if a == "" || b == "" || a == b {
		return ErrInvalidParticipants
	}
	return nil
}

func handleWriteError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrOperationTimeout
	}
	return fmt.Errorf("append message: %w", err)
}
