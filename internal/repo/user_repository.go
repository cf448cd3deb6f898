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

var ErrUserNotFound = errors.New("user not found")

type userRepository struct {
	users  *db.Repository[model.User]
	logger *zap.Logger
}

// UserRepository stores profile data keyed by the external provider's subject id.
type UserRepository interface {
	// FindOrCreate returns the existing user for the external id, creating the
	// record on first sight. Create is idempotent per external id.
	FindOrCreate(ctx context.Context, user model.User) (*model.User, error)

	// FindByExternalID returns ErrUserNotFound if no record exists.
	FindByExternalID(ctx context.Context, externalID string) (*model.User, error)

	// FindManyByExternalIDs returns the users found; missing ids are simply absent.
	FindManyByExternalIDs(ctx context.Context, externalIDs []string) (map[string]model.User, error)

	// UpdateProfile sets the provided non-empty fields on the user's record.
	UpdateProfile(ctx context.Context, externalID string, username, bio, picture string) (*model.User, error)

	// SearchByUsername matches usernames case-insensitively, excluding the requester.
	SearchByUsername(ctx context.Context, query, requesterID string) ([]model.User, error)
}

func NewUserRepository(users *db.Repository[model.User], logger *zap.Logger) UserRepository {
	return &userRepository{users: users, logger: logger}
}

func (r *userRepository) FindOrCreate(ctx context.Context, user model.User) (*model.User, error) {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("external_id", user.ExternalID).Build()

	existing, err := r.users.FindOne(ctx, filter)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	user.CreatedAt = time.Now().UTC()
	if _, err := r.users.Create(ctx, user); err != nil {
		// A concurrent create may have won; fall back to the winner's record.
		if mongo.IsDuplicateKeyError(err) {
			return r.users.FindOne(ctx, filter)
		}
		r.logger.Error("failed to create user", zap.String("external_id", user.ExternalID), zap.Error(err))
		return nil, fmt.Errorf("create user: %w", err)
	}

	r.logger.Info("user created", zap.String("external_id", user.ExternalID), zap.String("username", user.Username))
	return &user, nil
}

func (r *userRepository) FindByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("external_id", externalID).Build()
	user, err := r.users.FindOne(ctx, filter)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (r *userRepository) FindManyByExternalIDs(ctx context.Context, externalIDs []string) (map[string]model.User, error) {
	if len(externalIDs) == 0 {
		return map[string]model.User{}, nil
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	users, err := r.users.FindAll(ctx, bson.M{"external_id": bson.M{"$in": externalIDs}})
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}

	byID := make(map[string]model.User, len(users))
	for _, u := range users {
		byID[u.ExternalID] = u
	}
	return byID, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, externalID string, username, bio, picture string) (*model.User, error) {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	fields := bson.M{"updated_at": now}
	if username != "" {
		fields["username"] = username
	}
	if bio != "" {
		fields["bio"] = bio
	}
	if picture != "" {
		fields["profile_picture"] = picture
	}

	filter := db.NewFilter().Eq("external_id", externalID).Build()
	if _, err := r.users.UpdateOne(ctx, filter, bson.M{"$set": fields}); err != nil {
		r.logger.Error("failed to update profile", zap.String("external_id", externalID), zap.Error(err))
		return nil, fmt.Errorf("update profile: %w", err)
	}

	return r.FindByExternalID(ctx, externalID)
}

func (r *userRepository) SearchByUsername(ctx context.Context, query, requesterID string) ([]model.User, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().
		Contains("username", query).
		Ne("external_id", requesterID).
		Build()

	users, err := r.users.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return users, nil
}
