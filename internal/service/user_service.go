package service

import (
	"context"

	"github.com/khushik17/wee-Chat/internal/model"
	"github.com/khushik17/wee-Chat/internal/repo"
)

// UserService fronts profile reads and writes. Identity lifecycle belongs to
// the external auth provider; this only mirrors profile data locally.
type UserService interface {
	FindOrCreate(ctx context.Context, user model.User) (*model.User, error)
	Profile(ctx context.Context, externalID string) (*model.User, error)
	UpdateProfile(ctx context.Context, externalID string, username, bio, picture string) (*model.User, error)
	Search(ctx context.Context, query, requesterID string) ([]model.User, error)
}

type userService struct {
	users repo.UserRepository
}

func NewUserService(users repo.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) FindOrCreate(ctx context.Context, user model.User) (*model.User, error) {
	return s.users.FindOrCreate(ctx, user)
}

func (s *userService) Profile(ctx context.Context, externalID string) (*model.User, error) {
	return s.users.FindByExternalID(ctx, externalID)
}

func (s *userService) UpdateProfile(ctx context.Context, externalID string, username, bio, picture string) (*model.User, error) {
	return s.users.UpdateProfile(ctx, externalID, username, bio, picture)
}

func (s *userService) Search(ctx context.Context, query, requesterID string) ([]model.User, error) {
	return s.users.SearchByUsername(ctx, query, requesterID)
}
