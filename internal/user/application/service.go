package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cristianortiz/auctionhouse/internal/shared/logger"
	"github.com/cristianortiz/auctionhouse/internal/user/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// UserService exposes guest registration and lookup.
type UserService interface {
	CreateGuest(ctx context.Context, displayName, email string) (*domain.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type userService struct {
	repo domain.UserRepository
	now  func() time.Time
}

func NewUserService(repo domain.UserRepository) UserService {
	return &userService{repo: repo, now: time.Now}
}

func (s *userService) CreateGuest(ctx context.Context, displayName, email string) (*domain.User, error) {
	user, err := domain.NewGuest(displayName, email, s.now())
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByEmail(ctx, user.Email)
	switch {
	case err == nil && existing != nil:
		return nil, domain.ErrEmailTaken
	case err != nil && !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("create guest: lookup email: %w", err)
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create guest: %w", err)
	}
	log.Info("Guest user created", zap.String("userID", user.ID.String()))
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}
