package admin

import (
	"context"

	"github.com/3Eeeecho/go-cloudbox/internal/models"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/logger"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/xerr"
	"github.com/3Eeeecho/go-cloudbox/internal/repositories"
	"go.uber.org/zap"
)

type UserService interface {
	GetProfile(ctx context.Context, userID string) (*models.User, error)
}

type userService struct {
	userRepo repositories.UserRepository
}

var _ UserService = (*userService)(nil)

func NewUserService(userRepo repositories.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		logger.Error("GetProfile: Error retrieving user from DB",
			zap.String("userID", userID),
			zap.Error(err))
		return nil, xerr.Wrap(xerr.ErrDatabaseError, err)
	}
	if user == nil { // userRepo.FindByID returns nil, nil if not found
		logger.Warn("GetProfile: User not found", zap.String("userID", userID))
		return nil, xerr.ErrUserNotFound
	}
	return user, nil
}
