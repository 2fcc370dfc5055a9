package service

import (
	"context"
	"errors"
	"social_events_backend/internal/model"
	"social_events_backend/internal/repository"
	"social_events_backend/internal/util"
	"social_events_backend/pkg/security"
	"strings"
	"time"

	"gorm.io/gorm"
)

// UserUpdate 自我编辑，nil 字段保持原值
type UserUpdate struct {
	Name     *string
	LastName *string
	Email    *string
	Password *string
	Image    *string
}

// UserService 处理用户相关的业务逻辑
type UserService struct {
	UserRepo  *repository.UserRepository
	TokenRepo *repository.TokenRepository

	cascadeOnDelete bool
}

func NewUserService(userRepo *repository.UserRepository, tokenRepo *repository.TokenRepository, cascadeOnDelete bool) *UserService {
	return &UserService{
		UserRepo:        userRepo,
		TokenRepo:       tokenRepo,
		cascadeOnDelete: cascadeOnDelete,
	}
}

// Exists 实现 UserFinder
func (s *UserService) Exists(ctx context.Context, id uint) (bool, error) {
	return s.UserRepo.Exists(ctx, id)
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(ctx, id)
	if repository.IsNotFound(err) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, util.WrapStorage("users.find", err)
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.UserRepo.List(ctx)
	if err != nil {
		return nil, util.WrapStorage("users.list", err)
	}
	return users, nil
}

func (s *UserService) SearchUsers(ctx context.Context, query string) ([]model.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.ListUsers(ctx)
	}
	users, err := s.UserRepo.Search(ctx, query)
	if err != nil {
		return nil, util.WrapStorage("users.search", err)
	}
	return users, nil
}

// UpdateProfile 部分更新当前用户资料
func (s *UserService) UpdateProfile(ctx context.Context, id uint, update UserUpdate) (*model.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		user.Name = security.SanitizeText(*update.Name)
	}
	if update.LastName != nil {
		user.LastName = security.SanitizeText(*update.LastName)
	}
	if update.Image != nil {
		user.Image = *update.Image
	}
	if update.Email != nil && *update.Email != user.Email {
		taken, err := s.UserRepo.EmailTaken(ctx, *update.Email, id)
		if err != nil {
			return nil, util.WrapStorage("users.email_taken", err)
		}
		if taken {
			return nil, util.ErrEmailRegistered
		}
		user.Email = *update.Email
	}
	if update.Password != nil {
		if len(*update.Password) < util.PasswordMinLength {
			return nil, util.ErrPasswordTooShort
		}
		hashed, err := hashPassword(*update.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hashed
	}

	if err := s.UserRepo.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrEmailRegistered
		}
		return nil, util.WrapStorage("users.update", err)
	}
	return user, nil
}

func (s *UserService) SetImage(ctx context.Context, id uint, image string) error {
	if err := s.UserRepo.UpdateImage(ctx, id, image); err != nil {
		return util.WrapStorage("users.update_image", err)
	}
	return nil
}

// DeleteUser 删除当前用户并注销其令牌
func (s *UserService) DeleteUser(ctx context.Context, claims *util.Claims) error {
	affected, err := s.UserRepo.Delete(ctx, claims.UserID, s.cascadeOnDelete)
	if err != nil {
		return util.WrapStorage("users.delete", err)
	}
	if affected == 0 {
		return util.ErrUserNotFound
	}

	if err := s.TokenRepo.Revoke(ctx, claims.ID, claims.RemainingTTL(time.Now())); err != nil {
		return util.WrapStorage("tokens.revoke", err)
	}
	return nil
}
