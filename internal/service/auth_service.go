package service

import (
	"context"
	"errors"
	"social_events_backend/internal/config"
	"social_events_backend/internal/model"
	"social_events_backend/internal/repository"
	"social_events_backend/internal/util"
	"social_events_backend/pkg/security"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	UserRepo  *repository.UserRepository
	TokenRepo *repository.TokenRepository
	Cfg       *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, tokenRepo *repository.TokenRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo:  userRepo,
		TokenRepo: tokenRepo,
		Cfg:       cfg,
	}
}

// Register user.Password 传入明文，保存前替换为 bcrypt 哈希
func (s *AuthService) Register(ctx context.Context, user *model.User) error {
	if len(user.Password) < util.PasswordMinLength {
		return util.ErrPasswordTooShort
	}

	taken, err := s.UserRepo.EmailTaken(ctx, user.Email, 0)
	if err != nil {
		return util.WrapStorage("users.email_taken", err)
	}
	if taken {
		return util.ErrEmailRegistered
	}

	hashedPassword, err := hashPassword(user.Password)
	if err != nil {
		return err
	}
	user.Password = hashedPassword
	user.Name = security.SanitizeText(user.Name)
	user.LastName = security.SanitizeText(user.LastName)

	if err := s.UserRepo.Create(ctx, user); err != nil {
		// 并发注册同一邮箱时由唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return util.ErrEmailRegistered
		}
		return util.WrapStorage("users.create", err)
	}
	return nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.UserRepo.FindByEmail(ctx, email)
	if repository.IsNotFound(err) {
		return "", util.ErrInvalidCredentials
	}
	if err != nil {
		return "", util.WrapStorage("users.find_by_email", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", util.ErrInvalidCredentials
	}

	return util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
}

// Logout 把当前令牌加入黑名单直到其自然过期
func (s *AuthService) Logout(ctx context.Context, claims *util.Claims) error {
	if claims == nil {
		return nil
	}
	if err := s.TokenRepo.Revoke(ctx, claims.ID, claims.RemainingTTL(time.Now())); err != nil {
		return util.WrapStorage("tokens.revoke", err)
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
