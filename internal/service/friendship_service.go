package service

import (
	"context"
	"errors"
	"social_events_backend/internal/model"
	"social_events_backend/internal/repository"
	"social_events_backend/internal/util"
	"social_events_backend/pkg/logger"
	"social_events_backend/pkg/monitoring"
	"social_events_backend/pkg/tracing"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// FriendshipService 好友关系状态机。
// 一对用户最多一行：NONE -申请-> PENDING(申请人) -对方申请或接受-> ACCEPTED，任意状态 -删除-> NONE。
type FriendshipService struct {
	FriendRepo *repository.FriendshipRepository
	Users      UserFinder

	cascadeMessages atomic.Bool
}

func NewFriendshipService(friendRepo *repository.FriendshipRepository, users UserFinder, cascadeMessages bool) *FriendshipService {
	s := &FriendshipService{
		FriendRepo: friendRepo,
		Users:      users,
	}
	s.cascadeMessages.Store(cascadeMessages)
	return s
}

// SetCascadeDeleteMessages 配置热更新时调用
func (s *FriendshipService) SetCascadeDeleteMessages(enabled bool) {
	if s.cascadeMessages.Swap(enabled) != enabled {
		logger.Log.Info("Friendship message cascade updated", zap.Bool("enabled", enabled))
	}
}

func (s *FriendshipService) CascadeDeleteMessages() bool {
	return s.cascadeMessages.Load()
}

// RequireUser 用户不存在时返回 util.ErrUserNotFound
func (s *FriendshipService) RequireUser(ctx context.Context, userID uint) error {
	exists, err := s.Users.Exists(ctx, userID)
	if err != nil {
		return util.WrapStorage("users.exists", err)
	}
	if !exists {
		return util.ErrUserNotFound
	}
	return nil
}

func (s *FriendshipService) CreateFriendRequest(ctx context.Context, requesterID, targetID uint) (model.FriendRequestOutcome, error) {
	ctx, span := tracing.Tracer.Start(ctx, "FriendshipService.CreateFriendRequest")
	defer span.End()

	if requesterID == targetID {
		return s.record("create", model.FriendCannotSelfRequest), nil
	}

	var outcome model.FriendRequestOutcome
	err := s.FriendRepo.Transaction(ctx, func(tx *repository.FriendshipRepository) error {
		row, err := tx.FindPair(ctx, requesterID, targetID, true)
		if err != nil {
			return util.WrapStorage("friends.find_pair", err)
		}

		if row == nil {
			inserted, err := tx.InsertRequest(ctx, requesterID, targetID)
			if err != nil {
				return util.WrapStorage("friends.insert_request", err)
			}
			if inserted {
				outcome = model.FriendRequestSent
				return nil
			}

			// 并发请求先写入了同一对用户，按已存在的行继续处理
			row, err = tx.FindPair(ctx, requesterID, targetID, true)
			if err != nil {
				return util.WrapStorage("friends.find_pair", err)
			}
			if row == nil {
				return util.WrapStorage("friends.insert_request", errors.New("friend pair missing after conflicting insert"))
			}
		}

		switch {
		case row.Status == model.FriendshipAccepted:
			outcome = model.FriendAlreadyFriends
		case row.RequestedBy(requesterID):
			outcome = model.FriendRequestAlreadySent
		default:
			if err := tx.Promote(ctx, row); err != nil {
				return util.WrapStorage("friends.promote", err)
			}
			outcome = model.FriendRequestAccepted
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return model.FriendRequestOutcome{}, util.WrapStorage("friends.create_request", err)
	}

	return s.record("create", outcome), nil
}

func (s *FriendshipService) AcceptFriendRequest(ctx context.Context, userID, externalUserID uint) (model.FriendRequestOutcome, error) {
	ctx, span := tracing.Tracer.Start(ctx, "FriendshipService.AcceptFriendRequest")
	defer span.End()

	var outcome model.FriendRequestOutcome
	err := s.FriendRepo.Transaction(ctx, func(tx *repository.FriendshipRepository) error {
		row, err := tx.FindPair(ctx, userID, externalUserID, true)
		if err != nil {
			return util.WrapStorage("friends.find_pair", err)
		}

		switch {
		case row == nil:
			outcome = model.FriendNotFound
		case row.Status == model.FriendshipAccepted:
			outcome = model.FriendAlreadyFriends
		case row.RequestedBy(userID):
			outcome = model.FriendCannotSelfAccept
		default:
			if err := tx.Promote(ctx, row); err != nil {
				return util.WrapStorage("friends.promote", err)
			}
			outcome = model.FriendRequestAccepted
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return model.FriendRequestOutcome{}, util.WrapStorage("friends.accept_request", err)
	}

	return s.record("accept", outcome), nil
}

// DeleteFriendRequestOrFriendship 拒绝申请、撤回申请或删除好友都走这里
func (s *FriendshipService) DeleteFriendRequestOrFriendship(ctx context.Context, userID, externalUserID uint) (model.FriendRequestOutcome, error) {
	ctx, span := tracing.Tracer.Start(ctx, "FriendshipService.DeleteFriendRequestOrFriendship")
	defer span.End()

	cascade := s.cascadeMessages.Load()
	span.SetAttributes(attribute.Bool("cascade_messages", cascade))

	var outcome model.FriendRequestOutcome
	err := s.FriendRepo.Transaction(ctx, func(tx *repository.FriendshipRepository) error {
		row, err := tx.FindPair(ctx, userID, externalUserID, true)
		if err != nil {
			return util.WrapStorage("friends.find_pair", err)
		}
		if row == nil {
			outcome = model.FriendNotFound
			return nil
		}

		if _, err := tx.DeletePair(ctx, userID, externalUserID); err != nil {
			return util.WrapStorage("friends.delete_pair", err)
		}

		if cascade {
			messages := repository.NewMessageRepository(tx.DB)
			if _, err := messages.DeleteBetween(ctx, userID, externalUserID); err != nil {
				return util.WrapStorage("messages.delete_between", err)
			}
		}

		outcome = model.FriendDeleted
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return model.FriendRequestOutcome{}, util.WrapStorage("friends.delete", err)
	}

	return s.record("delete", outcome), nil
}

// GetPotentialFriends 向 userID 发出且待处理的申请人
func (s *FriendshipService) GetPotentialFriends(ctx context.Context, userID uint) ([]model.User, error) {
	users, err := s.FriendRepo.ListPendingRequesters(ctx, userID)
	if err != nil {
		return nil, util.WrapStorage("friends.list_pending", err)
	}
	return users, nil
}

func (s *FriendshipService) GetFriends(ctx context.Context, userID uint) ([]model.User, error) {
	users, err := s.FriendRepo.ListFriends(ctx, userID)
	if err != nil {
		return nil, util.WrapStorage("friends.list", err)
	}
	return users, nil
}

func (s *FriendshipService) record(operation string, outcome model.FriendRequestOutcome) model.FriendRequestOutcome {
	monitoring.FriendshipOutcomes.WithLabelValues(operation, outcome.Outcome).Inc()
	return outcome
}
