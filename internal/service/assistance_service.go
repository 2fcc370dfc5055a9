package service

import (
	"context"
	"math"
	"social_events_backend/internal/model"
	"social_events_backend/internal/repository"
	"social_events_backend/internal/util"
	"social_events_backend/pkg/monitoring"
	"social_events_backend/pkg/security"
	"social_events_backend/pkg/tracing"
	"time"
)

// AssistanceService 参与记录的生命周期：加入、评分、退出
type AssistanceService struct {
	AssistanceRepo *repository.AssistanceRepository
	Events         EventFinder
	Users          UserFinder
}

func NewAssistanceService(assistanceRepo *repository.AssistanceRepository, events EventFinder, users UserFinder) *AssistanceService {
	return &AssistanceService{
		AssistanceRepo: assistanceRepo,
		Events:         events,
		Users:          users,
	}
}

// ResolveEvent 活动不存在时返回 util.ErrEventNotFound
func (s *AssistanceService) ResolveEvent(ctx context.Context, eventID uint) (*model.Event, error) {
	event, err := s.Events.FindByID(ctx, eventID)
	if repository.IsNotFound(err) {
		return nil, util.ErrEventNotFound
	}
	if err != nil {
		return nil, util.WrapStorage("events.find", err)
	}
	return event, nil
}

func (s *AssistanceService) requireUser(ctx context.Context, userID uint) error {
	exists, err := s.Users.Exists(ctx, userID)
	if err != nil {
		return util.WrapStorage("users.exists", err)
	}
	if !exists {
		return util.ErrUserNotFound
	}
	return nil
}

// CreateAssistance 重复加入不会报错，返回 ALREADY_JOINED
func (s *AssistanceService) CreateAssistance(ctx context.Context, userID, eventID uint) (model.AssistanceOutcome, error) {
	ctx, span := tracing.Tracer.Start(ctx, "AssistanceService.CreateAssistance")
	defer span.End()

	inserted, err := s.AssistanceRepo.Insert(ctx, userID, eventID)
	if err != nil {
		span.RecordError(err)
		return model.AssistanceOutcome{}, util.WrapStorage("assistances.insert", err)
	}
	if !inserted {
		return recordAssistance(model.AssistanceAlreadyJoined), nil
	}
	return recordAssistance(model.AssistanceJoined), nil
}

// GetAssistanceOfUserForEvent 不存在时返回 nil, nil
func (s *AssistanceService) GetAssistanceOfUserForEvent(ctx context.Context, userID, eventID uint) (*model.Assistance, error) {
	a, err := s.AssistanceRepo.Find(ctx, userID, eventID)
	if err != nil {
		return nil, util.WrapStorage("assistances.find", err)
	}
	return a, nil
}

// EditAssistance 写入已合并好的评论和评分
func (s *AssistanceService) EditAssistance(ctx context.Context, a *model.Assistance) (model.AssistanceOutcome, error) {
	if err := s.AssistanceRepo.UpdateRating(ctx, a); err != nil {
		return model.AssistanceOutcome{}, util.WrapStorage("assistances.update_rating", err)
	}
	return recordAssistance(model.AssistanceRated), nil
}

// RateAssistance 活动结束后才能评分；校验失败时不写库
func (s *AssistanceService) RateAssistance(ctx context.Context, userID, eventID uint, rating model.AssistanceRating, now time.Time) (model.AssistanceOutcome, error) {
	ctx, span := tracing.Tracer.Start(ctx, "AssistanceService.RateAssistance")
	defer span.End()

	event, err := s.ResolveEvent(ctx, eventID)
	if err != nil {
		return model.AssistanceOutcome{}, err
	}

	a, err := s.GetAssistanceOfUserForEvent(ctx, userID, eventID)
	if err != nil {
		return model.AssistanceOutcome{}, err
	}
	if a == nil {
		return model.AssistanceOutcome{}, util.ErrAssistanceNotFound
	}

	if !event.HasFinished(now) {
		return model.AssistanceOutcome{}, util.ErrEventNotFinished
	}

	if rating.Punctuation != nil && !model.ValidPunctuation(*rating.Punctuation) {
		return model.AssistanceOutcome{}, util.ErrInvalidPunctuation
	}

	if rating.Comment != nil {
		cleaned := security.SanitizeText(*rating.Comment)
		rating.Comment = &cleaned
	}

	rating.Apply(a)
	return s.EditAssistance(ctx, a)
}

func (s *AssistanceService) DeleteAssistance(ctx context.Context, a *model.Assistance) (model.AssistanceOutcome, error) {
	if _, err := s.AssistanceRepo.Delete(ctx, a.UserID, a.EventID); err != nil {
		return model.AssistanceOutcome{}, util.WrapStorage("assistances.delete", err)
	}
	return recordAssistance(model.AssistanceLeft), nil
}

// LeaveEvent 用户自己退出活动
func (s *AssistanceService) LeaveEvent(ctx context.Context, userID, eventID uint) (model.AssistanceOutcome, error) {
	if _, err := s.ResolveEvent(ctx, eventID); err != nil {
		return model.AssistanceOutcome{}, err
	}
	return s.deleteExisting(ctx, userID, eventID)
}

// RemoveAssistant 活动组织者移除参与者
func (s *AssistanceService) RemoveAssistant(ctx context.Context, ownerID, userID, eventID uint) (model.AssistanceOutcome, error) {
	event, err := s.ResolveEvent(ctx, eventID)
	if err != nil {
		return model.AssistanceOutcome{}, err
	}
	if event.OwnerID != ownerID {
		return model.AssistanceOutcome{}, util.ErrNotEventOwner
	}
	return s.deleteExisting(ctx, userID, eventID)
}

func (s *AssistanceService) deleteExisting(ctx context.Context, userID, eventID uint) (model.AssistanceOutcome, error) {
	a, err := s.GetAssistanceOfUserForEvent(ctx, userID, eventID)
	if err != nil {
		return model.AssistanceOutcome{}, err
	}
	if a == nil {
		return model.AssistanceOutcome{}, util.ErrAssistanceNotFound
	}
	return s.DeleteAssistance(ctx, a)
}

// GetEventAssistances 活动的参与者及其评价
func (s *AssistanceService) GetEventAssistances(ctx context.Context, eventID uint) ([]model.Assistant, error) {
	if _, err := s.ResolveEvent(ctx, eventID); err != nil {
		return nil, err
	}
	assistants, err := s.AssistanceRepo.ListAssistants(ctx, eventID)
	if err != nil {
		return nil, util.WrapStorage("assistances.list_assistants", err)
	}
	return assistants, nil
}

func (s *AssistanceService) GetUserEventAssistance(ctx context.Context, eventID, userID uint) (*model.Assistant, error) {
	if _, err := s.ResolveEvent(ctx, eventID); err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	assistant, err := s.AssistanceRepo.FindAssistant(ctx, eventID, userID)
	if err != nil {
		return nil, util.WrapStorage("assistances.find_assistant", err)
	}
	if assistant == nil {
		return nil, util.ErrAssistanceNotFound
	}
	return assistant, nil
}

// GetUserAssistances 用户参加的活动
func (s *AssistanceService) GetUserAssistances(ctx context.Context, userID uint, scope repository.EventScope, now time.Time) ([]model.EventWithAssistance, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	events, err := s.AssistanceRepo.ListEventsForUser(ctx, userID, scope, now)
	if err != nil {
		return nil, util.WrapStorage("assistances.list_events", err)
	}
	return events, nil
}

// GetUserAverageScore 用户组织的已结束活动的平均评分，保留两位小数；没有评分时为 nil
func (s *AssistanceService) GetUserAverageScore(ctx context.Context, userID uint, now time.Time) (*float64, error) {
	avg, err := s.AssistanceRepo.AverageScoreForOwner(ctx, userID, now)
	if err != nil {
		return nil, util.WrapStorage("assistances.average_score", err)
	}
	if avg == nil {
		return nil, nil
	}
	rounded := round2(*avg)
	return &rounded, nil
}

func (s *AssistanceService) GetUserNumberOfComments(ctx context.Context, userID uint) (int64, error) {
	n, err := s.AssistanceRepo.CountComments(ctx, userID)
	if err != nil {
		return 0, util.WrapStorage("assistances.count_comments", err)
	}
	return n, nil
}

// GetUserPercentageCommentersBelow 评论数严格少于 userID 的其他用户占全部用户的百分比
func (s *AssistanceService) GetUserPercentageCommentersBelow(ctx context.Context, userID uint) (float64, error) {
	counts, err := s.AssistanceRepo.CommentCountsPerUser(ctx)
	if err != nil {
		return 0, util.WrapStorage("assistances.comment_counts", err)
	}
	if len(counts) == 0 {
		return 0, nil
	}

	var mine int64
	for _, c := range counts {
		if c.UserID == userID {
			mine = c.Comments
			break
		}
	}

	var below int
	for _, c := range counts {
		if c.UserID != userID && c.Comments < mine {
			below++
		}
	}

	return round2(float64(below) * 100 / float64(len(counts))), nil
}

// GetUserStatistics 汇总三项统计
func (s *AssistanceService) GetUserStatistics(ctx context.Context, userID uint, now time.Time) (*model.UserStatistics, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	avg, err := s.GetUserAverageScore(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	comments, err := s.GetUserNumberOfComments(ctx, userID)
	if err != nil {
		return nil, err
	}
	below, err := s.GetUserPercentageCommentersBelow(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &model.UserStatistics{
		AverageScore:              avg,
		NumberOfComments:          comments,
		PercentageCommentersBelow: below,
	}, nil
}

func recordAssistance(outcome model.AssistanceOutcome) model.AssistanceOutcome {
	monitoring.AssistanceOutcomes.WithLabelValues(outcome.Outcome).Inc()
	return outcome
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
