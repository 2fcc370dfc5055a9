package service

import (
	"context"
	"social_events_backend/internal/model"
	"social_events_backend/internal/repository"
	"social_events_backend/internal/util"
	"social_events_backend/pkg/security"
	"social_events_backend/pkg/tracing"
	"time"
)

// EventUpdate 组织者部分更新活动，nil 字段保持原值
type EventUpdate struct {
	Name           *string
	Image          *string
	Location       *string
	Description    *string
	EventStartDate *time.Time
	EventEndDate   *time.Time
	NParticipators *int
	Type           *string
}

type EventService struct {
	EventRepo *repository.EventRepository
	Users     UserFinder

	cascadeOnDelete bool
}

func NewEventService(eventRepo *repository.EventRepository, users UserFinder, cascadeOnDelete bool) *EventService {
	return &EventService{
		EventRepo:       eventRepo,
		Users:           users,
		cascadeOnDelete: cascadeOnDelete,
	}
}

// FindByID 实现 EventFinder
func (s *EventService) FindByID(ctx context.Context, id uint) (*model.Event, error) {
	return s.EventRepo.FindByID(ctx, id)
}

func (s *EventService) GetEvent(ctx context.Context, id uint) (*model.Event, error) {
	event, err := s.EventRepo.FindByID(ctx, id)
	if repository.IsNotFound(err) {
		return nil, util.ErrEventNotFound
	}
	if err != nil {
		return nil, util.WrapStorage("events.find", err)
	}
	return event, nil
}

func (s *EventService) CreateEvent(ctx context.Context, event *model.Event) error {
	ctx, span := tracing.Tracer.Start(ctx, "EventService.CreateEvent")
	defer span.End()

	if !event.EventStartDate.Before(event.EventEndDate) {
		return util.ErrInvalidEventDates
	}
	sanitizeEvent(event)

	if err := s.EventRepo.Create(ctx, event); err != nil {
		return util.WrapStorage("events.create", err)
	}
	return nil
}

// UpdateEvent 仅组织者可以修改，合并后仍需满足开始早于结束
func (s *EventService) UpdateEvent(ctx context.Context, ownerID, eventID uint, update EventUpdate) (*model.Event, error) {
	event, err := s.ownedEvent(ctx, ownerID, eventID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		event.Name = *update.Name
	}
	if update.Image != nil {
		event.Image = *update.Image
	}
	if update.Location != nil {
		event.Location = *update.Location
	}
	if update.Description != nil {
		event.Description = *update.Description
	}
	if update.EventStartDate != nil {
		event.EventStartDate = *update.EventStartDate
	}
	if update.EventEndDate != nil {
		event.EventEndDate = *update.EventEndDate
	}
	if update.NParticipators != nil {
		event.NParticipators = *update.NParticipators
	}
	if update.Type != nil {
		event.Type = *update.Type
	}

	if !event.EventStartDate.Before(event.EventEndDate) {
		return nil, util.ErrInvalidEventDates
	}
	sanitizeEvent(event)

	if err := s.EventRepo.Update(ctx, event); err != nil {
		return nil, util.WrapStorage("events.update", err)
	}
	return event, nil
}

func (s *EventService) DeleteEvent(ctx context.Context, ownerID, eventID uint) error {
	if _, err := s.ownedEvent(ctx, ownerID, eventID); err != nil {
		return err
	}
	if err := s.EventRepo.Delete(ctx, eventID, s.cascadeOnDelete); err != nil {
		return util.WrapStorage("events.delete", err)
	}
	return nil
}

func (s *EventService) SetImage(ctx context.Context, ownerID, eventID uint, image string) error {
	if _, err := s.ownedEvent(ctx, ownerID, eventID); err != nil {
		return err
	}
	if err := s.EventRepo.UpdateImage(ctx, eventID, image); err != nil {
		return util.WrapStorage("events.update_image", err)
	}
	return nil
}

// RequireOwner 活动存在且属于 ownerID
func (s *EventService) RequireOwner(ctx context.Context, ownerID, eventID uint) (*model.Event, error) {
	return s.ownedEvent(ctx, ownerID, eventID)
}

func (s *EventService) ownedEvent(ctx context.Context, ownerID, eventID uint) (*model.Event, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OwnerID != ownerID {
		return nil, util.ErrNotEventOwner
	}
	return event, nil
}

func (s *EventService) ListUpcoming(ctx context.Context, now time.Time) ([]model.Event, error) {
	events, err := s.EventRepo.ListUpcoming(ctx, now)
	if err != nil {
		return nil, util.WrapStorage("events.list_upcoming", err)
	}
	return events, nil
}

func (s *EventService) CountUpcoming(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.EventRepo.CountUpcoming(ctx, now)
	if err != nil {
		return 0, util.WrapStorage("events.count_upcoming", err)
	}
	return n, nil
}

func (s *EventService) ListBest(ctx context.Context, now time.Time) ([]model.Event, error) {
	events, err := s.EventRepo.ListBest(ctx, now)
	if err != nil {
		return nil, util.WrapStorage("events.list_best", err)
	}
	return events, nil
}

func (s *EventService) Search(ctx context.Context, filter model.EventFilter) ([]model.Event, error) {
	if filter.Date != "" && !util.ValidDate(filter.Date) {
		return nil, util.ErrInvalidDate
	}
	events, err := s.EventRepo.Search(ctx, filter)
	if err != nil {
		return nil, util.WrapStorage("events.search", err)
	}
	return events, nil
}

// ListByOwner 用户创建的活动
func (s *EventService) ListByOwner(ctx context.Context, ownerID uint, scope repository.EventScope, now time.Time) ([]model.Event, error) {
	exists, err := s.Users.Exists(ctx, ownerID)
	if err != nil {
		return nil, util.WrapStorage("users.exists", err)
	}
	if !exists {
		return nil, util.ErrUserNotFound
	}

	events, err := s.EventRepo.ListByOwner(ctx, ownerID, scope, now)
	if err != nil {
		return nil, util.WrapStorage("events.list_by_owner", err)
	}
	return events, nil
}

func sanitizeEvent(event *model.Event) {
	event.Name = security.SanitizeText(event.Name)
	event.Location = security.SanitizeText(event.Location)
	event.Description = security.SanitizeText(event.Description)
	event.Type = security.SanitizeText(event.Type)
}
