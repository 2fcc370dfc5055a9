package service

import (
	"context"
	"social_events_backend/internal/model"
	"social_events_backend/internal/repository"
	"social_events_backend/internal/util"
	"social_events_backend/pkg/security"
	"time"
)

// MessageService 私信只做同步持久化
type MessageService struct {
	MessageRepo *repository.MessageRepository
	Users       UserFinder
}

func NewMessageService(messageRepo *repository.MessageRepository, users UserFinder) *MessageService {
	return &MessageService{
		MessageRepo: messageRepo,
		Users:       users,
	}
}

func (s *MessageService) SendMessage(ctx context.Context, senderID, receiverID uint, content string, now time.Time) (*model.Message, error) {
	if senderID == receiverID {
		return nil, util.ErrSelfMessage
	}

	content = security.SanitizeText(content)
	if content == "" {
		return nil, util.ErrEmptyMessage
	}

	if err := s.requireUser(ctx, receiverID); err != nil {
		return nil, err
	}

	msg := &model.Message{
		Content:    content,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Timestamp:  now,
	}
	if err := s.MessageRepo.Create(ctx, msg); err != nil {
		return nil, util.WrapStorage("messages.create", err)
	}
	return msg, nil
}

// GetConversation 双向私信，按时间升序
func (s *MessageService) GetConversation(ctx context.Context, userID, otherID uint) ([]model.Message, error) {
	if err := s.requireUser(ctx, otherID); err != nil {
		return nil, err
	}
	messages, err := s.MessageRepo.ListConversation(ctx, userID, otherID)
	if err != nil {
		return nil, util.WrapStorage("messages.list_conversation", err)
	}
	return messages, nil
}

// GetContacts 给 userID 发过私信的用户
func (s *MessageService) GetContacts(ctx context.Context, userID uint) ([]model.User, error) {
	users, err := s.MessageRepo.ListContacts(ctx, userID)
	if err != nil {
		return nil, util.WrapStorage("messages.list_contacts", err)
	}
	return users, nil
}

func (s *MessageService) requireUser(ctx context.Context, userID uint) error {
	exists, err := s.Users.Exists(ctx, userID)
	if err != nil {
		return util.WrapStorage("users.exists", err)
	}
	if !exists {
		return util.ErrUserNotFound
	}
	return nil
}
