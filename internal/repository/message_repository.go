package repository

import (
	"context"
	"social_events_backend/internal/model"

	"gorm.io/gorm"
)

type MessageRepository struct {
	DB *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{DB: db}
}

func (r *MessageRepository) Create(ctx context.Context, msg *model.Message) error {
	return r.DB.WithContext(ctx).Create(msg).Error
}

// ListConversation 两人之间的全部私信，按时间升序
func (r *MessageRepository) ListConversation(ctx context.Context, a, b uint) ([]model.Message, error) {
	var messages []model.Message
	err := r.DB.WithContext(ctx).
		Where("(user_id_send = ? AND user_id_received = ?) OR (user_id_send = ? AND user_id_received = ?)", a, b, b, a).
		Order("timestamp ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

// ListContacts 给 userID 发过私信的用户
func (r *MessageRepository) ListContacts(ctx context.Context, userID uint) ([]model.User, error) {
	senders := r.DB.Model(&model.Message{}).Select("user_id_send").Where("user_id_received = ?", userID)

	var users []model.User
	err := r.DB.WithContext(ctx).
		Where("id IN (?)", senders).
		Order("id ASC").
		Find(&users).Error
	return users, err
}

// DeleteBetween 删除两人之间双向的私信
func (r *MessageRepository) DeleteBetween(ctx context.Context, a, b uint) (int64, error) {
	result := r.DB.WithContext(ctx).
		Where("(user_id_send = ? AND user_id_received = ?) OR (user_id_send = ? AND user_id_received = ?)", a, b, b, a).
		Delete(&model.Message{})
	return result.RowsAffected, result.Error
}
