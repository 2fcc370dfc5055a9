package repository

import (
	"context"
	"database/sql"
	"errors"
	"social_events_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AssistanceRepository struct {
	DB *gorm.DB
}

func NewAssistanceRepository(db *gorm.DB) *AssistanceRepository {
	return &AssistanceRepository{DB: db}
}

// Insert 单条原子插入；主键冲突时不写入并返回 false
func (r *AssistanceRepository) Insert(ctx context.Context, userID, eventID uint) (bool, error) {
	a := &model.Assistance{UserID: userID, EventID: eventID}
	result := r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(a)
	return result.RowsAffected == 1, result.Error
}

// Find 不存在时返回 nil, nil
func (r *AssistanceRepository) Find(ctx context.Context, userID, eventID uint) (*model.Assistance, error) {
	var a model.Assistance
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		Take(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateRating 写入评论和评分，nil 写为 NULL
func (r *AssistanceRepository) UpdateRating(ctx context.Context, a *model.Assistance) error {
	return r.DB.WithContext(ctx).Model(&model.Assistance{}).
		Where("user_id = ? AND event_id = ?", a.UserID, a.EventID).
		Updates(map[string]interface{}{
			"comment":     a.Comment,
			"punctuation": a.Punctuation,
		}).Error
}

func (r *AssistanceRepository) Delete(ctx context.Context, userID, eventID uint) (int64, error) {
	result := r.DB.WithContext(ctx).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		Delete(&model.Assistance{})
	return result.RowsAffected, result.Error
}

func (r *AssistanceRepository) assistantsQuery(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).Table("assistances").
		Select("users.id, users.name, users.last_name, users.email, assistances.punctuation, assistances.comment").
		Joins("JOIN users ON users.id = assistances.user_id")
}

// ListAssistants 活动的参与者及其评价
func (r *AssistanceRepository) ListAssistants(ctx context.Context, eventID uint) ([]model.Assistant, error) {
	var assistants []model.Assistant
	err := r.assistantsQuery(ctx).
		Where("assistances.event_id = ?", eventID).
		Order("users.id ASC").
		Scan(&assistants).Error
	return assistants, err
}

// FindAssistant 不存在时返回 nil, nil
func (r *AssistanceRepository) FindAssistant(ctx context.Context, eventID, userID uint) (*model.Assistant, error) {
	var assistants []model.Assistant
	err := r.assistantsQuery(ctx).
		Where("assistances.event_id = ? AND assistances.user_id = ?", eventID, userID).
		Limit(1).
		Scan(&assistants).Error
	if err != nil || len(assistants) == 0 {
		return nil, err
	}
	return &assistants[0], nil
}

// ListEventsForUser 用户参加的活动及其评价
func (r *AssistanceRepository) ListEventsForUser(ctx context.Context, userID uint, scope EventScope, now time.Time) ([]model.EventWithAssistance, error) {
	var events []model.EventWithAssistance
	db := r.DB.WithContext(ctx).Table("events").
		Select("events.*, assistances.punctuation, assistances.comment").
		Joins("JOIN assistances ON assistances.event_id = events.id").
		Where("assistances.user_id = ?", userID)
	err := applyEventScope(db, "events.", scope, now).
		Order("events.event_start_date ASC").
		Scan(&events).Error
	return events, err
}

// AverageScoreForOwner 组织者已结束活动的平均评分，未评分时返回 nil
func (r *AssistanceRepository) AverageScoreForOwner(ctx context.Context, ownerID uint, now time.Time) (*float64, error) {
	var avg sql.NullFloat64
	err := r.DB.WithContext(ctx).Model(&model.Assistance{}).
		Select("AVG(assistances.punctuation)").
		Joins("JOIN events ON events.id = assistances.event_id").
		Where("events.owner_id = ? AND events.event_end_date < ? AND assistances.punctuation IS NOT NULL", ownerID, now).
		Scan(&avg).Error
	if err != nil || !avg.Valid {
		return nil, err
	}
	return &avg.Float64, nil
}

func (r *AssistanceRepository) CountComments(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Assistance{}).
		Where("user_id = ? AND comment IS NOT NULL", userID).
		Count(&count).Error
	return count, err
}

// CommentCount 每个用户写过的评论数
type CommentCount struct {
	UserID   uint
	Comments int64
}

// CommentCountsPerUser 所有用户的评论数，没有参与记录的用户计为 0
func (r *AssistanceRepository) CommentCountsPerUser(ctx context.Context) ([]CommentCount, error) {
	var counts []CommentCount
	err := r.DB.WithContext(ctx).Model(&model.User{}).
		Select("users.id AS user_id, COUNT(assistances.comment) AS comments").
		Joins("LEFT JOIN assistances ON assistances.user_id = users.id").
		Group("users.id").
		Scan(&counts).Error
	return counts, err
}
