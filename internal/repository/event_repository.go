package repository

import (
	"context"
	"social_events_backend/internal/model"
	"strings"
	"time"

	"gorm.io/gorm"
)

// EventScope 按时间筛选某个用户的活动
type EventScope string

const (
	EventScopeAll      EventScope = "all"
	EventScopeFuture   EventScope = "future"
	EventScopeFinished EventScope = "finished"
	EventScopeCurrent  EventScope = "current"
)

type EventRepository struct {
	DB *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{DB: db}
}

func (r *EventRepository) Create(ctx context.Context, event *model.Event) error {
	return r.DB.WithContext(ctx).Create(event).Error
}

func (r *EventRepository) FindByID(ctx context.Context, id uint) (*model.Event, error) {
	var event model.Event
	err := r.DB.WithContext(ctx).First(&event, id).Error
	return &event, err
}

func (r *EventRepository) Update(ctx context.Context, event *model.Event) error {
	return r.DB.WithContext(ctx).Save(event).Error
}

func (r *EventRepository) UpdateImage(ctx context.Context, id uint, image string) error {
	return r.DB.WithContext(ctx).Model(&model.Event{}).
		Where("id = ?", id).
		Update("image", image).Error
}

// Delete cascade 为 true 时同一事务内删除活动的参与记录
func (r *EventRepository) Delete(ctx context.Context, id uint, cascade bool) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if cascade {
			if err := tx.Where("event_id = ?", id).Delete(&model.Assistance{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&model.Event{}, id).Error
	})
}

// ListUpcoming 尚未开始的活动，按开始时间排序
func (r *EventRepository) ListUpcoming(ctx context.Context, now time.Time) ([]model.Event, error) {
	var events []model.Event
	err := r.DB.WithContext(ctx).
		Where("event_start_date > ?", now).
		Order("event_start_date ASC").
		Find(&events).Error
	return events, err
}

func (r *EventRepository) CountUpcoming(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Event{}).
		Where("event_start_date > ?", now).
		Count(&count).Error
	return count, err
}

func (r *EventRepository) ListByOwner(ctx context.Context, ownerID uint, scope EventScope, now time.Time) ([]model.Event, error) {
	var events []model.Event
	db := applyEventScope(r.DB.WithContext(ctx).Where("owner_id = ?", ownerID), "", scope, now)
	err := db.Order("event_start_date ASC").Find(&events).Error
	return events, err
}

// Search 名称包含 keyword、地点包含 location、开始日期为 date，空条件忽略
func (r *EventRepository) Search(ctx context.Context, filter model.EventFilter) ([]model.Event, error) {
	var events []model.Event
	db := r.DB.WithContext(ctx)

	if filter.Keyword != "" {
		db = db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Keyword)+"%")
	}
	if filter.Location != "" {
		db = db.Where("LOWER(location) LIKE ?", "%"+strings.ToLower(filter.Location)+"%")
	}
	if filter.Date != "" {
		day, err := time.ParseInLocation("2006-01-02", filter.Date, time.Local)
		if err != nil {
			return nil, err
		}
		db = db.Where("event_start_date >= ? AND event_start_date < ?", day, day.AddDate(0, 0, 1))
	}

	err := db.Order("event_start_date ASC").Find(&events).Error
	return events, err
}

// ListBest 未结束的活动，按组织者历史平均评分降序；没有评分的组织者不参与排名
func (r *EventRepository) ListBest(ctx context.Context, now time.Time) ([]model.Event, error) {
	scores := r.DB.Model(&model.Assistance{}).
		Select("events.owner_id AS owner_id, AVG(assistances.punctuation) AS average_score").
		Joins("JOIN events ON events.id = assistances.event_id").
		Where("events.event_end_date < ? AND assistances.punctuation IS NOT NULL", now).
		Group("events.owner_id")

	var events []model.Event
	err := r.DB.WithContext(ctx).
		Select("events.*").
		Joins("JOIN (?) AS scores ON scores.owner_id = events.owner_id", scores).
		Where("events.event_end_date > ?", now).
		Order("scores.average_score DESC, events.event_start_date ASC").
		Find(&events).Error
	return events, err
}

func applyEventScope(db *gorm.DB, prefix string, scope EventScope, now time.Time) *gorm.DB {
	switch scope {
	case EventScopeFuture:
		return db.Where(prefix+"event_start_date > ?", now)
	case EventScopeFinished:
		return db.Where(prefix+"event_end_date < ?", now)
	case EventScopeCurrent:
		return db.Where(prefix+"event_start_date < ? AND "+prefix+"event_end_date > ?", now, now)
	default:
		return db
	}
}
