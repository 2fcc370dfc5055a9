package service

import (
	"context"
	"social_events_backend/internal/model"
)

// UserFinder 判断用户是否存在
type UserFinder interface {
	Exists(ctx context.Context, id uint) (bool, error)
}

// EventFinder 按 ID 读取活动，不存在时返回 gorm.ErrRecordNotFound
type EventFinder interface {
	FindByID(ctx context.Context, id uint) (*model.Event, error)
}
