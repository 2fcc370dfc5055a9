package repository

import (
	"context"
	"errors"
	"social_events_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FriendshipRepository struct {
	DB *gorm.DB
}

func NewFriendshipRepository(db *gorm.DB) *FriendshipRepository {
	return &FriendshipRepository{DB: db}
}

// Transaction fn 中的 repo 绑定到同一个事务
func (r *FriendshipRepository) Transaction(ctx context.Context, fn func(tx *FriendshipRepository) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&FriendshipRepository{DB: tx})
	})
}

// FindPair 查找两个用户之间的行（不区分方向），不存在时返回 nil, nil。
// forUpdate 时加行锁，SQLite 会忽略该子句。
func (r *FriendshipRepository) FindPair(ctx context.Context, a, b uint, forUpdate bool) (*model.Friendship, error) {
	low, high := model.CanonicalPair(a, b)

	db := r.DB.WithContext(ctx)
	if forUpdate {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var f model.Friendship
	err := db.Where("pair_low = ? AND pair_high = ?", low, high).Take(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// InsertRequest 插入待处理申请；返回 false 表示已有并发请求写入了同一对用户
func (r *FriendshipRepository) InsertRequest(ctx context.Context, requesterID, targetID uint) (bool, error) {
	f := &model.Friendship{
		UserID:   requesterID,
		FriendID: targetID,
		Status:   model.FriendshipPending,
	}
	result := r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(f)
	return result.RowsAffected == 1, result.Error
}

// Promote 按存储方向把行更新为已接受，方向保持不变
func (r *FriendshipRepository) Promote(ctx context.Context, f *model.Friendship) error {
	err := r.DB.WithContext(ctx).Model(&model.Friendship{}).
		Where("user_id = ? AND user_id_friend = ?", f.UserID, f.FriendID).
		Update("status", model.FriendshipAccepted).Error
	if err == nil {
		f.Status = model.FriendshipAccepted
	}
	return err
}

func (r *FriendshipRepository) DeletePair(ctx context.Context, a, b uint) (int64, error) {
	low, high := model.CanonicalPair(a, b)
	result := r.DB.WithContext(ctx).
		Where("pair_low = ? AND pair_high = ?", low, high).
		Delete(&model.Friendship{})
	return result.RowsAffected, result.Error
}

// ListPendingRequesters 向 userID 发出且尚未处理的申请人
func (r *FriendshipRepository) ListPendingRequesters(ctx context.Context, userID uint) ([]model.User, error) {
	var users []model.User
	err := r.DB.WithContext(ctx).
		Joins("JOIN friends ON friends.user_id = users.id").
		Where("friends.user_id_friend = ? AND friends.status = ?", userID, model.FriendshipPending).
		Order("users.id ASC").
		Find(&users).Error
	return users, err
}

// ListFriends 任一方向上已接受的好友
func (r *FriendshipRepository) ListFriends(ctx context.Context, userID uint) ([]model.User, error) {
	sent := r.DB.Model(&model.Friendship{}).Select("user_id_friend").
		Where("user_id = ? AND status = ?", userID, model.FriendshipAccepted)
	received := r.DB.Model(&model.Friendship{}).Select("user_id").
		Where("user_id_friend = ? AND status = ?", userID, model.FriendshipAccepted)

	var users []model.User
	err := r.DB.WithContext(ctx).
		Where("id IN (?) OR id IN (?)", sent, received).
		Order("id ASC").
		Find(&users).Error
	return users, err
}

func (r *FriendshipRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Friendship{}).
		Where("status = ?", model.FriendshipPending).
		Count(&count).Error
	return count, err
}
