package repository

import (
	"context"
	"errors"
	"social_events_backend/internal/model"
	"strings"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error
	return &user, err
}

// Exists 用户是否存在，不存在时返回 false 而不是错误
func (r *UserRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// EmailTaken excludeID 为 0 时检查所有用户
func (r *UserRepository) EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error) {
	var count int64
	db := r.DB.WithContext(ctx).Model(&model.User{}).Where("email = ?", email)
	if excludeID != 0 {
		db = db.Where("id <> ?", excludeID)
	}
	err := db.Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Save(user).Error
}

func (r *UserRepository) UpdateImage(ctx context.Context, id uint, image string) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("image", image).Error
}

func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.DB.WithContext(ctx).Order("id ASC").Find(&users).Error
	return users, err
}

// Search 名字、姓氏或邮箱包含关键字（不区分大小写）
func (r *UserRepository) Search(ctx context.Context, query string) ([]model.User, error) {
	var users []model.User
	searchTerm := "%" + strings.ToLower(query) + "%"
	err := r.DB.WithContext(ctx).
		Where("LOWER(name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?", searchTerm, searchTerm, searchTerm).
		Order("id ASC").
		Find(&users).Error
	return users, err
}

// Delete 删除用户；cascade 为 true 时同一事务内清理其活动、参与记录、好友关系和私信
func (r *UserRepository) Delete(ctx context.Context, id uint, cascade bool) (int64, error) {
	var affected int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if cascade {
			ownedEvents := tx.Model(&model.Event{}).Select("id").Where("owner_id = ?", id)
			if err := tx.Where("event_id IN (?)", ownedEvents).Delete(&model.Assistance{}).Error; err != nil {
				return err
			}
			if err := tx.Where("owner_id = ?", id).Delete(&model.Event{}).Error; err != nil {
				return err
			}
			if err := tx.Where("user_id = ?", id).Delete(&model.Assistance{}).Error; err != nil {
				return err
			}
			if err := tx.Where("user_id = ? OR user_id_friend = ?", id, id).Delete(&model.Friendship{}).Error; err != nil {
				return err
			}
			if err := tx.Where("user_id_send = ? OR user_id_received = ?", id, id).Delete(&model.Message{}).Error; err != nil {
				return err
			}
		}

		result := tx.Delete(&model.User{}, id)
		affected = result.RowsAffected
		return result.Error
	})
	return affected, err
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
