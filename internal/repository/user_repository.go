// Package repository 定义了与数据存储进行数据交换的接口和实现。
package repository

import (
	"time"

	"neurosync-go/internal/model"

	"gorm.io/gorm"
)

// UserRepository 接口定义了用户数据的持久化操作。
type UserRepository interface {
	Create(user *model.User) error
	FindByUsername(username string) (*model.User, error)
	FindByID(userID uint) (*model.User, error)
	TouchLastLogin(userID uint, at time.Time) error
	GetPreferences(userID uint) (*model.UserPreference, error)
	UpdatePreferences(pref *model.UserPreference) error
}

// userRepository 是 UserRepository 接口的 GORM 实现。
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建一个新的 UserRepository 实例。
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create 在数据库中创建一个新的用户记录。
// 用户名/邮箱的唯一性由数据库唯一索引保证，冲突以错误返回。
func (r *userRepository) Create(user *model.User) error {
	return r.db.Create(user).Error
}

// FindByUsername 根据用户名从数据库中查找一个用户。
func (r *userRepository) FindByUsername(username string) (*model.User, error) {
	var user model.User
	err := r.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID 根据用户 ID 从数据库中查找一个用户。
func (r *userRepository) FindByID(userID uint) (*model.User, error) {
	var user model.User
	err := r.db.First(&user, userID).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// TouchLastLogin 更新用户的最近登录时间。
func (r *userRepository) TouchLastLogin(userID uint, at time.Time) error {
	return r.db.Model(&model.User{}).Where("id = ?", userID).
		Update("last_login", at).Error
}

// GetPreferences 读取用户偏好；首次读取时写入默认值并返回。
func (r *userRepository) GetPreferences(userID uint) (*model.UserPreference, error) {
	var pref model.UserPreference
	err := r.db.First(&pref, "user_id = ?", userID).Error
	if err == nil {
		return &pref, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	pref = model.UserPreference{UserID: userID, Theme: "dark"}
	if err := r.db.Create(&pref).Error; err != nil {
		return nil, err
	}
	return &pref, nil
}

// UpdatePreferences 更新用户偏好。
func (r *userRepository) UpdatePreferences(pref *model.UserPreference) error {
	return r.db.Save(pref).Error
}
