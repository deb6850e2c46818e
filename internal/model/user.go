// Package model 包含了应用的数据模型定义。
package model

import "time"

// User 代表一个注册用户。密码只以 bcrypt 哈希形式存储。
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Email        string     `gorm:"uniqueIndex" json:"email"`
	FullName     string     `json:"fullName"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	LastLogin    *time.Time `json:"lastLogin"`
}

func (User) TableName() string {
	return "users"
}
