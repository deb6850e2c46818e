// Package model 包含了应用的数据模型定义。
package model

import "time"

// UserPreference 存储用户的界面与行为偏好，每个用户一行。
type UserPreference struct {
	UserID        uint      `gorm:"primaryKey" json:"userId"`
	Theme         string    `gorm:"default:dark" json:"theme"`
	AutoSummarize bool      `json:"autoSummarize"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (UserPreference) TableName() string {
	return "user_preferences"
}
