// Package model 包含了应用的数据模型定义。
package model

import "time"

// Session 代表一次已认证的会话。Token 是不透明的能力凭证，
// 只由会话存储负责解释，其他组件不应解析它的内容。
type Session struct {
	Token     string    `json:"token"`
	UserID    uint      `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}
