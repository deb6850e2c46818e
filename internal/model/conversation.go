// Package model 包含了应用的数据模型定义。
package model

import "time"

// Conversation 代表一个用户拥有的对话线程。
// UpdatedAt 在每次追加消息时被更新，列表按它倒序排列。
type Conversation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	Title     string    `gorm:"not null" json:"title"`
	Summary   string    `gorm:"type:text" json:"summary,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// 消息角色枚举。只有这两种角色会被持久化。
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message 代表对话中的一条消息，追加后不再修改。
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"index;not null" json:"conversationId"`
	Role           string    `gorm:"not null" json:"role"` // RoleUser 或 RoleAssistant
	Content        string    `gorm:"type:text;not null" json:"content"`
	Metadata       string    `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Message) TableName() string {
	return "messages"
}
