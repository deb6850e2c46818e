// Package repository 定义了与数据存储进行数据交换的接口和实现。
package repository

import (
	"time"

	"neurosync-go/internal/model"

	"gorm.io/gorm"
)

// ConversationRepository 接口定义了对话与消息的持久化操作。
// 所有按对话的读写都带上 userID 做归属校验，未命中等同于不存在。
type ConversationRepository interface {
	Create(conv *model.Conversation) error
	FindByIDForUser(convID, userID uint) (*model.Conversation, error)
	ListByUser(userID uint) ([]model.Conversation, error)
	Search(userID uint, query string) ([]model.Conversation, error)
	UpdateTitle(convID uint, title string) error
	UpdateSummary(convID uint, summary string) error
	Delete(convID uint) error
	AppendMessage(msg *model.Message) error
	ListMessages(convID uint) ([]model.Message, error)
	CountMessages(convID uint) (int64, error)
}

// conversationRepository 是 ConversationRepository 接口的 GORM 实现。
type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository 创建一个新的 ConversationRepository 实例。
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

// Create 创建一个新的对话记录。
func (r *conversationRepository) Create(conv *model.Conversation) error {
	return r.db.Create(conv).Error
}

// FindByIDForUser 查找属于指定用户的对话；不属于该用户时返回 ErrRecordNotFound。
func (r *conversationRepository) FindByIDForUser(convID, userID uint) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.Where("id = ? AND user_id = ?", convID, userID).First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListByUser 返回用户的全部对话，最近更新的排在最前。
func (r *conversationRepository) ListByUser(userID uint) ([]model.Conversation, error) {
	var convs []model.Conversation
	err := r.db.Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&convs).Error
	return convs, err
}

// Search 在对话标题与消息内容中做 LIKE 匹配，返回去重后的对话列表。
func (r *conversationRepository) Search(userID uint, query string) ([]model.Conversation, error) {
	pattern := "%" + query + "%"
	var convs []model.Conversation
	err := r.db.
		Distinct("conversations.*").
		Joins("LEFT JOIN messages m ON m.conversation_id = conversations.id").
		Where("conversations.user_id = ? AND (conversations.title LIKE ? OR m.content LIKE ?)",
			userID, pattern, pattern).
		Order("conversations.updated_at DESC").
		Find(&convs).Error
	return convs, err
}

// UpdateTitle 重命名对话。
func (r *conversationRepository) UpdateTitle(convID uint, title string) error {
	return r.db.Model(&model.Conversation{}).Where("id = ?", convID).
		Update("title", title).Error
}

// UpdateSummary 更新对话摘要。
func (r *conversationRepository) UpdateSummary(convID uint, summary string) error {
	return r.db.Model(&model.Conversation{}).Where("id = ?", convID).
		Update("summary", summary).Error
}

// Delete 在一个事务里删除对话及其全部消息，保证不留下孤儿消息。
func (r *conversationRepository) Delete(convID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", convID).Delete(&model.Message{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Conversation{}, convID).Error
	})
}

// AppendMessage 追加一条消息并同步更新对话的 UpdatedAt。
func (r *conversationRepository) AppendMessage(msg *model.Message) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&model.Conversation{}).Where("id = ?", msg.ConversationID).
			Update("updated_at", time.Now()).Error
	})
}

// ListMessages 按插入顺序返回对话内的全部消息。
func (r *conversationRepository) ListMessages(convID uint) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.Where("conversation_id = ?", convID).
		Order("id ASC").
		Find(&msgs).Error
	return msgs, err
}

// CountMessages 返回对话内的消息数量。
func (r *conversationRepository) CountMessages(convID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Message{}).
		Where("conversation_id = ?", convID).
		Count(&count).Error
	return count, err
}
