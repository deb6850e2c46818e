// Package service 包含了应用的业务逻辑层。
package service

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"neurosync-go/internal/model"
	"neurosync-go/internal/repository"

	"gorm.io/gorm"
)

// ConversationService 定义了对话与消息的业务操作。
// 所有操作都以调用者的 userID 为边界，跨用户访问一律视为不存在。
type ConversationService interface {
	CreateConversation(userID uint, title string) (*model.Conversation, error)
	ListConversations(userID uint) ([]model.Conversation, error)
	SearchConversations(userID uint, query string) ([]model.Conversation, error)
	GetMessages(userID, convID uint) ([]model.Message, error)
	AppendMessage(userID, convID uint, role, content string) (*model.Message, error)
	RenameConversation(userID, convID uint, title string) error
	DeleteConversation(userID, convID uint) error
	ExportConversation(userID, convID uint) (string, error)
	Stats(userID, convID uint) (*ConversationStats, error)
}

// ConversationStats 汇总一个对话的消息统计信息。
type ConversationStats struct {
	TotalMessages      int              `json:"totalMessages"`
	UserMessages       int              `json:"userMessages"`
	AssistantMessages  int              `json:"assistantMessages"`
	AvgUserLength      float64          `json:"avgUserMsgLength"`
	AvgAssistantLength float64          `json:"avgAssistantMsgLength"`
	StartTime          *model.LocalTime `json:"startTime,omitempty"`
	EndTime            *model.LocalTime `json:"endTime,omitempty"`
}

type conversationService struct {
	repo repository.ConversationRepository
}

// NewConversationService 创建一个新的 ConversationService。
func NewConversationService(repo repository.ConversationRepository) ConversationService {
	return &conversationService{repo: repo}
}

// titleFromMessage 从首条消息派生对话标题，超长时按字符数截断。
func titleFromMessage(message string) string {
	const maxTitleLen = 30
	title := strings.TrimSpace(message)
	if runes := []rune(title); len(runes) > maxTitleLen {
		title = string(runes[:maxTitleLen]) + "..."
	}
	if title == "" {
		title = "新对话"
	}
	return title
}

// CreateConversation 为用户创建新对话。title 为空时使用占位标题。
func (s *conversationService) CreateConversation(userID uint, title string) (*model.Conversation, error) {
	conv := &model.Conversation{
		UserID: userID,
		Title:  titleFromMessage(title),
	}
	if err := s.repo.Create(conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// ListConversations 列出用户的全部对话，最近活跃的排在最前。
func (s *conversationService) ListConversations(userID uint) ([]model.Conversation, error) {
	return s.repo.ListByUser(userID)
}

// SearchConversations 在标题与消息内容中检索对话。
func (s *conversationService) SearchConversations(userID uint, query string) ([]model.Conversation, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.repo.ListByUser(userID)
	}
	return s.repo.Search(userID, query)
}

// ownedConversation 统一做归属校验，把未命中映射为业务错误。
func (s *conversationService) ownedConversation(userID, convID uint) (*model.Conversation, error) {
	conv, err := s.repo.FindByIDForUser(convID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return conv, nil
}

// GetMessages 按时间顺序返回对话的全部消息。
func (s *conversationService) GetMessages(userID, convID uint) ([]model.Message, error) {
	if _, err := s.ownedConversation(userID, convID); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(convID)
}

// AppendMessage 向用户自己的对话追加一条消息。
func (s *conversationService) AppendMessage(userID, convID uint, role, content string) (*model.Message, error) {
	if role != model.RoleUser && role != model.RoleAssistant {
		return nil, fmt.Errorf("未知的消息角色: %s", role)
	}
	if _, err := s.ownedConversation(userID, convID); err != nil {
		return nil, err
	}
	msg := &model.Message{
		ConversationID: convID,
		Role:           role,
		Content:        content,
	}
	if err := s.repo.AppendMessage(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// RenameConversation 重命名用户自己的对话。
func (s *conversationService) RenameConversation(userID, convID uint, title string) error {
	if _, err := s.ownedConversation(userID, convID); err != nil {
		return err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("标题不能为空")
	}
	return s.repo.UpdateTitle(convID, title)
}

// DeleteConversation 删除对话并级联删除其全部消息。
func (s *conversationService) DeleteConversation(userID, convID uint) error {
	if _, err := s.ownedConversation(userID, convID); err != nil {
		return err
	}
	return s.repo.Delete(convID)
}

// ExportConversation 把对话序列化成纯文本：标题行之后，
// 每条消息一行，格式为 "role: content"，按时间顺序排列。
func (s *conversationService) ExportConversation(userID, convID uint) (string, error) {
	conv, err := s.ownedConversation(userID, convID)
	if err != nil {
		return "", err
	}
	msgs, err := s.repo.ListMessages(convID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(conv.Title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", 40))
	b.WriteString("\n")
	for _, m := range msgs {
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// Stats 统计一个对话的消息分布，供前端的会话统计面板使用。
func (s *conversationService) Stats(userID, convID uint) (*ConversationStats, error) {
	if _, err := s.ownedConversation(userID, convID); err != nil {
		return nil, err
	}
	msgs, err := s.repo.ListMessages(convID)
	if err != nil {
		return nil, err
	}

	stats := &ConversationStats{TotalMessages: len(msgs)}
	var userChars, assistantChars int
	for _, m := range msgs {
		if m.Role == model.RoleUser {
			stats.UserMessages++
			userChars += utf8.RuneCountInString(m.Content)
		} else {
			stats.AssistantMessages++
			assistantChars += utf8.RuneCountInString(m.Content)
		}
	}
	if stats.UserMessages > 0 {
		stats.AvgUserLength = float64(userChars) / float64(stats.UserMessages)
	}
	if stats.AssistantMessages > 0 {
		stats.AvgAssistantLength = float64(assistantChars) / float64(stats.AssistantMessages)
	}
	if len(msgs) > 0 {
		start := model.LocalTime(msgs[0].CreatedAt)
		end := model.LocalTime(msgs[len(msgs)-1].CreatedAt)
		stats.StartTime = &start
		stats.EndTime = &end
	}
	return stats, nil
}
