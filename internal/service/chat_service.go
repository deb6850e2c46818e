// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"time"

	"neurosync-go/internal/agent"
	"neurosync-go/internal/model"
	"neurosync-go/internal/repository"
	"neurosync-go/pkg/kafka"
	"neurosync-go/pkg/log"

	"gorm.io/gorm"
)

// autoSummarizeThreshold 是触发自动摘要的最小消息数。
const autoSummarizeThreshold = 10

// ChatService 编排一轮完整的问答：持久化用户消息、调用 Agent、持久化回复。
type ChatService interface {
	// Send 处理一条用户消息。convID 为 0 时会先创建新对话（标题取自消息）。
	// 返回消息所属的对话和助手的回复消息。
	Send(ctx context.Context, user *model.User, convID uint, message string) (*model.Conversation, *model.Message, error)
	// Summarize 为对话生成摘要并写回。
	Summarize(ctx context.Context, userID, convID uint) (string, error)
}

type chatService struct {
	conversations ConversationService
	convRepo      repository.ConversationRepository
	userService   UserService
	agent         agent.Agent
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(conversations ConversationService, convRepo repository.ConversationRepository, userService UserService, ai agent.Agent) ChatService {
	return &chatService{
		conversations: conversations,
		convRepo:      convRepo,
		userService:   userService,
		agent:         ai,
	}
}

// Send 实现一轮问答。Agent 失败时用户消息保留在库里，错误原样上抛。
func (s *chatService) Send(ctx context.Context, user *model.User, convID uint, message string) (*model.Conversation, *model.Message, error) {
	// 1. 没有对话时新建一个，标题取自首条消息
	var conv *model.Conversation
	var err error
	if convID == 0 {
		conv, err = s.conversations.CreateConversation(user.ID, message)
		if err != nil {
			return nil, nil, err
		}
	} else {
		conv, err = s.convRepo.FindByIDForUser(convID, user.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, ErrConversationNotFound
			}
			// 数据库故障对本次请求是致命的，按原样上抛
			return nil, nil, err
		}
	}

	// 2. 先持久化用户消息
	userMsg, err := s.conversations.AppendMessage(user.ID, conv.ID, model.RoleUser, message)
	if err != nil {
		return nil, nil, err
	}
	s.publishEvent(ctx, user.ID, conv.ID, userMsg)

	// 3. 加载历史（不含刚写入的这条），调用 Agent 生成回复
	history, err := s.convRepo.ListMessages(conv.ID)
	if err != nil {
		return nil, nil, err
	}
	if len(history) > 0 {
		history = history[:len(history)-1]
	}
	reply, err := s.agent.GenerateReply(ctx, history, message)
	if err != nil {
		// 用户消息已入库；失败直接上抛由边界展示
		return conv, nil, err
	}

	// 4. 持久化助手回复
	assistantMsg, err := s.conversations.AppendMessage(user.ID, conv.ID, model.RoleAssistant, reply)
	if err != nil {
		return nil, nil, err
	}
	s.publishEvent(ctx, user.ID, conv.ID, assistantMsg)

	// 5. 按用户偏好自动刷新摘要；失败只记录
	s.maybeAutoSummarize(ctx, user.ID, conv.ID)

	return conv, assistantMsg, nil
}

// Summarize 生成并保存对话摘要。
func (s *chatService) Summarize(ctx context.Context, userID, convID uint) (string, error) {
	history, err := s.conversations.GetMessages(userID, convID)
	if err != nil {
		return "", err
	}
	summary, err := s.agent.Summarize(ctx, history)
	if err != nil {
		return "", err
	}
	if err := s.convRepo.UpdateSummary(convID, summary); err != nil {
		return "", err
	}
	return summary, nil
}

// publishEvent 把已持久化的消息作为事件发布到 Kafka（若已配置）。
func (s *chatService) publishEvent(ctx context.Context, userID, convID uint, msg *model.Message) {
	if !kafka.Enabled() {
		return
	}
	kafka.ProduceChatEvent(ctx, kafka.ChatEvent{
		UserID:         userID,
		ConversationID: convID,
		Role:           msg.Role,
		ContentLength:  len(msg.Content),
		Timestamp:      msg.CreatedAt,
	})
}

// maybeAutoSummarize 在用户开启自动摘要且对话足够长时刷新摘要。
func (s *chatService) maybeAutoSummarize(ctx context.Context, userID, convID uint) {
	pref, err := s.userService.GetPreferences(userID)
	if err != nil || !pref.AutoSummarize {
		return
	}
	count, err := s.convRepo.CountMessages(convID)
	if err != nil || count < autoSummarizeThreshold {
		return
	}

	// 摘要成功与否都不影响本轮问答，使用独立的超时上下文
	sumCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 60*time.Second)
	defer cancel()
	if _, err := s.Summarize(sumCtx, userID, convID); err != nil {
		log.Warnf("自动摘要失败, conversation: %d, error: %v", convID, err)
	}
}
