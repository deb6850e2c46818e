// Package agent 封装了外部 AI 推理与工具编排组件。
// 对其余代码而言它是一个黑盒：输入对话历史和用户消息，输出回复文本。
package agent

import (
	"context"
	"errors"

	"neurosync-go/internal/model"
)

// ErrAgentUnavailable 表示外部 AI 调用失败。调用方原样展示给用户，不重试。
var ErrAgentUnavailable = errors.New("AI 服务暂时不可用，请稍后重试")

// Agent 是外部 AI 能力的固定契约。具体的工具集来自配置，核心代码不依赖它。
type Agent interface {
	// GenerateReply 基于对话历史为用户消息生成回复。
	GenerateReply(ctx context.Context, history []model.Message, userMessage string) (string, error)
	// Summarize 把对话历史总结成 3-4 个要点。
	Summarize(ctx context.Context, history []model.Message) (string, error)
}
