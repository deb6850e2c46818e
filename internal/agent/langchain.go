package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"neurosync-go/internal/config"
	"neurosync-go/internal/model"
	"neurosync-go/pkg/log"

	"github.com/tmc/langchaingo/agents"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/memory"
	"github.com/tmc/langchaingo/tools"
	"github.com/tmc/langchaingo/tools/duckduckgo"
	"github.com/tmc/langchaingo/tools/wikipedia"
)

const (
	// historyWindow 限制喂给 agent 的历史消息条数（10 轮对话）。
	historyWindow = 20

	userAgent = "neurosync-go chat service"

	roadmapPrompt = `Create a detailed roadmap for: %s
Format it as a step-by-step guide with clear phases and milestones.
Include estimated timeframes for each phase if possible.`

	codePrompt = `Help with this coding request: %s
Provide clear, concise code examples with explanations.
If it's a complex problem, break it down into steps.
Format code examples using triple backticks with the language name.`

	summaryPrompt = `Summarize this conversation in 3-4 bullet points:
%s`
)

// langchainAgent 基于 langchaingo 实现 Agent 契约：
// 一个 openai 兼容的 LLM，加上按配置启用的工具集。
type langchainAgent struct {
	llm   *openai.LLM
	tools []tools.Tool
	cfg   config.AgentConfig

	// 对外部 API 的节流状态
	mu          sync.Mutex
	lastCall    time.Time
	minInterval time.Duration
}

// New 创建一个 langchaingo 驱动的 Agent。
func New(cfg config.AgentConfig) (Agent, error) {
	llm, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("初始化 LLM 客户端失败: %w", err)
	}

	agentTools, err := buildTools(cfg.Tools)
	if err != nil {
		return nil, err
	}

	minInterval := time.Duration(cfg.MinCallIntervalSeconds) * time.Second
	return &langchainAgent{
		llm:         llm,
		tools:       agentTools,
		cfg:         cfg,
		minInterval: minInterval,
	}, nil
}

// buildTools 按配置组装工具集。
func buildTools(cfg config.AgentToolsConfig) ([]tools.Tool, error) {
	var agentTools []tools.Tool
	if cfg.WebSearch {
		ddg, err := duckduckgo.New(5, userAgent)
		if err != nil {
			return nil, fmt.Errorf("初始化搜索工具失败: %w", err)
		}
		agentTools = append(agentTools, ddg)
	}
	if cfg.Wikipedia {
		agentTools = append(agentTools, wikipedia.New(userAgent))
	}
	if cfg.Calculator {
		agentTools = append(agentTools, tools.Calculator{})
	}
	return agentTools, nil
}

// GenerateReply 为用户消息生成回复。roadmap/code 类请求直接走专用
// prompt，其余请求交给带工具和历史记忆的 conversational agent。
func (a *langchainAgent) GenerateReply(ctx context.Context, history []model.Message, userMessage string) (string, error) {
	switch classify(userMessage) {
	case kindRoadmap:
		return a.singlePrompt(ctx, fmt.Sprintf(roadmapPrompt, userMessage))
	case kindCode:
		return a.singlePrompt(ctx, fmt.Sprintf(codePrompt, userMessage))
	}

	mem, err := a.buildMemory(ctx, history)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAgentUnavailable, err)
	}

	executor, err := agents.Initialize(
		a.llm,
		a.tools,
		agents.ConversationalReactDescription,
		agents.WithMemory(mem),
		agents.WithMaxIterations(5),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAgentUnavailable, err)
	}

	reply, err := a.rateLimitedCall(ctx, func() (string, error) {
		return chains.Run(ctx, executor, userMessage)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAgentUnavailable, err)
	}
	return reply, nil
}

// Summarize 把对话历史压缩成几条要点。
func (a *langchainAgent) Summarize(ctx context.Context, history []model.Message) (string, error) {
	var b strings.Builder
	for _, m := range history {
		b.WriteString(strings.ToUpper(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return a.singlePrompt(ctx, fmt.Sprintf(summaryPrompt, b.String()))
}

// buildMemory 把持久化的消息灌进 agent 的会话记忆，只保留最近一个窗口。
func (a *langchainAgent) buildMemory(ctx context.Context, history []model.Message) (*memory.ConversationBuffer, error) {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	chatHistory := memory.NewChatMessageHistory()
	for _, m := range history {
		var err error
		if m.Role == model.RoleUser {
			err = chatHistory.AddUserMessage(ctx, m.Content)
		} else {
			err = chatHistory.AddAIMessage(ctx, m.Content)
		}
		if err != nil {
			return nil, err
		}
	}
	return memory.NewConversationBuffer(
		memory.WithChatHistory(chatHistory),
		memory.WithMemoryKey("chat_history"),
	), nil
}

// singlePrompt 发起一次不带工具编排的普通补全调用。
func (a *langchainAgent) singlePrompt(ctx context.Context, prompt string) (string, error) {
	reply, err := a.rateLimitedCall(ctx, func() (string, error) {
		return llms.GenerateFromSinglePrompt(ctx, a.llm, prompt,
			llms.WithTemperature(a.cfg.Generation.Temperature),
			llms.WithMaxTokens(a.cfg.Generation.MaxTokens),
		)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAgentUnavailable, err)
	}
	return reply, nil
}

// rateLimitedCall 保证两次外部调用之间留出最小间隔；
// 命中限流时等待后重试一次，再失败就放弃。
func (a *langchainAgent) rateLimitedCall(ctx context.Context, call func() (string, error)) (string, error) {
	a.throttle(ctx)

	result, err := call()
	if err == nil {
		a.markCall()
		return result, nil
	}
	if !isRateLimited(err) {
		return "", err
	}

	log.Warnf("外部 AI 接口限流，等待后重试一次: %v", err)
	select {
	case <-time.After(5 * time.Second):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	result, err = call()
	if err != nil {
		return "", err
	}
	a.markCall()
	return result, nil
}

// throttle 在距上次调用不足最小间隔时阻塞等待。
func (a *langchainAgent) throttle(ctx context.Context) {
	a.mu.Lock()
	wait := a.minInterval - time.Since(a.lastCall)
	a.mu.Unlock()
	if wait <= 0 {
		return
	}
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}

func (a *langchainAgent) markCall() {
	a.mu.Lock()
	a.lastCall = time.Now()
	a.mu.Unlock()
}

// isRateLimited 识别外部接口的限流类错误。
func isRateLimited(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "rate")
}
