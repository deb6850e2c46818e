package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"neurosync-go/internal/agent"
	"neurosync-go/internal/model"
)

// fakeAgent 是 agent.Agent 的脚本化实现。
type fakeAgent struct {
	reply      string
	replyErr   error
	summary    string
	summarized int
}

func (a *fakeAgent) GenerateReply(_ context.Context, _ []model.Message, _ string) (string, error) {
	if a.replyErr != nil {
		return "", a.replyErr
	}
	return a.reply, nil
}

func (a *fakeAgent) Summarize(_ context.Context, _ []model.Message) (string, error) {
	a.summarized++
	return a.summary, nil
}

func newTestChatService(ai agent.Agent) (ChatService, *fakeConversationRepo, *fakeUserRepo, *model.User) {
	convRepo := newFakeConversationRepo()
	convSvc := NewConversationService(convRepo)
	userSvc, userRepo := newTestUserService()

	user := &model.User{ID: 1, Username: "alice"}
	userRepo.users[user.ID] = user

	return NewChatService(convSvc, convRepo, userSvc, ai), convRepo, userRepo, user
}

func TestChatService_SendCreatesConversationAndPersistsBothSides(t *testing.T) {
	svc, convRepo, _, user := newTestChatService(&fakeAgent{reply: "hello there"})

	conv, reply, err := svc.Send(context.Background(), user, 0, "hi, who are you?")
	if err != nil {
		t.Fatalf("Send 失败: %v", err)
	}
	if conv.Title != "hi, who are you?" {
		t.Errorf("对话标题 = %q", conv.Title)
	}
	if reply.Role != model.RoleAssistant || reply.Content != "hello there" {
		t.Errorf("回复 = %+v", reply)
	}

	msgs := convRepo.msgs[conv.ID]
	if len(msgs) != 2 {
		t.Fatalf("持久化消息数 = %d, want 2", len(msgs))
	}
	if msgs[0].Role != model.RoleUser || msgs[0].Content != "hi, who are you?" {
		t.Errorf("第一条消息 = %+v", msgs[0])
	}
	if msgs[1].Role != model.RoleAssistant {
		t.Errorf("第二条消息 = %+v", msgs[1])
	}
}

func TestChatService_SendKeepsUserMessageWhenAgentFails(t *testing.T) {
	agentErr := fmt.Errorf("%w: upstream 429", agent.ErrAgentUnavailable)
	svc, convRepo, _, user := newTestChatService(&fakeAgent{replyErr: agentErr})

	conv, reply, err := svc.Send(context.Background(), user, 0, "hello?")
	if !errors.Is(err, agent.ErrAgentUnavailable) {
		t.Fatalf("err = %v, want ErrAgentUnavailable", err)
	}
	if reply != nil {
		t.Errorf("失败时不应返回回复: %+v", reply)
	}

	// 用户消息保留，助手回复缺席
	msgs := convRepo.msgs[conv.ID]
	if len(msgs) != 1 || msgs[0].Role != model.RoleUser {
		t.Errorf("持久化消息 = %+v, want 仅一条用户消息", msgs)
	}
}

// failingConvRepo 在查找对话时返回一个数据库层的故障。
type failingConvRepo struct {
	*fakeConversationRepo
	findErr error
}

func (r *failingConvRepo) FindByIDForUser(convID, userID uint) (*model.Conversation, error) {
	return nil, r.findErr
}

func TestChatService_SendSurfacesStorageFailure(t *testing.T) {
	dbErr := errors.New("database is locked")
	convRepo := &failingConvRepo{fakeConversationRepo: newFakeConversationRepo(), findErr: dbErr}
	convSvc := NewConversationService(convRepo.fakeConversationRepo)
	userSvc, userRepo := newTestUserService()
	user := &model.User{ID: 1, Username: "alice"}
	userRepo.users[user.ID] = user
	svc := NewChatService(convSvc, convRepo, userSvc, &fakeAgent{reply: "ok"})

	// 存储故障不能伪装成“对话不存在”
	_, _, err := svc.Send(context.Background(), user, 42, "hi")
	if errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("数据库故障被映射成了 ErrConversationNotFound")
	}
	if !errors.Is(err, dbErr) {
		t.Errorf("err = %v, want %v", err, dbErr)
	}
}

func TestChatService_SendRejectsForeignConversation(t *testing.T) {
	svc, convRepo, _, user := newTestChatService(&fakeAgent{reply: "ok"})

	other := &model.Conversation{UserID: 99, Title: "not yours"}
	if err := convRepo.Create(other); err != nil {
		t.Fatalf("创建对话失败: %v", err)
	}

	if _, _, err := svc.Send(context.Background(), user, other.ID, "hi"); !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("err = %v, want ErrConversationNotFound", err)
	}
}

func TestChatService_AutoSummarizeAfterThreshold(t *testing.T) {
	ai := &fakeAgent{reply: "ok", summary: "一段摘要"}
	svc, convRepo, userRepo, user := newTestChatService(ai)
	userRepo.prefs[user.ID] = &model.UserPreference{UserID: user.ID, Theme: "dark", AutoSummarize: true}

	ctx := context.Background()
	conv, _, err := svc.Send(ctx, user, 0, "round 1")
	if err != nil {
		t.Fatalf("Send 失败: %v", err)
	}
	// 每轮问答产生两条消息；第五轮后达到阈值 10
	for i := 2; i <= 5; i++ {
		if _, _, err := svc.Send(ctx, user, conv.ID, fmt.Sprintf("round %d", i)); err != nil {
			t.Fatalf("Send 失败: %v", err)
		}
	}

	if ai.summarized == 0 {
		t.Fatal("达到阈值后未触发自动摘要")
	}
	if convRepo.convs[conv.ID].Summary != "一段摘要" {
		t.Errorf("摘要 = %q", convRepo.convs[conv.ID].Summary)
	}
}

func TestChatService_NoAutoSummarizeWhenDisabled(t *testing.T) {
	ai := &fakeAgent{reply: "ok", summary: "一段摘要"}
	svc, _, _, user := newTestChatService(ai)

	ctx := context.Background()
	conv, _, err := svc.Send(ctx, user, 0, "round 1")
	if err != nil {
		t.Fatalf("Send 失败: %v", err)
	}
	for i := 2; i <= 6; i++ {
		if _, _, err := svc.Send(ctx, user, conv.ID, fmt.Sprintf("round %d", i)); err != nil {
			t.Fatalf("Send 失败: %v", err)
		}
	}

	if ai.summarized != 0 {
		t.Errorf("未开启自动摘要却调用了 %d 次", ai.summarized)
	}
}

func TestChatService_Summarize(t *testing.T) {
	ai := &fakeAgent{reply: "ok", summary: "讨论了 Go 的学习路线"}
	svc, convRepo, _, user := newTestChatService(ai)

	conv, _, err := svc.Send(context.Background(), user, 0, "how do I learn Go?")
	if err != nil {
		t.Fatalf("Send 失败: %v", err)
	}

	summary, err := svc.Summarize(context.Background(), user.ID, conv.ID)
	if err != nil {
		t.Fatalf("Summarize 失败: %v", err)
	}
	if summary != ai.summary {
		t.Errorf("summary = %q, want %q", summary, ai.summary)
	}
	if convRepo.convs[conv.ID].Summary != ai.summary {
		t.Errorf("摘要未写回: %q", convRepo.convs[conv.ID].Summary)
	}
}
