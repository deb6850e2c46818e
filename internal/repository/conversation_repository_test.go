package repository

import (
	"fmt"
	"path/filepath"
	"testing"

	"neurosync-go/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB 在临时目录里打开一个真实的 SQLite 数据库文件。
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.Conversation{},
		&model.Message{},
		&model.UserPreference{},
	); err != nil {
		t.Fatalf("迁移测试数据库失败: %v", err)
	}
	return db
}

func mustCreateConversation(t *testing.T, repo ConversationRepository, userID uint, title string) *model.Conversation {
	t.Helper()
	conv := &model.Conversation{UserID: userID, Title: title}
	if err := repo.Create(conv); err != nil {
		t.Fatalf("创建对话失败: %v", err)
	}
	return conv
}

func TestConversationRepository_MessageRoundTrip(t *testing.T) {
	repo := NewConversationRepository(newTestDB(t))
	conv := mustCreateConversation(t, repo, 1, "round trip")

	const n = 7
	want := make([]string, 0, n)
	for i := 0; i < n; i++ {
		content := fmt.Sprintf("message %d", i)
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		if err := repo.AppendMessage(&model.Message{
			ConversationID: conv.ID,
			Role:           role,
			Content:        content,
		}); err != nil {
			t.Fatalf("追加消息失败: %v", err)
		}
		want = append(want, content)
	}

	got, err := repo.ListMessages(conv.ID)
	if err != nil {
		t.Fatalf("读取消息失败: %v", err)
	}
	if len(got) != n {
		t.Fatalf("len(messages) = %d, want %d", len(got), n)
	}
	for i, msg := range got {
		if msg.Content != want[i] {
			t.Errorf("messages[%d].Content = %q, want %q", i, msg.Content, want[i])
		}
	}
}

func TestConversationRepository_DeleteCascadesMessages(t *testing.T) {
	db := newTestDB(t)
	repo := NewConversationRepository(db)
	conv := mustCreateConversation(t, repo, 1, "to delete")

	for i := 0; i < 3; i++ {
		if err := repo.AppendMessage(&model.Message{
			ConversationID: conv.ID,
			Role:           model.RoleUser,
			Content:        "hello",
		}); err != nil {
			t.Fatalf("追加消息失败: %v", err)
		}
	}

	if err := repo.Delete(conv.ID); err != nil {
		t.Fatalf("删除对话失败: %v", err)
	}

	// 对话消失
	if _, err := repo.FindByIDForUser(conv.ID, 1); err != gorm.ErrRecordNotFound {
		t.Errorf("FindByIDForUser after delete: err = %v, want ErrRecordNotFound", err)
	}
	// 不留下孤儿消息
	var orphanCount int64
	if err := db.Model(&model.Message{}).
		Where("conversation_id = ?", conv.ID).
		Count(&orphanCount).Error; err != nil {
		t.Fatalf("统计消息失败: %v", err)
	}
	if orphanCount != 0 {
		t.Errorf("orphan messages = %d, want 0", orphanCount)
	}
}

func TestConversationRepository_OwnershipBoundary(t *testing.T) {
	repo := NewConversationRepository(newTestDB(t))
	conv := mustCreateConversation(t, repo, 1, "mine")

	// 其他用户查同一个 ID 等同于不存在
	if _, err := repo.FindByIDForUser(conv.ID, 2); err != gorm.ErrRecordNotFound {
		t.Errorf("cross-user lookup: err = %v, want ErrRecordNotFound", err)
	}
}

func TestConversationRepository_ListOrderedByActivity(t *testing.T) {
	repo := NewConversationRepository(newTestDB(t))
	first := mustCreateConversation(t, repo, 1, "first")
	second := mustCreateConversation(t, repo, 1, "second")

	// 向较旧的对话追加消息，它应当回到列表最前
	if err := repo.AppendMessage(&model.Message{
		ConversationID: first.ID,
		Role:           model.RoleUser,
		Content:        "bump",
	}); err != nil {
		t.Fatalf("追加消息失败: %v", err)
	}

	convs, err := repo.ListByUser(1)
	if err != nil {
		t.Fatalf("列出对话失败: %v", err)
	}
	if len(convs) != 2 {
		t.Fatalf("len(convs) = %d, want 2", len(convs))
	}
	if convs[0].ID != first.ID {
		t.Errorf("convs[0].ID = %d, want %d (most recently active)", convs[0].ID, first.ID)
	}
	if convs[1].ID != second.ID {
		t.Errorf("convs[1].ID = %d, want %d", convs[1].ID, second.ID)
	}
}

func TestConversationRepository_SearchMatchesTitleAndContent(t *testing.T) {
	repo := NewConversationRepository(newTestDB(t))
	byTitle := mustCreateConversation(t, repo, 1, "golang roadmap")
	byContent := mustCreateConversation(t, repo, 1, "misc")
	other := mustCreateConversation(t, repo, 2, "golang tips")

	if err := repo.AppendMessage(&model.Message{
		ConversationID: byContent.ID,
		Role:           model.RoleAssistant,
		Content:        "learn golang step by step",
	}); err != nil {
		t.Fatalf("追加消息失败: %v", err)
	}

	convs, err := repo.Search(1, "golang")
	if err != nil {
		t.Fatalf("搜索失败: %v", err)
	}
	found := map[uint]bool{}
	for _, conv := range convs {
		found[conv.ID] = true
	}
	if !found[byTitle.ID] || !found[byContent.ID] {
		t.Errorf("search missed expected conversations: got %v", found)
	}
	if found[other.ID] {
		t.Errorf("search leaked another user's conversation %d", other.ID)
	}
}
