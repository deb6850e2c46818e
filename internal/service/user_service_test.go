package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"neurosync-go/internal/model"
	"neurosync-go/internal/repository"

	"gorm.io/gorm"
)

// fakeUserRepo 是 UserRepository 的内存实现，模拟数据库的唯一索引行为。
type fakeUserRepo struct {
	nextID uint
	users  map[uint]*model.User
	prefs  map[uint]*model.UserPreference
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		nextID: 1,
		users:  make(map[uint]*model.User),
		prefs:  make(map[uint]*model.UserPreference),
	}
}

func (r *fakeUserRepo) Create(user *model.User) error {
	for _, u := range r.users {
		if u.Username == user.Username {
			return errors.New("UNIQUE constraint failed: users.username")
		}
		if user.Email != "" && u.Email == user.Email {
			return errors.New("UNIQUE constraint failed: users.email")
		}
	}
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByUsername(username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByID(userID uint) (*model.User, error) {
	u, ok := r.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) TouchLastLogin(userID uint, at time.Time) error {
	if u, ok := r.users[userID]; ok {
		u.LastLogin = &at
	}
	return nil
}

func (r *fakeUserRepo) GetPreferences(userID uint) (*model.UserPreference, error) {
	if p, ok := r.prefs[userID]; ok {
		return p, nil
	}
	p := &model.UserPreference{UserID: userID, Theme: "dark"}
	r.prefs[userID] = p
	return p, nil
}

func (r *fakeUserRepo) UpdatePreferences(pref *model.UserPreference) error {
	r.prefs[pref.UserID] = pref
	return nil
}

func newTestUserService() (UserService, *fakeUserRepo) {
	repo := newFakeUserRepo()
	return NewUserService(repo, repository.NewMemorySessionStore(), time.Hour), repo
}

func TestUserService_RegisterRejectsDuplicateUsername(t *testing.T) {
	svc, _ := newTestUserService()

	if _, err := svc.Register("alice", "secret", "alice@example.com", "Alice"); err != nil {
		t.Fatalf("首次注册失败: %v", err)
	}
	_, err := svc.Register("alice", "other", "alice2@example.com", "Alice Two")
	if !errors.Is(err, ErrDuplicateUsername) {
		t.Errorf("重复注册: err = %v, want ErrDuplicateUsername", err)
	}
}

func TestUserService_RegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newTestUserService()

	if _, err := svc.Register("alice", "secret", "shared@example.com", ""); err != nil {
		t.Fatalf("首次注册失败: %v", err)
	}
	_, err := svc.Register("bob", "secret", "shared@example.com", "")
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("重复邮箱: err = %v, want ErrDuplicateEmail", err)
	}
}

func TestUserService_RegisterRejectsEmptyFields(t *testing.T) {
	svc, _ := newTestUserService()

	cases := []struct {
		name     string
		username string
		password string
	}{
		{"空用户名", "", "secret"},
		{"空白用户名", "   ", "secret"},
		{"空密码", "alice", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(tc.username, tc.password, "", ""); !errors.Is(err, ErrEmptyField) {
				t.Errorf("err = %v, want ErrEmptyField", err)
			}
		})
	}
}

func TestUserService_LoginOnlyWithCorrectPassword(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()

	if _, err := svc.Register("alice", "secret", "", ""); err != nil {
		t.Fatalf("注册失败: %v", err)
	}

	if _, _, err := svc.Login(ctx, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("密码错误: err = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := svc.Login(ctx, "nobody", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("用户不存在: err = %v, want ErrInvalidCredentials", err)
	}

	user, token, err := svc.Login(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("登录失败: %v", err)
	}
	if token == "" {
		t.Fatal("登录成功但未返回令牌")
	}
	if user.LastLogin == nil {
		t.Error("登录后 LastLogin 未更新")
	}
}

func TestUserService_SessionLifecycle(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()

	registered, err := svc.Register("alice", "secret", "", "")
	if err != nil {
		t.Fatalf("注册失败: %v", err)
	}
	_, token, err := svc.Login(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("登录失败: %v", err)
	}

	// 有效令牌解析出注册的用户
	user, err := svc.ResolveSession(ctx, token)
	if err != nil {
		t.Fatalf("解析会话失败: %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("ResolveSession userID = %d, want %d", user.ID, registered.ID)
	}

	// 登出之后同一令牌永远无效
	if err := svc.Logout(ctx, token); err != nil {
		t.Fatalf("登出失败: %v", err)
	}
	if _, err := svc.ResolveSession(ctx, token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("登出后解析: err = %v, want ErrInvalidSession", err)
	}
	// 重复登出幂等
	if err := svc.Logout(ctx, token); err != nil {
		t.Errorf("重复登出: err = %v, want nil", err)
	}
}

func TestUserService_ResolveSessionRejectsUnknownToken(t *testing.T) {
	svc, _ := newTestUserService()

	if _, err := svc.ResolveSession(context.Background(), "deadbeef"); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("err = %v, want ErrInvalidSession", err)
	}
}

func TestUserService_PreferencesDefaultThenUpdate(t *testing.T) {
	svc, _ := newTestUserService()

	user, err := svc.Register("alice", "secret", "", "")
	if err != nil {
		t.Fatalf("注册失败: %v", err)
	}

	pref, err := svc.GetPreferences(user.ID)
	if err != nil {
		t.Fatalf("读取偏好失败: %v", err)
	}
	if pref.Theme != "dark" {
		t.Errorf("默认主题 = %q, want %q", pref.Theme, "dark")
	}

	pref.Theme = "light"
	pref.AutoSummarize = true
	if err := svc.UpdatePreferences(pref); err != nil {
		t.Fatalf("更新偏好失败: %v", err)
	}
	got, err := svc.GetPreferences(user.ID)
	if err != nil {
		t.Fatalf("读取偏好失败: %v", err)
	}
	if got.Theme != "light" || !got.AutoSummarize {
		t.Errorf("更新后偏好 = %+v", got)
	}
}
