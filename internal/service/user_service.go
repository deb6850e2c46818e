// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"neurosync-go/internal/model"
	"neurosync-go/internal/repository"
	"neurosync-go/pkg/hash"
	"neurosync-go/pkg/log"
	"neurosync-go/pkg/token"

	"gorm.io/gorm"
)

// UserService 接口定义了所有与用户、会话相关的业务操作。
type UserService interface {
	Register(username, password, email, fullName string) (*model.User, error)
	Login(ctx context.Context, username, password string) (*model.User, string, error)
	Logout(ctx context.Context, sessionToken string) error
	ResolveSession(ctx context.Context, sessionToken string) (*model.User, error)
	GetProfile(userID uint) (*model.User, error)
	GetPreferences(userID uint) (*model.UserPreference, error)
	UpdatePreferences(pref *model.UserPreference) error
}

// userService 是 UserService 接口的实现。
type userService struct {
	userRepo   repository.UserRepository
	sessions   repository.SessionStore
	sessionTTL time.Duration
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo repository.UserRepository, sessions repository.SessionStore, sessionTTL time.Duration) UserService {
	return &userService{
		userRepo:   userRepo,
		sessions:   sessions,
		sessionTTL: sessionTTL,
	}
}

// Register 处理用户注册的业务逻辑。
func (s *userService) Register(username, password, email, fullName string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrEmptyField
	}

	// 1. 检查用户名是否已存在
	_, err := s.userRepo.FindByUsername(username)
	if err == nil {
		return nil, ErrDuplicateUsername
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 2. 对密码进行哈希处理
	hashedPassword, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	// 3. 创建新用户
	newUser := &model.User{
		Username:     username,
		PasswordHash: hashedPassword,
		Email:        email,
		FullName:     fullName,
	}
	if err := s.userRepo.Create(newUser); err != nil {
		// 邮箱唯一索引冲突在这里暴露
		if strings.Contains(err.Error(), "email") {
			return nil, ErrDuplicateEmail
		}
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, ErrDuplicateUsername
		}
		return nil, err
	}

	return newUser, nil
}

// Login 处理用户登录的业务逻辑，成功后签发一个不透明会话令牌。
func (s *userService) Login(ctx context.Context, username, password string) (*model.User, string, error) {
	// 1. 查找用户。用户不存在与密码错误对外不可区分。
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	// 2. 验证密码
	if !hash.CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	// 3. 签发会话令牌
	sessionToken, err := token.NewSessionToken()
	if err != nil {
		return nil, "", err
	}
	now := time.Now()
	session := &model.Session{
		Token:     sessionToken,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, "", err
	}

	// 4. 更新最近登录时间；失败只记录，不影响登录
	if err := s.userRepo.TouchLastLogin(user.ID, now); err != nil {
		log.Warnf("更新用户最近登录时间失败, username: %s, error: %v", username, err)
	}

	return user, sessionToken, nil
}

// Logout 销毁会话令牌。令牌不存在时同样成功（幂等）。
func (s *userService) Logout(ctx context.Context, sessionToken string) error {
	return s.sessions.Destroy(ctx, sessionToken)
}

// ResolveSession 把会话令牌解析成完整的用户对象。
func (s *userService) ResolveSession(ctx context.Context, sessionToken string) (*model.User, error) {
	session, err := s.sessions.Resolve(ctx, sessionToken)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}

	user, err := s.userRepo.FindByID(session.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 用户已被删除，顺手清掉残留会话
			_ = s.sessions.Destroy(ctx, sessionToken)
			return nil, ErrInvalidSession
		}
		return nil, err
	}
	return user, nil
}

// GetProfile 根据用户 ID 获取用户详细信息。
func (s *userService) GetProfile(userID uint) (*model.User, error) {
	return s.userRepo.FindByID(userID)
}

// GetPreferences 读取用户偏好，首次访问返回默认值。
func (s *userService) GetPreferences(userID uint) (*model.UserPreference, error) {
	return s.userRepo.GetPreferences(userID)
}

// UpdatePreferences 更新用户偏好。
func (s *userService) UpdatePreferences(pref *model.UserPreference) error {
	return s.userRepo.UpdatePreferences(pref)
}
