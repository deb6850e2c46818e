// Package repository 定义了与数据存储进行数据交换的接口和实现。
package repository

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"neurosync-go/internal/model"

	"github.com/go-redis/redis/v8"
)

// ErrSessionNotFound 表示令牌不存在或已过期。
var ErrSessionNotFound = errors.New("session not found")

// SessionStore 维护令牌到用户的映射。令牌是能力凭证，
// 除会话存储外没有任何组件解释它。
type SessionStore interface {
	Create(ctx context.Context, session *model.Session) error
	Resolve(ctx context.Context, token string) (*model.Session, error)
	// Destroy 是幂等的：删除不存在的令牌不报错。
	Destroy(ctx context.Context, token string) error
}

// memorySessionStore 是进程内的会话存储，进程退出即全部失效。
// gin 并发处理请求，映射由互斥锁保护。
type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
}

// NewMemorySessionStore 创建一个进程内会话存储。
func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{sessions: make(map[string]*model.Session)}
}

func (s *memorySessionStore) Create(_ context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = session
	return nil
}

func (s *memorySessionStore) Resolve(_ context.Context, token string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if time.Now().After(session.ExpiresAt) {
		// 过期即删除，之后同一令牌永远解析失败
		delete(s.sessions, token)
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *memorySessionStore) Destroy(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

// redisSessionStore 把会话放进 Redis，TTL 由 Redis 过期机制保证。
// 多实例部署时用它替代进程内存储。
type redisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore 创建一个 Redis 会话存储。
func NewRedisSessionStore(client *redis.Client) SessionStore {
	return &redisSessionStore{client: client}
}

func sessionKey(token string) string {
	return "session:" + token
}

func (s *redisSessionStore) Create(ctx context.Context, session *model.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, sessionKey(session.Token),
		strconv.FormatUint(uint64(session.UserID), 10), ttl).Err()
}

func (s *redisSessionStore) Resolve(ctx context.Context, token string) (*model.Session, error) {
	val, err := s.client.Get(ctx, sessionKey(token)).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	userID, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	return &model.Session{Token: token, UserID: uint(userID)}, nil
}

func (s *redisSessionStore) Destroy(ctx context.Context, token string) error {
	return s.client.Del(ctx, sessionKey(token)).Err()
}
