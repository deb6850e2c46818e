// Package token 提供了不透明会话令牌的生成。
// 令牌只是一段加密随机字节的十六进制表示，本身不携带任何信息，
// 令牌到用户的映射由会话存储负责。
package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// SessionTokenBytes 是会话令牌的随机字节数，对应 64 个十六进制字符。
const SessionTokenBytes = 32

// NewSessionToken 生成一个新的加密随机会话令牌。
func NewSessionToken() (string, error) {
	bytes := make([]byte, SessionTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
