// Package service 包含了应用的业务逻辑层。
package service

import "errors"

// 业务错误在产生它们的边界被处理，并以用户可见的信息呈现；任何一个都不会自动重试。
var (
	// ErrDuplicateUsername 表示注册时用户名已被占用。
	ErrDuplicateUsername = errors.New("用户名已存在")
	// ErrDuplicateEmail 表示注册时邮箱已被占用。
	ErrDuplicateEmail = errors.New("邮箱已被注册")
	// ErrInvalidCredentials 表示用户名或密码不正确，二者不作区分。
	ErrInvalidCredentials = errors.New("无效的凭证")
	// ErrInvalidSession 表示会话令牌不存在、已销毁或已过期。
	ErrInvalidSession = errors.New("无效的会话")
	// ErrConversationNotFound 表示对话不存在，或不属于当前用户。
	ErrConversationNotFound = errors.New("对话不存在")
	// ErrEmptyField 表示必填字段为空。
	ErrEmptyField = errors.New("用户名和密码不能为空")
)
