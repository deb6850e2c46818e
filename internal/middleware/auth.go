// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"net/http"
	"strings"

	"neurosync-go/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware 创建一个 Gin 中间件，用于会话令牌认证。
// 它从 Authorization 头中提取不透明令牌，交给会话存储解析，
// 并把完整的 User 对象存入 Gin 的上下文中。
func AuthMiddleware(userService service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ExtractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "请求未包含有效的授权头"})
			return
		}

		user, err := userService.ResolveSession(c.Request.Context(), tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "无效或已过期的会话"})
			return
		}

		// 将完整的 User 对象与原始令牌存储在 context 中，供后续处理函数使用
		c.Set("user", user)
		c.Set("sessionToken", tokenString)

		c.Next()
	}
}

// ExtractToken 从请求中提取会话令牌：优先 "Bearer " 授权头，
// 其次 query 参数 token（WebSocket 握手无法携带自定义头）。
func ExtractToken(c *gin.Context) string {
	const bearerPrefix = "Bearer "
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, bearerPrefix) {
		return strings.TrimPrefix(authHeader, bearerPrefix)
	}
	return c.Query("token")
}
