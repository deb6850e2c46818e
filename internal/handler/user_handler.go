// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"neurosync-go/internal/model"
	"neurosync-go/internal/service"
	"neurosync-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// UserHandler 负责处理所有与用户、会话相关的 API 请求。
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler 创建一个新的 UserHandler 实例。
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// currentUser 取出 AuthMiddleware 注入的用户对象。
func currentUser(c *gin.Context) (*model.User, bool) {
	userValue, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "无法获取用户信息",
		})
		return nil, false
	}
	user, ok := userValue.(*model.User)
	if !ok || user == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "用户数据类型错误",
		})
		return nil, false
	}
	return user, true
}

// RegisterRequest 定义了用户注册 API 的请求体结构。
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"fullName"`
}

// Register 处理用户注册请求。
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Register: Invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：用户名、密码和邮箱不能为空",
		})
		return
	}

	user, err := h.userService.Register(req.Username, req.Password, req.Email, req.FullName)
	if err != nil {
		status := http.StatusConflict
		if errors.Is(err, service.ErrEmptyField) {
			status = http.StatusBadRequest
		} else if !errors.Is(err, service.ErrDuplicateUsername) && !errors.Is(err, service.ErrDuplicateEmail) {
			status = http.StatusInternalServerError
		}
		log.Warnf("Register: User registration failed for '%s', error: %v", req.Username, err)
		c.JSON(status, gin.H{"code": status, "message": err.Error()})
		return
	}

	log.Infof("User '%s' registered successfully", user.Username)
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "User registered successfully",
	})
}

// LoginRequest 定义了用户登录 API 的请求体结构。
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 处理用户登录请求，成功时返回不透明会话令牌。
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Login: Invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：用户名和密码不能为空",
		})
		return
	}

	user, sessionToken, err := h.userService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		log.Warnf("Login: User authentication failed for '%s', error: %v", req.Username, err)
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    http.StatusUnauthorized,
			"message": "无效的凭证",
		})
		return
	}

	log.Infof("User '%s' logged in successfully", user.Username)
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Login successful",
		"data": gin.H{
			"token":    sessionToken,
			"username": user.Username,
		},
	})
}

// Logout 处理用户登出请求，销毁当前会话令牌。
func (h *UserHandler) Logout(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	sessionToken := c.GetString("sessionToken")
	if err := h.userService.Logout(c.Request.Context(), sessionToken); err != nil {
		log.Error("Logout: Failed to logout", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "登出失败",
		})
		return
	}

	log.Infof("User '%s' logged out successfully", user.Username)
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "登出成功",
	})
}

// GetProfile 获取当前登录用户的个人信息。
// 用户信息已经由 AuthMiddleware 注入到上下文中。
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": user, "message": "success"})
}

// GetPreferences 获取当前用户的偏好设置。
func (h *UserHandler) GetPreferences(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	pref, err := h.userService.GetPreferences(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "无法读取用户偏好",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": pref, "message": "success"})
}

// UpdatePreferencesRequest 定义了更新偏好 API 的请求体结构。
type UpdatePreferencesRequest struct {
	Theme         *string `json:"theme"`
	AutoSummarize *bool   `json:"autoSummarize"`
}

// UpdatePreferences 更新当前用户的偏好设置，未提供的字段保持原值。
func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载",
		})
		return
	}

	pref, err := h.userService.GetPreferences(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "无法读取用户偏好",
		})
		return
	}
	if req.Theme != nil {
		pref.Theme = *req.Theme
	}
	if req.AutoSummarize != nil {
		pref.AutoSummarize = *req.AutoSummarize
	}
	if err := h.userService.UpdatePreferences(pref); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "更新用户偏好失败",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": pref, "message": "success"})
}
