// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"neurosync-go/internal/service"

	"github.com/gin-gonic/gin"
)

// ConversationHandler 处理与对话相关的 API 请求。
type ConversationHandler struct {
	conversations service.ConversationService
	chatService   service.ChatService
}

// NewConversationHandler 创建一个新的 ConversationHandler。
func NewConversationHandler(conversations service.ConversationService, chatService service.ChatService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, chatService: chatService}
}

// convID 解析路径参数里的对话 ID。
func convID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的对话 ID",
		})
		return 0, false
	}
	return uint(id), true
}

// respondConversationError 把业务错误映射为 HTTP 状态码。
func respondConversationError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrConversationNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    http.StatusNotFound,
			"message": service.ErrConversationNotFound.Error(),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    http.StatusInternalServerError,
		"message": "服务器内部错误",
	})
}

// List 返回当前用户的全部对话，最近活跃的排在最前。
func (h *ConversationHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	convs, err := h.conversations.ListConversations(user.ID)
	if err != nil {
		respondConversationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": convs, "message": "success"})
}

// Search 在当前用户的对话标题与消息内容中检索。
func (h *ConversationHandler) Search(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	convs, err := h.conversations.SearchConversations(user.ID, c.Query("q"))
	if err != nil {
		respondConversationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": convs, "message": "success"})
}

// Messages 按时间顺序返回对话的全部消息。
func (h *ConversationHandler) Messages(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := convID(c)
	if !ok {
		return
	}
	msgs, err := h.conversations.GetMessages(user.ID, id)
	if err != nil {
		respondConversationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": msgs, "message": "success"})
}

// RenameRequest 定义了重命名对话 API 的请求体结构。
type RenameRequest struct {
	Title string `json:"title" binding:"required"`
}

// Rename 重命名对话。
func (h *ConversationHandler) Rename(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := convID(c)
	if !ok {
		return
	}
	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "标题不能为空",
		})
		return
	}
	if err := h.conversations.RenameConversation(user.ID, id, req.Title); err != nil {
		respondConversationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success"})
}

// Delete 删除对话及其全部消息。
func (h *ConversationHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := convID(c)
	if !ok {
		return
	}
	if err := h.conversations.DeleteConversation(user.ID, id); err != nil {
		respondConversationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success"})
}

// Export 把对话导出为纯文本附件下载。
func (h *ConversationHandler) Export(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := convID(c)
	if !ok {
		return
	}
	text, err := h.conversations.ExportConversation(user.ID, id)
	if err != nil {
		respondConversationError(c, err)
		return
	}
	filename := fmt.Sprintf("conversation-%d.txt", id)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

// Stats 返回对话的消息统计信息。
func (h *ConversationHandler) Stats(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := convID(c)
	if !ok {
		return
	}
	stats, err := h.conversations.Stats(user.ID, id)
	if err != nil {
		respondConversationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": stats, "message": "success"})
}

// Summarize 即时生成并保存对话摘要。
func (h *ConversationHandler) Summarize(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := convID(c)
	if !ok {
		return
	}
	summary, err := h.chatService.Summarize(c.Request.Context(), user.ID, id)
	if err != nil {
		if errors.Is(err, service.ErrConversationNotFound) {
			respondConversationError(c, err)
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"code":    http.StatusBadGateway,
			"message": "AI 服务暂时不可用，请稍后重试",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": gin.H{"summary": summary}, "message": "success"})
}
