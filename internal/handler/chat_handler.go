// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"neurosync-go/internal/agent"
	"neurosync-go/internal/service"
	"neurosync-go/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// ChatHandler 处理同步问答与 WebSocket 流式问答。
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ChatRequest 定义了同步问答 API 的请求体结构。
type ChatRequest struct {
	ConversationID uint   `json:"conversationId"`
	Message        string `json:"message" binding:"required"`
}

// Send 处理一轮同步问答：请求中不带 conversationId 时自动新建对话。
func (h *ChatHandler) Send(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "消息不能为空",
		})
		return
	}

	conv, reply, err := h.chatService.Send(c.Request.Context(), user, req.ConversationID, req.Message)
	if err != nil {
		if errors.Is(err, service.ErrConversationNotFound) {
			respondConversationError(c, err)
			return
		}
		if errors.Is(err, agent.ErrAgentUnavailable) {
			log.Errorf("处理问答失败: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{
				"code":    http.StatusBadGateway,
				"message": agent.ErrAgentUnavailable.Error(),
			})
			return
		}
		respondConversationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data": gin.H{
			"conversationId": conv.ID,
			"reply":          reply.Content,
			"messageId":      reply.ID,
		},
	})
}

// wsInbound 是 WebSocket 上的一帧用户输入。
type wsInbound struct {
	ConversationID uint   `json:"conversationId"`
	Message        string `json:"message"`
}

// HandleWS 处理一个传入的 WebSocket 连接。
// 每个文本帧是一条用户消息；回复按分块写回，以 completion 帧收尾。
func (h *ChatHandler) HandleWS(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	log.Infof("WebSocket 连接已建立，用户: %s", user.Username)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			log.Warnf("从 WebSocket 读取消息失败: %v", err)
			break
		}

		var in wsInbound
		if err := json.Unmarshal(payload, &in); err != nil || in.Message == "" {
			// 纯文本帧兼容：整帧作为消息内容
			in = wsInbound{Message: string(payload)}
		}

		conv, reply, err := h.chatService.Send(c.Request.Context(), user, in.ConversationID, in.Message)
		if err != nil {
			log.Errorf("处理流式问答失败: %v", err)
			errResp := map[string]string{"error": agent.ErrAgentUnavailable.Error()}
			b, _ := json.Marshal(errResp)
			_ = conn.WriteMessage(websocket.TextMessage, b)
			sendCompletion(conn)
			continue
		}

		streamReply(conn, conv.ID, reply.Content)
		sendCompletion(conn)
	}
}

// streamChunkSize 是写回客户端的单个分块的最大字节数（按 rune 边界切分）。
const streamChunkSize = 64

// streamReply 把完整的回复文本按分块写回客户端，包装为 {"chunk":"..."}。
func streamReply(conn *websocket.Conn, conversationID uint, content string) {
	runes := []rune(content)
	for start := 0; start < len(runes); {
		end := start + streamChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		payload := map[string]interface{}{
			"conversationId": conversationID,
			"chunk":          string(runes[start:end]),
		}
		b, _ := json.Marshal(payload)
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Warnf("写入 WebSocket 分块失败: %v", err)
			return
		}
		start = end
	}
}

// sendCompletion 发送完成通知 JSON。
func sendCompletion(conn *websocket.Conn) {
	notif := map[string]interface{}{
		"type":      "completion",
		"status":    "finished",
		"message":   "响应已完成",
		"timestamp": time.Now().UnixMilli(),
		"date":      time.Now().Format("2006-01-02T15:04:05"),
	}
	b, _ := json.Marshal(notif)
	_ = conn.WriteMessage(websocket.TextMessage, b)
}
