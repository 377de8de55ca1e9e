// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"thinkbot-go/internal/service"
	"thinkbot-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ChatHandler 处理聊天请求。
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

type chatRequest struct {
	Message        string `json:"message" binding:"required"`
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
}

// Chat 处理 POST /api/chat：一条用户消息换一条 AI 回复。
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	resp, err := h.chatService.HandleMessage(c.Request.Context(), service.ChatRequest{
		Message:        req.Message,
		ConversationID: req.ConversationID,
		UserID:         req.UserID,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
			return
		}
		log.Errorf("处理聊天请求失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error during chat processing"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":         resp.Message,
		"conversation_id": resp.ConversationID,
		"status":          "success",
	})
}
