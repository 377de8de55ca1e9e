package handler

import (
	"errors"
	"net/http"

	"thinkbot-go/internal/service"
	"thinkbot-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ConversationHandler 处理与历史会话相关的 API 请求。
type ConversationHandler struct {
	service service.ConversationService
}

// NewConversationHandler 创建一个新的 ConversationHandler。
func NewConversationHandler(service service.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// ListConversations 处理 GET /api/conversations：
// 返回最近 50 个会话，新的在前。
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	summaries, err := h.service.ListConversations(c.Request.Context())
	if err != nil {
		log.Errorf("获取会话列表失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch conversation list"})
		return
	}
	c.JSON(http.StatusOK, summaries)
}

// GetConversationMessages 处理 GET /api/conversations/:sessionId：
// 返回指定会话的全部消息，按时间升序。
func (h *ConversationHandler) GetConversationMessages(c *gin.Context) {
	sessionID := c.Param("sessionId")

	messages, err := h.service.GetConversationMessages(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found."})
			return
		}
		log.Errorf("获取会话消息失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch conversation messages"})
		return
	}
	c.JSON(http.StatusOK, messages)
}
