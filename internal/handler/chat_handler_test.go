package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"thinkbot-go/internal/model"
	"thinkbot-go/internal/repository"
	"thinkbot-go/internal/service"
	"thinkbot-go/pkg/llm"
	"thinkbot-go/pkg/log"

	"github.com/gin-gonic/gin"
	gormsqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	log.Init("error", "console", "")
	os.Exit(m.Run())
}

// staticLLM 返回固定回复，测试不触网。
type staticLLM struct{}

func (staticLLM) Reply(ctx context.Context, prompt string, history []llm.Message) string {
	_ = ctx
	_ = prompt
	_ = history
	return "canned reply"
}

// newTestRouter 组装一套跑在内存 sqlite 上的完整路由。
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Conversation{},
		&model.Message{},
		&model.DistributionCenter{},
		&model.Product{},
		&model.User{},
		&model.InventoryItem{},
		&model.Order{},
		&model.OrderItem{},
	))

	conversationRepo := repository.NewConversationRepository(db, nil)
	catalogRepo := repository.NewCatalogRepository(db)
	dataService := service.NewDataService(catalogRepo)
	chatService := service.NewChatService(conversationRepo, dataService, staticLLM{})
	conversationService := service.NewConversationService(conversationRepo)

	r := gin.New()
	r.GET("/health", Health)
	api := r.Group("/api")
	{
		api.POST("/chat", NewChatHandler(chatService).Chat)
		api.GET("/conversations", NewConversationHandler(conversationService).ListConversations)
		api.GET("/conversations/:sessionId", NewConversationHandler(conversationService).GetConversationMessages)
	}
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status": "Backend service is running!"}`, w.Body.String())
}

func TestChatRejectsMissingMessage(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/chat", `{"user_id": "u1"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"error": "Message is required"}`, w.Body.String())
}

func TestChatRoundTrip(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/chat", `{"message": "Hello", "user_id": "u1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Message        string `json:"message"`
		ConversationID string `json:"conversation_id"`
		Status         string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "canned reply", resp.Message)
	require.Equal(t, "success", resp.Status)
	require.True(t, strings.HasPrefix(resp.ConversationID, "session_"))

	// 列表里应出现刚才的会话
	w = doJSON(t, r, http.MethodGet, "/api/conversations", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []struct {
		SessionID string `json:"sessionId"`
		UserID    string `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	require.Equal(t, resp.ConversationID, list[0].SessionID)
	require.Equal(t, "u1", list[0].UserID)

	// 详情里应有配对的 user/ai 两条消息
	w = doJSON(t, r, http.MethodGet, "/api/conversations/"+resp.ConversationID, "")
	require.Equal(t, http.StatusOK, w.Code)
	var msgs []struct {
		Sender string `json:"sender"`
		Text   string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msgs))
	require.Len(t, msgs, 2)
	require.Equal(t, "user", msgs[0].Sender)
	require.Equal(t, "Hello", msgs[0].Text)
	require.Equal(t, "ai", msgs[1].Sender)
	require.Equal(t, "canned reply", msgs[1].Text)
}

func TestGetConversationMessagesNotFound(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/conversations/session_nope", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.JSONEq(t, `{"error": "Conversation not found."}`, w.Body.String())
}
