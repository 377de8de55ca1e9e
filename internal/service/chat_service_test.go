package service

import (
	"context"
	"strings"
	"testing"

	"thinkbot-go/internal/model"
	"thinkbot-go/internal/repository"
	"thinkbot-go/pkg/llm"

	"github.com/stretchr/testify/require"
)

// fakeLLM 记录最近一次调用的 prompt 和历史，返回固定回复。
type fakeLLM struct {
	lastPrompt  string
	lastHistory []llm.Message
	reply       string
}

func (f *fakeLLM) Reply(ctx context.Context, prompt string, history []llm.Message) string {
	_ = ctx
	f.lastPrompt = prompt
	f.lastHistory = append([]llm.Message(nil), history...)
	return f.reply
}

// stubDataService 记录收到的意图并返回固定摘要。
type stubDataService struct {
	lastIntent Intent
	summary    string
}

func (s *stubDataService) Resolve(ctx context.Context, intent Intent) (string, error) {
	_ = ctx
	s.lastIntent = intent
	return s.summary, nil
}

func newChatFixture(t *testing.T) (ChatService, *fakeLLM, *stubDataService, repository.ConversationRepository) {
	t.Helper()
	db := openTestDB(t)
	repo := repository.NewConversationRepository(db, nil)
	fake := &fakeLLM{reply: "Happy to help!"}
	stub := &stubDataService{}
	return NewChatService(repo, stub, fake), fake, stub, repo
}

func TestHandleMessageRejectsEmptyMessage(t *testing.T) {
	svc, _, _, _ := newChatFixture(t)

	_, err := svc.HandleMessage(context.Background(), ChatRequest{Message: "   "})
	require.ErrorIs(t, err, ErrEmptyMessage)
}

func TestHandleMessageStartsNewConversation(t *testing.T) {
	svc, _, _, repo := newChatFixture(t)

	resp, err := svc.HandleMessage(context.Background(), ChatRequest{Message: "Hello there"})
	require.NoError(t, err)
	require.Equal(t, "Happy to help!", resp.Message)
	require.True(t, strings.HasPrefix(resp.ConversationID, "session_"))

	conv, err := repo.FindBySessionAndUser(context.Background(), resp.ConversationID, "anonymous_user")
	require.NoError(t, err)

	msgs, err := repo.Messages(context.Background(), conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, model.SenderUser, msgs[0].Sender)
	require.Equal(t, "Hello there", msgs[0].Text)
	require.Equal(t, model.SenderAI, msgs[1].Sender)
	require.Equal(t, "Happy to help!", msgs[1].Text)
}

func TestHandleMessageReusesConversation(t *testing.T) {
	svc, fake, _, repo := newChatFixture(t)
	ctx := context.Background()

	first, err := svc.HandleMessage(ctx, ChatRequest{Message: "Hello there", UserID: "u1"})
	require.NoError(t, err)

	second, err := svc.HandleMessage(ctx, ChatRequest{
		Message:        "And another thing",
		ConversationID: first.ConversationID,
		UserID:         "u1",
	})
	require.NoError(t, err)
	require.Equal(t, first.ConversationID, second.ConversationID)

	// 第二轮应带上第一轮的两条历史，且新的用户消息只出现在 prompt 里
	require.Len(t, fake.lastHistory, 2)
	require.Equal(t, "user", fake.lastHistory[0].Role)
	require.Equal(t, "Hello there", fake.lastHistory[0].Content)
	require.Equal(t, "assistant", fake.lastHistory[1].Role)

	conv, err := repo.FindBySessionAndUser(ctx, first.ConversationID, "u1")
	require.NoError(t, err)
	msgs, err := repo.Messages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
}

// 未知的 conversation_id 不报错，透明地开新会话。
func TestHandleMessageUnknownConversationStartsFresh(t *testing.T) {
	svc, _, _, _ := newChatFixture(t)

	resp, err := svc.HandleMessage(context.Background(), ChatRequest{
		Message:        "Hi",
		ConversationID: "session_does_not_exist",
	})
	require.NoError(t, err)
	require.NotEqual(t, "session_does_not_exist", resp.ConversationID)
	require.True(t, strings.HasPrefix(resp.ConversationID, "session_"))
}

// 同一 session_id 换了 user_id 也按新会话处理。
func TestHandleMessageUserMismatchStartsFresh(t *testing.T) {
	svc, _, _, _ := newChatFixture(t)
	ctx := context.Background()

	first, err := svc.HandleMessage(ctx, ChatRequest{Message: "Hi", UserID: "alice"})
	require.NoError(t, err)

	second, err := svc.HandleMessage(ctx, ChatRequest{
		Message:        "Hi again",
		ConversationID: first.ConversationID,
		UserID:         "bob",
	})
	require.NoError(t, err)
	require.NotEqual(t, first.ConversationID, second.ConversationID)
}

func TestHandleMessagePromptIncludesDataSummary(t *testing.T) {
	svc, fake, stub, _ := newChatFixture(t)
	stub.summary = "Order ID 482 details:\nStatus: Shipped"

	_, err := svc.HandleMessage(context.Background(), ChatRequest{Message: "What's the status of order #482?"})
	require.NoError(t, err)

	require.Equal(t, IntentOrderStatus, stub.lastIntent.Kind)
	require.Equal(t, 482, stub.lastIntent.OrderID)
	require.Contains(t, fake.lastPrompt, `User's query: "What's the status of order #482?".`)
	require.Contains(t, fake.lastPrompt, `Relevant database information: "Order ID 482 details:`)
	require.Contains(t, fake.lastPrompt, "Please respond to the user's query conversationally")
}

func TestHandleMessagePromptWithoutIntent(t *testing.T) {
	svc, fake, stub, _ := newChatFixture(t)
	stub.summary = "should not appear"

	_, err := svc.HandleMessage(context.Background(), ChatRequest{Message: "Tell me a joke."})
	require.NoError(t, err)

	require.Equal(t, IntentNone, stub.lastIntent.Kind)
	require.NotContains(t, fake.lastPrompt, "Relevant database information")
}
