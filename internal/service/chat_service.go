package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"thinkbot-go/internal/model"
	"thinkbot-go/internal/repository"
	"thinkbot-go/pkg/llm"
	"thinkbot-go/pkg/log"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 未提供 user_id 时使用的哨兵身份。
const anonymousUserID = "anonymous_user"

// ChatRequest 是一次聊天调用的输入。
type ChatRequest struct {
	Message        string
	ConversationID string
	UserID         string
}

// ChatResponse 是一次聊天调用的输出。
type ChatResponse struct {
	Message        string
	ConversationID string
}

// ChatService 是会话编排器：把意图识别、数据解析、prompt 组装、
// LLM 调用和消息持久化串成一次请求/响应循环。
type ChatService interface {
	HandleMessage(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

type chatService struct {
	conversationRepo repository.ConversationRepository
	dataService      DataService
	llmClient        llm.Client
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(conversationRepo repository.ConversationRepository, dataService DataService, llmClient llm.Client) ChatService {
	return &chatService{
		conversationRepo: conversationRepo,
		dataService:      dataService,
		llmClient:        llmClient,
	}
}

// HandleMessage 处理一条用户消息。
// 多步持久化不包事务：用户消息落库之后 AI 回复生成失败的话，
// 用户消息保持已持久化状态（接受每侧至多一次的语义，不保证原子）。
func (s *chatService) HandleMessage(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrEmptyMessage
	}

	userID := req.UserID
	if userID == "" {
		userID = anonymousUserID
	}

	// 1. 解析会话：复用匹配的已有会话，否则开启新会话。
	// 调用方给的 conversation_id 查不到（或属于其他 user_id）时
	// 不报错，透明地按新会话处理。
	conv, history, err := s.resolveConversation(ctx, req.ConversationID, userID)
	if err != nil {
		return nil, err
	}

	// 2. 先持久化用户这一轮。会话必须已存在，消息才能挂上去。
	if _, err := s.conversationRepo.AppendMessage(ctx, conv, model.SenderUser, req.Message); err != nil {
		return nil, fmt.Errorf("failed to persist user message: %w", err)
	}

	// 3. 意图识别，命中则做数据解析。"not found" 句子同样算解析结果。
	dataSummary := ""
	if intent := MatchIntent(req.Message); intent.Kind != IntentNone {
		dataSummary, err = s.dataService.Resolve(ctx, intent)
		if err != nil {
			return nil, err
		}
	}

	// 4. 组装 prompt 并调用 LLM。历史上下文是本轮之前的消息序列；
	// llmClient 内部消化一切上游故障，这里拿到的一定是可用文本。
	prompt := composePrompt(req.Message, dataSummary)
	llmHistory := make([]llm.Message, 0, len(history))
	for _, m := range history {
		llmHistory = append(llmHistory, llm.Message{Role: m.Role, Content: m.Content})
	}
	reply := s.llmClient.Reply(ctx, prompt, llmHistory)

	// 5. 持久化 AI 回复，保证 user 消息总在配对的 ai 回复之前。
	if _, err := s.conversationRepo.AppendMessage(ctx, conv, model.SenderAI, reply); err != nil {
		return nil, fmt.Errorf("failed to persist ai message: %w", err)
	}

	return &ChatResponse{
		Message:        reply,
		ConversationID: conv.SessionID,
	}, nil
}

// resolveConversation 返回本轮使用的会话及其既有历史。
// 新会话先持久化（拿到主键）再挂消息。
func (s *chatService) resolveConversation(ctx context.Context, conversationID, userID string) (*model.Conversation, []model.ChatMessage, error) {
	if conversationID != "" {
		conv, err := s.conversationRepo.FindBySessionAndUser(ctx, conversationID, userID)
		if err == nil {
			history, herr := s.conversationRepo.History(ctx, conv)
			if herr != nil {
				// 历史加载失败不阻断本轮对话，只是没有上下文
				log.Errorf("加载会话历史失败: %v", herr)
				history = nil
			}
			return conv, history, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("failed to look up conversation: %w", err)
		}
	}

	conv := &model.Conversation{
		SessionID: newSessionID(),
		UserID:    userID,
	}
	if err := s.conversationRepo.Create(ctx, conv); err != nil {
		return nil, nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil, nil
}

// newSessionID 生成新的会话标识：毫秒时间戳加随机后缀，
// 独立生成、无共享计数器，碰撞概率可忽略。
func newSessionID() string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("session_%d_%s", time.Now().UnixMilli(), suffix)
}

// composePrompt 把用户原话、可选的数据摘要和固定指令拼成最终 prompt。
func composePrompt(message, dataSummary string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User's query: \"%s\".", message)
	if dataSummary != "" {
		fmt.Fprintf(&b, " Relevant database information: \"%s\".", dataSummary)
	}
	b.WriteString(" Please respond to the user's query conversationally and helpfully based on the information provided, or ask for more details if needed to fulfill the request.")
	return b.String()
}
