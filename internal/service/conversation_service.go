package service

import (
	"context"
	"errors"
	"fmt"

	"thinkbot-go/internal/model"
	"thinkbot-go/internal/repository"

	"gorm.io/gorm"
)

// 历史面板最多展示最近 50 个会话。
const conversationListLimit = 50

// ConversationSummary 是会话列表里的单项。
type ConversationSummary struct {
	SessionID string          `json:"sessionId"`
	UserID    string          `json:"userId"`
	CreatedAt model.LocalTime `json:"createdAt"`
}

// MessageView 是会话详情里的单条消息。
type MessageView struct {
	Sender    string          `json:"sender"`
	Text      string          `json:"text"`
	Timestamp model.LocalTime `json:"timestamp"`
}

// ConversationService 定义了历史查询的业务逻辑接口。
type ConversationService interface {
	// ListConversations 返回最近创建的会话，新的在前，最多 50 条。
	ListConversations(ctx context.Context) ([]ConversationSummary, error)
	// GetConversationMessages 返回指定会话的全部消息（按时间升序）。
	// 会话不存在时返回 ErrNotFound。
	GetConversationMessages(ctx context.Context, sessionID string) ([]MessageView, error)
}

type conversationService struct {
	repo repository.ConversationRepository
}

// NewConversationService 创建一个新的 ConversationService。
func NewConversationService(repo repository.ConversationRepository) ConversationService {
	return &conversationService{repo: repo}
}

func (s *conversationService) ListConversations(ctx context.Context) ([]ConversationSummary, error) {
	convs, err := s.repo.ListRecent(ctx, conversationListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	summaries := make([]ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		summaries = append(summaries, ConversationSummary{
			SessionID: conv.SessionID,
			UserID:    conv.UserID,
			CreatedAt: model.LocalTime(conv.CreatedAt),
		})
	}
	return summaries, nil
}

func (s *conversationService) GetConversationMessages(ctx context.Context, sessionID string) ([]MessageView, error) {
	conv, err := s.repo.FindBySessionID(ctx, sessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up conversation: %w", err)
	}

	msgs, err := s.repo.Messages(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation messages: %w", err)
	}

	views := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, MessageView{
			Sender:    m.Sender,
			Text:      m.Text,
			Timestamp: model.LocalTime(m.CreatedAt),
		})
	}
	return views, nil
}
