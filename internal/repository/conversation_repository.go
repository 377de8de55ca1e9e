// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"thinkbot-go/internal/model"
	"thinkbot-go/pkg/log"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// 历史缓存的保留时长，与活跃会话的生命周期对齐。
const historyCacheTTL = 7 * 24 * time.Hour

// ConversationRepository 定义了会话与消息的持久化操作。
type ConversationRepository interface {
	// FindBySessionAndUser 同时匹配会话 ID 和用户 ID，未命中返回 gorm.ErrRecordNotFound。
	FindBySessionAndUser(ctx context.Context, sessionID, userID string) (*model.Conversation, error)
	FindBySessionID(ctx context.Context, sessionID string) (*model.Conversation, error)
	Create(ctx context.Context, conv *model.Conversation) error
	// AppendMessage 把一轮发言追加到会话末尾。消息创建后不可变，
	// 会话的消息序列必须反映 user/ai 轮次发生的先后顺序。
	AppendMessage(ctx context.Context, conv *model.Conversation, sender, text string) (*model.Message, error)
	// Messages 返回会话的全部消息，按时间升序。
	Messages(ctx context.Context, conversationID uint) ([]model.Message, error)
	// History 返回发给 LLM 的上下文消息（role 映射为 user/assistant），缓存优先。
	History(ctx context.Context, conv *model.Conversation) ([]model.ChatMessage, error)
	// ListRecent 返回最近创建的会话，新的在前。
	ListRecent(ctx context.Context, limit int) ([]model.Conversation, error)
}

type conversationRepository struct {
	db  *gorm.DB
	rdb *redis.Client // 可以为 nil，此时缓存整体禁用
}

// NewConversationRepository 创建一个新的 ConversationRepository 实例。
// redisClient 传 nil 时所有读写直达 MySQL。
func NewConversationRepository(db *gorm.DB, redisClient *redis.Client) ConversationRepository {
	return &conversationRepository{db: db, rdb: redisClient}
}

func (r *conversationRepository) FindBySessionAndUser(ctx context.Context, sessionID, userID string) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) FindBySessionID(ctx context.Context, sessionID string) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) Create(ctx context.Context, conv *model.Conversation) error {
	return r.db.WithContext(ctx).Create(conv).Error
}

func (r *conversationRepository) AppendMessage(ctx context.Context, conv *model.Conversation, sender, text string) (*model.Message, error) {
	msg := &model.Message{
		ConversationID: conv.ID,
		Sender:         sender,
		Text:           text,
	}
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}
	// 写后失效：下一次 History 会从 MySQL 重建缓存，保证顺序一致
	r.invalidateHistoryCache(ctx, conv.SessionID)
	return msg, nil
}

func (r *conversationRepository) Messages(ctx context.Context, conversationID uint) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *conversationRepository) History(ctx context.Context, conv *model.Conversation) ([]model.ChatMessage, error) {
	if cached, ok := r.historyFromCache(ctx, conv.SessionID); ok {
		return cached, nil
	}

	msgs, err := r.Messages(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation history: %w", err)
	}

	history := make([]model.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		role := "user"
		if m.Sender == model.SenderAI {
			role = "assistant"
		}
		history = append(history, model.ChatMessage{
			Role:      role,
			Content:   m.Text,
			Timestamp: m.CreatedAt,
		})
	}

	r.storeHistoryCache(ctx, conv.SessionID, history)
	return history, nil
}

func (r *conversationRepository) ListRecent(ctx context.Context, limit int) ([]model.Conversation, error) {
	var convs []model.Conversation
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&convs).Error
	if err != nil {
		return nil, err
	}
	return convs, nil
}

// --- Redis 历史缓存。任何缓存故障只记 warn，绝不影响请求本身 ---

func historyCacheKey(sessionID string) string {
	return fmt.Sprintf("conversation:%s", sessionID)
}

func (r *conversationRepository) historyFromCache(ctx context.Context, sessionID string) ([]model.ChatMessage, bool) {
	if r.rdb == nil {
		return nil, false
	}
	jsonData, err := r.rdb.Get(ctx, historyCacheKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Warnf("读取对话历史缓存失败: %v", err)
		return nil, false
	}
	var history []model.ChatMessage
	if err := json.Unmarshal([]byte(jsonData), &history); err != nil {
		log.Warnf("对话历史缓存内容损坏，已忽略: %v", err)
		return nil, false
	}
	return history, true
}

func (r *conversationRepository) storeHistoryCache(ctx context.Context, sessionID string, history []model.ChatMessage) {
	if r.rdb == nil {
		return
	}
	jsonData, err := json.Marshal(history)
	if err != nil {
		log.Warnf("序列化对话历史失败: %v", err)
		return
	}
	if err := r.rdb.Set(ctx, historyCacheKey(sessionID), jsonData, historyCacheTTL).Err(); err != nil {
		log.Warnf("写入对话历史缓存失败: %v", err)
	}
}

func (r *conversationRepository) invalidateHistoryCache(ctx context.Context, sessionID string) {
	if r.rdb == nil {
		return
	}
	if err := r.rdb.Del(ctx, historyCacheKey(sessionID)).Err(); err != nil {
		log.Warnf("失效对话历史缓存失败: %v", err)
	}
}
