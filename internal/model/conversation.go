// Package model 包含了应用的数据模型定义。
package model

import "time"

// Message 的 Sender 字段只允许以下两个取值。
const (
	SenderUser = "user"
	SenderAI   = "ai"
)

// Conversation 代表一次持续的聊天会话。
// SessionID 在创建时生成，之后不可变，全局唯一地标识这个会话。
type Conversation struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	SessionID string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"sessionId"`
	UserID    string    `gorm:"type:varchar(128);index;not null" json:"userId"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	// Messages 按插入顺序（即时间顺序）关联到会话。
	Messages []Message `gorm:"foreignKey:ConversationID" json:"-"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// Message 代表会话中的一轮发言，创建后不可变。
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	ConversationID uint      `gorm:"index;not null" json:"-"`
	Sender         string    `gorm:"type:varchar(8);not null" json:"sender"`
	Text           string    `gorm:"type:text;not null" json:"text"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"timestamp"`
}

func (Message) TableName() string {
	return "messages"
}

// ChatMessage 代表发送给 LLM 的单条上下文消息。
// 也是 Redis 历史缓存中的存储形态。
type ChatMessage struct {
	Role      string    `json:"role"` // "user" 或 "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
