// Package llm provides a client for interacting with Large Language Models.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"thinkbot-go/internal/config"
	"thinkbot-go/pkg/log"
)

// Message 表示一条角色消息。
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client defines the interface for an LLM client.
type Client interface {
	// Reply 以组合好的 prompt 与历史上下文调用聊天接口并返回回复文本。
	// 任何上游故障都在客户端内部化解为固定的兜底文案，绝不向上抛错：
	// 聊天管道必须始终能持久化一轮 AI 回复并返回 HTTP 成功。
	Reply(ctx context.Context, prompt string, history []Message) string
}

// systemPrompt 确立助手的角色、范围和语气。
const systemPrompt = `You are an e-commerce customer support chatbot named "ThinkBot". Your primary goal is to assist users with inquiries about products, orders, and inventory for a clothing store.
You have access to product, inventory, user, and order data.
When asked about specific data (like order status, product stock), state that you are checking the database.
Be helpful, concise, and friendly.
If you need more information (e.g., an order ID or product name), ask clarifying questions.
Always respond in a conversational and friendly tone.`

const (
	// API Key 缺失时的固定回复，不发起任何网络请求。
	fallbackMissingKey = "I cannot provide an intelligent response because my API key is missing."
	// 上游不可达或返回错误时的固定回复。
	fallbackUpstream = "I'm sorry, I'm having trouble connecting to my AI brain right now. Please try again later."
)

type groqClient struct {
	cfg    config.LLMConfig
	client *http.Client
}

// NewClient creates a new LLM client based on the provider in the config.
func NewClient(cfg config.LLMConfig) Client {
	if cfg.APIKey == "" {
		log.Warnf("GROQ_API_KEY 未配置，LLM 客户端将只返回固定兜底回复")
	}
	if cfg.Generation.Temperature == 0 {
		cfg.Generation.Temperature = 0.7
	}
	if cfg.Generation.MaxTokens == 0 {
		cfg.Generation.MaxTokens = 200
	}
	return &groqClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *groqClient) Reply(ctx context.Context, prompt string, history []Message) string {
	if c.cfg.APIKey == "" {
		return fallbackMissingKey
	}

	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: "system", Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: prompt})

	reply, err := c.complete(ctx, messages)
	if err != nil {
		log.Errorf("调用 LLM 接口失败: %v", err)
		return fallbackUpstream
	}
	return reply
}

// complete 调用 OpenAI 兼容的 /chat/completions 接口，取首个 choice 作为回复。
func (c *groqClient) complete(ctx context.Context, messages []Message) (string, error) {
	reqBody := chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Generation.Temperature,
		MaxTokens:   c.cfg.Generation.MaxTokens,
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call chat api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat api returned non-200 status: %s, body: %s", resp.Status, string(bodyBytes))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat api returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
