// Package service 包含了应用的业务逻辑层。
package service

import "errors"

var (
	// ErrEmptyMessage 表示聊天请求缺少必填的 message 字段。
	ErrEmptyMessage = errors.New("message is required")
	// ErrNotFound 表示按会话 ID 查询时没有匹配的会话。
	ErrNotFound = errors.New("conversation not found")
)
