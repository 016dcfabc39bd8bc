// Package model 包含了客户端的数据模型定义。
package model

import (
	"fmt"
	"time"
)

// Role 表示消息的发送方。
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Document 是随聊天回复返回的可下载文件引用。
type Document struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	SizeBytes int64  `json:"size"`
}

// SizeLabel 以 KB 为单位、保留一位小数返回文件大小，例如 "12.5 KB"。
func (d Document) SizeLabel() string {
	return fmt.Sprintf("%.1f KB", float64(d.SizeBytes)/1024)
}

// ChatMessage 代表对话日志中的一条消息。
type ChatMessage struct {
	ID                string     `json:"id"`
	Role              Role       `json:"role"` // "user" 或 "assistant"
	Text              string     `json:"text"`
	Documents         []Document `json:"documents,omitempty"`
	ShowInsightPrompt bool       `json:"showInsightPrompt"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// Clone 返回消息的深拷贝，文件列表不与原消息共享底层数组。
func (m ChatMessage) Clone() ChatMessage {
	if m.Documents != nil {
		docs := make([]Document, len(m.Documents))
		copy(docs, m.Documents)
		m.Documents = docs
	}
	return m
}
