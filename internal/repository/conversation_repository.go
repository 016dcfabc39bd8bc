package repository

import (
	"sync"

	"cfs-assistant-go/internal/model"
)

// ConversationRepository 是当前会话的对话日志：按时间顺序追加，只允许关闭洞察提示这一种修改。
type ConversationRepository interface {
	Append(message model.ChatMessage)
	DeactivatePrompts()
	Reset()
	List() []model.ChatMessage
	Len() int
}

type memoryConversationRepository struct {
	mu       sync.RWMutex
	messages []model.ChatMessage
}

// NewConversationRepository 创建一个空的内存对话日志。
func NewConversationRepository() ConversationRepository {
	return &memoryConversationRepository{}
}

// Append 追加一条消息。若新消息带有洞察提示，先关闭之前所有的提示，
// 保证日志中最多只有一条 ShowInsightPrompt 为 true 的消息。
func (r *memoryConversationRepository) Append(message model.ChatMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if message.ShowInsightPrompt {
		r.deactivateLocked()
	}
	r.messages = append(r.messages, message.Clone())
}

// DeactivatePrompts 关闭所有消息上的洞察提示。
func (r *memoryConversationRepository) DeactivatePrompts() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deactivateLocked()
}

func (r *memoryConversationRepository) deactivateLocked() {
	for i := range r.messages {
		r.messages[i].ShowInsightPrompt = false
	}
}

// Reset 清空对话日志。
func (r *memoryConversationRepository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}

// List 返回日志的拷贝，调用方修改返回值不会影响日志本身。
func (r *memoryConversationRepository) List() []model.ChatMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.ChatMessage, len(r.messages))
	for i, m := range r.messages {
		out[i] = m.Clone()
	}
	return out
}

func (r *memoryConversationRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.messages)
}
