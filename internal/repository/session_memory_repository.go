package repository

import (
	"context"
	"sync"

	"cfs-assistant-go/internal/model"
)

// MemorySessionRepository 是进程内的 SessionRepository，用于测试和临时运行。
type MemorySessionRepository struct {
	mu      sync.RWMutex
	entries map[string]string
	// SaveErr 非空时 Save 返回该错误，用于模拟写入失败。
	SaveErr error
}

// NewMemorySessionRepository 创建一个空的内存会话存储。
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{entries: make(map[string]string)}
}

func (r *MemorySessionRepository) Load(_ context.Context) (model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return model.SessionFromRecord(r.entries), nil
}

func (r *MemorySessionRepository) Save(_ context.Context, session model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SaveErr != nil {
		return r.SaveErr
	}
	for k, v := range session.Record() {
		r.entries[k] = v
	}
	return nil
}

func (r *MemorySessionRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range model.SessionKeys {
		delete(r.entries, k)
	}
	return nil
}

// Put 单独写入一个键。
func (r *MemorySessionRepository) Put(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = value
}

// Snapshot 返回当前全部键值的拷贝。
func (r *MemorySessionRepository) Snapshot() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.entries))
	for k, v := range r.entries {
		out[k] = v
	}
	return out
}
